package controller

import (
	"fmt"
	"net/http"
	"testing"

	apperrors "github.com/ikkim/translation-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocaleController_CreateLocale(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, http.MethodPost, "/api/v1/locales", map[string]interface{}{
		"code":        "fr",
		"name":        "French",
		"native_name": "Français",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, "Locale created successfully", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "fr", data["code"])
	assert.Equal(t, true, data["is_active"])
	assert.Equal(t, false, data["is_default"])
}

func TestLocaleController_CreateLocale_Validation(t *testing.T) {
	env := setupControllerTest(t)
	env.locale(t, "en", "English")

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
		code   string
		field  string
	}{
		{"missing name", map[string]interface{}{"code": "de"}, http.StatusBadRequest, apperrors.ValidationInvalidInput, "name"},
		{"uppercase code", map[string]interface{}{"code": "DE", "name": "German"}, http.StatusBadRequest, apperrors.ValidationInvalidInput, "code"},
		{"long code", map[string]interface{}{"code": "deut", "name": "German"}, http.StatusBadRequest, apperrors.ValidationInvalidInput, "code"},
		{"duplicate code", map[string]interface{}{"code": "en", "name": "English again"}, http.StatusConflict, apperrors.LocaleCodeExists, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/locales", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			body := decodeBody(t, w)
			assert.Equal(t, tt.code, body["error"])
			if tt.field != "" {
				assert.Contains(t, body["fields"], tt.field)
			}
		})
	}
}

func TestLocaleController_ListLocales(t *testing.T) {
	env := setupControllerTest(t)
	en := env.locale(t, "en", "English")
	env.locale(t, "fr", "French")
	env.translation(t, en, "home.title", "Welcome")

	w := env.do(t, http.MethodGet, "/api/v1/locales?with_stats=true&per_page=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "en", first["code"])
	assert.Equal(t, float64(1), first["translations_count"])

	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["current_page"])
	assert.Equal(t, float64(1), meta["per_page"])
	assert.Equal(t, float64(2), meta["total"])
	assert.Equal(t, float64(2), meta["last_page"])
}

func TestLocaleController_ListLocales_RejectsUnknownParams(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, http.MethodGet, "/api/v1/locales?colour=blue", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, apperrors.ValidationInvalidInput, body["error"])
	assert.Contains(t, body["fields"], "colour")
}

func TestLocaleController_UpdateLocale(t *testing.T) {
	env := setupControllerTest(t)
	en := env.locale(t, "en", "English")

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/locales/%d", en.ID), map[string]interface{}{
		"name":      "English (US)",
		"is_active": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "English (US)", data["name"])
	assert.Equal(t, false, data["is_active"])

	w = env.do(t, http.MethodPatch, "/api/v1/locales/9999", map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.LocaleNotFound, errorCode(t, w))
}

func TestLocaleController_DeleteLocale(t *testing.T) {
	env := setupControllerTest(t)
	en := env.locale(t, "en", "English")
	fr := env.locale(t, "fr", "French")
	env.translation(t, en, "home.title", "Welcome")

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/locales/%d", en.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.LocaleInUse, errorCode(t, w))

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/locales/%d", fr.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/locales/%d", fr.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/locales/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationInvalidID, errorCode(t, w))
}

func TestLocaleController_DeleteDefaultLocale(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, http.MethodPost, "/api/v1/locales", map[string]interface{}{
		"code":       "en",
		"name":       "English",
		"is_default": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody(t, w)["data"].(map[string]interface{})["id"].(float64)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/locales/%d", int(id)), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.LocaleDefaultProtected, errorCode(t, w))
}
