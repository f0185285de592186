package controller

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRules(t *testing.T) {
	v := validator.New()
	require.NoError(t, registerRules(v))

	type payload struct {
		Key    string `validate:"translation_key"`
		Slug   string `validate:"tag_slug"`
		Locale string `validate:"locale_code"`
		Color  string `validate:"hex_color"`
	}

	assert.NoError(t, v.Struct(payload{Key: "home.title", Slug: "landing-page", Locale: "en", Color: "#1a2B3c"}))

	err := v.Struct(payload{Key: "home title", Slug: "Landing", Locale: "english", Color: "red"})
	require.Error(t, err)
	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 4)
}

func TestRegisterRules_UnsupportedEngine(t *testing.T) {
	err := registerRules(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not *validator.Validate")
}

func TestRegisterValidators_Idempotent(t *testing.T) {
	require.NoError(t, RegisterValidators())
	assert.NoError(t, RegisterValidators())
}
