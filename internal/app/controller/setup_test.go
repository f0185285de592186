package controller

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/internal/app/repository"
	"github.com/ikkim/translation-backend/internal/app/service"
	"github.com/ikkim/translation-backend/internal/cache"
	"github.com/ikkim/translation-backend/internal/db"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/ikkim/translation-backend/internal/middleware"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testUserID uint = 7

type controllerEnv struct {
	db           *gorm.DB
	router       *gin.Engine
	store        *cache.MemoryStore
	locales      service.LocaleService
	tags         service.TagService
	translations service.TranslationService
}

func setupControllerTest(t *testing.T) *controllerEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	require.NoError(t, RegisterValidators())

	store := cache.NewMemoryStore()
	keys := export.NewKeyDeriver("")
	localeRepo := repository.NewLocaleRepository(testDB)
	tagRepo := repository.NewTagRepository(testDB)
	translationRepo := repository.NewTranslationRepository(testDB)
	invalidator := service.NewCacheInvalidator(store, keys)

	exportService := service.NewExportService(translationRepo, localeRepo, tagRepo, store, nil, service.ExportConfig{
		LocaleTTL: 5 * time.Minute,
		Keys:      keys,
	})
	t.Cleanup(exportService.Wait)

	localeService := service.NewLocaleService(localeRepo, invalidator)
	tagService := service.NewTagService(tagRepo, store, invalidator)
	translationService := service.NewTranslationService(translationRepo, localeRepo, tagRepo, invalidator)

	exportCtrl := NewExportController(exportService)
	localeCtrl := NewLocaleController(localeService)
	tagCtrl := NewTagController(tagService)
	translationCtrl := NewTranslationController(translationService)
	systemCtrl := NewSystemController(store, invalidator, "test", "testing")

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.GET("/health", systemCtrl.Health)

	v1 := router.Group("/api/v1")
	exports := v1.Group("/export")
	{
		exports.GET("/locale/:locale", exportCtrl.ExportLocale)
		exports.GET("/all", exportCtrl.ExportAll)
		exports.POST("/keys", exportCtrl.ExportKeys)
		exports.GET("/tag/:slug", exportCtrl.ExportTag)
		exports.GET("/stats", exportCtrl.Stats)
	}

	authed := v1.Group("")
	authed.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, testUserID)
		c.Next()
	})
	{
		authed.GET("/translations", translationCtrl.ListTranslations)
		authed.GET("/translations/search", translationCtrl.SearchTranslations)
		authed.POST("/translations/bulk", translationCtrl.BulkAction)
		authed.POST("/translations", translationCtrl.CreateTranslation)
		authed.GET("/translations/:id", translationCtrl.GetTranslation)
		authed.PUT("/translations/:id", translationCtrl.UpdateTranslation)
		authed.PATCH("/translations/:id", translationCtrl.UpdateTranslation)
		authed.DELETE("/translations/:id", translationCtrl.DeleteTranslation)

		authed.GET("/locales", localeCtrl.ListLocales)
		authed.POST("/locales", localeCtrl.CreateLocale)
		authed.GET("/locales/:id", localeCtrl.GetLocale)
		authed.PATCH("/locales/:id", localeCtrl.UpdateLocale)
		authed.DELETE("/locales/:id", localeCtrl.DeleteLocale)

		authed.GET("/tags", tagCtrl.ListTags)
		authed.GET("/tags/popular", tagCtrl.PopularTags)
		authed.POST("/tags", tagCtrl.CreateTag)
		authed.GET("/tags/:id", tagCtrl.GetTag)
		authed.PATCH("/tags/:id", tagCtrl.UpdateTag)
		authed.DELETE("/tags/:id", tagCtrl.DeleteTag)

		authed.GET("/system/cache", systemCtrl.CacheStatus)
		authed.DELETE("/system/cache", systemCtrl.FlushCache)
	}

	return &controllerEnv{
		db:           testDB,
		router:       router,
		store:        store,
		locales:      localeService,
		tags:         tagService,
		translations: translationService,
	}
}

func (e *controllerEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *controllerEnv) locale(t *testing.T, code, name string) *model.Locale {
	t.Helper()
	locale, err := e.locales.CreateLocale(t.Context(), service.CreateLocaleInput{Code: code, Name: name})
	require.NoError(t, err)
	return locale
}

func (e *controllerEnv) tag(t *testing.T, name string) *model.TranslationTag {
	t.Helper()
	tag, err := e.tags.CreateTag(t.Context(), service.CreateTagInput{Name: name})
	require.NoError(t, err)
	return tag
}

func (e *controllerEnv) translation(t *testing.T, locale *model.Locale, key, value string, tagIDs ...uint) *model.Translation {
	t.Helper()
	tr, err := e.translations.CreateTranslation(t.Context(), service.CreateTranslationInput{
		Key:      key,
		Value:    value,
		LocaleID: locale.ID,
		TagIDs:   tagIDs,
	})
	require.NoError(t, err)
	return tr
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	code, _ := decodeBody(t, w)["error"].(string)
	return code
}
