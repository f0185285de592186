package service

import (
	"context"
	"testing"

	"github.com/ikkim/translation-backend/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocaleService_CreateLocale(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	locale, err := env.locales.CreateLocale(ctx, CreateLocaleInput{Code: " EN ", Name: "English", NativeName: "English", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, "en", locale.Code)
	assert.True(t, locale.IsActive)
	assert.True(t, locale.IsDefault)

	_, err = env.locales.CreateLocale(ctx, CreateLocaleInput{Code: "en", Name: "Duplicate"})
	assert.ErrorIs(t, err, ErrLocaleCodeExists)

	fr, err := env.locales.CreateLocale(ctx, CreateLocaleInput{Code: "fr", Name: "French", IsDefault: true})
	require.NoError(t, err)
	assert.True(t, fr.IsDefault)

	en, err := env.locales.GetLocale(ctx, locale.ID)
	require.NoError(t, err)
	assert.False(t, en.IsDefault)
}

func TestLocaleService_ListLocales(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	en := env.locale(t, "en", "English")
	env.locale(t, "fr", "French")
	inactive := false
	_, err := env.locales.CreateLocale(ctx, CreateLocaleInput{Code: "de", Name: "German", IsActive: &inactive})
	require.NoError(t, err)
	env.translation(t, en, "home.title", "Welcome")

	locales, total, err := env.locales.ListLocales(ctx, LocaleListOptions{WithStats: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, locales, 2)
	assert.Equal(t, "English", locales[0].Name)
	require.NotNil(t, locales[0].TranslationsCount)
	assert.Equal(t, int64(1), *locales[0].TranslationsCount)

	_, total, err = env.locales.ListLocales(ctx, LocaleListOptions{IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestLocaleService_UpdateLocale_CodeChangeInvalidatesBothCodes(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	en := env.locale(t, "en", "English")
	env.translation(t, en, "home.title", "Welcome")

	before, err := env.exports.ExportLocale(ctx, export.LocaleRequest{Locale: "en"})
	require.NoError(t, err)

	code := "eng"
	updated, err := env.locales.UpdateLocale(ctx, en.ID, UpdateLocaleInput{Code: &code})
	require.NoError(t, err)
	assert.Equal(t, "eng", updated.Code)

	_, ok, err := env.store.MemoryStore.Get(ctx, before.Meta.CacheKey)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = env.exports.ExportLocale(ctx, export.LocaleRequest{Locale: "en"})
	assert.ErrorIs(t, err, ErrLocaleNotFound)

	after, err := env.exports.ExportLocale(ctx, export.LocaleRequest{Locale: "eng"})
	require.NoError(t, err)
	assert.Equal(t, 1, after.Meta.TotalCount)
}

func TestLocaleService_UpdateLocale_NotFound(t *testing.T) {
	env := setupServiceTest(t)
	name := "x"
	_, err := env.locales.UpdateLocale(context.Background(), 404, UpdateLocaleInput{Name: &name})
	assert.ErrorIs(t, err, ErrLocaleNotFound)
}

func TestLocaleService_DeleteLocale(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	en := env.locale(t, "en", "English")
	fr := env.locale(t, "fr", "French")
	env.translation(t, en, "home.title", "Welcome")

	assert.ErrorIs(t, env.locales.DeleteLocale(ctx, en.ID), ErrLocaleInUse)

	isDefault := true
	_, err := env.locales.UpdateLocale(ctx, fr.ID, UpdateLocaleInput{IsDefault: &isDefault})
	require.NoError(t, err)
	assert.ErrorIs(t, env.locales.DeleteLocale(ctx, fr.ID), ErrLocaleIsDefault)

	de := env.locale(t, "de", "German")
	require.NoError(t, env.locales.DeleteLocale(ctx, de.ID))
	_, err = env.locales.GetLocale(ctx, de.ID)
	assert.ErrorIs(t, err, ErrLocaleNotFound)
}
