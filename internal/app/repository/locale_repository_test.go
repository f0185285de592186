package repository

import (
	"context"
	"testing"

	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLocaleRepository_CreateLowercasesCode(t *testing.T) {
	_, r := setupRepositoryTest(t)

	locale := &model.Locale{Code: " EN ", Name: "English", IsActive: true}
	require.NoError(t, r.locales.Create(context.Background(), locale))
	assert.NotZero(t, locale.ID)

	found, err := r.locales.FindByCode(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, locale.ID, found.ID)
}

func TestLocaleRepository_DefaultIsExclusive(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := &model.Locale{Code: "en", Name: "English", IsActive: true, IsDefault: true}
	require.NoError(t, r.locales.Create(ctx, en))

	fr := &model.Locale{Code: "fr", Name: "French", IsActive: true, IsDefault: true}
	require.NoError(t, r.locales.Create(ctx, fr))

	def, err := r.locales.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fr", def.Code)

	en.IsDefault = true
	require.NoError(t, r.locales.Update(ctx, en))

	reloaded, err := r.locales.FindByID(ctx, fr.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)

	def, err = r.locales.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en", def.Code)
}

func TestLocaleRepository_FindWithFilter(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := createLocale(t, r, "en", "English", true)
	createLocale(t, r, "de", "German", false)
	createTranslation(t, r, en, "app.title", "My App")
	inactive := createTranslation(t, r, en, "app.old", "Old")
	inactive.IsActive = false
	require.NoError(t, r.translations.Update(ctx, inactive, nil, false))

	all, total, err := r.locales.FindWithFilter(ctx, LocaleFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, all, 2)
	assert.Equal(t, "English", all[0].Name)
	assert.Nil(t, all[0].TranslationsCount)

	active, total, err := r.locales.FindWithFilter(ctx, LocaleFilter{ActiveOnly: true, WithStats: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, active, 1)
	require.NotNil(t, active[0].TranslationsCount)
	assert.Equal(t, int64(2), *active[0].TranslationsCount)
	assert.Equal(t, int64(1), *active[0].ActiveTranslationsCount)

	paged, _, err := r.locales.FindWithFilter(ctx, LocaleFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "German", paged[0].Name)
}

func TestLocaleRepository_ActiveCodes(t *testing.T) {
	_, r := setupRepositoryTest(t)

	createLocale(t, r, "fr", "French", true)
	createLocale(t, r, "en", "English", true)
	createLocale(t, r, "de", "German", false)

	codes, err := r.locales.ActiveCodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr"}, codes)
}

func TestLocaleRepository_DuplicateCode(t *testing.T) {
	_, r := setupRepositoryTest(t)

	createLocale(t, r, "en", "English", true)
	err := r.locales.Create(context.Background(), &model.Locale{Code: "en", Name: "Again", IsActive: true})
	assert.Error(t, err)
}

func TestLocaleRepository_Delete(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := createLocale(t, r, "en", "English", true)
	count, err := r.locales.CountTranslations(ctx, en.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, r.locales.Delete(ctx, en.ID))
	_, err = r.locales.FindByID(ctx, en.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, r.locales.Delete(ctx, en.ID), gorm.ErrRecordNotFound)
}
