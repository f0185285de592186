package repository

import (
	"context"
	"testing"

	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type repos struct {
	locales      LocaleRepository
	tags         TagRepository
	translations TranslationRepository
}

func setupRepositoryTest(t *testing.T) (*gorm.DB, repos) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return testDB, repos{
		locales:      NewLocaleRepository(testDB),
		tags:         NewTagRepository(testDB),
		translations: NewTranslationRepository(testDB),
	}
}

func createLocale(t *testing.T, r repos, code, name string, active bool) *model.Locale {
	t.Helper()
	locale := &model.Locale{Code: code, Name: name, IsActive: active}
	require.NoError(t, r.locales.Create(context.Background(), locale))
	return locale
}

func createTag(t *testing.T, r repos, name string) *model.TranslationTag {
	t.Helper()
	tag := &model.TranslationTag{Name: name, IsActive: true}
	require.NoError(t, r.tags.Create(context.Background(), tag))
	return tag
}

func createTranslation(t *testing.T, r repos, locale *model.Locale, key, value string, tagIDs ...uint) *model.Translation {
	t.Helper()
	tr := &model.Translation{Key: key, Value: value, LocaleID: locale.ID, IsActive: true}
	require.NoError(t, r.translations.Create(context.Background(), tr, tagIDs))
	return tr
}
