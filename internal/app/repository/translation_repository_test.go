package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslationRepository_CreateWithTags(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := createLocale(t, r, "en", "English", true)
	web := createTag(t, r, "Web")
	ui := createTag(t, r, "UI")

	tr := &model.Translation{
		Key:      "  Welcome.Message ",
		Value:    "Welcome!",
		LocaleID: en.ID,
		IsActive: true,
		Metadata: model.Metadata{"context": "homepage"},
	}
	require.NoError(t, r.translations.Create(ctx, tr, []uint{web.ID, ui.ID, web.ID}))
	assert.Equal(t, "welcome.message", tr.Key)

	found, err := r.translations.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Locale)
	assert.Equal(t, "en", found.Locale.Code)
	require.Len(t, found.Tags, 2)
	assert.Equal(t, "UI", found.Tags[0].Name)
	assert.Equal(t, "homepage", found.Metadata["context"])
}

func TestTranslationRepository_UniqueKeyPerLocale(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := createLocale(t, r, "en", "English", true)
	fr := createLocale(t, r, "fr", "French", true)
	first := createTranslation(t, r, en, "app.title", "My App")
	createTranslation(t, r, fr, "app.title", "Mon App")

	err := r.translations.Create(ctx, &model.Translation{Key: "APP.TITLE", Value: "x", LocaleID: en.ID, IsActive: true}, nil)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	exists, err := r.translations.ExistsKey(ctx, "App.Title", en.ID, 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = r.translations.ExistsKey(ctx, "app.title", en.ID, first.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTranslationRepository_UpdateReplacesTagsOnlyWhenAsked(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := createLocale(t, r, "en", "English", true)
	web := createTag(t, r, "Web")
	mobile := createTag(t, r, "Mobile")
	tr := createTranslation(t, r, en, "a.b", "c", web.ID)

	tr.Value = "changed"
	require.NoError(t, r.translations.Update(ctx, tr, nil, false))
	found, err := r.translations.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed", found.Value)
	require.Len(t, found.Tags, 1)

	require.NoError(t, r.translations.Update(ctx, tr, []uint{mobile.ID}, true))
	found, err = r.translations.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, found.Tags, 1)
	assert.Equal(t, mobile.ID, found.Tags[0].ID)
}

func TestTranslationRepository_FindWithFilter(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := createLocale(t, r, "en", "English", true)
	fr := createLocale(t, r, "fr", "French", true)
	ui := createTag(t, r, "UI")

	createTranslation(t, r, en, "welcome.message", "Welcome!", ui.ID)
	createTranslation(t, r, en, "app.title", "My App")
	createTranslation(t, r, fr, "welcome.message", "Bienvenue!")
	off := createTranslation(t, r, fr, "app.title", "Mon App")
	off.IsActive = false
	now := time.Now()
	off.VerifiedAt = &now
	require.NoError(t, r.translations.Update(ctx, off, nil, false))

	tests := []struct {
		name   string
		filter export.Filter
		want   int64
	}{
		{"no filter", export.Filter{}, 4},
		{"locale", export.Filter{LocaleCode: "fr"}, 2},
		{"tag", export.Filter{TagSlugs: []string{"ui"}}, 1},
		{"unknown tag", export.Filter{TagSlugs: []string{"nope"}}, 0},
		{"inactive", export.Filter{IsActive: boolPtr(false)}, 1},
		{"verified", export.Filter{IsVerified: boolPtr(true)}, 1},
		{"unverified", export.Filter{IsVerified: boolPtr(false)}, 3},
		{"search key", export.Filter{Search: "WELCOME"}, 2},
		{"search value", export.Filter{Search: "bienvenue"}, 1},
		{"keys", export.Filter{Keys: []string{"app.title"}}, 2},
		{"created range", export.Filter{CreatedFrom: timePtr(now.Add(-time.Hour)), CreatedTo: timePtr(now.Add(time.Hour))}, 4},
		{"created future", export.Filter{CreatedFrom: timePtr(now.Add(time.Hour))}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, total, err := r.translations.FindWithFilter(ctx, tt.filter, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, found, int(tt.want))
		})
	}
}

func TestTranslationRepository_FindWithFilterSortAndPage(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := createLocale(t, r, "en", "English", true)
	createTranslation(t, r, en, "b.key", "2")
	createTranslation(t, r, en, "a.key", "1")
	createTranslation(t, r, en, "c.key", "3")

	found, total, err := r.translations.FindWithFilter(ctx, export.Filter{SortBy: export.SortKey, WithLocale: true, WithTags: true}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, found, 2)
	assert.Equal(t, "a.key", found[0].Key)
	assert.Equal(t, "b.key", found[1].Key)
	require.NotNil(t, found[0].Locale)

	found, _, err = r.translations.FindWithFilter(ctx, export.Filter{SortBy: export.SortKey, SortDesc: true}, 2, 2)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a.key", found[0].Key)
}

func TestTranslationRepository_RankedSearch(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := createLocale(t, r, "en", "English", true)
	createTranslation(t, r, en, "other.thing", "see the welcome page")
	createTranslation(t, r, en, "greeting.text", "Welcome aboard")
	createTranslation(t, r, en, "welcome.title", "Hello")

	filter, err := export.BuildSearchFilter(export.FilterParams{Q: "welcome"})
	require.NoError(t, err)

	found, total, err := r.translations.FindWithFilter(ctx, filter, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, found, 3)
	assert.Equal(t, "welcome.title", found[0].Key)
	assert.Equal(t, "greeting.text", found[1].Key)
	assert.Equal(t, "other.thing", found[2].Key)
}

func TestTranslationRepository_FindExportRows(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := createLocale(t, r, "en", "English", true)
	fr := createLocale(t, r, "fr", "French", true)
	de := createLocale(t, r, "de", "German", false)
	ui := createTag(t, r, "UI")

	createTranslation(t, r, fr, "welcome.message", "Bienvenue!")
	createTranslation(t, r, en, "welcome.message", "Welcome!", ui.ID)
	createTranslation(t, r, en, "app.title", "My App")
	createTranslation(t, r, de, "app.title", "Meine App")

	rows, err := r.translations.FindExportRows(ctx, export.LocaleRequest{Locale: "en"}.Normalize().Filter())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "app.title", rows[0].Key)
	assert.Equal(t, "en", rows[0].LocaleCode)
	assert.False(t, rows[0].UpdatedAt.IsZero())

	all, err := r.translations.FindExportRows(ctx, export.AllRequest{ActiveOnly: true}.Normalize().Filter())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"en", "en", "fr"}, []string{all[0].LocaleCode, all[1].LocaleCode, all[2].LocaleCode})

	keys, err := export.KeysRequest{Keys: []string{"welcome.message"}}.Normalize()
	require.NoError(t, err)
	byKey, err := r.translations.FindExportRows(ctx, keys.Filter())
	require.NoError(t, err)
	require.Len(t, byKey, 2)

	tagged, err := r.translations.FindExportRows(ctx, export.TagRequest{Tag: "ui"}.Normalize().Filter())
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "Welcome!", tagged[0].Value)
}

func TestTranslationRepository_Bulk(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := createLocale(t, r, "en", "English", true)
	fr := createLocale(t, r, "fr", "French", true)
	web := createTag(t, r, "Web")
	a := createTranslation(t, r, en, "a", "1", web.ID)
	b := createTranslation(t, r, fr, "b", "2")
	c := createTranslation(t, r, en, "c", "3")

	codes, err := r.translations.LocaleCodesByIDs(ctx, []uint{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr"}, codes)

	affected, err := r.translations.BulkUpdate(ctx, []uint{a.ID, b.ID}, map[string]interface{}{"is_active": false})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	_, total, err := r.translations.FindWithFilter(ctx, export.Filter{IsActive: boolPtr(false)}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	affected, err = r.translations.BulkDelete(ctx, []uint{a.ID, c.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	count, err := r.tags.CountTranslations(ctx, web.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTranslationRepository_Stats(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := createLocale(t, r, "en", "English", true)
	fr := createLocale(t, r, "fr", "French", true)
	createLocale(t, r, "de", "German", false)

	createTranslation(t, r, en, "a", "1")
	createTranslation(t, r, en, "b", "2")
	last := createTranslation(t, r, fr, "a", "un")
	now := time.Now()
	last.VerifiedAt = &now
	last.IsActive = false
	require.NoError(t, r.translations.Update(ctx, last, nil, false))

	stats, err := r.translations.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalTranslations)
	assert.Equal(t, int64(2), stats.ActiveTranslations)
	assert.Equal(t, int64(1), stats.VerifiedTranslations)
	assert.Equal(t, int64(2), stats.TotalLocales)
	require.Len(t, stats.TranslationsPerLocale, 1)
	assert.Equal(t, LocaleTranslationCount{Code: "en", Name: "English", Count: 2}, stats.TranslationsPerLocale[0])
	require.NotNil(t, stats.LastUpdated)
}

func TestTranslationRepository_Delete(t *testing.T) {
	_, r := setupRepositoryTest(t)
	ctx := context.Background()

	en := createLocale(t, r, "en", "English", true)
	tr := createTranslation(t, r, en, "a", "1")

	require.NoError(t, r.translations.Delete(ctx, tr.ID))
	assert.ErrorIs(t, r.translations.Delete(ctx, tr.ID), gorm.ErrRecordNotFound)
}

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }
