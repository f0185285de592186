package db

import (
	"testing"

	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedBaseData_Idempotent(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(testDB)

	require.NoError(t, SeedBaseData(testDB))
	require.NoError(t, SeedBaseData(testDB))

	var locales []model.Locale
	require.NoError(t, testDB.Order("id").Find(&locales).Error)
	assert.Len(t, locales, 10)

	defaults := 0
	for _, l := range locales {
		if l.IsDefault {
			defaults++
			assert.Equal(t, "en", l.Code)
		}
	}
	assert.Equal(t, 1, defaults)

	var tag model.TranslationTag
	require.NoError(t, testDB.Where("name = ?", "navigation").First(&tag).Error)
	assert.Equal(t, "navigation", tag.Slug)
	assert.True(t, tag.IsActive)
}

func TestTruncateAllTables(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(testDB)

	require.NoError(t, SeedBaseData(testDB))
	require.NoError(t, TruncateAllTables(testDB))

	var count int64
	require.NoError(t, testDB.Model(&model.Locale{}).Count(&count).Error)
	assert.Zero(t, count)
}
