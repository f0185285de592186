package service

import (
	"context"
	"testing"

	"github.com/ikkim/translation-backend/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheWarmer_WarmUp(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	en := env.locale(t, "en", "English")
	env.locale(t, "fr", "French")
	inactive := false
	_, err := env.locales.CreateLocale(ctx, CreateLocaleInput{Code: "de", Name: "German", IsActive: &inactive})
	require.NoError(t, err)
	env.translation(t, en, "home.title", "Welcome")

	warmer := NewCacheWarmer(env.exports, env.localeRepo)
	result, err := warmer.WarmUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr"}, result.Locales)
	assert.Empty(t, result.Failed)

	keys := export.NewKeyDeriver("")
	req := export.LocaleRequest{Locale: "en"}.Normalize()
	_, ok, err := env.store.MemoryStore.Get(ctx, keys.Derive(export.KindLocale, "en", req.Params()))
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = env.store.MemoryStore.Get(ctx, keys.Fixed(export.KindStats))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheWarmer_CancelledContext(t *testing.T) {
	env := setupServiceTest(t)
	env.locale(t, "en", "English")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	warmer := NewCacheWarmer(env.exports, env.localeRepo)
	_, err := warmer.WarmUp(ctx)
	assert.Error(t, err)
}
