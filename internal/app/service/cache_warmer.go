package service

import (
	"context"

	"github.com/ikkim/translation-backend/internal/app/repository"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/ikkim/translation-backend/pkg/logger"
)

// WarmUpResult reports what a warm-up pass loaded.
type WarmUpResult struct {
	Locales []string `json:"locales"`
	Failed  []string `json:"failed"`
}

type CacheWarmer interface {
	WarmUp(ctx context.Context) (*WarmUpResult, error)
}

type cacheWarmer struct {
	exports    ExportService
	localeRepo repository.LocaleRepository
}

func NewCacheWarmer(exports ExportService, localeRepo repository.LocaleRepository) CacheWarmer {
	return &cacheWarmer{exports: exports, localeRepo: localeRepo}
}

// WarmUp loads the stats entry and the default export of every active locale.
// A failing locale is recorded and the pass continues.
func (w *cacheWarmer) WarmUp(ctx context.Context) (*WarmUpResult, error) {
	codes, err := w.localeRepo.ActiveCodes(ctx)
	if err != nil {
		return nil, transient("list active locales", err)
	}

	result := &WarmUpResult{Locales: []string{}, Failed: []string{}}
	if _, err := w.exports.Stats(ctx); err != nil {
		logger.Warn("Cache warm-up could not load stats", map[string]interface{}{
			"error": err.Error(),
		})
	}

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := w.exports.ExportLocale(ctx, export.LocaleRequest{Locale: code}); err != nil {
			logger.Warn("Cache warm-up failed for locale", map[string]interface{}{
				"locale": code,
				"error":  err.Error(),
			})
			result.Failed = append(result.Failed, code)
			continue
		}
		result.Locales = append(result.Locales, code)
	}

	logger.Info("Export cache warmed", map[string]interface{}{
		"locales": len(result.Locales),
		"failed":  len(result.Failed),
	})
	return result, nil
}
