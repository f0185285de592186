package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/ikkim/translation-backend/internal/app/repository"
	"github.com/ikkim/translation-backend/internal/cache"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/ikkim/translation-backend/internal/storage"
	"github.com/ikkim/translation-backend/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	TagExportTTL   = 600 * time.Second
	KeysExportTTL  = 300 * time.Second
	StatsExportTTL = 1800 * time.Second

	defaultMirrorTimeout = 30 * time.Second
)

var tracer = otel.Tracer("github.com/ikkim/translation-backend/internal/app/service")

type LocaleExportMeta struct {
	TotalCount  int        `json:"total_count"`
	ActiveCount int        `json:"active_count"`
	LastUpdated *time.Time `json:"last_updated"`
	GeneratedAt time.Time  `json:"generated_at"`
	CacheKey    string     `json:"cache_key"`
	CDNURL      string     `json:"cdn_url,omitempty"`
}

type LocaleExport struct {
	Locale       string           `json:"locale"`
	Translations json.RawMessage  `json:"translations"`
	Meta         LocaleExportMeta `json:"meta"`
}

type AllExportMeta struct {
	TotalLocales      int        `json:"total_locales"`
	TotalTranslations int        `json:"total_translations"`
	LastUpdated       *time.Time `json:"last_updated"`
	GeneratedAt       time.Time  `json:"generated_at"`
	CacheKey          string     `json:"cache_key"`
	CDNURL            string     `json:"cdn_url,omitempty"`
}

type AllExport struct {
	Locales      []string        `json:"locales"`
	Translations json.RawMessage `json:"translations"`
	Meta         AllExportMeta   `json:"meta"`
}

type KeysExportMeta struct {
	RequestedKeys     int       `json:"requested_keys"`
	FoundTranslations int       `json:"found_translations"`
	GeneratedAt       time.Time `json:"generated_at"`
}

type KeysExport struct {
	Keys         []string        `json:"keys"`
	Translations json.RawMessage `json:"translations"`
	Meta         KeysExportMeta  `json:"meta"`
}

type TagExportMeta struct {
	TotalCount  int       `json:"total_count"`
	Locales     []string  `json:"locales"`
	GeneratedAt time.Time `json:"generated_at"`
}

type TagExport struct {
	Tag          string          `json:"tag"`
	Translations json.RawMessage `json:"translations"`
	Meta         TagExportMeta   `json:"meta"`
}

type ExportStats struct {
	TotalTranslations     int64                               `json:"total_translations"`
	ActiveTranslations    int64                               `json:"active_translations"`
	VerifiedTranslations  int64                               `json:"verified_translations"`
	TotalLocales          int64                               `json:"total_locales"`
	TranslationsPerLocale []repository.LocaleTranslationCount `json:"translations_per_locale"`
	LastUpdated           *time.Time                          `json:"last_updated"`
}

type StatsCacheInfo struct {
	GeneratedAt time.Time `json:"generated_at"`
	TTLSeconds  int       `json:"ttl_seconds"`
}

type StatsExport struct {
	Stats ExportStats    `json:"stats"`
	Cache StatsCacheInfo `json:"cache"`
}

// cached entries hold everything except the per-response timestamps and keys
type localeEntry struct {
	Translations json.RawMessage `json:"translations"`
	TotalCount   int             `json:"total_count"`
	ActiveCount  int             `json:"active_count"`
	LastUpdated  *time.Time      `json:"last_updated"`
}

type allEntry struct {
	Locales      []string        `json:"locales"`
	Translations json.RawMessage `json:"translations"`
	TotalCount   int             `json:"total_count"`
	LastUpdated  *time.Time      `json:"last_updated"`
}

type keysEntry struct {
	Translations json.RawMessage `json:"translations"`
	FoundCount   int             `json:"found_count"`
}

type tagEntry struct {
	Translations json.RawMessage `json:"translations"`
	TotalCount   int             `json:"total_count"`
	Locales      []string        `json:"locales"`
}

// ExportService serves the cached export projections. Each request resolves a
// fingerprint, returns the stored entry on a hit, and otherwise fetches,
// shapes, stores and returns. Locale and all-locale exports are also
// mirrored to the CDN sink when one is configured.
type ExportService interface {
	ExportLocale(ctx context.Context, req export.LocaleRequest) (*LocaleExport, error)
	ExportAll(ctx context.Context, req export.AllRequest) (*AllExport, error)
	ExportKeys(ctx context.Context, req export.KeysRequest) (*KeysExport, error)
	ExportTag(ctx context.Context, req export.TagRequest) (*TagExport, error)
	Stats(ctx context.Context) (*StatsExport, error)
	// Wait blocks until pending CDN uploads finish.
	Wait()
}

type ExportConfig struct {
	LocaleTTL     time.Duration
	Keys          export.KeyDeriver
	MirrorTimeout time.Duration
}

type exportService struct {
	translationRepo repository.TranslationRepository
	localeRepo      repository.LocaleRepository
	tagRepo         repository.TagRepository
	store           cache.Store
	sink            storage.Sink
	cfg             ExportConfig
	now             func() time.Time

	mirrors sync.WaitGroup
	// mirrorMu guards pending. A path present in pending has an upload in
	// flight; a non-nil value is the newest body waiting to follow it.
	mirrorMu sync.Mutex
	pending  map[string][]byte
}

// NewExportService wires the orchestrator. sink may be nil to disable CDN mirroring.
func NewExportService(
	translationRepo repository.TranslationRepository,
	localeRepo repository.LocaleRepository,
	tagRepo repository.TagRepository,
	store cache.Store,
	sink storage.Sink,
	cfg ExportConfig,
) ExportService {
	cfg.Keys = export.NewKeyDeriver(cfg.Keys.Namespace)
	if cfg.LocaleTTL <= 0 {
		cfg.LocaleTTL = 300 * time.Second
	}
	if cfg.MirrorTimeout <= 0 {
		cfg.MirrorTimeout = defaultMirrorTimeout
	}
	return &exportService{
		translationRepo: translationRepo,
		localeRepo:      localeRepo,
		tagRepo:         tagRepo,
		store:           store,
		sink:            sink,
		cfg:             cfg,
		now:             time.Now,
		pending:         make(map[string][]byte),
	}
}

func (s *exportService) ExportLocale(ctx context.Context, req export.LocaleRequest) (*LocaleExport, error) {
	req = req.Normalize()
	ctx, span := tracer.Start(ctx, "export.locale", trace.WithAttributes(attribute.String("export.locale", req.Locale)))
	defer span.End()

	if err := s.requireActiveLocale(ctx, req.Locale); err != nil {
		return nil, endSpan(span, err)
	}

	params := req.Params()
	key := s.cfg.Keys.Derive(export.KindLocale, req.Locale, params)
	groups := []string{cache.GroupTranslations, cache.LocaleGroup(req.Locale)}
	if len(req.Tags) > 0 {
		groups = append(groups, cache.GroupTags)
	}

	entry, err := remember(ctx, s, export.KindLocale, key, s.cfg.LocaleTTL, groups, func(ctx context.Context) (*localeEntry, error) {
		rows, err := s.translationRepo.FindExportRows(ctx, req.Filter())
		if err != nil {
			return nil, transient("fetch locale export", err)
		}
		translations, err := json.Marshal(export.Shape(rows, shapeOptions(req.Format, req.IncludeMetadata)))
		if err != nil {
			return nil, err
		}
		return &localeEntry{
			Translations: translations,
			TotalCount:   len(rows),
			ActiveCount:  export.CountActive(rows),
			LastUpdated:  export.LastUpdated(rows),
		}, nil
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	resp := &LocaleExport{
		Locale:       req.Locale,
		Translations: entry.Translations,
		Meta: LocaleExportMeta{
			TotalCount:  entry.TotalCount,
			ActiveCount: entry.ActiveCount,
			LastUpdated: entry.LastUpdated,
			GeneratedAt: s.now().UTC(),
			CacheKey:    key,
		},
	}
	if s.sink != nil {
		path := storage.ExportPath(string(export.KindLocale), req.Locale, export.Hash(params), req.IsDefault())
		resp.Meta.CDNURL = s.sink.URL(path)
		s.mirror(ctx, export.KindLocale, path, resp)
	}
	return resp, nil
}

func (s *exportService) ExportAll(ctx context.Context, req export.AllRequest) (*AllExport, error) {
	req = req.Normalize()
	ctx, span := tracer.Start(ctx, "export.all")
	defer span.End()

	params := req.Params()
	key := s.cfg.Keys.Derive(export.KindAll, "all", params)
	groups := []string{cache.GroupTranslations, cache.GroupTags, cache.GroupLocales}

	entry, err := remember(ctx, s, export.KindAll, key, s.cfg.LocaleTTL, groups, func(ctx context.Context) (*allEntry, error) {
		rows, err := s.translationRepo.FindExportRows(ctx, req.Filter())
		if err != nil {
			return nil, transient("fetch all-locales export", err)
		}
		shaped, codes := export.ShapeByLocale(rows, shapeOptions(req.Format, req.IncludeMetadata))
		translations, err := json.Marshal(shaped)
		if err != nil {
			return nil, err
		}
		if codes == nil {
			codes = []string{}
		}
		return &allEntry{
			Locales:      codes,
			Translations: translations,
			TotalCount:   len(rows),
			LastUpdated:  export.LastUpdated(rows),
		}, nil
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	resp := &AllExport{
		Locales:      entry.Locales,
		Translations: entry.Translations,
		Meta: AllExportMeta{
			TotalLocales:      len(entry.Locales),
			TotalTranslations: entry.TotalCount,
			LastUpdated:       entry.LastUpdated,
			GeneratedAt:       s.now().UTC(),
			CacheKey:          key,
		},
	}
	if s.sink != nil {
		path := storage.ExportPath(string(export.KindAll), "all", export.Hash(params), req.IsDefault())
		resp.Meta.CDNURL = s.sink.URL(path)
		s.mirror(ctx, export.KindAll, path, resp)
	}
	return resp, nil
}

func (s *exportService) ExportKeys(ctx context.Context, req export.KeysRequest) (*KeysExport, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "export.keys", trace.WithAttributes(attribute.Int("export.keys", len(req.Keys))))
	defer span.End()

	for _, code := range req.Locales {
		if err := s.requireLocale(ctx, code); err != nil {
			return nil, endSpan(span, err)
		}
	}

	key := s.cfg.Keys.Derive(export.KindKeys, req.Identifier(), req.Params())
	groups := []string{cache.GroupTranslations, cache.GroupLocales}
	for _, code := range req.Locales {
		groups = append(groups, cache.LocaleGroup(code))
	}

	entry, err := remember(ctx, s, export.KindKeys, key, KeysExportTTL, groups, func(ctx context.Context) (*keysEntry, error) {
		rows, err := s.translationRepo.FindExportRows(ctx, req.Filter())
		if err != nil {
			return nil, transient("fetch keys export", err)
		}
		shaped, found := export.ShapeByKeys(rows, shapeOptions(export.FormatFlat, req.IncludeMetadata))
		translations, err := json.Marshal(shaped)
		if err != nil {
			return nil, err
		}
		return &keysEntry{Translations: translations, FoundCount: found}, nil
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	return &KeysExport{
		Keys:         req.Keys,
		Translations: entry.Translations,
		Meta: KeysExportMeta{
			RequestedKeys:     len(req.Keys),
			FoundTranslations: entry.FoundCount,
			GeneratedAt:       s.now().UTC(),
		},
	}, nil
}

func (s *exportService) ExportTag(ctx context.Context, req export.TagRequest) (*TagExport, error) {
	req = req.Normalize()
	ctx, span := tracer.Start(ctx, "export.tag", trace.WithAttributes(attribute.String("export.tag", req.Tag)))
	defer span.End()

	if _, err := s.tagRepo.FindBySlug(ctx, req.Tag); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, endSpan(span, ErrTagNotFound)
		}
		return nil, endSpan(span, transient("find tag", err))
	}
	for _, code := range req.Locales {
		if err := s.requireLocale(ctx, code); err != nil {
			return nil, endSpan(span, err)
		}
	}

	key := s.cfg.Keys.Derive(export.KindTag, req.Tag, req.Params())
	groups := []string{cache.GroupTranslations, cache.GroupTags, cache.GroupLocales}

	entry, err := remember(ctx, s, export.KindTag, key, TagExportTTL, groups, func(ctx context.Context) (*tagEntry, error) {
		rows, err := s.translationRepo.FindExportRows(ctx, req.Filter())
		if err != nil {
			return nil, transient("fetch tag export", err)
		}
		shaped, codes := export.ShapeByLocale(rows, shapeOptions(req.Format, req.IncludeMetadata))
		translations, err := json.Marshal(shaped)
		if err != nil {
			return nil, err
		}
		if codes == nil {
			codes = []string{}
		}
		return &tagEntry{Translations: translations, TotalCount: len(rows), Locales: codes}, nil
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	return &TagExport{
		Tag:          req.Tag,
		Translations: entry.Translations,
		Meta: TagExportMeta{
			TotalCount:  entry.TotalCount,
			Locales:     entry.Locales,
			GeneratedAt: s.now().UTC(),
		},
	}, nil
}

func (s *exportService) Stats(ctx context.Context) (*StatsExport, error) {
	ctx, span := tracer.Start(ctx, "export.stats")
	defer span.End()

	key := s.cfg.Keys.Fixed(export.KindStats)
	groups := []string{cache.GroupTranslations, cache.GroupLocales}

	stats, err := remember(ctx, s, export.KindStats, key, StatsExportTTL, groups, func(ctx context.Context) (*ExportStats, error) {
		st, err := s.translationRepo.Stats(ctx)
		if err != nil {
			return nil, transient("aggregate export stats", err)
		}
		perLocale := st.TranslationsPerLocale
		if perLocale == nil {
			perLocale = []repository.LocaleTranslationCount{}
		}
		return &ExportStats{
			TotalTranslations:     st.TotalTranslations,
			ActiveTranslations:    st.ActiveTranslations,
			VerifiedTranslations:  st.VerifiedTranslations,
			TotalLocales:          st.TotalLocales,
			TranslationsPerLocale: perLocale,
			LastUpdated:           st.LastUpdated,
		}, nil
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	return &StatsExport{
		Stats: *stats,
		Cache: StatsCacheInfo{
			GeneratedAt: s.now().UTC(),
			TTLSeconds:  int(StatsExportTTL / time.Second),
		},
	}, nil
}

func (s *exportService) Wait() {
	s.mirrors.Wait()
}

// remember returns the cached entry under key, or builds, stores and returns it.
// A cache read error is a TransientStoreError; a cache write error is logged
// and the built entry is still returned. An undecodable entry counts as a miss.
func remember[T any](
	ctx context.Context,
	s *exportService,
	kind export.Kind,
	key string,
	ttl time.Duration,
	groups []string,
	build func(context.Context) (*T, error),
) (*T, error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("cache.key", key))

	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		logger.Error("Export cache read failed", err, map[string]interface{}{
			"kind":      kind,
			"cache_key": key,
		})
		return nil, transient("read export cache", err)
	}

	if ok {
		var entry T
		decodeErr := json.Unmarshal(raw, &entry)
		if decodeErr == nil {
			exportCacheLookups.WithLabelValues(string(kind), "hit").Inc()
			span.SetAttributes(attribute.Bool("cache.hit", true))
			logger.Debug("Export cache hit", map[string]interface{}{
				"kind":      kind,
				"cache_key": key,
			})
			return &entry, nil
		}
		logger.Warn("Discarding undecodable export cache entry", map[string]interface{}{
			"kind":      kind,
			"cache_key": key,
			"error":     decodeErr.Error(),
		})
		if err := s.store.Forget(ctx, key); err != nil {
			logger.Error("Failed to forget undecodable cache entry", err, map[string]interface{}{
				"cache_key": key,
			})
		}
	}

	exportCacheLookups.WithLabelValues(string(kind), "miss").Inc()
	span.SetAttributes(attribute.Bool("cache.hit", false))

	start := time.Now()
	entry, err := build(ctx)
	if err != nil {
		logger.Error("Failed to build export", err, map[string]interface{}{
			"kind":      kind,
			"cache_key": key,
		})
		return nil, err
	}
	exportBuildSeconds.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, key, payload, ttl, groups...); err != nil {
		logger.Error("Failed to store export in cache", err, map[string]interface{}{
			"kind":      kind,
			"cache_key": key,
		})
	}

	logger.Debug("Export built", map[string]interface{}{
		"kind":        kind,
		"cache_key":   key,
		"bytes":       len(payload),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return entry, nil
}

// mirror uploads the response in the background. While a path is uploading,
// later bodies for it are coalesced and the newest one is uploaded once the
// current upload returns, so the CDN always ends on the latest response.
// Failures are logged and counted only.
func (s *exportService) mirror(ctx context.Context, kind export.Kind, path string, resp interface{}) {
	body, err := json.Marshal(resp)
	if err != nil {
		logger.Error("Failed to encode export for CDN", err, map[string]interface{}{
			"path": path,
		})
		return
	}

	s.mirrorMu.Lock()
	if _, busy := s.pending[path]; busy {
		s.pending[path] = body
		s.mirrorMu.Unlock()
		return
	}
	s.pending[path] = nil
	s.mirrorMu.Unlock()

	base := context.WithoutCancel(ctx)
	s.mirrors.Add(1)
	go func() {
		defer s.mirrors.Done()
		for {
			s.upload(base, kind, path, body)

			s.mirrorMu.Lock()
			next := s.pending[path]
			if next == nil {
				delete(s.pending, path)
				s.mirrorMu.Unlock()
				return
			}
			s.pending[path] = nil
			s.mirrorMu.Unlock()
			body = next
		}
	}()
}

func (s *exportService) upload(ctx context.Context, kind export.Kind, path string, body []byte) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.MirrorTimeout)
	defer cancel()

	if err := s.sink.Put(ctx, path, body); err != nil {
		cdnMirrors.WithLabelValues(string(kind), "error").Inc()
		logger.Warn("CDN mirror failed", map[string]interface{}{
			"kind":  kind,
			"path":  path,
			"error": err.Error(),
		})
		return
	}
	cdnMirrors.WithLabelValues(string(kind), "ok").Inc()
	logger.Debug("Export mirrored to CDN", map[string]interface{}{
		"kind":  kind,
		"path":  path,
		"bytes": len(body),
	})
}

func (s *exportService) requireLocale(ctx context.Context, code string) error {
	if _, err := s.localeRepo.FindByCode(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLocaleNotFound
		}
		return transient("find locale", err)
	}
	return nil
}

// requireActiveLocale treats an inactive locale as missing.
func (s *exportService) requireActiveLocale(ctx context.Context, code string) error {
	locale, err := s.localeRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLocaleNotFound
		}
		return transient("find locale", err)
	}
	if !locale.IsActive {
		return ErrLocaleNotFound
	}
	return nil
}

func shapeOptions(format export.Format, includeMetadata bool) export.Options {
	return export.Options{Format: format, IncludeMetadata: includeMetadata}
}

func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
