package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/internal/app/repository"
	"github.com/ikkim/translation-backend/internal/cache"
	"github.com/ikkim/translation-backend/internal/db"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/ikkim/translation-backend/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db           *gorm.DB
	store        *flakyStore
	sink         *recordingSink
	localeRepo   repository.LocaleRepository
	tagRepo      repository.TagRepository
	translations repository.TranslationRepository
	invalidator  CacheInvalidator
	exports      ExportService
	locales      LocaleService
	tags         TagService
	translator   TranslationService
}

type envOption func(*envConfig)

type envConfig struct {
	sink storage.Sink
}

func withSink(sink storage.Sink) envOption {
	return func(c *envConfig) { c.sink = sink }
}

func setupServiceTest(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cfg := envConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := &flakyStore{MemoryStore: cache.NewMemoryStore()}
	localeRepo := repository.NewLocaleRepository(testDB)
	tagRepo := repository.NewTagRepository(testDB)
	translationRepo := repository.NewTranslationRepository(testDB)
	keys := export.NewKeyDeriver("")
	invalidator := NewCacheInvalidator(store, keys)

	exports := NewExportService(translationRepo, localeRepo, tagRepo, store, cfg.sink, ExportConfig{
		LocaleTTL:     5 * time.Minute,
		Keys:          keys,
		MirrorTimeout: time.Second,
	})
	t.Cleanup(exports.Wait)

	env := &testEnv{
		db:           testDB,
		store:        store,
		localeRepo:   localeRepo,
		tagRepo:      tagRepo,
		translations: translationRepo,
		invalidator:  invalidator,
		exports:      exports,
		locales:      NewLocaleService(localeRepo, invalidator),
		tags:         NewTagService(tagRepo, store, invalidator),
		translator:   NewTranslationService(translationRepo, localeRepo, tagRepo, invalidator),
	}
	if rs, ok := cfg.sink.(*recordingSink); ok {
		env.sink = rs
	}
	return env
}

func (e *testEnv) locale(t *testing.T, code, name string) *model.Locale {
	t.Helper()
	locale, err := e.locales.CreateLocale(context.Background(), CreateLocaleInput{Code: code, Name: name})
	require.NoError(t, err)
	return locale
}

func (e *testEnv) tag(t *testing.T, name string) *model.TranslationTag {
	t.Helper()
	tag, err := e.tags.CreateTag(context.Background(), CreateTagInput{Name: name})
	require.NoError(t, err)
	return tag
}

func (e *testEnv) translation(t *testing.T, locale *model.Locale, key, value string, tagIDs ...uint) *model.Translation {
	t.Helper()
	tr, err := e.translator.CreateTranslation(context.Background(), CreateTranslationInput{
		Key:      key,
		Value:    value,
		LocaleID: locale.ID,
		TagIDs:   tagIDs,
	})
	require.NoError(t, err)
	return tr
}

// flakyStore is a MemoryStore whose reads or writes can be made to fail.
type flakyStore struct {
	*cache.MemoryStore
	mu       sync.Mutex
	failGet  bool
	failPut  bool
	putCalls int
}

var errStoreDown = errors.New("cache store unavailable")

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	fail := s.failGet
	s.mu.Unlock()
	if fail {
		return nil, false, errStoreDown
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *flakyStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration, groups ...string) error {
	s.mu.Lock()
	s.putCalls++
	fail := s.failPut
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return s.MemoryStore.Put(ctx, key, value, ttl, groups...)
}

func (s *flakyStore) setFailGet(fail bool) {
	s.mu.Lock()
	s.failGet = fail
	s.mu.Unlock()
}

func (s *flakyStore) setFailPut(fail bool) {
	s.mu.Lock()
	s.failPut = fail
	s.mu.Unlock()
}

func (s *flakyStore) puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putCalls
}

// recordingSink keeps every upload in memory.
type recordingSink struct {
	mu      sync.Mutex
	fail    error
	uploads map[string][]byte
	calls   int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{uploads: make(map[string][]byte)}
}

func (s *recordingSink) Put(_ context.Context, path string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail != nil {
		return &storage.MirrorError{Path: path, Cause: s.fail}
	}
	s.uploads[path] = append([]byte(nil), body...)
	return nil
}

func (s *recordingSink) URL(path string) string {
	return "https://cdn.example.test/" + path
}

func (s *recordingSink) upload(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.uploads[path]
	return body, ok
}

// gatedSink holds its first upload until release is closed.
type gatedSink struct {
	*recordingSink
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedSink() *gatedSink {
	return &gatedSink{
		recordingSink: newRecordingSink(),
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (s *gatedSink) Put(ctx context.Context, path string, body []byte) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.started)
		<-s.release
	}
	return s.recordingSink.Put(ctx, path, body)
}
