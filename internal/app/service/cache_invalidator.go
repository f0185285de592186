package service

import (
	"context"
	"time"

	"github.com/ikkim/translation-backend/internal/cache"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/ikkim/translation-backend/pkg/logger"
	"github.com/ikkim/translation-backend/pkg/util"
)

// EntityKind names what a write touched.
type EntityKind string

const (
	EntityTranslation EntityKind = "translation"
	EntityLocale      EntityKind = "locale"
	EntityTag         EntityKind = "tag"
	EntityBulk        EntityKind = "bulk"
	EntityAll         EntityKind = "all"
)

// CacheInvalidator clears cached exports after committed writes.
// Invalidation errors are logged and counted, never returned.
type CacheInvalidator interface {
	OnWrite(ctx context.Context, kind EntityKind, localeCodes ...string)
	TranslationWritten(ctx context.Context, localeCodes ...string)
	LocaleWritten(ctx context.Context, oldCode, newCode string)
	TagWritten(ctx context.Context, affectedLocaleCodes ...string)
	BulkWritten(ctx context.Context)
	FlushAll(ctx context.Context) error
}

// InvalidationEvent describes one completed invalidation. Locales is empty
// when every locale export was affected.
type InvalidationEvent struct {
	Entity  EntityKind `json:"entity"`
	Locales []string   `json:"locales"`
	At      time.Time  `json:"at"`
}

// InvalidationListener is told about every invalidation after the store has
// been cleared. Implementations must not block.
type InvalidationListener interface {
	ExportsInvalidated(ev InvalidationEvent)
}

type cacheInvalidator struct {
	store     cache.Store
	keys      export.KeyDeriver
	listeners []InvalidationListener
}

func NewCacheInvalidator(store cache.Store, keys export.KeyDeriver, listeners ...InvalidationListener) CacheInvalidator {
	return &cacheInvalidator{
		store:     store,
		keys:      export.NewKeyDeriver(keys.Namespace),
		listeners: listeners,
	}
}

// OnWrite dispatches on the written entity. Locale writes take the old and new
// codes; a single code means the code did not change.
func (i *cacheInvalidator) OnWrite(ctx context.Context, kind EntityKind, localeCodes ...string) {
	switch kind {
	case EntityTranslation:
		i.TranslationWritten(ctx, localeCodes...)
	case EntityLocale:
		var oldCode, newCode string
		if len(localeCodes) > 0 {
			oldCode = localeCodes[0]
			newCode = oldCode
		}
		if len(localeCodes) > 1 {
			newCode = localeCodes[1]
		}
		i.LocaleWritten(ctx, oldCode, newCode)
	case EntityTag:
		i.TagWritten(ctx, localeCodes...)
	default:
		i.BulkWritten(ctx)
	}
}

// TranslationWritten clears the translations group and the group of every
// touched locale. A translation moved between locales passes both codes.
func (i *cacheInvalidator) TranslationWritten(ctx context.Context, localeCodes ...string) {
	codes := util.SortedUnique(localeCodes)
	groups := []string{cache.GroupTranslations}
	keys := []string{
		i.keys.Namespace + ".all",
		"translations.stats",
		i.keys.Fixed(export.KindStats),
	}
	for _, code := range codes {
		if code == "" {
			continue
		}
		groups = append(groups, cache.LocaleGroup(code))
		keys = append(keys, i.keys.Namespace+"."+code)
	}
	i.apply(ctx, EntityTranslation, groups, keys)
	i.notify(EntityTranslation, codes)
}

// LocaleWritten clears the locales group and the groups of both codes.
func (i *cacheInvalidator) LocaleWritten(ctx context.Context, oldCode, newCode string) {
	groups := []string{cache.GroupLocales}
	var keys []string
	for _, code := range util.SortedUnique([]string{oldCode, newCode}) {
		if code == "" {
			continue
		}
		groups = append(groups, cache.LocaleGroup(code))
		keys = append(keys, i.keys.Namespace+"."+code)
	}
	i.apply(ctx, EntityLocale, groups, keys)
	i.notify(EntityLocale, []string{oldCode, newCode})
}

// TagWritten clears the tags group, then treats the change as a translation
// write for every locale holding a tagged translation.
func (i *cacheInvalidator) TagWritten(ctx context.Context, affectedLocaleCodes ...string) {
	i.apply(ctx, EntityTag, []string{cache.GroupTags}, nil)
	i.notify(EntityTag, nil)
	i.TranslationWritten(ctx, affectedLocaleCodes...)
}

// BulkWritten clears the coarse translations group. Bulk actions may span
// every locale, and locale exports are all members of that group.
func (i *cacheInvalidator) BulkWritten(ctx context.Context) {
	i.apply(ctx, EntityBulk, []string{cache.GroupTranslations}, []string{
		i.keys.Namespace + ".all",
		"translations.stats",
		i.keys.Fixed(export.KindStats),
	})
	i.notify(EntityBulk, nil)
}

// FlushAll clears every fixed group. It is used after seeding and by operators.
func (i *cacheInvalidator) FlushAll(ctx context.Context) error {
	if err := i.store.FlushGroup(ctx, cache.GroupTranslations, cache.GroupLocales, cache.GroupTags); err != nil {
		logger.Error("Failed to flush export cache", err)
		return transient("flush cache", err)
	}
	logger.Info("Export cache flushed", nil)
	i.notify(EntityAll, nil)
	return nil
}

func (i *cacheInvalidator) apply(ctx context.Context, entity EntityKind, groups, keys []string) {
	fields := map[string]interface{}{
		"entity": entity,
		"groups": groups,
		"keys":   keys,
	}

	outcome := "ok"
	if err := i.store.FlushGroup(ctx, groups...); err != nil {
		outcome = "error"
		logger.Error("Failed to flush cache groups", err, fields)
	}
	if len(keys) > 0 {
		if err := i.store.Forget(ctx, keys...); err != nil {
			outcome = "error"
			logger.Error("Failed to forget cache keys", err, fields)
		}
	}
	cacheInvalidations.WithLabelValues(string(entity), outcome).Inc()

	logger.Debug("Cache invalidated", fields)
}

func (i *cacheInvalidator) notify(entity EntityKind, localeCodes []string) {
	if len(i.listeners) == 0 {
		return
	}
	codes := []string{}
	for _, code := range util.SortedUnique(localeCodes) {
		if code != "" {
			codes = append(codes, code)
		}
	}
	ev := InvalidationEvent{Entity: entity, Locales: codes, At: time.Now().UTC()}
	for _, l := range i.listeners {
		l.ExportsInvalidated(ev)
	}
}
