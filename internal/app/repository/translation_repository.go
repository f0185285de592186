package repository

import (
	"context"
	"time"

	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/ikkim/translation-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocaleTranslationCount is one row of the per-locale breakdown in TranslationStats.
type LocaleTranslationCount struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// TranslationStats are global counters. The per-locale breakdown covers active
// translations in active locales only.
type TranslationStats struct {
	TotalTranslations     int64
	ActiveTranslations    int64
	VerifiedTranslations  int64
	TotalLocales          int64
	TranslationsPerLocale []LocaleTranslationCount
	LastUpdated           *time.Time
}

type TranslationRepository interface {
	Create(ctx context.Context, translation *model.Translation, tagIDs []uint) error
	CreateInBatches(ctx context.Context, translations []model.Translation, batchSize int) error
	FindByID(ctx context.Context, id uint) (*model.Translation, error)
	FindWithFilter(ctx context.Context, filter export.Filter, limit, offset int) ([]model.Translation, int64, error)
	FindExportRows(ctx context.Context, filter export.Filter) ([]export.Row, error)
	Update(ctx context.Context, translation *model.Translation, tagIDs []uint, replaceTags bool) error
	Delete(ctx context.Context, id uint) error
	ExistsKey(ctx context.Context, key string, localeID, excludeID uint) (bool, error)
	LocaleCodesByIDs(ctx context.Context, ids []uint) ([]string, error)
	BulkUpdate(ctx context.Context, ids []uint, updates map[string]interface{}) (int64, error)
	BulkDelete(ctx context.Context, ids []uint) (int64, error)
	Stats(ctx context.Context) (*TranslationStats, error)
}

type translationRepository struct {
	db *gorm.DB
}

func NewTranslationRepository(db *gorm.DB) TranslationRepository {
	return &translationRepository{db: db}
}

type exportRowRecord struct {
	Key        string
	Value      string
	Metadata   model.Metadata
	IsActive   bool
	UpdatedAt  time.Time
	LocaleCode string
}

func (r *translationRepository) Create(ctx context.Context, translation *model.Translation, tagIDs []uint) error {
	logger.Debug("Creating translation in database", map[string]interface{}{
		"key":       translation.Key,
		"locale_id": translation.LocaleID,
		"tags":      len(tagIDs),
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(translation).Error; err != nil {
			return err
		}
		return syncTranslationTags(tx, translation.ID, tagIDs)
	})
	if err != nil {
		logger.Error("Failed to create translation in database", err, map[string]interface{}{
			"key":       translation.Key,
			"locale_id": translation.LocaleID,
		})
		return err
	}

	logger.Debug("Translation created in database", map[string]interface{}{
		"translation_id": translation.ID,
		"key":            translation.Key,
	})
	return nil
}

func (r *translationRepository) CreateInBatches(ctx context.Context, translations []model.Translation, batchSize int) error {
	if len(translations) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(translations, batchSize).Error; err != nil {
		logger.Error("Failed to create translation batch", err, map[string]interface{}{
			"count":      len(translations),
			"batch_size": batchSize,
		})
		return err
	}
	return nil
}

// syncTranslationTags replaces the tag attachments of one translation.
func syncTranslationTags(tx *gorm.DB, translationID uint, tagIDs []uint) error {
	if err := tx.Exec("DELETE FROM "+translationTagJoinTable+" WHERE translation_id = ?", translationID).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}

	seen := make(map[uint]struct{}, len(tagIDs))
	links := make([]map[string]interface{}, 0, len(tagIDs))
	for _, id := range tagIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		links = append(links, map[string]interface{}{
			"translation_id":     translationID,
			"translation_tag_id": id,
		})
	}
	return tx.Table(translationTagJoinTable).Create(&links).Error
}

func (r *translationRepository) FindByID(ctx context.Context, id uint) (*model.Translation, error) {
	var translation model.Translation
	err := r.db.WithContext(ctx).
		Preload("Locale").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("translation_tags.name ASC") }).
		First(&translation, id).Error
	if err != nil {
		logger.Debug("Translation not found by ID", map[string]interface{}{
			"translation_id": id,
			"error":          err.Error(),
		})
		return nil, err
	}
	return &translation, nil
}

func (r *translationRepository) FindWithFilter(ctx context.Context, filter export.Filter, limit, offset int) ([]model.Translation, int64, error) {
	logger.Debug("Finding translations with filter", map[string]interface{}{
		"locale":      filter.LocaleCode,
		"tags":        filter.TagSlugs,
		"search":      filter.Search,
		"is_active":   filter.IsActive,
		"is_verified": filter.IsVerified,
		"sort_by":     filter.SortBy,
		"limit":       limit,
		"offset":      offset,
	})

	query := applyTranslationFilter(r.db.WithContext(ctx).Model(&model.Translation{}), filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count translations with filter", err)
		return nil, 0, err
	}

	query = orderTranslations(query.Select("translations.*"), filter)
	if filter.WithLocale {
		query = query.Preload("Locale")
	}
	if filter.WithTags {
		query = query.Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("translation_tags.name ASC") })
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var translations []model.Translation
	if err := query.Find(&translations).Error; err != nil {
		logger.Error("Failed to find translations with filter", err, map[string]interface{}{
			"locale": filter.LocaleCode,
			"search": filter.Search,
		})
		return nil, 0, err
	}

	logger.Debug("Translations found with filter", map[string]interface{}{
		"count": len(translations),
		"total": total,
	})
	return translations, total, nil
}

// FindExportRows returns the projection consumed by the export shaper,
// ordered by locale code then key.
func (r *translationRepository) FindExportRows(ctx context.Context, filter export.Filter) ([]export.Row, error) {
	query := applyTranslationFilter(r.db.WithContext(ctx).Model(&model.Translation{}), filter)
	if !filter.JoinsLocale() && !filter.IsExportOrder() {
		query = query.Joins("JOIN locales ON locales.id = translations.locale_id")
	}

	var records []exportRowRecord
	err := query.
		Select("translations.key, translations.value, translations.metadata, translations.is_active, translations.updated_at, locales.code AS locale_code").
		Order("locales.code ASC").
		Order("translations.key ASC").
		Scan(&records).Error
	if err != nil {
		logger.Error("Failed to load export rows", err, map[string]interface{}{
			"locale":  filter.LocaleCode,
			"locales": filter.LocaleCodes,
			"tags":    filter.TagSlugs,
			"keys":    len(filter.Keys),
		})
		return nil, err
	}

	rows := make([]export.Row, len(records))
	for i, rec := range records {
		rows[i] = export.Row{
			Key:        rec.Key,
			Value:      rec.Value,
			Metadata:   rec.Metadata,
			LocaleCode: rec.LocaleCode,
			IsActive:   rec.IsActive,
			UpdatedAt:  rec.UpdatedAt,
		}
	}

	logger.Debug("Export rows loaded", map[string]interface{}{
		"count": len(rows),
	})
	return rows, nil
}

// Update saves every column of the translation. Tag attachments are replaced
// only when replaceTags is set.
func (r *translationRepository) Update(ctx context.Context, translation *model.Translation, tagIDs []uint, replaceTags bool) error {
	logger.Debug("Updating translation in database", map[string]interface{}{
		"translation_id": translation.ID,
		"key":            translation.Key,
		"locale_id":      translation.LocaleID,
		"replace_tags":   replaceTags,
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(translation).Error; err != nil {
			return err
		}
		if !replaceTags {
			return nil
		}
		return syncTranslationTags(tx, translation.ID, tagIDs)
	})
	if err != nil {
		logger.Error("Failed to update translation in database", err, map[string]interface{}{
			"translation_id": translation.ID,
		})
		return err
	}
	return nil
}

func (r *translationRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM "+translationTagJoinTable+" WHERE translation_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Translation{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete translation", err, map[string]interface{}{
			"translation_id": id,
		})
		return err
	}

	logger.Debug("Translation deleted from database", map[string]interface{}{
		"translation_id": id,
	})
	return nil
}

// ExistsKey reports whether another translation already uses key in the locale.
func (r *translationRepository) ExistsKey(ctx context.Context, key string, localeID, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.Translation{}).
		Where("translations.key = ? AND translations.locale_id = ?", model.NormalizeKey(key), localeID)
	if excludeID != 0 {
		query = query.Where("translations.id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *translationRepository) LocaleCodesByIDs(ctx context.Context, ids []uint) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var codes []string
	err := r.db.WithContext(ctx).Model(&model.Translation{}).
		Joins("JOIN locales ON locales.id = translations.locale_id").
		Where("translations.id IN ?", ids).
		Distinct("locales.code").
		Order("locales.code ASC").
		Pluck("locales.code", &codes).Error
	if err != nil {
		logger.Error("Failed to list locales for translations", err, map[string]interface{}{
			"ids": len(ids),
		})
		return nil, err
	}
	return codes, nil
}

// BulkUpdate applies column updates to every listed translation and reports
// how many rows changed.
func (r *translationRepository) BulkUpdate(ctx context.Context, ids []uint, updates map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{SkipHooks: true}).
		Model(&model.Translation{}).
		Where("id IN ?", ids).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to bulk update translations", result.Error, map[string]interface{}{
			"ids": len(ids),
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *translationRepository) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM "+translationTagJoinTable+" WHERE translation_id IN ?", ids).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&model.Translation{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		logger.Error("Failed to bulk delete translations", err, map[string]interface{}{
			"ids": len(ids),
		})
		return 0, err
	}
	return affected, nil
}

// Stats aggregates the global counters used by the stats export.
func (r *translationRepository) Stats(ctx context.Context) (*TranslationStats, error) {
	db := r.db.WithContext(ctx)
	stats := &TranslationStats{}

	if err := db.Model(&model.Translation{}).Count(&stats.TotalTranslations).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Translation{}).Where("is_active = ?", true).Count(&stats.ActiveTranslations).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Translation{}).Where("verified_at IS NOT NULL").Count(&stats.VerifiedTranslations).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Locale{}).Where("is_active = ?", true).Count(&stats.TotalLocales).Error; err != nil {
		return nil, err
	}

	err := db.Model(&model.Translation{}).
		Select("locales.code AS code, locales.name AS name, COUNT(translations.id) AS count").
		Joins("JOIN locales ON locales.id = translations.locale_id").
		Where("translations.is_active = ? AND locales.is_active = ?", true, true).
		Group("locales.code, locales.name").
		Order("COUNT(translations.id) DESC").
		Order("locales.code ASC").
		Scan(&stats.TranslationsPerLocale).Error
	if err != nil {
		logger.Error("Failed to count translations per locale", err)
		return nil, err
	}

	var latest []model.Translation
	if err := db.Select("id", "updated_at").Order("updated_at DESC").Limit(1).Find(&latest).Error; err != nil {
		return nil, err
	}
	if len(latest) == 1 {
		updated := latest[0].UpdatedAt.UTC()
		stats.LastUpdated = &updated
	}

	return stats, nil
}
