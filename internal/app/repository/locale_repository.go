package repository

import (
	"context"

	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/pkg/logger"
	"gorm.io/gorm"
)

type LocaleFilter struct {
	ActiveOnly bool
	WithStats  bool
	Limit      int
	Offset     int
}

type LocaleRepository interface {
	Create(ctx context.Context, locale *model.Locale) error
	FindWithFilter(ctx context.Context, filter LocaleFilter) ([]model.Locale, int64, error)
	FindByID(ctx context.Context, id uint) (*model.Locale, error)
	FindByCode(ctx context.Context, code string) (*model.Locale, error)
	FindDefault(ctx context.Context) (*model.Locale, error)
	ActiveCodes(ctx context.Context) ([]string, error)
	Update(ctx context.Context, locale *model.Locale) error
	Delete(ctx context.Context, id uint) error
	CountTranslations(ctx context.Context, id uint) (int64, error)
	AttachCounts(ctx context.Context, locales []model.Locale) error
}

type localeRepository struct {
	db *gorm.DB
}

func NewLocaleRepository(db *gorm.DB) LocaleRepository {
	return &localeRepository{db: db}
}

type localeCountRow struct {
	LocaleID uint
	Total    int64
	Active   int64
}

// Create inserts the locale. A new default locale demotes the previous one
// inside the same transaction.
func (r *localeRepository) Create(ctx context.Context, locale *model.Locale) error {
	logger.Debug("Creating locale in database", map[string]interface{}{
		"code":       locale.Code,
		"is_default": locale.IsDefault,
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if locale.IsDefault {
			if err := clearDefaultLocale(tx, 0); err != nil {
				return err
			}
		}
		return tx.Omit("Translations").Create(locale).Error
	})
	if err != nil {
		logger.Error("Failed to create locale in database", err, map[string]interface{}{
			"code": locale.Code,
		})
		return err
	}

	logger.Debug("Locale created in database", map[string]interface{}{
		"locale_id": locale.ID,
		"code":      locale.Code,
	})
	return nil
}

func clearDefaultLocale(tx *gorm.DB, exceptID uint) error {
	return tx.Model(&model.Locale{}).
		Where("is_default = ?", true).
		Where("id <> ?", exceptID).
		Update("is_default", false).Error
}

func (r *localeRepository) FindWithFilter(ctx context.Context, filter LocaleFilter) ([]model.Locale, int64, error) {
	logger.Debug("Finding locales with filter", map[string]interface{}{
		"active_only": filter.ActiveOnly,
		"with_stats":  filter.WithStats,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	})

	query := r.db.WithContext(ctx).Model(&model.Locale{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count locales", err)
		return nil, 0, err
	}

	query = query.Order("name ASC").Order("id ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var locales []model.Locale
	if err := query.Find(&locales).Error; err != nil {
		logger.Error("Failed to find locales with filter", err)
		return nil, 0, err
	}

	if filter.WithStats && len(locales) > 0 {
		if err := r.AttachCounts(ctx, locales); err != nil {
			return nil, 0, err
		}
	}

	logger.Debug("Locales found with filter", map[string]interface{}{
		"count": len(locales),
		"total": total,
	})
	return locales, total, nil
}

// AttachCounts fills the total and active translation counts of each locale.
func (r *localeRepository) AttachCounts(ctx context.Context, locales []model.Locale) error {
	ids := make([]uint, len(locales))
	for i := range locales {
		ids[i] = locales[i].ID
	}

	var rows []localeCountRow
	err := r.db.WithContext(ctx).Model(&model.Translation{}).
		Select("locale_id, COUNT(*) AS total, SUM(CASE WHEN is_active THEN 1 ELSE 0 END) AS active").
		Where("locale_id IN ?", ids).
		Group("locale_id").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count translations per locale", err)
		return err
	}

	counts := make(map[uint]localeCountRow, len(rows))
	for _, row := range rows {
		counts[row.LocaleID] = row
	}
	for i := range locales {
		row := counts[locales[i].ID]
		total, active := row.Total, row.Active
		locales[i].TranslationsCount = &total
		locales[i].ActiveTranslationsCount = &active
	}
	return nil
}

func (r *localeRepository) FindByID(ctx context.Context, id uint) (*model.Locale, error) {
	var locale model.Locale
	if err := r.db.WithContext(ctx).First(&locale, id).Error; err != nil {
		logger.Debug("Locale not found by ID", map[string]interface{}{
			"locale_id": id,
			"error":     err.Error(),
		})
		return nil, err
	}
	return &locale, nil
}

func (r *localeRepository) FindByCode(ctx context.Context, code string) (*model.Locale, error) {
	var locale model.Locale
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&locale).Error; err != nil {
		logger.Debug("Locale not found by code", map[string]interface{}{
			"code":  code,
			"error": err.Error(),
		})
		return nil, err
	}
	return &locale, nil
}

func (r *localeRepository) FindDefault(ctx context.Context) (*model.Locale, error) {
	var locale model.Locale
	if err := r.db.WithContext(ctx).Where("is_default = ?", true).First(&locale).Error; err != nil {
		return nil, err
	}
	return &locale, nil
}

func (r *localeRepository) ActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Model(&model.Locale{}).
		Where("is_active = ?", true).
		Order("code ASC").
		Pluck("code", &codes).Error
	if err != nil {
		logger.Error("Failed to list active locale codes", err)
		return nil, err
	}
	return codes, nil
}

func (r *localeRepository) Update(ctx context.Context, locale *model.Locale) error {
	logger.Debug("Updating locale in database", map[string]interface{}{
		"locale_id":  locale.ID,
		"code":       locale.Code,
		"is_default": locale.IsDefault,
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if locale.IsDefault {
			if err := clearDefaultLocale(tx, locale.ID); err != nil {
				return err
			}
		}
		return tx.Omit("Translations").Save(locale).Error
	})
	if err != nil {
		logger.Error("Failed to update locale in database", err, map[string]interface{}{
			"locale_id": locale.ID,
		})
		return err
	}
	return nil
}

func (r *localeRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Locale{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete locale", result.Error, map[string]interface{}{
			"locale_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Locale deleted from database", map[string]interface{}{
		"locale_id": id,
	})
	return nil
}

func (r *localeRepository) CountTranslations(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Translation{}).
		Where("locale_id = ?", id).
		Count(&count).Error
	return count, err
}
