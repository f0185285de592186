package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/pkg/logger"
	"gorm.io/gorm"
)

const translationTagJoinTable = "translation_translation_tag"

type TagSort string

const (
	TagSortName      TagSort = "name"
	TagSortCreatedAt TagSort = "created_at"
	TagSortUpdatedAt TagSort = "updated_at"
	TagSortUsage     TagSort = "translations_count"
)

type TagFilter struct {
	ActiveOnly    bool
	Search        string
	SortBy        TagSort
	SortAscending bool
	WithCounts    bool
	Limit         int
	Offset        int
}

type TagRepository interface {
	Create(ctx context.Context, tag *model.TranslationTag) error
	FindWithFilter(ctx context.Context, filter TagFilter) ([]model.TranslationTag, int64, error)
	FindByID(ctx context.Context, id uint) (*model.TranslationTag, error)
	FindBySlug(ctx context.Context, slug string) (*model.TranslationTag, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.TranslationTag, error)
	Update(ctx context.Context, tag *model.TranslationTag) error
	Delete(ctx context.Context, id uint) error
	CountTranslations(ctx context.Context, id uint) (int64, error)
	Popular(ctx context.Context, limit int) ([]model.TranslationTag, error)
	LocaleCodes(ctx context.Context, id uint) ([]string, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

type tagCountRow struct {
	TagID uint
	Total int64
}

func (r *tagRepository) Create(ctx context.Context, tag *model.TranslationTag) error {
	logger.Debug("Creating tag in database", map[string]interface{}{
		"name": tag.Name,
	})

	if err := r.db.WithContext(ctx).Omit("Translations").Create(tag).Error; err != nil {
		logger.Error("Failed to create tag in database", err, map[string]interface{}{
			"name": tag.Name,
		})
		return err
	}

	logger.Debug("Tag created in database", map[string]interface{}{
		"tag_id": tag.ID,
		"slug":   tag.Slug,
	})
	return nil
}

func (r *tagRepository) FindWithFilter(ctx context.Context, filter TagFilter) ([]model.TranslationTag, int64, error) {
	logger.Debug("Finding tags with filter", map[string]interface{}{
		"active_only": filter.ActiveOnly,
		"search":      filter.Search,
		"sort_by":     filter.SortBy,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	})

	query := r.db.WithContext(ctx).Model(&model.TranslationTag{})
	if filter.ActiveOnly {
		query = query.Where("translation_tags.is_active = ?", true)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		query = query.Where(
			"(LOWER(translation_tags.name) LIKE ? ESCAPE '!' OR LOWER(translation_tags.description) LIKE ? ESCAPE '!')",
			like, like,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count tags", err)
		return nil, 0, err
	}

	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}
	switch filter.SortBy {
	case TagSortCreatedAt:
		query = query.Order("translation_tags.created_at " + direction)
	case TagSortUpdatedAt:
		query = query.Order("translation_tags.updated_at " + direction)
	case TagSortUsage:
		usage := r.db.Table(translationTagJoinTable).
			Select("translation_tag_id, COUNT(*) AS total").
			Group("translation_tag_id")
		query = query.Joins("LEFT JOIN (?) AS tag_usage ON tag_usage.translation_tag_id = translation_tags.id", usage).
			Select("translation_tags.*").
			Order("COALESCE(tag_usage.total, 0) " + direction)
	default:
		if filter.SortBy != TagSortName {
			direction = "ASC"
		}
		query = query.Order("translation_tags.name " + direction)
	}
	query = query.Order("translation_tags.id ASC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var tags []model.TranslationTag
	if err := query.Find(&tags).Error; err != nil {
		logger.Error("Failed to find tags with filter", err)
		return nil, 0, err
	}

	if filter.WithCounts && len(tags) > 0 {
		if err := r.attachCounts(ctx, tags); err != nil {
			return nil, 0, err
		}
	}

	return tags, total, nil
}

func (r *tagRepository) usageCounts(ctx context.Context, ids []uint) (map[uint]int64, error) {
	var rows []tagCountRow
	query := r.db.WithContext(ctx).Table(translationTagJoinTable).
		Select("translation_tag_id AS tag_id, COUNT(*) AS total").
		Group("translation_tag_id")
	if ids != nil {
		query = query.Where("translation_tag_id IN ?", ids)
	}
	if err := query.Scan(&rows).Error; err != nil {
		logger.Error("Failed to count translations per tag", err)
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.TagID] = row.Total
	}
	return counts, nil
}

func (r *tagRepository) attachCounts(ctx context.Context, tags []model.TranslationTag) error {
	ids := make([]uint, len(tags))
	for i := range tags {
		ids[i] = tags[i].ID
	}
	counts, err := r.usageCounts(ctx, ids)
	if err != nil {
		return err
	}
	for i := range tags {
		count := counts[tags[i].ID]
		tags[i].TranslationsCount = &count
	}
	return nil
}

func (r *tagRepository) FindByID(ctx context.Context, id uint) (*model.TranslationTag, error) {
	var tag model.TranslationTag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) FindBySlug(ctx context.Context, slug string) (*model.TranslationTag, error) {
	var tag model.TranslationTag
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.TranslationTag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []model.TranslationTag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&tags).Error; err != nil {
		logger.Error("Failed to find tags by IDs", err, map[string]interface{}{
			"ids": ids,
		})
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) Update(ctx context.Context, tag *model.TranslationTag) error {
	logger.Debug("Updating tag in database", map[string]interface{}{
		"tag_id": tag.ID,
		"name":   tag.Name,
	})

	if err := r.db.WithContext(ctx).Omit("Translations").Save(tag).Error; err != nil {
		logger.Error("Failed to update tag in database", err, map[string]interface{}{
			"tag_id": tag.ID,
		})
		return err
	}
	return nil
}

// Delete removes the tag and its attachments.
func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM "+translationTagJoinTable+" WHERE translation_tag_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.TranslationTag{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete tag", err, map[string]interface{}{
			"tag_id": id,
		})
		return err
	}

	logger.Debug("Tag deleted from database", map[string]interface{}{
		"tag_id": id,
	})
	return nil
}

func (r *tagRepository) CountTranslations(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(translationTagJoinTable).
		Where("translation_tag_id = ?", id).
		Count(&count).Error
	return count, err
}

// Popular returns active tags ordered by how many translations carry them.
func (r *tagRepository) Popular(ctx context.Context, limit int) ([]model.TranslationTag, error) {
	var tags []model.TranslationTag
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&tags).Error; err != nil {
		logger.Error("Failed to load tags for popularity", err)
		return nil, err
	}

	counts, err := r.usageCounts(ctx, nil)
	if err != nil {
		return nil, err
	}
	for i := range tags {
		count := counts[tags[i].ID]
		tags[i].TranslationsCount = &count
	}

	sort.SliceStable(tags, func(i, j int) bool {
		ci, cj := *tags[i].TranslationsCount, *tags[j].TranslationsCount
		if ci != cj {
			return ci > cj
		}
		return tags[i].Name < tags[j].Name
	})
	if limit > 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

// LocaleCodes lists the locales of every translation carrying the tag.
func (r *tagRepository) LocaleCodes(ctx context.Context, id uint) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Table(translationTagJoinTable).
		Joins("JOIN translations ON translations.id = "+translationTagJoinTable+".translation_id").
		Joins("JOIN locales ON locales.id = translations.locale_id").
		Where(translationTagJoinTable+".translation_tag_id = ?", id).
		Distinct("locales.code").
		Order("locales.code ASC").
		Pluck("locales.code", &codes).Error
	if err != nil {
		logger.Error("Failed to list locales for tag", err, map[string]interface{}{
			"tag_id": id,
		})
		return nil, err
	}
	return codes, nil
}
