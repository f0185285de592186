package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/internal/app/repository"
	"github.com/ikkim/translation-backend/internal/cache"
	apperrors "github.com/ikkim/translation-backend/internal/errors"
	"github.com/ikkim/translation-backend/pkg/logger"
	"github.com/ikkim/translation-backend/pkg/util"
	"gorm.io/gorm"
)

const (
	PopularTagsTTL       = 3600 * time.Second
	DefaultPopularLimit  = 10
	MaxPopularTagsLimit  = 50
	popularTagsKeyPrefix = "tags.popular."
)

type TagListOptions struct {
	IncludeInactive bool
	Search          string
	SortBy          repository.TagSort
	SortAscending   bool
	WithCounts      bool
	Limit           int
	Offset          int
}

type CreateTagInput struct {
	Name        string
	Slug        string
	Description string
	Color       string
	IsActive    *bool
}

// UpdateTagInput holds optional changes. A new name without an explicit slug
// re-derives the slug.
type UpdateTagInput struct {
	Name        *string
	Slug        *string
	Description *string
	Color       *string
	IsActive    *bool
}

// PopularTags is the cached popularity ranking.
type PopularTags struct {
	Tags        []model.TranslationTag `json:"tags"`
	Limit       int                    `json:"limit"`
	GeneratedAt time.Time              `json:"generated_at"`
}

type TagService interface {
	ListTags(ctx context.Context, opts TagListOptions) ([]model.TranslationTag, int64, error)
	GetTag(ctx context.Context, id uint) (*model.TranslationTag, error)
	CreateTag(ctx context.Context, input CreateTagInput) (*model.TranslationTag, error)
	UpdateTag(ctx context.Context, id uint, input UpdateTagInput) (*model.TranslationTag, error)
	DeleteTag(ctx context.Context, id uint) error
	PopularTags(ctx context.Context, limit int) (*PopularTags, error)
}

type tagService struct {
	tagRepo     repository.TagRepository
	store       cache.Store
	invalidator CacheInvalidator
	now         func() time.Time
}

func NewTagService(tagRepo repository.TagRepository, store cache.Store, invalidator CacheInvalidator) TagService {
	return &tagService{
		tagRepo:     tagRepo,
		store:       store,
		invalidator: invalidator,
		now:         time.Now,
	}
}

func (s *tagService) ListTags(ctx context.Context, opts TagListOptions) ([]model.TranslationTag, int64, error) {
	tags, total, err := s.tagRepo.FindWithFilter(ctx, repository.TagFilter{
		ActiveOnly:    !opts.IncludeInactive,
		Search:        strings.TrimSpace(opts.Search),
		SortBy:        opts.SortBy,
		SortAscending: opts.SortAscending,
		WithCounts:    opts.WithCounts,
		Limit:         opts.Limit,
		Offset:        opts.Offset,
	})
	if err != nil {
		logger.Error("Failed to list tags", err)
		return nil, 0, transient("list tags", err)
	}
	return tags, total, nil
}

func (s *tagService) GetTag(ctx context.Context, id uint) (*model.TranslationTag, error) {
	tag, err := s.findTag(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.tagRepo.CountTranslations(ctx, id)
	if err != nil {
		return nil, transient("count tag translations", err)
	}
	tag.TranslationsCount = &count
	return tag, nil
}

func (s *tagService) CreateTag(ctx context.Context, input CreateTagInput) (*model.TranslationTag, error) {
	logger.Info("Creating tag", map[string]interface{}{
		"name": input.Name,
	})

	name := strings.TrimSpace(input.Name)
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = util.Slugify(name)
	}
	tag := &model.TranslationTag{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Color:       input.Color,
		IsActive:    input.IsActive == nil || *input.IsActive,
	}

	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, mapTagWriteError("create tag", err)
	}

	// a new tag has no translations yet
	s.invalidator.TagWritten(ctx)

	logger.Info("Tag created", map[string]interface{}{
		"tag_id": tag.ID,
		"slug":   tag.Slug,
	})
	return tag, nil
}

func (s *tagService) UpdateTag(ctx context.Context, id uint, input UpdateTagInput) (*model.TranslationTag, error) {
	tag, err := s.findTag(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != tag.Name && input.Slug == nil {
			tag.Slug = util.Slugify(name)
		}
		tag.Name = name
	}
	if input.Slug != nil {
		tag.Slug = strings.TrimSpace(*input.Slug)
		if tag.Slug == "" {
			tag.Slug = util.Slugify(tag.Name)
		}
	}
	if input.Description != nil {
		tag.Description = strings.TrimSpace(*input.Description)
	}
	if input.Color != nil {
		tag.Color = *input.Color
	}
	if input.IsActive != nil {
		tag.IsActive = *input.IsActive
	}

	if err := s.tagRepo.Update(ctx, tag); err != nil {
		return nil, mapTagWriteError("update tag", err)
	}

	s.invalidator.TagWritten(ctx, s.affectedLocales(ctx, id)...)

	logger.Info("Tag updated", map[string]interface{}{
		"tag_id": tag.ID,
		"slug":   tag.Slug,
	})
	return tag, nil
}

// DeleteTag refuses tags still attached to translations.
func (s *tagService) DeleteTag(ctx context.Context, id uint) error {
	if _, err := s.findTag(ctx, id); err != nil {
		return err
	}

	count, err := s.tagRepo.CountTranslations(ctx, id)
	if err != nil {
		return transient("count tag translations", err)
	}
	if count > 0 {
		logger.Warn("Refusing to delete tag in use", map[string]interface{}{
			"tag_id":       id,
			"translations": count,
		})
		return ErrTagInUse
	}

	if err := s.tagRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return transient("delete tag", err)
	}

	s.invalidator.TagWritten(ctx)

	logger.Info("Tag deleted", map[string]interface{}{
		"tag_id": id,
	})
	return nil
}

// PopularTags returns the most used active tags, cached per limit.
func (s *tagService) PopularTags(ctx context.Context, limit int) (*PopularTags, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	limit = util.ClampInt(limit, 1, MaxPopularTagsLimit)
	key := fmt.Sprintf("%s%d", popularTagsKeyPrefix, limit)

	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		logger.Error("Popular tags cache read failed", err, map[string]interface{}{
			"cache_key": key,
		})
		return nil, transient("read popular tags cache", err)
	}
	if ok {
		var cached PopularTags
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		_ = s.store.Forget(ctx, key)
	}

	tags, err := s.tagRepo.Popular(ctx, limit)
	if err != nil {
		return nil, transient("rank popular tags", err)
	}
	if tags == nil {
		tags = []model.TranslationTag{}
	}
	popular := &PopularTags{Tags: tags, Limit: limit, GeneratedAt: s.now().UTC()}

	payload, err := json.Marshal(popular)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, key, payload, PopularTagsTTL, cache.GroupTags, cache.GroupTranslations); err != nil {
		logger.Error("Failed to store popular tags in cache", err, map[string]interface{}{
			"cache_key": key,
		})
	}
	return popular, nil
}

func (s *tagService) affectedLocales(ctx context.Context, id uint) []string {
	codes, err := s.tagRepo.LocaleCodes(ctx, id)
	if err != nil {
		// the tags and translations groups are still cleared
		logger.Warn("Could not resolve locales for tag", map[string]interface{}{
			"tag_id": id,
			"error":  err.Error(),
		})
		return nil
	}
	return codes
}

func (s *tagService) findTag(ctx context.Context, id uint) (*model.TranslationTag, error) {
	tag, err := s.tagRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, transient("find tag", err)
	}
	return tag, nil
}

func mapTagWriteError(op string, err error) error {
	if apperrors.IsDuplicateKey(err) {
		return ErrTagExists
	}
	logger.Error("Failed to "+op, err)
	return transient(op, err)
}
