package service

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/internal/app/repository"
	apperrors "github.com/ikkim/translation-backend/internal/errors"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/ikkim/translation-backend/pkg/logger"
	"gorm.io/gorm"
)

type BulkAction string

const (
	BulkDelete     BulkAction = "delete"
	BulkActivate   BulkAction = "activate"
	BulkDeactivate BulkAction = "deactivate"
	BulkVerify     BulkAction = "verify"
	BulkUnverify   BulkAction = "unverify"

	MaxBulkIDs = 100
)

type CreateTranslationInput struct {
	Key         string
	Value       string
	LocaleID    uint
	Description string
	Metadata    map[string]string
	TagIDs      []uint
	IsActive    *bool
}

// UpdateTranslationInput holds optional changes. TagIDs replaces the
// attachments when non-nil; an empty slice detaches every tag.
type UpdateTranslationInput struct {
	Key         *string
	Value       *string
	LocaleID    *uint
	Description *string
	Metadata    map[string]string
	TagIDs      *[]uint
	IsActive    *bool
}

type TranslationService interface {
	ListTranslations(ctx context.Context, filter export.Filter, limit, offset int) ([]model.Translation, int64, error)
	SearchTranslations(ctx context.Context, filter export.Filter, limit, offset int) ([]model.Translation, int64, error)
	GetTranslation(ctx context.Context, id uint) (*model.Translation, error)
	CreateTranslation(ctx context.Context, input CreateTranslationInput) (*model.Translation, error)
	UpdateTranslation(ctx context.Context, id uint, input UpdateTranslationInput) (*model.Translation, error)
	DeleteTranslation(ctx context.Context, id uint) error
	Bulk(ctx context.Context, action BulkAction, ids []uint, userID uint) (int64, error)
}

type translationService struct {
	translationRepo repository.TranslationRepository
	localeRepo      repository.LocaleRepository
	tagRepo         repository.TagRepository
	invalidator     CacheInvalidator
	now             func() time.Time
}

func NewTranslationService(
	translationRepo repository.TranslationRepository,
	localeRepo repository.LocaleRepository,
	tagRepo repository.TagRepository,
	invalidator CacheInvalidator,
) TranslationService {
	return &translationService{
		translationRepo: translationRepo,
		localeRepo:      localeRepo,
		tagRepo:         tagRepo,
		invalidator:     invalidator,
		now:             time.Now,
	}
}

func (s *translationService) ListTranslations(ctx context.Context, filter export.Filter, limit, offset int) ([]model.Translation, int64, error) {
	translations, total, err := s.translationRepo.FindWithFilter(ctx, filter, limit, offset)
	if err != nil {
		logger.Error("Failed to list translations", err)
		return nil, 0, transient("list translations", err)
	}
	return translations, total, nil
}

// SearchTranslations runs the ranked search. The filter is forced to active
// rows with ranking enabled.
func (s *translationService) SearchTranslations(ctx context.Context, filter export.Filter, limit, offset int) ([]model.Translation, int64, error) {
	filter.ActiveOnly = true
	filter.RankBySearch = true
	translations, total, err := s.translationRepo.FindWithFilter(ctx, filter, limit, offset)
	if err != nil {
		logger.Error("Failed to search translations", err, map[string]interface{}{
			"q": filter.Search,
		})
		return nil, 0, transient("search translations", err)
	}
	return translations, total, nil
}

func (s *translationService) GetTranslation(ctx context.Context, id uint) (*model.Translation, error) {
	translation, err := s.translationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTranslationNotFound
		}
		return nil, transient("find translation", err)
	}
	return translation, nil
}

func (s *translationService) CreateTranslation(ctx context.Context, input CreateTranslationInput) (*model.Translation, error) {
	logger.Info("Creating translation", map[string]interface{}{
		"key":       input.Key,
		"locale_id": input.LocaleID,
	})

	locale, err := s.findLocale(ctx, input.LocaleID)
	if err != nil {
		return nil, err
	}
	tagIDs, err := s.checkTags(ctx, input.TagIDs)
	if err != nil {
		return nil, err
	}

	exists, err := s.translationRepo.ExistsKey(ctx, model.NormalizeKey(input.Key), locale.ID, 0)
	if err != nil {
		return nil, transient("check translation key", err)
	}
	if exists {
		return nil, ErrDuplicateKey
	}

	translation := &model.Translation{
		Key:         model.NormalizeKey(input.Key),
		Value:       input.Value,
		LocaleID:    locale.ID,
		Description: input.Description,
		Metadata:    model.Metadata(input.Metadata),
		IsActive:    input.IsActive == nil || *input.IsActive,
	}
	if err := s.translationRepo.Create(ctx, translation, tagIDs); err != nil {
		return nil, mapTranslationWriteError("create translation", err)
	}

	if len(tagIDs) > 0 {
		s.invalidator.TagWritten(ctx, locale.Code)
	} else {
		s.invalidator.TranslationWritten(ctx, locale.Code)
	}

	logger.Info("Translation created", map[string]interface{}{
		"translation_id": translation.ID,
		"key":            translation.Key,
		"locale":         locale.Code,
	})
	return s.GetTranslation(ctx, translation.ID)
}

func (s *translationService) UpdateTranslation(ctx context.Context, id uint, input UpdateTranslationInput) (*model.Translation, error) {
	translation, err := s.GetTranslation(ctx, id)
	if err != nil {
		return nil, err
	}
	oldCode := ""
	if translation.Locale != nil {
		oldCode = translation.Locale.Code
	}
	hadTags := len(translation.Tags) > 0
	newCode := oldCode

	if input.LocaleID != nil && *input.LocaleID != translation.LocaleID {
		locale, err := s.findLocale(ctx, *input.LocaleID)
		if err != nil {
			return nil, err
		}
		translation.LocaleID = locale.ID
		newCode = locale.Code
	}
	if input.Key != nil {
		translation.Key = model.NormalizeKey(*input.Key)
	}
	if input.Value != nil {
		translation.Value = *input.Value
	}
	if input.Description != nil {
		translation.Description = *input.Description
	}
	if input.Metadata != nil {
		translation.Metadata = model.Metadata(input.Metadata)
	}
	if input.IsActive != nil {
		translation.IsActive = *input.IsActive
	}

	var tagIDs []uint
	replaceTags := input.TagIDs != nil
	if replaceTags {
		if tagIDs, err = s.checkTags(ctx, *input.TagIDs); err != nil {
			return nil, err
		}
	}

	exists, err := s.translationRepo.ExistsKey(ctx, translation.Key, translation.LocaleID, translation.ID)
	if err != nil {
		return nil, transient("check translation key", err)
	}
	if exists {
		return nil, ErrDuplicateKey
	}

	// the preloaded relations would otherwise be written back
	translation.Locale = nil
	translation.Tags = nil
	if err := s.translationRepo.Update(ctx, translation, tagIDs, replaceTags); err != nil {
		return nil, mapTranslationWriteError("update translation", err)
	}

	if replaceTags || hadTags {
		s.invalidator.TagWritten(ctx, oldCode, newCode)
	} else {
		s.invalidator.TranslationWritten(ctx, oldCode, newCode)
	}

	logger.Info("Translation updated", map[string]interface{}{
		"translation_id": id,
		"old_locale":     oldCode,
		"locale":         newCode,
	})
	return s.GetTranslation(ctx, id)
}

func (s *translationService) DeleteTranslation(ctx context.Context, id uint) error {
	translation, err := s.GetTranslation(ctx, id)
	if err != nil {
		return err
	}

	if err := s.translationRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTranslationNotFound
		}
		return transient("delete translation", err)
	}

	code := ""
	if translation.Locale != nil {
		code = translation.Locale.Code
	}
	if len(translation.Tags) > 0 {
		s.invalidator.TagWritten(ctx, code)
	} else {
		s.invalidator.TranslationWritten(ctx, code)
	}

	logger.Info("Translation deleted", map[string]interface{}{
		"translation_id": id,
		"locale":         code,
	})
	return nil
}

// Bulk applies one action to up to MaxBulkIDs translations and returns the
// number of rows affected. verify stamps the caller as verifier.
func (s *translationService) Bulk(ctx context.Context, action BulkAction, ids []uint, userID uint) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 || len(ids) > MaxBulkIDs {
		return 0, ErrInvalidBulkAction
	}

	var (
		affected int64
		err      error
	)
	switch action {
	case BulkDelete:
		affected, err = s.translationRepo.BulkDelete(ctx, ids)
	case BulkActivate:
		affected, err = s.translationRepo.BulkUpdate(ctx, ids, map[string]interface{}{"is_active": true})
	case BulkDeactivate:
		affected, err = s.translationRepo.BulkUpdate(ctx, ids, map[string]interface{}{"is_active": false})
	case BulkVerify:
		var verifier interface{}
		if userID != 0 {
			verifier = userID
		}
		affected, err = s.translationRepo.BulkUpdate(ctx, ids, map[string]interface{}{
			"verified_at": s.now(),
			"verified_by": verifier,
		})
	case BulkUnverify:
		affected, err = s.translationRepo.BulkUpdate(ctx, ids, map[string]interface{}{
			"verified_at": nil,
			"verified_by": nil,
		})
	default:
		return 0, ErrInvalidBulkAction
	}
	if err != nil {
		logger.Error("Bulk translation action failed", err, map[string]interface{}{
			"action": action,
			"ids":    len(ids),
		})
		return 0, transient("bulk "+string(action), err)
	}

	s.invalidator.BulkWritten(ctx)

	logger.Info("Bulk translation action completed", map[string]interface{}{
		"action":   action,
		"ids":      len(ids),
		"affected": affected,
		"user_id":  userID,
	})
	return affected, nil
}

func (s *translationService) findLocale(ctx context.Context, id uint) (*model.Locale, error) {
	locale, err := s.localeRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocaleNotFound
		}
		return nil, transient("find locale", err)
	}
	return locale, nil
}

// checkTags de-duplicates ids and fails with ErrTagNotFound when any is unknown.
func (s *translationService) checkTags(ctx context.Context, ids []uint) ([]uint, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	tags, err := s.tagRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, transient("find tags", err)
	}
	if len(tags) != len(ids) {
		return nil, ErrTagNotFound
	}
	return ids, nil
}

func mapTranslationWriteError(op string, err error) error {
	if apperrors.IsDuplicateKey(err) {
		return ErrDuplicateKey
	}
	logger.Error("Failed to "+op, err)
	return transient(op, err)
}

func uniqueIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
