package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/internal/app/repository"
	apperrors "github.com/ikkim/translation-backend/internal/errors"
	"github.com/ikkim/translation-backend/pkg/logger"
	"gorm.io/gorm"
)

type LocaleListOptions struct {
	IncludeInactive bool
	WithStats       bool
	Limit           int
	Offset          int
}

type CreateLocaleInput struct {
	Code       string
	Name       string
	NativeName string
	IsActive   *bool
	IsDefault  bool
}

// UpdateLocaleInput holds optional changes; nil fields are left untouched.
type UpdateLocaleInput struct {
	Code       *string
	Name       *string
	NativeName *string
	IsActive   *bool
	IsDefault  *bool
}

type LocaleService interface {
	ListLocales(ctx context.Context, opts LocaleListOptions) ([]model.Locale, int64, error)
	GetLocale(ctx context.Context, id uint) (*model.Locale, error)
	CreateLocale(ctx context.Context, input CreateLocaleInput) (*model.Locale, error)
	UpdateLocale(ctx context.Context, id uint, input UpdateLocaleInput) (*model.Locale, error)
	DeleteLocale(ctx context.Context, id uint) error
}

type localeService struct {
	localeRepo  repository.LocaleRepository
	invalidator CacheInvalidator
}

func NewLocaleService(localeRepo repository.LocaleRepository, invalidator CacheInvalidator) LocaleService {
	return &localeService{
		localeRepo:  localeRepo,
		invalidator: invalidator,
	}
}

func (s *localeService) ListLocales(ctx context.Context, opts LocaleListOptions) ([]model.Locale, int64, error) {
	locales, total, err := s.localeRepo.FindWithFilter(ctx, repository.LocaleFilter{
		ActiveOnly: !opts.IncludeInactive,
		WithStats:  opts.WithStats,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	})
	if err != nil {
		logger.Error("Failed to list locales", err)
		return nil, 0, transient("list locales", err)
	}
	return locales, total, nil
}

func (s *localeService) GetLocale(ctx context.Context, id uint) (*model.Locale, error) {
	locale, err := s.findLocale(ctx, id)
	if err != nil {
		return nil, err
	}

	withCounts := []model.Locale{*locale}
	if err := s.localeRepo.AttachCounts(ctx, withCounts); err != nil {
		return nil, transient("count locale translations", err)
	}
	return &withCounts[0], nil
}

func (s *localeService) CreateLocale(ctx context.Context, input CreateLocaleInput) (*model.Locale, error) {
	logger.Info("Creating locale", map[string]interface{}{
		"code":       input.Code,
		"is_default": input.IsDefault,
	})

	locale := &model.Locale{
		Code:       strings.ToLower(strings.TrimSpace(input.Code)),
		Name:       strings.TrimSpace(input.Name),
		NativeName: strings.TrimSpace(input.NativeName),
		IsActive:   input.IsActive == nil || *input.IsActive,
		IsDefault:  input.IsDefault,
	}

	if err := s.localeRepo.Create(ctx, locale); err != nil {
		return nil, s.mapWriteError("create locale", err)
	}

	s.invalidator.LocaleWritten(ctx, locale.Code, locale.Code)

	logger.Info("Locale created", map[string]interface{}{
		"locale_id": locale.ID,
		"code":      locale.Code,
	})
	return locale, nil
}

func (s *localeService) UpdateLocale(ctx context.Context, id uint, input UpdateLocaleInput) (*model.Locale, error) {
	locale, err := s.findLocale(ctx, id)
	if err != nil {
		return nil, err
	}
	oldCode := locale.Code

	if input.Code != nil {
		locale.Code = strings.ToLower(strings.TrimSpace(*input.Code))
	}
	if input.Name != nil {
		locale.Name = strings.TrimSpace(*input.Name)
	}
	if input.NativeName != nil {
		locale.NativeName = strings.TrimSpace(*input.NativeName)
	}
	if input.IsActive != nil {
		locale.IsActive = *input.IsActive
	}
	if input.IsDefault != nil {
		locale.IsDefault = *input.IsDefault
	}

	if err := s.localeRepo.Update(ctx, locale); err != nil {
		return nil, s.mapWriteError("update locale", err)
	}

	s.invalidator.LocaleWritten(ctx, oldCode, locale.Code)

	logger.Info("Locale updated", map[string]interface{}{
		"locale_id": locale.ID,
		"old_code":  oldCode,
		"code":      locale.Code,
	})
	return locale, nil
}

// DeleteLocale refuses locales that still own translations or are the default.
func (s *localeService) DeleteLocale(ctx context.Context, id uint) error {
	locale, err := s.findLocale(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.localeRepo.CountTranslations(ctx, id)
	if err != nil {
		return transient("count locale translations", err)
	}
	if count > 0 {
		logger.Warn("Refusing to delete locale with translations", map[string]interface{}{
			"locale_id":    id,
			"translations": count,
		})
		return ErrLocaleInUse
	}
	if locale.IsDefault {
		return ErrLocaleIsDefault
	}

	if err := s.localeRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLocaleNotFound
		}
		return transient("delete locale", err)
	}

	s.invalidator.LocaleWritten(ctx, locale.Code, locale.Code)

	logger.Info("Locale deleted", map[string]interface{}{
		"locale_id": id,
		"code":      locale.Code,
	})
	return nil
}

func (s *localeService) findLocale(ctx context.Context, id uint) (*model.Locale, error) {
	locale, err := s.localeRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocaleNotFound
		}
		return nil, transient("find locale", err)
	}
	return locale, nil
}

func (s *localeService) mapWriteError(op string, err error) error {
	if apperrors.IsDuplicateKey(err) {
		return ErrLocaleCodeExists
	}
	logger.Error("Failed to "+op, err)
	return transient(op, err)
}
