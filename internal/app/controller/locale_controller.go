package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/translation-backend/internal/app/service"
	"github.com/ikkim/translation-backend/internal/middleware"
)

type LocaleController struct {
	localeService service.LocaleService
}

func NewLocaleController(localeService service.LocaleService) *LocaleController {
	return &LocaleController{localeService: localeService}
}

type CreateLocaleRequest struct {
	Code       string `json:"code" binding:"required,locale_code"`
	Name       string `json:"name" binding:"required,max=100"`
	NativeName string `json:"native_name" binding:"max=100"`
	IsActive   *bool  `json:"is_active"`
	IsDefault  bool   `json:"is_default"`
}

type UpdateLocaleRequest struct {
	Code       *string `json:"code" binding:"omitempty,locale_code"`
	Name       *string `json:"name" binding:"omitempty,min=1,max=100"`
	NativeName *string `json:"native_name" binding:"omitempty,max=100"`
	IsActive   *bool   `json:"is_active"`
	IsDefault  *bool   `json:"is_default"`
}

// ListLocales returns locales ordered by name
// GET /api/v1/locales
// Query params:
//   - include_inactive: also list inactive locales
//   - with_stats: attach translation counts
func (ctrl *LocaleController) ListLocales(c *gin.Context) {
	if rejectUnknownParams(c, pagingParams("include_inactive", "with_stats")...) {
		return
	}

	includeInactive, err := queryBool(c, "include_inactive", false)
	if err != nil {
		respondError(c, err, "list_locales")
		return
	}
	withStats, err := queryBool(c, "with_stats", false)
	if err != nil {
		respondError(c, err, "list_locales")
		return
	}

	page := parsePagination(c)
	locales, total, err := ctrl.localeService.ListLocales(c.Request.Context(), service.LocaleListOptions{
		IncludeInactive: includeInactive,
		WithStats:       withStats,
		Limit:           page.PerPage,
		Offset:          page.Offset(),
	})
	if err != nil {
		respondError(c, err, "list_locales")
		return
	}

	respondPaged(c, locales, page, total)
}

// GetLocale returns one locale with its translation counts
// GET /api/v1/locales/:id
func (ctrl *LocaleController) GetLocale(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	locale, err := ctrl.localeService.GetLocale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get_locale")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": locale})
}

// CreateLocale
// POST /api/v1/locales
func (ctrl *LocaleController) CreateLocale(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateLocaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	locale, err := ctrl.localeService.CreateLocale(c.Request.Context(), service.CreateLocaleInput{
		Code:       req.Code,
		Name:       req.Name,
		NativeName: req.NativeName,
		IsActive:   req.IsActive,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		respondError(c, err, "create_locale")
		return
	}

	log.Info("Locale created", map[string]interface{}{
		"locale_id": locale.ID,
		"code":      locale.Code,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Locale created successfully",
		"data":    locale,
	})
}

// UpdateLocale applies a partial update
// PUT|PATCH /api/v1/locales/:id
func (ctrl *LocaleController) UpdateLocale(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateLocaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	locale, err := ctrl.localeService.UpdateLocale(c.Request.Context(), id, service.UpdateLocaleInput{
		Code:       req.Code,
		Name:       req.Name,
		NativeName: req.NativeName,
		IsActive:   req.IsActive,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		respondError(c, err, "update_locale")
		return
	}

	log.Info("Locale updated", map[string]interface{}{
		"locale_id": locale.ID,
		"code":      locale.Code,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Locale updated successfully",
		"data":    locale,
	})
}

// DeleteLocale removes a locale without translations that is not the default
// DELETE /api/v1/locales/:id
func (ctrl *LocaleController) DeleteLocale(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := ctrl.localeService.DeleteLocale(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete_locale")
		return
	}

	log.Info("Locale deleted", map[string]interface{}{
		"locale_id": id,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Locale deleted successfully"})
}
