package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/internal/app/service"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/ikkim/translation-backend/internal/middleware"
)

type TranslationController struct {
	translationService service.TranslationService
}

func NewTranslationController(translationService service.TranslationService) *TranslationController {
	return &TranslationController{translationService: translationService}
}

type CreateTranslationRequest struct {
	Key         string            `json:"key" binding:"required,max=255,translation_key"`
	Value       string            `json:"value" binding:"required,max=65535"`
	LocaleID    uint              `json:"locale_id" binding:"required"`
	Description string            `json:"description" binding:"max=1000"`
	Metadata    map[string]string `json:"metadata" binding:"omitempty,dive,max=500"`
	TagIDs      []uint            `json:"tag_ids" binding:"omitempty,dive,gt=0"`
	IsActive    *bool             `json:"is_active"`
}

type UpdateTranslationRequest struct {
	Key         *string           `json:"key" binding:"omitempty,max=255,translation_key"`
	Value       *string           `json:"value" binding:"omitempty,min=1,max=65535"`
	LocaleID    *uint             `json:"locale_id" binding:"omitempty,gt=0"`
	Description *string           `json:"description" binding:"omitempty,max=1000"`
	Metadata    map[string]string `json:"metadata" binding:"omitempty,dive,max=500"`
	TagIDs      *[]uint           `json:"tag_ids"`
	IsActive    *bool             `json:"is_active"`
}

type BulkTranslationRequest struct {
	Action string `json:"action" binding:"required,oneof=delete activate deactivate verify unverify"`
	IDs    []uint `json:"ids" binding:"required,min=1,max=100,dive,gt=0"`
}

// TranslationResource is a translation as returned by the API.
type TranslationResource struct {
	*model.Translation
	IsVerified   bool   `json:"is_verified"`
	FormattedKey string `json:"formatted_key"`
	ShortValue   string `json:"short_value"`
}

func newTranslationResource(t *model.Translation) TranslationResource {
	return TranslationResource{
		Translation:  t,
		IsVerified:   t.IsVerified(),
		FormattedKey: t.FormattedKey(),
		ShortValue:   t.ShortValue(),
	}
}

func newTranslationResources(items []model.Translation) []TranslationResource {
	out := make([]TranslationResource, len(items))
	for i := range items {
		out[i] = newTranslationResource(&items[i])
	}
	return out
}

// ListTranslations
// GET /api/v1/translations
// Query params:
//   - locale, tag, tags: scope by locale code or tag slugs
//   - is_active, is_verified: boolean filters
//   - search: substring of key, value or description
//   - created_from, created_to: YYYY-MM-DD or RFC3339
//   - sort_by, sort_direction
func (ctrl *TranslationController) ListTranslations(c *gin.Context) {
	if rejectUnknownParams(c, pagingParams(export.ListParamNames...)...) {
		return
	}

	var params export.FilterParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}
	filter, err := export.BuildFilter(params)
	if err != nil {
		respondError(c, err, "list_translations")
		return
	}

	page := parsePagination(c)
	items, total, err := ctrl.translationService.ListTranslations(c.Request.Context(), filter, page.PerPage, page.Offset())
	if err != nil {
		respondError(c, err, "list_translations")
		return
	}

	respondPaged(c, newTranslationResources(items), page, total)
}

// SearchTranslations ranks active translations by key prefix, then value prefix
// GET /api/v1/translations/search?q=
func (ctrl *TranslationController) SearchTranslations(c *gin.Context) {
	if rejectUnknownParams(c, pagingParams(export.SearchParamNames...)...) {
		return
	}

	var params export.FilterParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}
	filter, err := export.BuildSearchFilter(params)
	if err != nil {
		respondError(c, err, "search_translations")
		return
	}

	page := parsePagination(c)
	items, total, err := ctrl.translationService.SearchTranslations(c.Request.Context(), filter, page.PerPage, page.Offset())
	if err != nil {
		respondError(c, err, "search_translations")
		return
	}

	middleware.GetLoggerFromContext(c).Debug("Translations searched", map[string]interface{}{
		"q":     filter.Search,
		"total": total,
	})

	respondPaged(c, newTranslationResources(items), page, total)
}

// GetTranslation returns one translation with its locale and tags
// GET /api/v1/translations/:id
func (ctrl *TranslationController) GetTranslation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	translation, err := ctrl.translationService.GetTranslation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get_translation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newTranslationResource(translation)})
}

// CreateTranslation
// POST /api/v1/translations
func (ctrl *TranslationController) CreateTranslation(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	translation, err := ctrl.translationService.CreateTranslation(c.Request.Context(), service.CreateTranslationInput{
		Key:         req.Key,
		Value:       req.Value,
		LocaleID:    req.LocaleID,
		Description: req.Description,
		Metadata:    req.Metadata,
		TagIDs:      req.TagIDs,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondError(c, err, "create_translation")
		return
	}

	log.Info("Translation created", map[string]interface{}{
		"translation_id": translation.ID,
		"key":            translation.Key,
		"locale_id":      translation.LocaleID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Translation created successfully",
		"data":    newTranslationResource(translation),
	})
}

// UpdateTranslation applies a partial update. tag_ids replaces the attachments.
// PUT|PATCH /api/v1/translations/:id
func (ctrl *TranslationController) UpdateTranslation(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	translation, err := ctrl.translationService.UpdateTranslation(c.Request.Context(), id, service.UpdateTranslationInput{
		Key:         req.Key,
		Value:       req.Value,
		LocaleID:    req.LocaleID,
		Description: req.Description,
		Metadata:    req.Metadata,
		TagIDs:      req.TagIDs,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondError(c, err, "update_translation")
		return
	}

	log.Info("Translation updated", map[string]interface{}{
		"translation_id": translation.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Translation updated successfully",
		"data":    newTranslationResource(translation),
	})
}

// DeleteTranslation
// DELETE /api/v1/translations/:id
func (ctrl *TranslationController) DeleteTranslation(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := ctrl.translationService.DeleteTranslation(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete_translation")
		return
	}

	log.Info("Translation deleted", map[string]interface{}{
		"translation_id": id,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Translation deleted successfully"})
}

// BulkAction applies one action to up to 100 translations
// POST /api/v1/translations/bulk
func (ctrl *TranslationController) BulkAction(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req BulkTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	count, err := ctrl.translationService.Bulk(c.Request.Context(), service.BulkAction(req.Action), req.IDs, userID)
	if err != nil {
		respondError(c, err, "bulk_translations")
		return
	}

	log.Info("Bulk action completed", map[string]interface{}{
		"action":   req.Action,
		"ids":      len(req.IDs),
		"affected": count,
		"user_id":  userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":        "Bulk " + req.Action + " completed successfully",
		"affected_count": count,
	})
}
