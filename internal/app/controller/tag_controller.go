package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/translation-backend/internal/app/repository"
	"github.com/ikkim/translation-backend/internal/app/service"
	apperrors "github.com/ikkim/translation-backend/internal/errors"
	"github.com/ikkim/translation-backend/internal/middleware"
	"github.com/ikkim/translation-backend/pkg/util"
)

var tagSortAllowList = map[string]repository.TagSort{
	"name":               repository.TagSortName,
	"created_at":         repository.TagSortCreatedAt,
	"updated_at":         repository.TagSortUpdatedAt,
	"translations_count": repository.TagSortUsage,
}

type TagController struct {
	tagService service.TagService
}

func NewTagController(tagService service.TagService) *TagController {
	return &TagController{tagService: tagService}
}

type CreateTagRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Slug        string `json:"slug" binding:"omitempty,max=100,tag_slug"`
	Description string `json:"description" binding:"max=255"`
	Color       string `json:"color" binding:"omitempty,hex_color"`
	IsActive    *bool  `json:"is_active"`
}

type UpdateTagRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug" binding:"omitempty,max=100,tag_slug"`
	Description *string `json:"description" binding:"omitempty,max=255"`
	Color       *string `json:"color" binding:"omitempty,hex_color"`
	IsActive    *bool   `json:"is_active"`
}

// ListTags
// GET /api/v1/tags
// Query params:
//   - include_inactive, with_counts
//   - search: matches name or description
//   - sort_by: name (default), created_at, updated_at, translations_count
//   - sort_direction: asc (default) or desc
func (ctrl *TagController) ListTags(c *gin.Context) {
	if rejectUnknownParams(c, pagingParams("include_inactive", "with_counts", "search", "sort_by", "sort_direction")...) {
		return
	}

	includeInactive, err := queryBool(c, "include_inactive", false)
	if err != nil {
		respondError(c, err, "list_tags")
		return
	}
	withCounts, err := queryBool(c, "with_counts", false)
	if err != nil {
		respondError(c, err, "list_tags")
		return
	}

	sortBy, ok := tagSortAllowList[strings.ToLower(c.Query("sort_by"))]
	if !ok {
		sortBy = repository.TagSortName
	}

	page := parsePagination(c)
	tags, total, err := ctrl.tagService.ListTags(c.Request.Context(), service.TagListOptions{
		IncludeInactive: includeInactive,
		Search:          c.Query("search"),
		SortBy:          sortBy,
		SortAscending:   !strings.EqualFold(c.Query("sort_direction"), "desc"),
		WithCounts:      withCounts,
		Limit:           page.PerPage,
		Offset:          page.Offset(),
	})
	if err != nil {
		respondError(c, err, "list_tags")
		return
	}

	respondPaged(c, tags, page, total)
}

// PopularTags ranks active tags by attached translations
// GET /api/v1/tags/popular?limit=
func (ctrl *TagController) PopularTags(c *gin.Context) {
	limit := service.DefaultPopularLimit
	if raw := c.Query("limit"); raw != "" {
		limit = util.AtoiDefault(raw, 0)
		if limit < 1 || limit > service.MaxPopularTagsLimit {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "limit must be between 1 and 50")
			return
		}
	}

	popular, err := ctrl.tagService.PopularTags(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "popular_tags")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": popular.Tags,
		"meta": gin.H{
			"limit":        popular.Limit,
			"generated_at": popular.GeneratedAt,
		},
	})
}

// GetTag returns one tag with its usage count
// GET /api/v1/tags/:id
func (ctrl *TagController) GetTag(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	tag, err := ctrl.tagService.GetTag(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get_tag")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tag})
}

// CreateTag
// POST /api/v1/tags
func (ctrl *TagController) CreateTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tag, err := ctrl.tagService.CreateTag(c.Request.Context(), service.CreateTagInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Color:       req.Color,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondError(c, err, "create_tag")
		return
	}

	log.Info("Tag created", map[string]interface{}{
		"tag_id": tag.ID,
		"slug":   tag.Slug,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Translation tag created successfully",
		"data":    tag,
	})
}

// UpdateTag
// PUT|PATCH /api/v1/tags/:id
func (ctrl *TagController) UpdateTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tag, err := ctrl.tagService.UpdateTag(c.Request.Context(), id, service.UpdateTagInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Color:       req.Color,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondError(c, err, "update_tag")
		return
	}

	log.Info("Tag updated", map[string]interface{}{
		"tag_id": tag.ID,
		"slug":   tag.Slug,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Translation tag updated successfully",
		"data":    tag,
	})
}

// DeleteTag removes a tag no translation carries
// DELETE /api/v1/tags/:id
func (ctrl *TagController) DeleteTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := ctrl.tagService.DeleteTag(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete_tag")
		return
	}

	log.Info("Tag deleted", map[string]interface{}{
		"tag_id": id,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Translation tag deleted successfully"})
}
