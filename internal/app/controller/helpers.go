package controller

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/translation-backend/internal/app/service"
	apperrors "github.com/ikkim/translation-backend/internal/errors"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/ikkim/translation-backend/internal/middleware"
	"github.com/ikkim/translation-backend/pkg/util"
)

const (
	defaultPerPage = 15
	maxPerPage     = 100
)

// Pagination is the paging state of a list request.
type Pagination struct {
	Page    int
	PerPage int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PageMeta is the "meta" object of a paginated response.
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

type pagedResponse struct {
	Data interface{} `json:"data"`
	Meta PageMeta    `json:"meta"`
}

func parsePagination(c *gin.Context) Pagination {
	page := util.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	perPage := util.ClampInt(util.AtoiDefault(c.Query("per_page"), defaultPerPage), 1, maxPerPage)
	return Pagination{Page: page, PerPage: perPage}
}

func respondPaged(c *gin.Context, data interface{}, p Pagination, total int64) {
	lastPage := int(math.Ceil(float64(total) / float64(p.PerPage)))
	if lastPage < 1 {
		lastPage = 1
	}
	c.JSON(http.StatusOK, pagedResponse{
		Data: data,
		Meta: PageMeta{
			CurrentPage: p.Page,
			PerPage:     p.PerPage,
			Total:       total,
			LastPage:    lastPage,
		},
	})
}

func parseID(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID format", map[string]interface{}{
			"id": idStr,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "The id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// queryBool parses an optional boolean query parameter. Absent means fallback.
func queryBool(c *gin.Context, name string, fallback bool) (bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", export.ErrInvalidParam, name)
	}
	return v, nil
}

// rejectUnknownParams answers 400 when the query carries a name outside allowed.
func rejectUnknownParams(c *gin.Context, allowed ...string) bool {
	known := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		known[name] = struct{}{}
	}
	var unknown []string
	for name := range c.Request.URL.Query() {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return false
	}
	sort.Strings(unknown)
	fields := make(map[string]string, len(unknown))
	for _, name := range unknown {
		fields[name] = "is not a recognized parameter"
	}
	apperrors.RespondWithValidationError(c, fields)
	return true
}

func pagingParams(names ...string) []string {
	return append(append([]string{}, names...), "page", "per_page")
}

// bindError answers a failed ShouldBind with per-field messages when available.
func bindError(c *gin.Context, err error) {
	middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
		"error": err.Error(),
	})
	if fields := apperrors.ValidationFields(err); fields != nil {
		apperrors.RespondWithValidationError(c, fields)
		return
	}
	apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "The request body could not be parsed")
}

// respondError maps service and export errors onto HTTP responses.
func respondError(c *gin.Context, err error, action string) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrLocaleNotFound):
		apperrors.NotFound(c, apperrors.LocaleNotFound, "The requested locale does not exist")
	case errors.Is(err, service.ErrTagNotFound):
		apperrors.NotFound(c, apperrors.TagNotFound, "The requested tag does not exist")
	case errors.Is(err, service.ErrTranslationNotFound):
		apperrors.NotFound(c, apperrors.TranslationNotFound, "The requested translation does not exist")
	case errors.Is(err, service.ErrDuplicateKey):
		apperrors.Conflict(c, apperrors.TranslationKeyExists, "A translation with this key already exists for the locale")
	case errors.Is(err, service.ErrLocaleCodeExists):
		apperrors.Conflict(c, apperrors.LocaleCodeExists, "A locale with this code already exists")
	case errors.Is(err, service.ErrTagExists):
		apperrors.Conflict(c, apperrors.TagExists, "A tag with this name or slug already exists")
	case errors.Is(err, service.ErrLocaleInUse):
		apperrors.BadRequest(c, apperrors.LocaleInUse, "Cannot delete a locale that still has translations")
	case errors.Is(err, service.ErrLocaleIsDefault):
		apperrors.BadRequest(c, apperrors.LocaleDefaultProtected, "Cannot delete the default locale")
	case errors.Is(err, service.ErrTagInUse):
		apperrors.Unprocessable(c, apperrors.TagInUse, "Cannot delete a tag that is attached to translations")
	case errors.Is(err, service.ErrInvalidBulkAction), errors.Is(err, export.ErrInvalidParam):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
	case service.IsTransient(err):
		log.Error("Backing store unavailable", err, map[string]interface{}{
			"action": action,
		})
		apperrors.Unavailable(c, "The service is temporarily unavailable, please retry", err)
	default:
		log.Error("Request failed", err, map[string]interface{}{
			"action": action,
		})
		apperrors.InternalError(c, "", err)
	}
}
