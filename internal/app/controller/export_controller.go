package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/translation-backend/internal/app/service"
	apperrors "github.com/ikkim/translation-backend/internal/errors"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/ikkim/translation-backend/internal/middleware"
	"github.com/ikkim/translation-backend/pkg/util"
)

type ExportController struct {
	exportService service.ExportService
}

func NewExportController(exportService service.ExportService) *ExportController {
	return &ExportController{exportService: exportService}
}

type ExportKeysRequest struct {
	Keys            []string `json:"keys" binding:"required,min=1,max=100,dive,max=255"`
	Locales         []string `json:"locales" binding:"omitempty,dive,locale_code"`
	Format          string   `json:"format" binding:"omitempty,oneof=flat nested"`
	IncludeMetadata bool     `json:"include_metadata"`
}

// exportOptions reads the format and include_metadata parameters shared by every export.
func exportOptions(c *gin.Context) (export.Format, bool, error) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return "", false, err
	}
	includeMetadata, err := queryBool(c, "include_metadata", false)
	if err != nil {
		return "", false, err
	}
	return format, includeMetadata, nil
}

// ExportLocale returns every active translation of one locale
// GET /api/v1/export/locale/:locale
func (ctrl *ExportController) ExportLocale(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	code := strings.ToLower(c.Param("locale"))
	if !localeCodePattern.MatchString(code) {
		apperrors.NotFound(c, apperrors.LocaleNotFound, "The requested locale does not exist")
		return
	}

	format, includeMetadata, err := exportOptions(c)
	if err != nil {
		respondError(c, err, "export_locale")
		return
	}

	resp, err := ctrl.exportService.ExportLocale(c.Request.Context(), export.LocaleRequest{
		Locale:          code,
		Tags:            util.SplitCSV(c.Query("tags")),
		Format:          format,
		IncludeMetadata: includeMetadata,
	})
	if err != nil {
		respondError(c, err, "export_locale")
		return
	}

	log.Info("Locale exported", map[string]interface{}{
		"locale": code,
		"count":  resp.Meta.TotalCount,
	})

	c.JSON(http.StatusOK, resp)
}

// ExportAll returns every active locale keyed by code
// GET /api/v1/export/all
func (ctrl *ExportController) ExportAll(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	format, includeMetadata, err := exportOptions(c)
	if err != nil {
		respondError(c, err, "export_all")
		return
	}
	activeOnly, err := queryBool(c, "active_only", true)
	if err != nil {
		respondError(c, err, "export_all")
		return
	}

	resp, err := ctrl.exportService.ExportAll(c.Request.Context(), export.AllRequest{
		Tags:            util.SplitCSV(c.Query("tags")),
		ActiveOnly:      activeOnly,
		Format:          format,
		IncludeMetadata: includeMetadata,
	})
	if err != nil {
		respondError(c, err, "export_all")
		return
	}

	log.Info("All locales exported", map[string]interface{}{
		"locales": len(resp.Locales),
		"count":   resp.Meta.TotalTranslations,
	})

	c.JSON(http.StatusOK, resp)
}

// ExportKeys returns the requested keys across locales
// POST /api/v1/export/keys
func (ctrl *ExportController) ExportKeys(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ExportKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := ctrl.exportService.ExportKeys(c.Request.Context(), export.KeysRequest{
		Keys:            req.Keys,
		Locales:         req.Locales,
		Format:          export.Format(req.Format),
		IncludeMetadata: req.IncludeMetadata,
	})
	if err != nil {
		respondError(c, err, "export_keys")
		return
	}

	log.Info("Keys exported", map[string]interface{}{
		"requested": resp.Meta.RequestedKeys,
		"found":     resp.Meta.FoundTranslations,
	})

	c.JSON(http.StatusOK, resp)
}

// ExportTag returns every active translation carrying the tag
// GET /api/v1/export/tag/:slug
func (ctrl *ExportController) ExportTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	slug := c.Param("slug")
	format, includeMetadata, err := exportOptions(c)
	if err != nil {
		respondError(c, err, "export_tag")
		return
	}

	resp, err := ctrl.exportService.ExportTag(c.Request.Context(), export.TagRequest{
		Tag:             slug,
		Locales:         util.SplitCSV(c.Query("locales")),
		Format:          format,
		IncludeMetadata: includeMetadata,
	})
	if err != nil {
		respondError(c, err, "export_tag")
		return
	}

	log.Info("Tag exported", map[string]interface{}{
		"tag":   resp.Tag,
		"count": resp.Meta.TotalCount,
	})

	c.JSON(http.StatusOK, resp)
}

// Stats returns the cached aggregate counts
// GET /api/v1/export/stats
func (ctrl *ExportController) Stats(c *gin.Context) {
	resp, err := ctrl.exportService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err, "export_stats")
		return
	}
	c.JSON(http.StatusOK, resp)
}
