package repository

import (
	"strings"

	"github.com/ikkim/translation-backend/internal/export"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike escapes LIKE wildcards for use with ESCAPE '!'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// applyTranslationFilter adds the WHERE clauses of f to a query over translations.
// The locales table is joined when the filter needs it or when rows are
// returned in export order.
func applyTranslationFilter(query *gorm.DB, f export.Filter) *gorm.DB {
	if f.JoinsLocale() || f.IsExportOrder() {
		query = query.Joins("JOIN locales ON locales.id = translations.locale_id")
	}

	if f.LocaleCode != "" {
		query = query.Where("locales.code = ?", f.LocaleCode)
	}
	if len(f.LocaleCodes) > 0 {
		query = query.Where("locales.code IN ?", f.LocaleCodes)
	}
	if f.ActiveLocalesOnly {
		query = query.Where("locales.is_active = ?", true)
	}

	if len(f.TagSlugs) > 0 {
		tagged := query.Session(&gorm.Session{NewDB: true}).
			Table(translationTagJoinTable).
			Select(translationTagJoinTable+".translation_id").
			Joins("JOIN translation_tags ON translation_tags.id = "+translationTagJoinTable+".translation_tag_id").
			Where("translation_tags.slug IN ?", f.TagSlugs)
		query = query.Where("translations.id IN (?)", tagged)
	}

	if len(f.Keys) > 0 {
		query = query.Where("translations.key IN ?", f.Keys)
	}

	if f.ActiveOnly {
		query = query.Where("translations.is_active = ?", true)
	} else if f.IsActive != nil {
		query = query.Where("translations.is_active = ?", *f.IsActive)
	}

	if f.IsVerified != nil {
		if *f.IsVerified {
			query = query.Where("translations.verified_at IS NOT NULL")
		} else {
			query = query.Where("translations.verified_at IS NULL")
		}
	}

	if f.CreatedFrom != nil {
		query = query.Where("translations.created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		query = query.Where("translations.created_at <= ?", *f.CreatedTo)
	}

	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		query = query.Where(
			"(LOWER(translations.key) LIKE ? ESCAPE '!' OR LOWER(translations.value) LIKE ? ESCAPE '!' OR LOWER(translations.description) LIKE ? ESCAPE '!')",
			like, like, like,
		)
	}

	return query
}

// orderTranslations applies the filter's ordering. Ranked search puts key
// prefix matches first, then value prefix matches, then the rest.
func orderTranslations(query *gorm.DB, f export.Filter) *gorm.DB {
	if f.IsExportOrder() {
		return query.Order("locales.code ASC").Order("translations.key ASC")
	}

	if f.RankBySearch && strings.TrimSpace(f.Search) != "" {
		prefix := escapeLike(strings.ToLower(strings.TrimSpace(f.Search))) + "%"
		query = query.Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN LOWER(translations.key) LIKE ? ESCAPE '!' THEN 1 WHEN LOWER(translations.value) LIKE ? ESCAPE '!' THEN 2 ELSE 3 END",
			Vars:               []interface{}{prefix, prefix},
			WithoutParentheses: true,
		}})
	}

	direction := "DESC"
	if !f.SortDesc {
		direction = "ASC"
	}

	switch f.SortBy {
	case export.SortKey:
		query = query.Order("translations.key " + direction)
	case export.SortValue:
		query = query.Order("translations.value " + direction)
	case export.SortUpdatedAt:
		query = query.Order("translations.updated_at " + direction)
	case export.SortVerifiedAt:
		query = query.Order("translations.verified_at " + direction)
	case export.SortIsVerified:
		query = query.Order("CASE WHEN translations.verified_at IS NOT NULL THEN 1 ELSE 0 END " + direction)
		query = query.Order("translations.created_at DESC")
	default:
		query = query.Order("translations.created_at " + direction)
	}
	return query.Order("translations.id " + direction)
}
