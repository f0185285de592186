package export

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ikkim/translation-backend/pkg/util"
)

const (
	MaxKeys      = 100
	MaxKeyLength = 255
)

// SortField is a column the translation list may be ordered by.
type SortField string

const (
	SortKey        SortField = "key"
	SortValue      SortField = "value"
	SortCreatedAt  SortField = "created_at"
	SortUpdatedAt  SortField = "updated_at"
	SortVerifiedAt SortField = "verified_at"
	SortIsVerified SortField = "is_verified"
	// sortExport orders by locale code then key so grouped output is stable.
	sortExport SortField = "export"
)

var sortAllowList = map[string]SortField{
	"key":              SortKey,
	"value":            SortValue,
	"created_at":       SortCreatedAt,
	"updated_at":       SortUpdatedAt,
	"verified_at":      SortVerifiedAt,
	"is_verified":      SortIsVerified,
	"is_verified_sort": SortIsVerified,
}

// Filter is the data-fetch predicate handed to the translation repository.
// Zero values mean "no restriction".
type Filter struct {
	LocaleCode        string
	LocaleCodes       []string
	TagSlugs          []string // ANY of
	Keys              []string // exact match
	ActiveOnly        bool     // translations.is_active = true
	ActiveLocalesOnly bool     // locales.is_active = true
	IsActive          *bool
	IsVerified        *bool
	Search            string
	RankBySearch      bool
	CreatedFrom       *time.Time
	CreatedTo         *time.Time

	SortBy   SortField
	SortDesc bool

	WithLocale bool
	WithTags   bool
}

// JoinsLocale reports whether the predicate needs the locales table.
func (f Filter) JoinsLocale() bool {
	return f.LocaleCode != "" || len(f.LocaleCodes) > 0 || f.ActiveLocalesOnly
}

// IsExportOrder reports whether rows should come back grouped for shaping.
func (f Filter) IsExportOrder() bool {
	return f.SortBy == sortExport
}

// FilterParams are the recognized list and search parameters.
type FilterParams struct {
	Locale        string `form:"locale"`
	Tag           string `form:"tag"`
	Tags          string `form:"tags"`
	IsActive      *bool  `form:"is_active"`
	IsVerified    *bool  `form:"is_verified"`
	Search        string `form:"search"`
	Q             string `form:"q"`
	CreatedFrom   string `form:"created_from"`
	CreatedTo     string `form:"created_to"`
	SortBy        string `form:"sort_by"`
	SortDirection string `form:"sort_direction"`
}

// ListParamNames are the query names the list endpoint accepts besides paging.
var ListParamNames = []string{
	"locale", "tag", "tags", "is_active", "is_verified", "search",
	"created_from", "created_to", "sort_by", "sort_direction",
}

// SearchParamNames are the query names the ranked search endpoint accepts besides paging.
var SearchParamNames = []string{"q", "locale", "tag", "tags"}

// BuildFilter turns list parameters into a predicate.
// Unknown sort fields fall back to created_at descending.
func BuildFilter(p FilterParams) (Filter, error) {
	f := Filter{
		LocaleCode: strings.ToLower(strings.TrimSpace(p.Locale)),
		TagSlugs:   tagSlugs(p.Tag, p.Tags),
		IsActive:   p.IsActive,
		IsVerified: p.IsVerified,
		Search:     firstNonEmpty(p.Search, p.Q),
		SortBy:     SortCreatedAt,
		SortDesc:   true,
		WithLocale: true,
		WithTags:   true,
	}

	var err error
	if f.CreatedFrom, err = parseDate(p.CreatedFrom, "created_from", false); err != nil {
		return Filter{}, err
	}
	if f.CreatedTo, err = parseDate(p.CreatedTo, "created_to", true); err != nil {
		return Filter{}, err
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedTo.Before(*f.CreatedFrom) {
		return Filter{}, fmt.Errorf("%w: created_to is before created_from", ErrInvalidParam)
	}

	if field, ok := sortAllowList[strings.ToLower(strings.TrimSpace(p.SortBy))]; ok {
		f.SortBy = field
		f.SortDesc = !strings.EqualFold(p.SortDirection, "asc")
	}

	return f, nil
}

// BuildSearchFilter builds the ranked search predicate: active rows only,
// ordered by key prefix match, then value prefix match, then the rest, newest first.
func BuildSearchFilter(p FilterParams) (Filter, error) {
	term := strings.TrimSpace(firstNonEmpty(p.Q, p.Search))
	if n := utf8.RuneCountInString(term); n < 2 || n > 255 {
		return Filter{}, fmt.Errorf("%w: q must be between 2 and 255 characters", ErrInvalidParam)
	}
	return Filter{
		LocaleCode:   strings.ToLower(strings.TrimSpace(p.Locale)),
		TagSlugs:     tagSlugs(p.Tag, p.Tags),
		ActiveOnly:   true,
		Search:       term,
		RankBySearch: true,
		SortBy:       SortCreatedAt,
		SortDesc:     true,
		WithLocale:   true,
		WithTags:     true,
	}, nil
}

// NormalizeKeys trims, lower-cases, de-duplicates and sorts requested keys,
// enforcing the 1..100 count and 255 character bounds.
func NormalizeKeys(keys []string) ([]string, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if utf8.RuneCountInString(k) > MaxKeyLength {
			return nil, fmt.Errorf("%w: key longer than %d characters", ErrInvalidParam, MaxKeyLength)
		}
		cleaned = append(cleaned, k)
	}
	cleaned = util.SortedUnique(cleaned)
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one key is required", ErrInvalidParam)
	}
	if len(cleaned) > MaxKeys {
		return nil, fmt.Errorf("%w: at most %d keys may be requested", ErrInvalidParam, MaxKeys)
	}
	return cleaned, nil
}

// NormalizeCodes lower-cases, de-duplicates and sorts locale codes or tag slugs.
func NormalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return util.SortedUnique(out)
}

func tagSlugs(single, csv string) []string {
	slugs := util.SplitCSV(csv)
	if s := strings.TrimSpace(single); s != "" {
		slugs = append(slugs, s)
	}
	return NormalizeCodes(slugs)
}

func parseDate(s, name string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD) or RFC3339 timestamp", ErrInvalidParam, name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
