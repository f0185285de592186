package export

import (
	"strconv"
	"strings"
)

// LocaleRequest exports one locale.
type LocaleRequest struct {
	Locale          string
	Tags            []string
	Format          Format
	IncludeMetadata bool
}

// AllRequest exports every active locale.
type AllRequest struct {
	Tags            []string
	ActiveOnly      bool
	Format          Format
	IncludeMetadata bool
}

// KeysRequest exports specific keys across locales.
type KeysRequest struct {
	Keys            []string
	Locales         []string
	Format          Format
	IncludeMetadata bool
}

// TagRequest exports every translation carrying one tag.
type TagRequest struct {
	Tag             string
	Locales         []string
	Format          Format
	IncludeMetadata bool
}

func normalizeFormat(f Format) Format {
	if f == FormatNested {
		return FormatNested
	}
	return FormatFlat
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (r LocaleRequest) Normalize() LocaleRequest {
	return LocaleRequest{
		Locale:          strings.ToLower(strings.TrimSpace(r.Locale)),
		Tags:            NormalizeCodes(r.Tags),
		Format:          normalizeFormat(r.Format),
		IncludeMetadata: r.IncludeMetadata,
	}
}

func (r LocaleRequest) Params() map[string]interface{} {
	return map[string]interface{}{
		"tags":             nonNil(r.Tags),
		"format":           string(r.Format),
		"include_metadata": r.IncludeMetadata,
	}
}

// IsDefault reports whether only default parameters were given.
func (r LocaleRequest) IsDefault() bool {
	return len(r.Tags) == 0 && r.Format == FormatFlat && !r.IncludeMetadata
}

func (r LocaleRequest) Filter() Filter {
	return Filter{
		LocaleCode: r.Locale,
		TagSlugs:   r.Tags,
		ActiveOnly: true,
		SortBy:     sortExport,
	}
}

func (r AllRequest) Normalize() AllRequest {
	return AllRequest{
		Tags:            NormalizeCodes(r.Tags),
		ActiveOnly:      r.ActiveOnly,
		Format:          normalizeFormat(r.Format),
		IncludeMetadata: r.IncludeMetadata,
	}
}

func (r AllRequest) Params() map[string]interface{} {
	return map[string]interface{}{
		"tags":             nonNil(r.Tags),
		"active_only":      r.ActiveOnly,
		"format":           string(r.Format),
		"include_metadata": r.IncludeMetadata,
	}
}

func (r AllRequest) IsDefault() bool {
	return len(r.Tags) == 0 && r.ActiveOnly && r.Format == FormatFlat && !r.IncludeMetadata
}

func (r AllRequest) Filter() Filter {
	return Filter{
		TagSlugs:          r.Tags,
		ActiveOnly:        r.ActiveOnly,
		ActiveLocalesOnly: true,
		SortBy:            sortExport,
	}
}

// Normalize cleans keys and locales. Keys are validated by NormalizeKeys.
func (r KeysRequest) Normalize() (KeysRequest, error) {
	keys, err := NormalizeKeys(r.Keys)
	if err != nil {
		return KeysRequest{}, err
	}
	return KeysRequest{
		Keys:            keys,
		Locales:         NormalizeCodes(r.Locales),
		Format:          normalizeFormat(r.Format),
		IncludeMetadata: r.IncludeMetadata,
	}, nil
}

func (r KeysRequest) Params() map[string]interface{} {
	return map[string]interface{}{
		"keys":             nonNil(r.Keys),
		"locales":          nonNil(r.Locales),
		"format":           string(r.Format),
		"include_metadata": r.IncludeMetadata,
	}
}

// Identifier names the request in its fingerprint: the first key plus how many follow.
// The full key list is covered by the parameter hash.
func (r KeysRequest) Identifier() string {
	if len(r.Keys) == 0 {
		return "none"
	}
	if len(r.Keys) == 1 {
		return r.Keys[0]
	}
	return r.Keys[0] + "+" + strconv.Itoa(len(r.Keys)-1)
}

func (r KeysRequest) Filter() Filter {
	return Filter{
		Keys:        r.Keys,
		LocaleCodes: r.Locales,
		ActiveOnly:  true,
		SortBy:      sortExport,
	}
}

func (r TagRequest) Normalize() TagRequest {
	return TagRequest{
		Tag:             strings.ToLower(strings.TrimSpace(r.Tag)),
		Locales:         NormalizeCodes(r.Locales),
		Format:          normalizeFormat(r.Format),
		IncludeMetadata: r.IncludeMetadata,
	}
}

func (r TagRequest) Params() map[string]interface{} {
	return map[string]interface{}{
		"locales":          nonNil(r.Locales),
		"format":           string(r.Format),
		"include_metadata": r.IncludeMetadata,
	}
}

func (r TagRequest) Filter() Filter {
	return Filter{
		TagSlugs:    []string{r.Tag},
		LocaleCodes: r.Locales,
		ActiveOnly:  true,
		SortBy:      sortExport,
	}
}
