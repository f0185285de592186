// Package export builds the cacheable JSON projections served by the export
// endpoints: the fetch filter for each request, the flat or nested shape of the
// rows, and the deterministic cache fingerprint.
package export

import (
	"fmt"
	"strings"
	"time"
)

// Kind names an export variant. It is part of every fingerprint.
type Kind string

const (
	KindLocale Kind = "locale"
	KindAll    Kind = "all"
	KindKeys   Kind = "keys"
	KindTag    Kind = "tag"
	KindStats  Kind = "stats"
)

// Format selects the output shape of an export.
type Format string

const (
	FormatFlat   Format = "flat"
	FormatNested Format = "nested"
)

// ParseFormat accepts "", "flat" and "nested". The empty string means flat.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatFlat:
		return FormatFlat, nil
	case FormatNested:
		return FormatNested, nil
	default:
		return "", fmt.Errorf("%w: format must be flat or nested, got %q", ErrInvalidParam, s)
	}
}

// Row is one translation as read for an export.
type Row struct {
	Key        string
	Value      string
	Metadata   map[string]string
	LocaleCode string
	IsActive   bool
	UpdatedAt  time.Time
}

// LastUpdated returns the newest UpdatedAt among rows, or nil when rows is empty.
func LastUpdated(rows []Row) *time.Time {
	var latest time.Time
	for _, r := range rows {
		if r.UpdatedAt.After(latest) {
			latest = r.UpdatedAt
		}
	}
	if latest.IsZero() {
		return nil
	}
	latest = latest.UTC()
	return &latest
}

// CountActive returns how many rows are active.
func CountActive(rows []Row) int {
	n := 0
	for _, r := range rows {
		if r.IsActive {
			n++
		}
	}
	return n
}
