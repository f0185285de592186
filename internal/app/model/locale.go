package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Locale is a language/region a translation can be written in.
// At most one locale carries IsDefault.
type Locale struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Code       string    `gorm:"type:varchar(3);uniqueIndex;not null" json:"code"`
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	NativeName string    `gorm:"type:varchar(100)" json:"native_name"`
	IsActive   bool      `gorm:"not null;index" json:"is_active"`
	IsDefault  bool      `gorm:"not null" json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Populated only when listed with statistics
	TranslationsCount       *int64 `gorm:"-" json:"translations_count,omitempty"`
	ActiveTranslationsCount *int64 `gorm:"-" json:"active_translations_count,omitempty"`

	Translations []Translation `gorm:"foreignKey:LocaleID" json:"-"`
}

func (Locale) TableName() string {
	return "locales"
}

// DisplayName prefers the native name.
func (l *Locale) DisplayName() string {
	if l.NativeName != "" {
		return l.NativeName
	}
	return l.Name
}

func (l *Locale) BeforeSave(tx *gorm.DB) error {
	l.Code = strings.ToLower(strings.TrimSpace(l.Code))
	return nil
}
