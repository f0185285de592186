package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"gorm.io/gorm"
)

const shortValueLength = 100

// Translation is one (key, locale) value. The pair is unique.
type Translation struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Key         string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_translations_key_locale,priority:1" json:"key"`
	Value       string     `gorm:"type:text;not null" json:"value"`
	LocaleID    uint       `gorm:"not null;index;uniqueIndex:idx_translations_key_locale,priority:2" json:"locale_id"`
	Description string     `gorm:"type:text" json:"description"`
	Metadata    Metadata   `json:"metadata"`
	IsActive    bool       `gorm:"not null;index" json:"is_active"`
	VerifiedAt  *time.Time `json:"verified_at"`
	VerifiedBy  *uint      `json:"verified_by"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"index" json:"updated_at"`

	// Relationships
	Locale *Locale           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"locale,omitempty"`
	Tags   []*TranslationTag `gorm:"many2many:translation_translation_tag;" json:"tags,omitempty"`
}

func (Translation) TableName() string {
	return "translations"
}

func (t *Translation) BeforeSave(tx *gorm.DB) error {
	t.Key = NormalizeKey(t.Key)
	return nil
}

func (t *Translation) IsVerified() bool {
	return t.VerifiedAt != nil
}

// FormattedKey renders "auth.login.title" as "Auth → Login → Title".
func (t *Translation) FormattedKey() string {
	segments := strings.Split(t.Key, ".")
	for i, s := range segments {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 {
			continue
		}
		segments[i] = string(unicode.ToUpper(r)) + s[size:]
	}
	return strings.Join(segments, " → ")
}

// ShortValue truncates the value to 100 runes for listings.
func (t *Translation) ShortValue() string {
	if utf8.RuneCountInString(t.Value) <= shortValueLength {
		return t.Value
	}
	runes := []rune(t.Value)
	return strings.TrimRightFunc(string(runes[:shortValueLength]), unicode.IsSpace) + "..."
}

// NormalizeKey trims and lower-cases a translation key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
