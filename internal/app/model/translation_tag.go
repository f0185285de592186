package model

import (
	"time"

	"github.com/ikkim/translation-backend/pkg/util"
	"gorm.io/gorm"
)

const DefaultTagColor = "#6366f1"

// TranslationTag groups translations by context (web, mobile, auth, ...).
type TranslationTag struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:varchar(500)" json:"description"`
	Color       string    `gorm:"type:varchar(7);not null" json:"color"`
	IsActive    bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	TranslationsCount *int64 `gorm:"-" json:"translations_count,omitempty"`

	Translations []*Translation `gorm:"many2many:translation_translation_tag;" json:"-"`
}

func (TranslationTag) TableName() string {
	return "translation_tags"
}

func (t *TranslationTag) BeforeSave(tx *gorm.DB) error {
	if t.Slug == "" {
		t.Slug = util.Slugify(t.Name)
	}
	if t.Color == "" {
		t.Color = DefaultTagColor
	}
	return nil
}
