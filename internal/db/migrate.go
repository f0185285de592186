package db

import (
	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the service, parents first.
func Models() []interface{} {
	return []interface{}{
		&model.Locale{},
		&model.TranslationTag{},
		&model.Translation{},
	}
}

// Migrate runs database migrations and seeds the base locales and tags.
func Migrate() error {
	return MigrateDB(DB)
}

func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := SeedBaseData(db); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", logger.Fields{
		"models_count": len(models),
	})
	return nil
}

// SeedBaseData inserts the default locales and tags into empty tables.
func SeedBaseData(db *gorm.DB) error {
	if err := seedLocales(db); err != nil {
		logger.Error("Failed to seed locales", err)
		return err
	}
	if err := seedTags(db); err != nil {
		logger.Error("Failed to seed tags", err)
		return err
	}
	return nil
}

func seedLocales(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Locale{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Locales already seeded, skipping...", logger.Fields{"existing_count": count})
		return nil
	}

	locales := []model.Locale{
		{Code: "en", Name: "English", NativeName: "English", IsActive: true, IsDefault: true},
		{Code: "es", Name: "Spanish", NativeName: "Español", IsActive: true},
		{Code: "fr", Name: "French", NativeName: "Français", IsActive: true},
		{Code: "de", Name: "German", NativeName: "Deutsch", IsActive: true},
		{Code: "it", Name: "Italian", NativeName: "Italiano", IsActive: true},
		{Code: "pt", Name: "Portuguese", NativeName: "Português", IsActive: true},
		{Code: "ru", Name: "Russian", NativeName: "Русский", IsActive: true},
		{Code: "ja", Name: "Japanese", NativeName: "日本語", IsActive: true},
		{Code: "ko", Name: "Korean", NativeName: "한국어", IsActive: true},
		{Code: "zh", Name: "Chinese", NativeName: "中文", IsActive: true},
	}
	if err := db.Create(&locales).Error; err != nil {
		return err
	}

	logger.Info("Locales seeded successfully", logger.Fields{"total_locales": len(locales)})
	return nil
}

func seedTags(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.TranslationTag{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Tags already seeded, skipping...", logger.Fields{"existing_count": count})
		return nil
	}

	tags := []model.TranslationTag{
		{Name: "mobile", Description: "Mobile application translations", Color: "#3b82f6", IsActive: true},
		{Name: "desktop", Description: "Desktop application translations", Color: "#10b981", IsActive: true},
		{Name: "web", Description: "Web application translations", Color: "#f59e0b", IsActive: true},
		{Name: "admin", Description: "Admin interface translations", Color: "#ef4444", IsActive: true},
		{Name: "api", Description: "API response translations", Color: "#8b5cf6", IsActive: true},
		{Name: "auth", Description: "Authentication related translations", Color: "#ec4899", IsActive: true},
		{Name: "navigation", Description: "Navigation menu translations", Color: "#06b6d4", IsActive: true},
		{Name: "forms", Description: "Form field translations", Color: "#84cc16", IsActive: true},
		{Name: "buttons", Description: "Button text translations", Color: "#f97316", IsActive: true},
		{Name: "messages", Description: "User message translations", Color: "#a855f7", IsActive: true},
	}
	if err := db.Create(&tags).Error; err != nil {
		return err
	}

	logger.Info("Tags seeded successfully", logger.Fields{"total_tags": len(tags)})
	return nil
}
