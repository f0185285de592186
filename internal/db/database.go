package db

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/ikkim/translation-backend/config"
	appLogger "github.com/ikkim/translation-backend/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

var DB *gorm.DB

// Dialector picks the gorm driver named by cfg.Driver.
func Dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "mysql":
		return mysql.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Initialize opens the database connection and installs the tracing plugin.
func Initialize(cfg *config.DatabaseConfig) error {
	dialector, err := Dialector(cfg)
	if err != nil {
		return err
	}

	appLogger.Info("Connecting to database", appLogger.Fields{
		"driver":   cfg.Driver,
		"host":     cfg.Host,
		"port":     cfg.Port,
		"database": cfg.DBName,
	})

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := DB.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return fmt.Errorf("failed to install tracing plugin: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	maxOpen, maxIdle := 100, 10
	if cfg.Driver == "sqlite" {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		maxOpen, maxIdle = 1, 1
	}
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	appLogger.Info("Database connection established successfully", appLogger.Fields{
		"max_idle_conns": maxIdle,
		"max_open_conns": maxOpen,
	})
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
