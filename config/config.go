package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	CDN       CDNConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	OTEL      OTELConfig
}

type ServerConfig struct {
	Port            string
	GinMode         string
	Environment     string
	Debug           bool
	Version         string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver   string // postgres, mysql, sqlite
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file path
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type CacheConfig struct {
	Driver     string // redis, memory
	Namespace  string
	WarmupCron string
}

type CDNConfig struct {
	Enabled         bool
	BaseURL         string // CloudFront or custom domain serving the bucket
	PathPrefix      string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // optional S3-compatible endpoint
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	ExportPerMinute int
	BulkPer5Minutes int
	APIPerMinute    int
}

type OTELConfig struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	ServiceName string
	SampleRatio float64
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			Debug:           parseBool(getEnv("APP_DEBUG", "false")),
			Version:         getEnv("APP_VERSION", "1.0.0"),
			ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "15s"), 15*time.Second),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "translations"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "translations.db"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Cache: CacheConfig{
			Driver:     strings.ToLower(getEnv("CACHE_DRIVER", "redis")),
			Namespace:  getEnv("CACHE_NAMESPACE", "translations.export"),
			WarmupCron: getEnv("CACHE_WARMUP_CRON", "*/30 * * * *"),
		},
		CDN: CDNConfig{
			Enabled:         parseBool(getEnv("CDN_ENABLED", "false")),
			BaseURL:         strings.TrimRight(getEnv("CDN_BASE_URL", ""), "/"),
			PathPrefix:      strings.Trim(getEnv("CDN_PATH_PREFIX", "exports"), "/"),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "translation-exports"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("AWS_S3_ENDPOINT", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		RateLimit: RateLimitConfig{
			ExportPerMinute: parseInt(getEnv("RATE_LIMIT_EXPORT_PER_MIN", "100"), 100),
			BulkPer5Minutes: parseInt(getEnv("RATE_LIMIT_BULK_PER_5MIN", "20"), 20),
			APIPerMinute:    parseInt(getEnv("RATE_LIMIT_API_PER_MIN", "60"), 60),
		},
		OTEL: OTELConfig{
			Enabled:     parseBool(getEnv("OTEL_ENABLED", "false")),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    parseBool(getEnv("OTEL_INSECURE", "true")),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "translation-backend"),
			SampleRatio: parseFloat(getEnv("OTEL_SAMPLE_RATIO", "1.0"), 1.0),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects driver names the server cannot wire.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Cache.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported CACHE_DRIVER %q", c.Cache.Driver)
	}
	if c.CDN.Enabled && c.CDN.BaseURL == "" {
		return fmt.Errorf("CDN_BASE_URL is required when CDN_ENABLED is set")
	}
	return nil
}

// IsProduction reports whether the server runs with production semantics.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// ShowErrorDetails reports whether 5xx responses may carry the underlying error.
func (c *Config) ShowErrorDetails() bool {
	return !c.IsProduction() || c.Server.Debug
}

// ExportTTL is the default lifetime of locale and full exports.
func (c *Config) ExportTTL() time.Duration {
	if c.IsProduction() {
		return time.Hour
	}
	return 5 * time.Minute
}

func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.DBName,
		)
	case "sqlite":
		return c.Path
	default:
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
		)
	}
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return b
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
