package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	HTTPSPort      string
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins string

	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxIdleTime time.Duration
	DBAcquireTimeout  time.Duration

	RedisURL string

	CertificateCacheTTL     time.Duration
	CertificateListCacheTTL time.Duration

	UploadDir      string
	UploadMaxBytes int64

	CloudinaryCloudName    string
	CloudinaryURL          string
	CloudinaryUploadFolder string

	AdminUsername string
	AdminPassword string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "5000"),
		HTTPSPort:      getEnv("HTTPS_PORT", "5443"),
		TLSCertFile:    getEnv("TLS_CERT_FILE", "ssl/server.crt"),
		TLSKeyFile:     getEnv("TLS_KEY_FILE", "ssl/server.key"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		UploadDir: getEnv("UPLOAD_DIR", "uploads"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryURL:          os.Getenv("CLOUDINARY_URL"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "certificates"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	var err error
	if cfg.DBMaxOpenConns, err = parseInt(getEnv("DB_MAX_OPEN_CONNS", "20")); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.DBMaxIdleConns, err = parseInt(getEnv("DB_MAX_IDLE_CONNS", "5")); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}
	if cfg.DBConnMaxIdleTime, err = parseDuration(getEnv("DB_CONN_MAX_IDLE_TIME", "30s")); err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_IDLE_TIME: %w", err)
	}
	if cfg.DBAcquireTimeout, err = parseDuration(getEnv("DB_ACQUIRE_TIMEOUT", "2s")); err != nil {
		return nil, fmt.Errorf("invalid DB_ACQUIRE_TIMEOUT: %w", err)
	}
	if cfg.CertificateCacheTTL, err = parseDuration(getEnv("CERTIFICATE_CACHE_TTL", "30m")); err != nil {
		return nil, fmt.Errorf("invalid CERTIFICATE_CACHE_TTL: %w", err)
	}
	if cfg.CertificateListCacheTTL, err = parseDuration(getEnv("CERTIFICATE_LIST_CACHE_TTL", "5m")); err != nil {
		return nil, fmt.Errorf("invalid CERTIFICATE_LIST_CACHE_TTL: %w", err)
	}

	maxBytes, err := strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", "10485760"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_BYTES: %w", err)
	}
	cfg.UploadMaxBytes = maxBytes

	return cfg, nil
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CloudinaryEnabled reports whether uploads should go to Cloudinary instead of local disk.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryURL != "" || c.CloudinaryCloudName != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}
