package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	defaultDSN     = "host=localhost user=postgres password=postgres dbname=waste_console port=5432 sslmode=disable"
	defaultOrigins = "http://localhost:5173"

	PDFEngineNative = "native"
	PDFEngineChrome = "chrome"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	StoreBaseURL string
	StoreTimeout time.Duration

	ExportTimeout time.Duration
	PDFEngine     string // native | chrome
	PDFFontPath   string // TTF used by the native engine, bundled Go font when empty
	RegionName    string

	LogLevel  string
	LogFormat string

	SessionTTL time.Duration
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:   getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		CORSOrigins:   getEnv("CORS_ALLOWED_ORIGINS", defaultOrigins),
		StoreBaseURL:  strings.TrimRight(getEnv("STORE_BASE_URL", "http://localhost:3000/api"), "/"),
		StoreTimeout:  getDuration("STORE_TIMEOUT", 15*time.Second),
		ExportTimeout: getDuration("EXPORT_TIMEOUT", 2*time.Minute),
		PDFEngine:     strings.ToLower(getEnv("PDF_ENGINE", PDFEngineNative)),
		PDFFontPath:   getEnv("PDF_FONT_PATH", ""),
		RegionName:    getEnv("REGION_NAME", "Bucharest"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		SessionTTL:    getDuration("SESSION_TTL", 12*time.Hour),
	}
}

// Validate returns the first setting that makes the server unsafe to start.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.StoreBaseURL == "" {
		return errors.New("STORE_BASE_URL is not set")
	}
	if c.PDFEngine != PDFEngineNative && c.PDFEngine != PDFEngineChrome {
		return errors.Errorf("PDF_ENGINE must be %q or %q, got %q", PDFEngineNative, PDFEngineChrome, c.PDFEngine)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

// Warnings lists defaults that are fine locally but not in production.
func (c *Config) Warnings() []string {
	var out []string
	if c.DatabaseDSN == defaultDSN {
		out = append(out, "DATABASE_DSN uses the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == defaultOrigins {
		out = append(out, "CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getDuration accepts Go durations ("90s") or plain seconds ("90").
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
