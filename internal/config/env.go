package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	Port            string
	ResultDir       string
	ShutdownTimeout time.Duration
}

// PipelineConfig defines recompression behavior.
type PipelineConfig struct {
	// DefaultQuality is used when a request does not carry a quality value.
	// Scalar in [0,1]; 1.0 = highest fidelity for rasterized pages.
	DefaultQuality float64
	// Grayscale re-encodes rasterized pages as grayscale JPEG.
	Grayscale bool
}

// RedisConfig defines optional Redis connectivity for the job status store.
type RedisConfig struct {
	URL string
}

// S3Config defines optional S3 delivery of compressed outputs.
type S3Config struct {
	Bucket   string
	Prefix   string
	Password string
}

// Config is the top-level configuration.
type Config struct {
	Logging  LoggingConfig
	Axiom    AxiomConfig
	Server   ServerConfig
	Pipeline PipelineConfig
	Redis    RedisConfig
	S3       S3Config
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	// Logging defaults
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/pdfpress.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom defaults
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdfpress",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	// Server defaults
	cfg.Server = ServerConfig{
		Port:            getEnv("PORT", "8080"),
		ResultDir:       getEnv("RESULT_DIR", "uploads/results"),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
	}

	// Pipeline defaults
	cfg.Pipeline = PipelineConfig{
		DefaultQuality: parseFloat(getEnv("DEFAULT_QUALITY", "0.8"), 0.8),
		Grayscale:      parseBool(getEnv("JPEG_GRAYSCALE", "0")),
	}
	if cfg.Pipeline.DefaultQuality < 0 {
		cfg.Pipeline.DefaultQuality = 0
	}
	if cfg.Pipeline.DefaultQuality > 1 {
		cfg.Pipeline.DefaultQuality = 1
	}

	// Redis is optional; empty URL keeps the in-memory status store.
	cfg.Redis = RedisConfig{
		URL: getEnv("REDIS_URL", ""),
	}

	// S3 delivery is optional; empty bucket disables uploads.
	cfg.S3 = S3Config{
		Bucket:   getEnv("RESULT_S3_BUCKET", ""),
		Prefix:   getEnv("RESULT_S3_PREFIX", "compressed"),
		Password: getEnv("RESULT_S3_PASSWORD", ""),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
