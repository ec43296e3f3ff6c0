package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	StoragePath      string
	DatabaseURL      string
	FFmpegPath       string
	WorkerCount      int
	QueueCapacity    int
	StageTimeout     time.Duration
	LivenessWindow   time.Duration
	Retention        time.Duration
	MaxUploadBytes   int64
	RateLimitPerMin  int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL is optional; when set, job records are
// kept in PostgreSQL instead of memory.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		StoragePath:      getEnv("STORAGE_PATH", "./data"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		WorkerCount:      getEnvInt("WORKER_COUNT", 4),
		QueueCapacity:    getEnvInt("QUEUE_CAPACITY", 64),
		StageTimeout:     time.Second * time.Duration(getEnvInt("STAGE_TIMEOUT_SECONDS", 300)),
		LivenessWindow:   time.Second * time.Duration(getEnvInt("LIVENESS_WINDOW_SECONDS", 600)),
		Retention:        time.Hour * time.Duration(getEnvInt("RETENTION_HOURS", 24)),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 512)) << 20,
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 900)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 900)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.WorkerCount <= 0 {
		return nil, fmt.Errorf("WORKER_COUNT must be positive")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if cfg.LivenessWindow <= cfg.StageTimeout {
		return nil, fmt.Errorf("LIVENESS_WINDOW_SECONDS must exceed STAGE_TIMEOUT_SECONDS")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
