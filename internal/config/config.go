package config

import (
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	Addr string

	RedisURL    string
	DatabaseURL string

	// Clock bounds enforced at match creation.
	MinTimeMs      int64
	MaxTimeMs      int64
	MaxIncrementMs int64

	ShutdownTimeoutSec int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Addr:               ":8080",
		MinTimeMs:          30 * 1000,
		MaxTimeMs:          60 * 60 * 1000,
		MaxIncrementMs:     60 * 1000,
		ShutdownTimeoutSec: 10,
	}

	if v := strings.TrimSpace(os.Getenv("ADDR")); v != "" {
		cfg.Addr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("MATCH_MIN_TIME_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MinTimeMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MATCH_MAX_TIME_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxTimeMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MATCH_MAX_INCREMENT_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.MaxIncrementMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SHUTDOWN_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ShutdownTimeoutSec = n
		}
	}
	return cfg, nil
}
