// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr     string
	DBPath         string
	RedisURL       string
	CacheTTL       time.Duration
	DrainInterval  time.Duration
	DrainBatchSize int
	DrainEnabled   bool
}

// Load reads configuration from environment variables and returns a validated
// Config. All variables are optional: TASKHIVE_LISTEN_ADDR (127.0.0.1:8080),
// TASKHIVE_DB_PATH (taskhive.db), TASKHIVE_REDIS_URL (empty = in-process
// cache only), TASKHIVE_CACHE_TTL (30s), TASKHIVE_DRAIN_INTERVAL (1m),
// TASKHIVE_DRAIN_BATCH (100). The drain scheduler runs only when no Redis URL
// is configured -- a shared backend implies an external consumer drains the
// outbox -- unless TASKHIVE_DRAIN_ENABLED overrides the topology default.
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("TASKHIVE_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "taskhive.db"
	if v, ok := os.LookupEnv("TASKHIVE_DB_PATH"); ok {
		dbPath = v
	}

	redisURL := os.Getenv("TASKHIVE_REDIS_URL")

	cacheTTL := 30 * time.Second
	if v, ok := os.LookupEnv("TASKHIVE_CACHE_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("TASKHIVE_CACHE_TTL has invalid duration %q: %w", v, err)
		}
		cacheTTL = parsed
	}

	drainInterval := time.Minute
	if v, ok := os.LookupEnv("TASKHIVE_DRAIN_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("TASKHIVE_DRAIN_INTERVAL has invalid duration %q: %w", v, err)
		}
		drainInterval = parsed
	}

	drainBatch := 100
	if v, ok := os.LookupEnv("TASKHIVE_DRAIN_BATCH"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("TASKHIVE_DRAIN_BATCH must be a positive integer, got %q", v)
		}
		drainBatch = parsed
	}

	drainEnabled := redisURL == ""
	if v, ok := os.LookupEnv("TASKHIVE_DRAIN_ENABLED"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("TASKHIVE_DRAIN_ENABLED must be a boolean, got %q", v)
		}
		drainEnabled = parsed
	}

	return &Config{
		ListenAddr:     listenAddr,
		DBPath:         dbPath,
		RedisURL:       redisURL,
		CacheTTL:       cacheTTL,
		DrainInterval:  drainInterval,
		DrainBatchSize: drainBatch,
		DrainEnabled:   drainEnabled,
	}, nil
}
