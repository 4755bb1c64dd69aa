package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// CacheCapacity bounds the shared in-memory cache (entries).
	CacheCapacity int

	// HTTPTimeout is the outbound client's overall ceiling; individual
	// datasets set tighter per-call deadlines.
	HTTPTimeout time.Duration

	// WarmInterval controls the periodic NOAA cache warmer; 0 disables it.
	WarmInterval time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.CacheCapacity = getenvInt("CACHE_CAPACITY", 50)
	if cfg.CacheCapacity <= 0 {
		return nil, fmt.Errorf("CACHE_CAPACITY must be positive, got %d", cfg.CacheCapacity)
	}

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "20s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	warmStr := getenvDefault("WARM_INTERVAL", "5m")
	warm, err := time.ParseDuration(warmStr)
	if err != nil {
		return nil, fmt.Errorf("invalid WARM_INTERVAL: %w", err)
	}
	cfg.WarmInterval = warm

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
