// Package config loads IAMS configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the server needs to start.
type Config struct {
	// DatabaseURL is the connection string for the shared relational
	// database. Required unless OfflineMode is set.
	DatabaseURL string

	// OfflineMode substitutes a local embedded sqlite database for the
	// configured one. The substitution is logged at startup.
	OfflineMode bool

	// OfflinePath is where the embedded database lives when OfflineMode
	// is on. Defaults to iams-offline.db; ":memory:" is accepted.
	OfflinePath string

	// ListenAddr is the HTTP listen address.
	ListenAddr string

	// DBTimeout bounds every database round-trip.
	DBTimeout time.Duration

	// DashboardCacheTTL controls how long dashboard payloads may be
	// served from cache. Zero disables caching.
	DashboardCacheTTL time.Duration
}

// FromEnv reads configuration from environment variables.
// DATABASE_URL is required unless OFFLINE_MODE is true.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		OfflinePath:       "iams-offline.db",
		ListenAddr:        ":8080",
		DBTimeout:         10 * time.Second,
		DashboardCacheTTL: 15 * time.Second,
	}

	if v := os.Getenv("OFFLINE_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid OFFLINE_MODE %q: %w", v, err)
		}
		cfg.OfflineMode = b
	}

	if v := os.Getenv("OFFLINE_DB_PATH"); v != "" {
		cfg.OfflinePath = v
	}

	if v := os.Getenv("IAMS_LISTEN"); v != "" {
		cfg.ListenAddr = v
	}

	if v := os.Getenv("IAMS_DB_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.DBTimeout = time.Duration(secs) * time.Second
		}
	}

	if v := os.Getenv("IAMS_DASHBOARD_CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			cfg.DashboardCacheTTL = time.Duration(secs) * time.Second
		}
	}

	if cfg.DatabaseURL == "" && !cfg.OfflineMode {
		return nil, fmt.Errorf("DATABASE_URL is required (set OFFLINE_MODE=true to use the embedded database)")
	}

	return cfg, nil
}
