// Package db opens the gorm connection for the IAMS service. The database
// type is resolved from the DATABASE_URL scheme; OFFLINE_MODE substitutes a
// local embedded sqlite database.
package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/critsec/iams/pkg/config"
)

// Connect opens the database described by cfg. When cfg.OfflineMode is set
// the configured DATABASE_URL is ignored and an embedded sqlite database is
// opened instead; the substitution is logged.
func Connect(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}

	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	if cfg.OfflineMode {
		log.Info("OFFLINE_MODE enabled, substituting embedded sqlite database",
			"path", cfg.OfflinePath)
		gdb, err := gorm.Open(sqlite.Open(cfg.OfflinePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open embedded database: %w", err)
		}
		return gdb, nil
	}

	dialector, err := dialectorFor(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("access underlying pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return gdb, nil
}

// dialectorFor picks the gorm driver from the connection URL scheme.
func dialectorFor(url string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url), nil
	case strings.HasPrefix(url, "mysql://"):
		return mysql.Open(strings.TrimPrefix(url, "mysql://")), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme in %q (expected postgres:// or mysql://)", redact(url))
	}
}

// redact strips credentials from a connection URL for logging.
func redact(url string) string {
	at := strings.LastIndex(url, "@")
	if at < 0 {
		return url
	}
	scheme := strings.Index(url, "://")
	if scheme < 0 {
		return url[at:]
	}
	return url[:scheme+3] + "***" + url[at:]
}
