package db

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"time"

	"gorm.io/gorm"
)

// WithMigrationLock runs fn while holding a database-wide migration lock, so
// several server replicas sharing one database never run AutoMigrate
// concurrently. PostgreSQL uses an advisory lock; MySQL and sqlite fall back
// to an insert-or-fail lock table with stale-lock recovery.
func WithMigrationLock(ctx context.Context, db *gorm.DB, fn func() error) error {
	if db.Dialector.Name() == "postgres" {
		return withAdvisoryLock(ctx, db, fn)
	}
	return withLockTable(ctx, db, fn)
}

var advisoryLockID = int64(crc32.ChecksumIEEE([]byte("iams-migration")))

func withAdvisoryLock(ctx context.Context, db *gorm.DB, fn func() error) error {
	if err := db.WithContext(ctx).Exec("SELECT pg_advisory_lock(?)", advisoryLockID).Error; err != nil {
		return fmt.Errorf("acquire migration advisory lock: %w", err)
	}
	defer func() {
		_ = db.Exec("SELECT pg_advisory_unlock(?)", advisoryLockID).Error
	}()
	return fn()
}

// migrationLock is the table-based lock row for non-PostgreSQL databases.
type migrationLock struct {
	ID       string    `gorm:"primaryKey;column:id"`
	LockedAt time.Time `gorm:"column:locked_at"`
	LockedBy string    `gorm:"column:locked_by"`
}

func (migrationLock) TableName() string { return "migration_lock" }

func withLockTable(ctx context.Context, db *gorm.DB, fn func() error) error {
	if err := db.AutoMigrate(&migrationLock{}); err != nil {
		return fmt.Errorf("create migration lock table: %w", err)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	row := migrationLock{ID: "migration", LockedBy: hostname}

	const maxRetries = 30
	const retryInterval = time.Second
	const staleLockAge = 5 * time.Minute

	acquired := false
	for i := 0; i < maxRetries; i++ {
		// A holder that crashed leaves its row behind; reap anything old.
		db.WithContext(ctx).
			Where("id = ? AND locked_at < ?", "migration", time.Now().Add(-staleLockAge)).
			Delete(&migrationLock{})

		row.LockedAt = time.Now()
		if err := db.WithContext(ctx).Create(&row).Error; err == nil {
			acquired = true
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	if !acquired {
		return fmt.Errorf("migration lock held after %d attempts", maxRetries)
	}

	defer func() {
		db.Where("id = ?", "migration").Delete(&migrationLock{})
	}()

	return fn()
}
