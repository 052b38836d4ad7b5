package activity

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store writes and reads the activity stream.
type Store struct {
	db *gorm.DB
}

// NewStore creates an activity Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a Store bound to the given transaction. Submission handlers
// use it so the activity row commits atomically with its event row.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// AutoMigrate creates or updates the user_activities table.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&UserActivity{})
}

// Create inserts an activity row. Timestamp defaults to now.
func (s *Store) Create(a *UserActivity) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	if err := s.db.Create(a).Error; err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// Recent returns the newest activity rows, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]UserActivity, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []UserActivity
	if err := s.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list recent activities: %w", err)
	}
	return rows, nil
}
