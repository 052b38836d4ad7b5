package activity

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupActivityStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := NewStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

func TestRecentHandlerNewestFirst(t *testing.T) {
	store := setupActivityStore(t)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, typ := range []Type{TypeLogAdded, TypeImageCaptured, TypeVMCreated} {
		require.NoError(t, store.Create(&UserActivity{
			Type:      typ,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	rec := httptest.NewRecorder()
	Router(store).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, 200, rec.Code)

	var resp struct {
		Items []UserActivity `json:"items"`
		Size  int            `json:"size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Size)
	assert.Equal(t, TypeVMCreated, resp.Items[0].Type)
	assert.Equal(t, TypeLogAdded, resp.Items[2].Type)
}

func TestRecentHandlerLimit(t *testing.T) {
	store := setupActivityStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Create(&UserActivity{Type: TypeLogAdded}))
	}

	rec := httptest.NewRecorder()
	Router(store).ServeHTTP(rec, httptest.NewRequest("GET", "/?limit=2", nil))
	require.Equal(t, 200, rec.Code)

	var resp struct {
		Size int `json:"size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Size)
}
