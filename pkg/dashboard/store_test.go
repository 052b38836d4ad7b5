package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/critsec/iams/pkg/activity"
	"github.com/critsec/iams/pkg/registry"
)

func setupDashboard(t *testing.T) (*gorm.DB, *Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	activities := activity.NewStore(db)
	require.NoError(t, activities.AutoMigrate())
	require.NoError(t, db.AutoMigrate(&registry.Project{}, &registry.Asset{}))

	return db, NewStore(db)
}

func seedActivity(t *testing.T, db *gorm.DB, typ activity.Type, at time.Time, employeeID, projectID uint) {
	t.Helper()
	row := activity.UserActivity{
		UserID:      1,
		Type:        typ,
		Description: "seed",
		Timestamp:   at,
	}
	if employeeID != 0 {
		row.EmployeeID = &employeeID
	}
	if projectID != 0 {
		row.RelatedProjectID = &projectID
	}
	require.NoError(t, db.Create(&row).Error)
}

func TestWindowStatDeltas(t *testing.T) {
	s := NewWindowStat(3, 2)
	assert.Equal(t, int64(1), s.DeltaCount)
	assert.InDelta(t, 50.0, s.DeltaPercent, 0.001)

	s = NewWindowStat(5, 0)
	assert.Equal(t, int64(5), s.DeltaCount)
	assert.InDelta(t, 100.0, s.DeltaPercent, 0.001)

	s = NewWindowStat(0, 0)
	assert.Zero(t, s.DeltaCount)
	assert.Zero(t, s.DeltaPercent)

	s = NewWindowStat(1, 4)
	assert.Equal(t, int64(-3), s.DeltaCount)
	assert.InDelta(t, -75.0, s.DeltaPercent, 0.001)
}

func TestBuildTodayWindowMonthOverMonth(t *testing.T) {
	db, store := setupDashboard(t)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// Three activities today, two on the equivalent day last month.
	for i := 0; i < 3; i++ {
		seedActivity(t, db, activity.TypeLogAdded, now.Add(-time.Duration(i+1)*time.Hour), 1, 1)
	}
	lastMonth := time.Date(2025, 5, 16, 10, 0, 0, 0, time.UTC)
	seedActivity(t, db, activity.TypeLogAdded, lastMonth, 1, 1)
	seedActivity(t, db, activity.TypeImageCaptured, lastMonth.Add(time.Hour), 1, 1)

	p, err := store.Build(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, int64(3), p.ActivitiesToday.Count)
	assert.Equal(t, int64(1), p.ActivitiesToday.DeltaCount)
	assert.InDelta(t, 50.0, p.ActivitiesToday.DeltaPercent, 0.001)

	assert.Equal(t, int64(5), p.ActivitiesAllTime.Count)
}

func TestBuildTypeTotalsIgnoreNonEventTypes(t *testing.T) {
	db, store := setupDashboard(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	seedActivity(t, db, activity.TypeLogAdded, now.Add(-time.Hour), 1, 1)
	seedActivity(t, db, activity.TypeLogAdded, now.Add(-2*time.Hour), 1, 1)
	seedActivity(t, db, activity.TypeVMCreated, now.Add(-time.Hour), 1, 1)
	seedActivity(t, db, activity.TypeAssetCreated, now.Add(-time.Hour), 1, 1)

	p, err := store.Build(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, int64(2), p.TypeTotals.Logs)
	assert.Equal(t, int64(1), p.TypeTotals.VMs)
	assert.Zero(t, p.TypeTotals.Images)
	assert.Zero(t, p.TypeTotals.Dats)
}

func TestBuildTopEmployeesNormalized(t *testing.T) {
	db, store := setupDashboard(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// Employee 1: 4 activities; employee 2: 2; employee 3: 1.
	for i := 0; i < 4; i++ {
		seedActivity(t, db, activity.TypeLogAdded, now.Add(-time.Duration(i+1)*time.Minute), 1, 1)
	}
	for i := 0; i < 2; i++ {
		seedActivity(t, db, activity.TypeLogAdded, now.Add(-time.Duration(i+1)*time.Minute), 2, 1)
	}
	seedActivity(t, db, activity.TypeLogAdded, now.Add(-time.Minute), 3, 2)

	p, err := store.Build(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, p.TopEmployees, 3)
	assert.Equal(t, uint(1), p.TopEmployees[0].ID)
	assert.InDelta(t, 100.0, p.TopEmployees[0].Percentage, 0.001)
	assert.Equal(t, uint(2), p.TopEmployees[1].ID)
	assert.InDelta(t, 50.0, p.TopEmployees[1].Percentage, 0.001)
	assert.Equal(t, uint(3), p.TopEmployees[2].ID)
	assert.InDelta(t, 25.0, p.TopEmployees[2].Percentage, 0.001)

	require.Len(t, p.TopProjects, 2)
	assert.Equal(t, uint(1), p.TopProjects[0].ID)
}

func TestBuildEmployeeBreakdownPercentages(t *testing.T) {
	db, store := setupDashboard(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// Employee 1: 2 logs + 1 image = 66.7% / 33.3%.
	seedActivity(t, db, activity.TypeLogAdded, now.Add(-time.Hour), 1, 1)
	seedActivity(t, db, activity.TypeLogAdded, now.Add(-2*time.Hour), 1, 1)
	seedActivity(t, db, activity.TypeImageCaptured, now.Add(-3*time.Hour), 1, 1)

	p, err := store.Build(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, p.EmployeeBreakdown, 1)
	b := p.EmployeeBreakdown[0]
	assert.Equal(t, int64(3), b.Total)
	assert.InDelta(t, 66.7, b.LogPercentage, 0.001)
	assert.InDelta(t, 33.3, b.ImagePercentage, 0.001)
	assert.Zero(t, b.VMPercentage)
	assert.Zero(t, b.DatPercentage)
}

func TestBuildTimelineOldestFirst(t *testing.T) {
	db, store := setupDashboard(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	seedActivity(t, db, activity.TypeLogAdded, now.Add(-2*time.Hour), 1, 1)           // today
	seedActivity(t, db, activity.TypeVMCreated, now.Add(-3*24*time.Hour), 1, 1)       // three days ago
	seedActivity(t, db, activity.TypeDatUpdated, now.Add(-10*24*time.Hour), 1, 1)     // outside the window
	seedActivity(t, db, activity.TypeAssetUpdated, now.Add(-time.Hour), 1, 1)         // not an event type

	p, err := store.Build(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, p.Timeline, 7)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), p.Timeline[0].Day)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), p.Timeline[6].Day)

	assert.Equal(t, int64(1), p.Timeline[6].Logs)
	assert.Equal(t, int64(1), p.Timeline[3].VMs)

	var total int64
	for _, pt := range p.Timeline {
		total += pt.VMs + pt.Images + pt.Logs + pt.Dats
	}
	assert.Equal(t, int64(2), total)
}

func TestAssetStatsDistinctOperatingSystems(t *testing.T) {
	db, store := setupDashboard(t)

	require.NoError(t, db.Create(&registry.Project{Name: "STORM", Active: true}).Error)
	os1, os2 := uint(1), uint(2)
	assets := []registry.Asset{
		{Name: "a1", ProjectID: 1, BuildingID: 1, FloorID: 1, SystypeID: 1, OsID: &os1},
		{Name: "a2", ProjectID: 1, BuildingID: 1, FloorID: 1, SystypeID: 1, OsID: &os1},
		{Name: "a3", ProjectID: 1, BuildingID: 1, FloorID: 1, SystypeID: 1, OsID: &os2},
		{Name: "a4", ProjectID: 1, BuildingID: 1, FloorID: 1, SystypeID: 1},
	}
	for i := range assets {
		require.NoError(t, db.Create(&assets[i]).Error)
	}

	stats, err := store.AssetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalAssets)
	assert.Equal(t, int64(1), stats.TotalProjects)
	assert.Equal(t, int64(2), stats.TotalDistinctOperatingSystemsInUse)
}
