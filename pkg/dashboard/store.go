package dashboard

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/critsec/iams/pkg/activity"
	"github.com/critsec/iams/pkg/registry"
)

// Store runs the aggregation queries behind the dashboard payload.
type Store struct {
	db *gorm.DB
}

// NewStore creates a dashboard Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Build assembles the full dashboard payload for the given request time.
func (s *Store) Build(ctx context.Context, now time.Time) (*Payload, error) {
	p := &Payload{GeneratedAt: now}

	allTime, today, thisWeek, thisMonth := windowsFor(now)
	for _, wc := range []struct {
		w    window
		dest *WindowStat
	}{
		{allTime, &p.ActivitiesAllTime},
		{today, &p.ActivitiesToday},
		{thisWeek, &p.ActivitiesThisWeek},
		{thisMonth, &p.ActivitiesThisMonth},
	} {
		current, err := s.countWindow(ctx, wc.w)
		if err != nil {
			return nil, err
		}
		previous, err := s.countWindow(ctx, wc.w.shifted())
		if err != nil {
			return nil, err
		}
		*wc.dest = NewWindowStat(current, previous)
	}

	var err error
	if p.TypeTotals, err = s.typeTotals(ctx); err != nil {
		return nil, err
	}
	if p.TopEmployees, err = s.topBy(ctx, "employee_id"); err != nil {
		return nil, err
	}
	if p.TopProjects, err = s.topBy(ctx, "related_project_id"); err != nil {
		return nil, err
	}
	if p.EmployeeBreakdown, err = s.employeeBreakdown(ctx); err != nil {
		return nil, err
	}
	if p.Timeline, err = s.timeline(ctx, now); err != nil {
		return nil, err
	}
	if p.AssetStats, err = s.AssetStats(ctx); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Store) countWindow(ctx context.Context, w window) (int64, error) {
	q := s.db.WithContext(ctx).Model(&activity.UserActivity{}).
		Where("timestamp < ?", w.End)
	if w.Start != nil {
		q = q.Where("timestamp >= ?", *w.Start)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count activity window: %w", err)
	}
	return n, nil
}

func (s *Store) typeTotals(ctx context.Context) (TypeTotals, error) {
	var rows []struct {
		Type  activity.Type
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&activity.UserActivity{}).
		Select("type, COUNT(*) AS count").
		Where("type IN ?", activity.EventTypes()).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return TypeTotals{}, fmt.Errorf("count activity types: %w", err)
	}

	var t TypeTotals
	for _, r := range rows {
		switch r.Type {
		case activity.TypeVMCreated:
			t.VMs = r.Count
		case activity.TypeImageCaptured:
			t.Images = r.Count
		case activity.TypeLogAdded:
			t.Logs = r.Count
		case activity.TypeDatUpdated:
			t.Dats = r.Count
		}
	}
	return t, nil
}

// topBy ranks the five busiest groups over the given nullable column and
// normalizes each percentage against the leader.
func (s *Store) topBy(ctx context.Context, column string) ([]RankedRow, error) {
	var rows []RankedRow
	err := s.db.WithContext(ctx).Model(&activity.UserActivity{}).
		Select(column+" AS id, COUNT(*) AS count").
		Where(column + " IS NOT NULL").
		Group(column).
		Order("count DESC, id ASC").
		Limit(5).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("rank by %s: %w", column, err)
	}
	return normalize(rows), nil
}

func (s *Store) employeeBreakdown(ctx context.Context) ([]EmployeeBreakdown, error) {
	var rows []struct {
		EmployeeID uint
		Type       activity.Type
		Count      int64
	}
	err := s.db.WithContext(ctx).Model(&activity.UserActivity{}).
		Select("employee_id, type, COUNT(*) AS count").
		Where("employee_id IS NOT NULL").
		Group("employee_id").Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("breakdown by employee: %w", err)
	}

	type counts struct {
		total, vm, image, log, dat int64
	}
	byEmployee := map[uint]*counts{}
	var order []uint
	for _, r := range rows {
		c, ok := byEmployee[r.EmployeeID]
		if !ok {
			c = &counts{}
			byEmployee[r.EmployeeID] = c
			order = append(order, r.EmployeeID)
		}
		c.total += r.Count
		switch r.Type {
		case activity.TypeVMCreated:
			c.vm += r.Count
		case activity.TypeImageCaptured:
			c.image += r.Count
		case activity.TypeLogAdded:
			c.log += r.Count
		case activity.TypeDatUpdated:
			c.dat += r.Count
		}
	}

	out := make([]EmployeeBreakdown, 0, len(order))
	for _, id := range order {
		c := byEmployee[id]
		pct := func(n int64) float64 {
			return round1(float64(n) * 100 / float64(c.total))
		}
		out = append(out, EmployeeBreakdown{
			EmployeeID:      id,
			Total:           c.total,
			VMPercentage:    pct(c.vm),
			ImagePercentage: pct(c.image),
			LogPercentage:   pct(c.log),
			DatPercentage:   pct(c.dat),
		})
	}
	sortBreakdown(out)
	return out, nil
}

// timeline buckets the last seven days in memory; day truncation in SQL is
// not portable across the supported drivers.
func (s *Store) timeline(ctx context.Context, now time.Time) ([]TimelinePoint, error) {
	today := midnight(now)
	start := today.Add(-6 * 24 * time.Hour)

	var rows []struct {
		Type      activity.Type
		Timestamp time.Time
	}
	err := s.db.WithContext(ctx).Model(&activity.UserActivity{}).
		Select("type, timestamp").
		Where("timestamp >= ?", start).
		Where("type IN ?", activity.EventTypes()).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load timeline window: %w", err)
	}

	points := make([]TimelinePoint, 7)
	for i := range points {
		points[i].Day = start.Add(time.Duration(i) * 24 * time.Hour)
	}
	for _, r := range rows {
		i := int(midnight(r.Timestamp.In(now.Location())).Sub(start) / (24 * time.Hour))
		if i < 0 || i >= len(points) {
			continue
		}
		switch r.Type {
		case activity.TypeVMCreated:
			points[i].VMs++
		case activity.TypeImageCaptured:
			points[i].Images++
		case activity.TypeLogAdded:
			points[i].Logs++
		case activity.TypeDatUpdated:
			points[i].Dats++
		}
	}
	return points, nil
}

// AssetStats counts assets, projects and distinct operating systems in use.
func (s *Store) AssetStats(ctx context.Context) (AssetStats, error) {
	var stats AssetStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&registry.Asset{}).Count(&stats.TotalAssets).Error; err != nil {
		return stats, fmt.Errorf("count assets: %w", err)
	}
	if err := db.Model(&registry.Project{}).Count(&stats.TotalProjects).Error; err != nil {
		return stats, fmt.Errorf("count projects: %w", err)
	}
	err := db.Model(&registry.Asset{}).
		Where("os_id IS NOT NULL").
		Distinct("os_id").
		Count(&stats.TotalDistinctOperatingSystemsInUse).Error
	if err != nil {
		return stats, fmt.Errorf("count operating systems in use: %w", err)
	}
	return stats, nil
}
