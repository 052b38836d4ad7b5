// Package dashboard implements the aggregation engine behind the dashboard
// views: activity windows with month-over-month deltas, per-type totals,
// top-5 rankings, the per-employee breakdown, the seven-day timeline and
// asset stats. All aggregates are snapshot-at-query.
package dashboard

import (
	"math"
	"sort"
	"time"
)

// comparisonShift is the distance between a window and its month-over-month
// comparison window.
const comparisonShift = 30 * 24 * time.Hour

// WindowStat is one activity window with its month-over-month comparison.
type WindowStat struct {
	Count        int64   `json:"count"`
	DeltaCount   int64   `json:"delta_count"`
	DeltaPercent float64 `json:"delta_percent"`
}

// NewWindowStat computes the comparison metrics for a current and previous
// window count. An empty previous window yields 100 when anything happened
// in the current one and 0 when nothing did.
func NewWindowStat(current, previous int64) WindowStat {
	s := WindowStat{Count: current, DeltaCount: current - previous}
	switch {
	case previous > 0:
		s.DeltaPercent = float64(current-previous) * 100 / float64(previous)
	case current > 0:
		s.DeltaPercent = 100
	}
	return s
}

// window is a half-open interval [Start, End). A nil Start means unbounded.
type window struct {
	Start *time.Time
	End   time.Time
}

// shifted returns the same window moved back by the comparison distance.
func (w window) shifted() window {
	out := window{End: w.End.Add(-comparisonShift)}
	if w.Start != nil {
		s := w.Start.Add(-comparisonShift)
		out.Start = &s
	}
	return out
}

// midnight truncates t to the start of its day in t's location.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// windowsFor derives the four dashboard windows from the request time.
func windowsFor(now time.Time) (allTime, today, thisWeek, thisMonth window) {
	day := midnight(now)
	weekAgo := day.Add(-7 * 24 * time.Hour)
	monthAgo := day.Add(-comparisonShift)

	allTime = window{End: now}
	today = window{Start: &day, End: now}
	thisWeek = window{Start: &weekAgo, End: now}
	thisMonth = window{Start: &monthAgo, End: now}
	return
}

// round1 rounds to one decimal place, matching the breakdown percentages.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// RankedRow is one entry of a top-N ranking. Percentage is normalized
// against the top row's count, so the leader is always 100.
type RankedRow struct {
	ID         uint    `json:"id"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// normalize fills in percentages against the first (greatest) count.
func normalize(rows []RankedRow) []RankedRow {
	if len(rows) == 0 {
		return rows
	}
	top := rows[0].Count
	for i := range rows {
		if top > 0 {
			rows[i].Percentage = round1(float64(rows[i].Count) * 100 / float64(top))
		}
	}
	return rows
}

// TypeTotals is the all-time count per event type.
type TypeTotals struct {
	VMs    int64 `json:"vms"`
	Images int64 `json:"images"`
	Logs   int64 `json:"logs"`
	Dats   int64 `json:"dats"`
}

// EmployeeBreakdown is one employee's share of each event type.
type EmployeeBreakdown struct {
	EmployeeID      uint    `json:"employee_id"`
	Total           int64   `json:"total"`
	VMPercentage    float64 `json:"vm_percentage"`
	ImagePercentage float64 `json:"image_percentage"`
	LogPercentage   float64 `json:"log_percentage"`
	DatPercentage   float64 `json:"dat_percentage"`
}

// sortBreakdown orders the breakdown by activity volume, busiest first.
func sortBreakdown(rows []EmployeeBreakdown) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].EmployeeID < rows[j].EmployeeID
	})
}

// TimelinePoint is one midnight-aligned day of the seven-day timeline.
type TimelinePoint struct {
	Day    time.Time `json:"day"`
	VMs    int64     `json:"vms"`
	Images int64     `json:"images"`
	Logs   int64     `json:"logs"`
	Dats   int64     `json:"dats"`
}

// AssetStats summarizes the registry for the dashboard footer.
type AssetStats struct {
	TotalAssets                        int64 `json:"total_assets"`
	TotalProjects                      int64 `json:"total_projects"`
	TotalDistinctOperatingSystemsInUse int64 `json:"total_distinct_operating_systems_in_use"`
}

// Payload is the full dashboard response.
type Payload struct {
	GeneratedAt         time.Time           `json:"generated_at"`
	ActivitiesAllTime   WindowStat          `json:"activities_all_time"`
	ActivitiesToday     WindowStat          `json:"activities_today"`
	ActivitiesThisWeek  WindowStat          `json:"activities_this_week"`
	ActivitiesThisMonth WindowStat          `json:"activities_this_month"`
	TypeTotals          TypeTotals          `json:"type_totals"`
	TopEmployees        []RankedRow         `json:"top_employees"`
	TopProjects         []RankedRow         `json:"top_projects"`
	EmployeeBreakdown   []EmployeeBreakdown `json:"employee_breakdown"`
	Timeline            []TimelinePoint     `json:"timeline"`
	AssetStats          AssetStats          `json:"asset_stats"`
}
