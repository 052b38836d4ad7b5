// Package flags computes the advisory per-row listing flags: recent,
// duplicate, unresolved-failure and the VM status flags. The engine is pure:
// it takes the in-memory rows of one event stream and returns identifier
// sets; callers tag their page rows from the sets. Flags are computed per
// listing query against the whole table and are never persisted.
package flags

import (
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// RecentCount is how many of the newest rows across the entire table carry
// the recent flag.
const RecentCount = 10

const (
	resultFailed  = "Failed"
	resultSuccess = "Success"
)

// EventRow is the flag-relevant projection of a log, image or DAT row.
// TypeKey is the stream-specific key: logtype, imaging method or DAT
// version identifier.
type EventRow struct {
	ID         uint
	Date       time.Time
	EmployeeID uint
	AssetID    uint
	ProjectID  uint
	TypeKey    uint
	Result     string
}

// VMRow is the flag-relevant projection of a VM creation row.
type VMRow struct {
	ID        uint
	AssetID   uint
	ProjectID uint
	VMTypeID  uint
}

// Sets holds the materialized flag sets for one event stream.
type Sets struct {
	Recent            mapset.Set[uint]
	Duplicate         mapset.Set[uint]
	UnresolvedFailure mapset.Set[uint]
}

// Compute builds the three flag sets for a log, image or DAT stream.
func Compute(rows []EventRow) Sets {
	return Sets{
		Recent:            recentByDate(rows),
		Duplicate:         duplicates(rows),
		UnresolvedFailure: unresolvedFailures(rows),
	}
}

// recentByDate returns the ids of the RecentCount greatest-date rows over
// the whole input. Ties on date break toward the greater id.
func recentByDate(rows []EventRow) mapset.Set[uint] {
	sorted := make([]EventRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].ID > sorted[j].ID
	})

	recent := mapset.NewThreadUnsafeSet[uint]()
	for i := 0; i < len(sorted) && i < RecentCount; i++ {
		recent.Add(sorted[i].ID)
	}
	return recent
}

type dupKey struct {
	employeeID uint
	assetID    uint
	projectID  uint
	typeKey    uint
	result     string
}

// duplicates returns the ids of rows whose (employee, asset, project,
// type-key, result) tuple occurs more than once.
func duplicates(rows []EventRow) mapset.Set[uint] {
	byKey := make(map[dupKey][]uint, len(rows))
	for _, r := range rows {
		k := dupKey{r.EmployeeID, r.AssetID, r.ProjectID, r.TypeKey, r.Result}
		byKey[k] = append(byKey[k], r.ID)
	}

	dup := mapset.NewThreadUnsafeSet[uint]()
	for _, ids := range byKey {
		if len(ids) > 1 {
			dup.Append(ids...)
		}
	}
	return dup
}

// unresolvedFailures returns the ids of Failed rows for which no Success
// row with a strictly greater date exists on the same asset.
func unresolvedFailures(rows []EventRow) mapset.Set[uint] {
	lastSuccess := make(map[uint]time.Time)
	for _, r := range rows {
		if r.Result != resultSuccess {
			continue
		}
		if t, ok := lastSuccess[r.AssetID]; !ok || r.Date.After(t) {
			lastSuccess[r.AssetID] = r.Date
		}
	}

	unresolved := mapset.NewThreadUnsafeSet[uint]()
	for _, r := range rows {
		if r.Result != resultFailed {
			continue
		}
		if t, ok := lastSuccess[r.AssetID]; !ok || !t.After(r.Date) {
			unresolved.Add(r.ID)
		}
	}
	return unresolved
}

// VMSets holds the materialized flag sets for the VM stream. The failure
// flag does not apply; status flags are derived per row from the status
// name instead.
type VMSets struct {
	Recent    mapset.Set[uint]
	Duplicate mapset.Set[uint]
}

// ComputeVM builds the flag sets for the VM stream. Recency is by greatest
// id; the duplicate tuple is (asset, project, vm type) and does not involve
// a result.
func ComputeVM(rows []VMRow) VMSets {
	sorted := make([]VMRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })

	recent := mapset.NewThreadUnsafeSet[uint]()
	for i := 0; i < len(sorted) && i < RecentCount; i++ {
		recent.Add(sorted[i].ID)
	}

	type vmKey struct{ assetID, projectID, vmTypeID uint }
	byKey := make(map[vmKey][]uint, len(rows))
	for _, r := range rows {
		k := vmKey{r.AssetID, r.ProjectID, r.VMTypeID}
		byKey[k] = append(byKey[k], r.ID)
	}
	dup := mapset.NewThreadUnsafeSet[uint]()
	for _, ids := range byKey {
		if len(ids) > 1 {
			dup.Append(ids...)
		}
	}

	return VMSets{Recent: recent, Duplicate: dup}
}

// StatusFlags are the four status-derived booleans on a VM listing row.
// The statuses partition: at most one flag is true.
type StatusFlags struct {
	Ready        bool `json:"is_ready"`
	WaitingScans bool `json:"is_waiting_scans"`
	Testing      bool `json:"is_testing"`
	Broken       bool `json:"is_broken"`
}

// VMStatusFlags derives the status flags from a VM status name.
func VMStatusFlags(statusName string) StatusFlags {
	switch {
	case statusName == "Fully Functional | Ready For Use",
		statusName == "Machine Created | Ready For Use":
		return StatusFlags{Ready: true}
	case statusName == "Fully Functional | Waiting For Scans":
		return StatusFlags{WaitingScans: true}
	case statusName == "Machine Created | Testing Startup Processes":
		return StatusFlags{Testing: true}
	case strings.HasPrefix(statusName, "Non-Functional"):
		return StatusFlags{Broken: true}
	default:
		return StatusFlags{}
	}
}
