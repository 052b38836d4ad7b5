package flags

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(n int) time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * 24 * time.Hour)
}

func TestRecentTopTenByDate(t *testing.T) {
	var rows []EventRow
	for i := 1; i <= 15; i++ {
		rows = append(rows, EventRow{ID: uint(i), Date: day(i), AssetID: 1, Result: "Success"})
	}

	sets := Compute(rows)

	assert.Equal(t, RecentCount, sets.Recent.Cardinality())
	for i := 6; i <= 15; i++ {
		assert.True(t, sets.Recent.Contains(uint(i)), "id %d should be recent", i)
	}
	for i := 1; i <= 5; i++ {
		assert.False(t, sets.Recent.Contains(uint(i)), "id %d should not be recent", i)
	}
}

func TestRecentTieBreaksTowardGreaterID(t *testing.T) {
	// Eleven rows on the same date; the smallest id falls off.
	var rows []EventRow
	for i := 1; i <= 11; i++ {
		rows = append(rows, EventRow{ID: uint(i), Date: day(0), AssetID: 1, Result: "Success"})
	}

	sets := Compute(rows)

	assert.False(t, sets.Recent.Contains(uint(1)))
	for i := 2; i <= 11; i++ {
		assert.True(t, sets.Recent.Contains(uint(i)))
	}
}

func TestDuplicateTupleMatchesAllFields(t *testing.T) {
	base := EventRow{Date: day(0), EmployeeID: 7, AssetID: 3, ProjectID: 2, TypeKey: 4, Result: "Success"}

	a, b, c := base, base, base
	a.ID = 1
	b.ID = 2
	c.ID = 3
	c.Result = "Failed" // differs in one tuple field

	sets := Compute([]EventRow{a, b, c})

	assert.True(t, sets.Duplicate.Contains(uint(1)))
	assert.True(t, sets.Duplicate.Contains(uint(2)))
	assert.False(t, sets.Duplicate.Contains(uint(3)))
}

func TestUnresolvedFailureClearedByLaterSuccess(t *testing.T) {
	rows := []EventRow{
		{ID: 1, Date: day(1), AssetID: 1, Result: "Failed"},
		{ID: 2, Date: day(2), AssetID: 1, Result: "Success"},
		{ID: 3, Date: day(3), AssetID: 1, Result: "Failed"},
		{ID: 4, Date: day(3), AssetID: 2, Result: "Failed"},
	}

	sets := Compute(rows)

	assert.False(t, sets.UnresolvedFailure.Contains(uint(1)), "resolved by later success")
	assert.True(t, sets.UnresolvedFailure.Contains(uint(3)), "failure after last success")
	assert.True(t, sets.UnresolvedFailure.Contains(uint(4)), "asset without any success")
}

func TestUnresolvedFailureSameDateSuccessDoesNotResolve(t *testing.T) {
	// Resolution needs a strictly greater date.
	rows := []EventRow{
		{ID: 1, Date: day(1), AssetID: 1, Result: "Failed"},
		{ID: 2, Date: day(1), AssetID: 1, Result: "Success"},
	}

	sets := Compute(rows)

	assert.True(t, sets.UnresolvedFailure.Contains(uint(1)))
}

func TestComputeVMRecencyByID(t *testing.T) {
	var rows []VMRow
	for i := 1; i <= 12; i++ {
		rows = append(rows, VMRow{ID: uint(i), AssetID: uint(i), ProjectID: 1, VMTypeID: 1})
	}

	sets := ComputeVM(rows)

	assert.False(t, sets.Recent.Contains(uint(1)))
	assert.False(t, sets.Recent.Contains(uint(2)))
	for i := 3; i <= 12; i++ {
		assert.True(t, sets.Recent.Contains(uint(i)))
	}
}

func TestComputeVMDuplicateTuple(t *testing.T) {
	rows := []VMRow{
		{ID: 1, AssetID: 1, ProjectID: 1, VMTypeID: 1},
		{ID: 2, AssetID: 1, ProjectID: 1, VMTypeID: 1},
		{ID: 3, AssetID: 1, ProjectID: 1, VMTypeID: 2},
	}

	sets := ComputeVM(rows)

	assert.True(t, sets.Duplicate.Contains(uint(1)))
	assert.True(t, sets.Duplicate.Contains(uint(2)))
	assert.False(t, sets.Duplicate.Contains(uint(3)))
}

func TestVMStatusFlagsPartition(t *testing.T) {
	cases := map[string]StatusFlags{
		"Fully Functional | Ready For Use":            {Ready: true},
		"Machine Created | Ready For Use":             {Ready: true},
		"Fully Functional | Waiting For Scans":        {WaitingScans: true},
		"Machine Created | Testing Startup Processes": {Testing: true},
		"Non-Functional | Hardware Failure":           {Broken: true},
		"Non-Functional":                              {Broken: true},
		"Something Else":                              {},
	}

	for name, want := range cases {
		assert.Equal(t, want, VMStatusFlags(name), "status %q", name)
	}
}
