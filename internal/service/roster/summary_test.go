package roster

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
)

func TestBuildLeaveSummaryRecomputesWhenStatsMissing(t *testing.T) {
	window := testWindow()
	leaves := []roster.LeaveRecord{
		{EmpCode: "42", LeaveType: "Casual", Status: "approved", StartDate: "2024-02-05", EndDate: "2024-02-07"},
		{EmpCode: "42", LeaveType: "Sick", Status: "pending", StartDate: "2024-02-12", EndDate: "2024-02-12"},
		{EmpCode: "42", LeaveType: "Casual", Status: "rejected", StartDate: "2024-02-20", EndDate: "2024-02-21"},
	}

	summary := BuildLeaveSummary(leaves, nil, window)
	entry := LookupSummary(summary, "42")
	require.NotNil(t, entry)

	assert.Equal(t, "6", entry.TotalDays.String())
	assert.Equal(t, "3", entry.ApprovedDays.String())
	assert.Equal(t, "1", entry.PendingDays.String())
	assert.Equal(t, "2", entry.RejectedDays.String())
	assert.Equal(t, 3, entry.TotalRequests)
	assert.Equal(t, 1, entry.ApprovedRequests)
	assert.Equal(t, "5", entry.Types["Casual"].String())
	assert.Equal(t, "1", entry.Types["Sick"].String())
}

func TestBuildLeaveSummaryAggregatedTotalsStand(t *testing.T) {
	window := testWindow()

	// The stats feed says 5 days; recounting the intervals gives 3.
	// The aggregated number is kept as-is: the feed may know about
	// requests outside this page of intervals.
	stats := []roster.LeaveStat{{
		EmpCode:          "42",
		TotalDays:        decimal.NewFromInt(5),
		ApprovedDays:     decimal.NewFromInt(5),
		TotalRequests:    2,
		ApprovedRequests: 2,
	}}
	leaves := []roster.LeaveRecord{
		{EmpCode: "42", LeaveType: "Casual", Status: "approved", StartDate: "2024-02-05", EndDate: "2024-02-07"},
	}

	summary := BuildLeaveSummary(leaves, stats, window)
	entry := LookupSummary(summary, "42")
	require.NotNil(t, entry)

	assert.Equal(t, "5", entry.TotalDays.String())
	assert.Equal(t, "5", entry.ApprovedDays.String())
	assert.Equal(t, 2, entry.TotalRequests)

	// Types always come from the raw intervals; the stats feed has no
	// breakdown.
	assert.Equal(t, "3", entry.Types["Casual"].String())
}

func TestBuildLeaveSummaryDualKeyed(t *testing.T) {
	window := testWindow()
	stats := []roster.LeaveStat{{
		EmpCode:      "0123",
		TotalDays:    decimal.NewFromInt(2),
		ApprovedDays: decimal.NewFromInt(2),
	}}

	summary := BuildLeaveSummary(nil, stats, window)

	// Both the raw and normalized forms resolve to the same entry.
	byRaw := LookupSummary(summary, "0123")
	byNorm := LookupSummary(summary, "123")
	require.NotNil(t, byRaw)
	require.NotNil(t, byNorm)
	assert.Same(t, byRaw, byNorm)
}

func TestBuildLeaveSummaryHalfDayWeighsHalf(t *testing.T) {
	window := testWindow()
	leaves := []roster.LeaveRecord{{
		EmpCode: "9", LeaveType: "Casual", Status: "approved",
		StartDate: "2024-02-05", EndDate: "2024-02-09", IsHalfDay: true,
	}}

	summary := BuildLeaveSummary(leaves, nil, window)
	entry := LookupSummary(summary, "9")
	require.NotNil(t, entry)
	assert.Equal(t, "0.5", entry.TotalDays.String())
}

func TestBuildLeaveSummaryIntervalClipping(t *testing.T) {
	window := testWindow()
	leaves := []roster.LeaveRecord{{
		EmpCode: "9", LeaveType: "Earned", Status: "approved",
		StartDate: "2024-01-25", EndDate: "2024-02-02",
	}}

	summary := BuildLeaveSummary(leaves, nil, window)
	entry := LookupSummary(summary, "9")
	require.NotNil(t, entry)
	assert.Equal(t, "2", entry.TotalDays.String())
}

func TestFormatLeaveDays(t *testing.T) {
	assert.Equal(t, "0d", roster.FormatLeaveDays(decimal.Zero))
	assert.Equal(t, "3d", roster.FormatLeaveDays(decimal.NewFromInt(3)))
	assert.Equal(t, "2.5d", roster.FormatLeaveDays(decimal.NewFromFloat(2.5)))
}

func TestSummaryDisplayText(t *testing.T) {
	s := &roster.EmployeeLeaveSummary{
		TotalDays:        decimal.NewFromInt(5),
		ApprovedDays:     decimal.NewFromInt(4),
		PendingDays:      decimal.NewFromInt(1),
		TotalRequests:    3,
		ApprovedRequests: 2,
		PendingRequests:  1,
		Types: map[string]decimal.Decimal{
			"Casual": decimal.NewFromInt(4),
			"Sick":   decimal.NewFromInt(1),
		},
	}

	assert.Equal(t,
		"Approved 4d · Pending 1d · Casual 4d, Sick 1d · Total 5d · 3 requests",
		s.DisplayText())

	empty := &roster.EmployeeLeaveSummary{}
	assert.Equal(t, "No leaves", empty.DisplayText())

	pendingOnly := &roster.EmployeeLeaveSummary{PendingRequests: 1, TotalRequests: 1}
	assert.Equal(t, "Pending 1 request · 1 request", pendingOnly.DisplayText())
}
