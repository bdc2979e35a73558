package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
)

func TestExpandLeaveClipsToMonth(t *testing.T) {
	window := testWindow()
	records := []roster.LeaveRecord{{
		RequestID: "req-1",
		EmpCode:   "E007",
		FirstName: "Meera",
		LeaveType: "Casual",
		Status:    "approved",
		StartDate: "2024-01-28",
		EndDate:   "2024-02-03",
	}}

	days, keys := ExpandLeave(records, window, nil)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-02-01", days[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-02-03", days[2].Date.Format("2006-01-02"))
	assert.Equal(t, "Leave - Casual", days[0].Timetable)
	assert.True(t, days[0].WorkDay.IsZero())

	// Keys use the normalized employee code and the display date form.
	assert.Contains(t, keys, "E007_01-02-2024")
	assert.Contains(t, keys, "E007_03-02-2024")
	assert.NotContains(t, keys, "E007_31-01-2024")
}

func TestExpandLeaveEndOfLeapFebruary(t *testing.T) {
	window := testWindow()
	records := []roster.LeaveRecord{{
		EmpCode:   "31",
		LeaveType: "Sick",
		Status:    "approved",
		StartDate: "2024-02-28",
		EndDate:   "2024-03-05",
	}}

	days, _ := ExpandLeave(records, window, nil)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-02-29", days[1].Date.Format("2006-01-02"))
}

func TestExpandLeaveHalfDay(t *testing.T) {
	window := testWindow()
	records := []roster.LeaveRecord{{
		EmpCode:   "12",
		LeaveType: "Casual",
		Status:    "approved",
		StartDate: "2024-02-05",
		EndDate:   "2024-02-05",
		IsHalfDay: true,
		HalfDay:   "first_half",
	}}

	days, _ := ExpandLeave(records, window, nil)
	require.Len(t, days, 1)
	assert.Equal(t, "Half-day Leave (First Half)", days[0].Timetable)
	assert.Equal(t, "0.5", days[0].WorkDay.String())
	assert.True(t, days[0].IsHalfDay)
}

func TestExpandLeaveSkipsMalformedDates(t *testing.T) {
	window := testWindow()
	records := []roster.LeaveRecord{
		{EmpCode: "1", StartDate: "bogus", EndDate: "2024-02-05"},
		{EmpCode: "2", StartDate: "2024-02-10", EndDate: "2024-02-08"},
		{EmpCode: "3", StartDate: "2024-03-01", EndDate: "2024-03-02"},
	}

	days, keys := ExpandLeave(records, window, nil)
	assert.Empty(t, days)
	assert.Empty(t, keys)
}

func TestExpandLeaveAcceptsTimestampedDates(t *testing.T) {
	window := testWindow()
	records := []roster.LeaveRecord{{
		EmpCode:   "4",
		LeaveType: "Earned",
		StartDate: "2024-02-12T00:00:00.000Z",
		EndDate:   "2024-02-12T00:00:00.000Z",
	}}

	days, _ := ExpandLeave(records, window, nil)
	require.Len(t, days, 1)
	assert.Equal(t, "Monday", days[0].Weekday)
}

func TestExpandLeaveBorrowsDepartmentFromLookup(t *testing.T) {
	window := testWindow()
	lookup := map[string]string{"77": "Finance"}
	records := []roster.LeaveRecord{{
		EmpCode:   "77",
		LeaveType: "Casual",
		StartDate: "2024-02-01",
		EndDate:   "2024-02-01",
	}}

	days, _ := ExpandLeave(records, window, lookup)
	require.Len(t, days, 1)
	assert.Equal(t, "Finance", days[0].Department)
}

func TestBuildDeptLookupFirstSightingWins(t *testing.T) {
	rows := []roster.WideRow{
		{"emp_code": "5", "dept_name": "Engineering"},
		{"emp_code": "5", "dept_name": "Platform"},
		{"emp_code": " ", "dept_name": "Ghost"},
	}
	lookup := BuildDeptLookup(rows)
	assert.Equal(t, "Engineering", lookup["5"])
	assert.Len(t, lookup, 1)
}

func TestNormalizedCodeKeysMatchAcrossSources(t *testing.T) {
	window := testWindow()

	// The appliance zero-pads codes; the leave system does not. Both
	// forms must land on the same override key.
	records := []roster.LeaveRecord{{
		EmpCode:   "123",
		LeaveType: "Casual",
		Status:    "approved",
		StartDate: "2024-02-06",
		EndDate:   "2024-02-06",
	}}
	_, keys := ExpandLeave(records, window, nil)

	punchDate := time.Date(2024, time.February, 6, 0, 0, 0, 0, time.UTC)
	_, claimed := keys[overrideKey("0123", punchDate)]
	assert.True(t, claimed)
}
