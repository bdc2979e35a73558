package roster

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/empcode"
)

var halfDayWeight = decimal.NewFromFloat(0.5)

// parseLeaveDate accepts "2006-01-02" with or without a trailing time
// component. Malformed values return the zero time.
func parseLeaveDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func halfDaySegmentLabel(segment string) string {
	switch roster.HalfDaySegment(segment) {
	case roster.FirstHalf:
		return "First Half"
	case roster.SecondHalf:
		return "Second Half"
	default:
		return "Half Day"
	}
}

// overrideKey identifies one (employee, date) the leave side claims.
// Same shape the merge uses on the punch side.
func overrideKey(code string, date time.Time) string {
	return empcode.Key(code) + "_" + roster.DateLabel(date)
}

// ExpandLeave materializes leave intervals into per-day records
// clipped to the reporting month. The returned key set marks every
// (employee, date) the leave side now owns; the merge drops matching
// punch records whole. Intervals with unparseable dates are skipped,
// never failed.
func ExpandLeave(records []roster.LeaveRecord, window roster.MonthWindow, deptLookup map[string]string) ([]roster.LeaveDayRecord, map[string]struct{}) {
	var days []roster.LeaveDayRecord
	keys := make(map[string]struct{})

	for _, rec := range records {
		start := parseLeaveDate(rec.StartDate)
		end := parseLeaveDate(rec.EndDate)
		if start.IsZero() || end.IsZero() {
			continue
		}

		if start.Before(window.Start) {
			start = window.Start
		}
		if end.After(window.End) {
			end = window.End
		}
		if end.Before(start) {
			continue
		}

		department := rec.Department
		if department == "" {
			department = deptLookup[empcode.Key(rec.EmpCode)]
		}

		leaveType := rec.LeaveType
		if leaveType == "" {
			leaveType = "Leave"
		}

		timetable := "Leave - " + leaveType
		weight := decimal.Zero
		if rec.IsHalfDay {
			timetable = "Half-day Leave (" + halfDaySegmentLabel(rec.HalfDay) + ")"
			weight = halfDayWeight
		}

		for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
			keys[overrideKey(rec.EmpCode, date)] = struct{}{}
			days = append(days, roster.LeaveDayRecord{
				EmpCode:    rec.EmpCode,
				EmpName:    rec.DisplayName(),
				Department: department,
				Date:       date,
				Weekday:    date.Weekday().String(),
				Timetable:  timetable,
				LeaveType:  leaveType,
				Status:     roster.LeaveStatus(strings.ToLower(rec.Status)),
				IsHalfDay:  rec.IsHalfDay,
				Segment:    roster.HalfDaySegment(rec.HalfDay),
				Reason:     rec.Reason,
				WorkDay:    weight,
				RequestID:  rec.RequestID,
			})
		}
	}

	return days, keys
}

// BuildDeptLookup maps normalized employee codes to department names
// from the punch side, first sighting wins. Leave records missing a
// department borrow from here.
func BuildDeptLookup(rows []roster.WideRow) map[string]string {
	lookup := make(map[string]string)
	for _, row := range rows {
		code := empcode.Key(row.EmpCode())
		if code == "" {
			continue
		}
		if dept := row.DeptName(); dept != "" {
			if _, ok := lookup[code]; !ok {
				lookup[code] = dept
			}
		}
	}
	return lookup
}
