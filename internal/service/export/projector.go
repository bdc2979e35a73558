package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/empcode"
	rosterservice "github.com/clockwork-hr/attendance-recon-go/internal/service/roster"
)

// Sheet is a projected spreadsheet. The trailing __highlight column,
// when present, marks rows for styling and is stripped before the
// bytes are written.
type Sheet struct {
	Headers []string
	Rows    [][]string
}

const highlightHeader = "__highlight"

// HighlightCol returns the index of the __highlight column, -1 when
// absent.
func (s *Sheet) HighlightCol() int {
	for i, h := range s.Headers {
		if h == highlightHeader {
			return i
		}
	}
	return -1
}

// StripHighlight removes the __highlight column in place. Styling
// consumers read it first; the written file never carries it.
func (s *Sheet) StripHighlight() {
	col := s.HighlightCol()
	if col < 0 {
		return
	}
	s.Headers = append(s.Headers[:col], s.Headers[col+1:]...)
	for i, row := range s.Rows {
		if col < len(row) {
			s.Rows[i] = append(row[:col], row[col+1:]...)
		}
	}
}

// checkCellText renders a punch time cell: a nil or blank value is a
// missing punch and reads "MISSING".
func checkCellText(v *string) string {
	if v == nil {
		return "MISSING"
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return "MISSING"
	}
	return s
}

func workDayCellText(e roster.LedgerEntry) string {
	if e.Leave != nil {
		if e.Leave.IsHalfDay {
			return "Half-day Leave"
		}
		return "Leave"
	}
	return e.Punch.WorkDay.String()
}

// ProjectLedger lays out reconciled ledger entries for export. Leave
// rows get a "warn" highlight.
func ProjectLedger(entries []roster.LedgerEntry, summary map[string]roster.EmployeeLeaveSummary, degraded bool) *Sheet {
	sheet := &Sheet{
		Headers: []string{
			"Employee ID", "First Name", "Department", "Date", "Weekday",
			"Timetable", "Check In", "Check Out", "Duty Duration",
			"Work Day", "Leave", highlightHeader,
		},
	}

	for _, e := range entries {
		var checkIn, checkOut, duty string
		highlight := ""

		if e.Leave != nil {
			label := "Leave"
			duty = "Leave"
			if e.Leave.IsHalfDay {
				label = "Half-day Leave"
				duty = "Leave (Half Day)"
			}
			checkIn, checkOut = label, label
			highlight = "warn"
		} else {
			checkIn = checkCellText(e.Punch.CheckIn)
			checkOut = checkCellText(e.Punch.CheckOut)
			if e.Punch.DutyDuration != nil {
				duty = *e.Punch.DutyDuration
			}
		}

		var entrySummary *roster.EmployeeLeaveSummary
		if s, ok := lookupSummary(summary, e.EmpCode()); ok {
			entrySummary = &s
		}

		sheet.Rows = append(sheet.Rows, []string{
			e.EmpCode(),
			e.EmpName(),
			e.Department(),
			roster.DateLabel(e.Date()),
			e.Weekday(),
			e.Timetable(),
			checkIn,
			checkOut,
			duty,
			workDayCellText(e),
			rosterservice.LeaveCellText(e, entrySummary, degraded),
			highlight,
		})
	}

	return sheet
}

// ProjectMatrix lays out the raw wide rows: identity columns then one
// column per day of the month.
func ProjectMatrix(rows []roster.WideRow, window roster.MonthWindow) *Sheet {
	sheet := &Sheet{
		Headers: []string{"Employee ID", "First Name", "Last Name", "Department"},
	}
	for day := 1; day <= window.Days; day++ {
		sheet.Headers = append(sheet.Headers, strconv.Itoa(day))
	}

	for _, row := range rows {
		record := []string{
			row.EmpCode(),
			row.FirstName(),
			row.LastName(),
			row.DeptName(),
		}
		for day := 1; day <= window.Days; day++ {
			record = append(record, dayCellText(row, window.Month, day))
		}
		sheet.Rows = append(sheet.Rows, record)
	}

	return sheet
}

func dayCellText(row roster.WideRow, month time.Month, day int) string {
	keys := []string{
		strconv.Itoa(int(month)*100 + day),
		strconv.Itoa(1000 + day),
		"day_" + strconv.Itoa(day),
		"Day" + strconv.Itoa(day),
	}
	v, ok := row.Cell(keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		return roster.WideRow(t).Str("punch", "time", "value", "check_in", "checkIn")
	default:
		return row.Str(keys...)
	}
}

// ProjectAbsence lays out the absence-summary report. Percentage cells
// normalize to a trailing "%" whatever form the appliance sent.
func ProjectAbsence(rows []roster.WideRow) *Sheet {
	sheet := &Sheet{
		Headers: []string{
			"Employee ID", "First Name", "Department",
			"Need Present Days", "Present Days", "Absence Days", "Holiday Days",
			"Present Percentage", "Absence Percentage",
		},
	}

	for _, row := range rows {
		sheet.Rows = append(sheet.Rows, []string{
			row.EmpCode(),
			row.FirstName(),
			row.DeptName(),
			countCell(row, "need_present", "need_present_days", "needPresentDays"),
			countCell(row, "present", "present_days", "presentDays"),
			countCell(row, "absence", "absence_days", "absenceDays", "absent_days", "absentDays"),
			countCell(row, "holiday", "holiday_days", "holidayDays"),
			percentCell(row, "present_rate", "present_percentage", "presentPercentage"),
			percentCell(row, "absence_rate", "absence_percentage", "absencePercentage"),
		})
	}

	return sheet
}

func countCell(row roster.WideRow, keys ...string) string {
	if v := row.Str(keys...); v != "" {
		return v
	}
	return "0"
}

func percentCell(row roster.WideRow, keys ...string) string {
	v := row.Str(keys...)
	if v == "" {
		return "0.00%"
	}
	return strings.TrimSuffix(v, "%") + "%"
}

func lookupSummary(summary map[string]roster.EmployeeLeaveSummary, rawCode string) (roster.EmployeeLeaveSummary, bool) {
	if len(summary) == 0 {
		return roster.EmployeeLeaveSummary{}, false
	}
	if normalized := empcode.Normalize(rawCode); normalized != "" {
		if s, ok := summary[normalized]; ok {
			return s, true
		}
	}
	s, ok := summary[strings.TrimSpace(rawCode)]
	return s, ok
}
