package roster

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MonthWindow is the reporting month every record is clipped against.
type MonthWindow struct {
	Year  int
	Month time.Month
	Start time.Time
	End   time.Time
	Days  int
}

func NewMonthWindow(year int, month time.Month) MonthWindow {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return MonthWindow{
		Year:  year,
		Month: month,
		Start: start,
		End:   end,
		Days:  end.Day(),
	}
}

func (w MonthWindow) StartDate() string {
	return w.Start.Format("2006-01-02")
}

func (w MonthWindow) EndDate() string {
	return w.End.Format("2006-01-02")
}

// Date returns the given day-of-month as a time within the window.
func (w MonthWindow) Date(day int) time.Time {
	return time.Date(w.Year, w.Month, day, 0, 0, 0, 0, time.UTC)
}

// DateLabel is the display/merge form used on-screen and in exports.
func DateLabel(t time.Time) string {
	return t.Format("02-01-2006")
}

// WideRow is one paginated row from the punch appliance: one employee,
// day-keyed cells whose field names vary by report type and firmware.
type WideRow map[string]interface{}

// Str returns the first candidate key whose value renders to a
// non-empty string. Candidate order is the lookup priority.
func (r WideRow) Str(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// Cell returns the raw value under the first present candidate key.
func (r WideRow) Cell(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r WideRow) EmpCode() string   { return r.Str("emp_code", "emp_id") }
func (r WideRow) FirstName() string { return r.Str("first_name") }
func (r WideRow) LastName() string  { return r.Str("last_name") }
func (r WideRow) DeptName() string  { return r.Str("dept_name") }

func (r WideRow) DisplayName() string {
	return strings.TrimSpace(r.FirstName() + " " + r.LastName())
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		// JSON numbers decode as float64; day counters are whole.
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// PunchDayRecord is one transposed day for one employee. A working day
// with neither check-in nor check-out still yields a record; nil times
// are the "missing punch" signal, not an error.
type PunchDayRecord struct {
	EmpCode      string
	EmpName      string
	Department   string
	Date         time.Time
	Weekday      string
	Timetable    string
	CheckIn      *string
	CheckOut     *string
	DutyDuration *string
	WorkDay      decimal.Decimal
	RawPunch     string
}

type LeaveStatus string

const (
	LeaveApproved LeaveStatus = "approved"
	LeavePending  LeaveStatus = "pending"
	LeaveRejected LeaveStatus = "rejected"
)

type HalfDaySegment string

const (
	FirstHalf  HalfDaySegment = "first_half"
	SecondHalf HalfDaySegment = "second_half"
)

// LeaveDayRecord is one materialized leave day inside the reporting
// month. Half days weigh 0.5; full leave days weigh 0.
type LeaveDayRecord struct {
	EmpCode    string
	EmpName    string
	Department string
	Date       time.Time
	Weekday    string
	Timetable  string
	LeaveType  string
	Status     LeaveStatus
	IsHalfDay  bool
	Segment    HalfDaySegment
	Reason     string
	WorkDay    decimal.Decimal
	RequestID  string
}

// LedgerEntry is the punch-or-leave union. Exactly one side is set.
// When both sources cover the same (employee, date), the leave side
// wins and the punch record is discarded whole.
type LedgerEntry struct {
	Punch *PunchDayRecord
	Leave *LeaveDayRecord
}

func (e LedgerEntry) IsLeave() bool { return e.Leave != nil }

func (e LedgerEntry) EmpCode() string {
	if e.Leave != nil {
		return e.Leave.EmpCode
	}
	return e.Punch.EmpCode
}

func (e LedgerEntry) EmpName() string {
	if e.Leave != nil {
		return e.Leave.EmpName
	}
	return e.Punch.EmpName
}

func (e LedgerEntry) Department() string {
	if e.Leave != nil {
		return e.Leave.Department
	}
	return e.Punch.Department
}

func (e LedgerEntry) Date() time.Time {
	if e.Leave != nil {
		return e.Leave.Date
	}
	return e.Punch.Date
}

func (e LedgerEntry) Weekday() string {
	if e.Leave != nil {
		return e.Leave.Weekday
	}
	return e.Punch.Weekday
}

func (e LedgerEntry) Timetable() string {
	if e.Leave != nil {
		return e.Leave.Timetable
	}
	return e.Punch.Timetable
}

// LeaveRecord is one leave-request interval as the leave-management
// subsystem stores it. Dates stay strings on purpose: the expander owns
// the parse-or-skip decision for malformed intervals.
type LeaveRecord struct {
	RequestID  string
	EmpCode    string
	FirstName  string
	LastName   string
	Department string
	LeaveType  string
	Status     string
	StartDate  string
	EndDate    string
	IsHalfDay  bool
	HalfDay    string
	Reason     string
}

func (l LeaveRecord) DisplayName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// LeaveStat is one row of the pre-aggregated stats feed. It carries
// totals and request counts but no pending/rejected day breakdown.
type LeaveStat struct {
	EmpCode          string
	TotalDays        decimal.Decimal
	ApprovedDays     decimal.Decimal
	TotalRequests    int
	ApprovedRequests int
	PendingRequests  int
	RejectedRequests int
}

// EmployeeLeaveSummary is the published per-employee summary after the
// aggregated and recomputed sources have been reconciled.
type EmployeeLeaveSummary struct {
	TotalDays        decimal.Decimal            `json:"total_days"`
	ApprovedDays     decimal.Decimal            `json:"approved_days"`
	PendingDays      decimal.Decimal            `json:"pending_days"`
	RejectedDays     decimal.Decimal            `json:"rejected_days"`
	TotalRequests    int                        `json:"total_requests"`
	ApprovedRequests int                        `json:"approved_requests"`
	PendingRequests  int                        `json:"pending_requests"`
	RejectedRequests int                        `json:"rejected_requests"`
	Types            map[string]decimal.Decimal `json:"types"`
}

// FormatLeaveDays renders a day count for display: "3d", "2.5d", "0d".
func FormatLeaveDays(d decimal.Decimal) string {
	if d.IsZero() {
		return "0d"
	}
	if d.Equal(d.Truncate(0)) {
		return d.Truncate(0).String() + "d"
	}
	return d.StringFixed(1) + "d"
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// DisplayText renders the summary the way the report's Leave column
// shows it: "Approved 3d · Pending 1 request · Casual 2d · Total 5d ·
// 4 requests". Type entries sort by descending day count.
func (s *EmployeeLeaveSummary) DisplayText() string {
	if s == nil {
		return ""
	}
	var parts []string

	if !s.ApprovedDays.IsZero() {
		parts = append(parts, "Approved "+FormatLeaveDays(s.ApprovedDays))
	}

	if !s.PendingDays.IsZero() {
		parts = append(parts, "Pending "+FormatLeaveDays(s.PendingDays))
	} else if s.PendingRequests > 0 {
		parts = append(parts, fmt.Sprintf("Pending %d request%s", s.PendingRequests, plural(s.PendingRequests)))
	}

	if !s.RejectedDays.IsZero() {
		parts = append(parts, "Rejected "+FormatLeaveDays(s.RejectedDays))
	} else if s.RejectedRequests > 0 {
		parts = append(parts, fmt.Sprintf("Rejected %d request%s", s.RejectedRequests, plural(s.RejectedRequests)))
	}

	if len(s.Types) > 0 {
		type typeDays struct {
			name string
			days decimal.Decimal
		}
		var entries []typeDays
		for name, days := range s.Types {
			if !days.IsZero() {
				entries = append(entries, typeDays{name, days})
			}
		}
		sort.Slice(entries, func(i, j int) bool {
			if !entries[i].days.Equal(entries[j].days) {
				return entries[i].days.GreaterThan(entries[j].days)
			}
			return entries[i].name < entries[j].name
		})
		var typeParts []string
		for _, e := range entries {
			typeParts = append(typeParts, e.name+" "+FormatLeaveDays(e.days))
		}
		if len(typeParts) > 0 {
			parts = append(parts, strings.Join(typeParts, ", "))
		}
	}

	if !s.TotalDays.IsZero() {
		parts = append(parts, "Total "+FormatLeaveDays(s.TotalDays))
	}

	if s.TotalRequests > 0 {
		parts = append(parts, fmt.Sprintf("%d request%s", s.TotalRequests, plural(s.TotalRequests)))
	}

	if len(parts) == 0 {
		return "No leaves"
	}
	return strings.Join(parts, " · ")
}
