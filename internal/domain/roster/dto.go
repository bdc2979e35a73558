package roster

import (
	"fmt"
	"time"

	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/validator"
)

const (
	ReportMonthly       = "monthly"
	ReportMonthlyAbsent = "monthly_absent"
)

const (
	FilterByDepartment = "department"
	FilterByArea       = "area"
)

// ViewFilters is the (month, year, report type, upstream filter)
// tuple a reconciliation view is keyed by. Any change supersedes the
// in-flight fetch sequence.
type ViewFilters struct {
	ReportType   string `json:"report_type"`
	Month        int    `json:"month"`
	Year         int    `json:"year"`
	FilterType   string `json:"filter_type,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
	AreaID       string `json:"area_id,omitempty"`
	PageSize     int    `json:"page_size,omitempty"`
}

func (f *ViewFilters) Validate() error {
	var errs validator.ValidationErrors

	if f.ReportType != ReportMonthly && f.ReportType != ReportMonthlyAbsent {
		errs = append(errs, validator.ValidationError{
			Field:   "report_type",
			Message: "report_type must be monthly or monthly_absent",
		})
	}

	if f.Month < 1 || f.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	currentYear := time.Now().Year()
	if f.Year < 2020 || f.Year > currentYear+1 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: fmt.Sprintf("year must be between 2020 and %d", currentYear+1),
		})
	}

	if f.FilterType != "" && f.FilterType != FilterByDepartment && f.FilterType != FilterByArea {
		errs = append(errs, validator.ValidationError{
			Field:   "filter_type",
			Message: "filter_type must be department or area",
		})
	}

	if f.PageSize < 0 || f.PageSize > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "page_size",
			Message: "page_size must be between 0 and 1000",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Window returns the reporting month the filters select.
func (f *ViewFilters) Window() MonthWindow {
	return NewMonthWindow(f.Year, time.Month(f.Month))
}

// LedgerRow is the wire form of one ledger entry.
type LedgerRow struct {
	EmpCode        string  `json:"emp_code"`
	EmpName        string  `json:"emp_name"`
	DeptName       string  `json:"dept_name"`
	Date           string  `json:"date"`
	Weekday        string  `json:"weekday"`
	Timetable      string  `json:"timetable"`
	CheckIn        *string `json:"check_in"`
	CheckOut       *string `json:"check_out"`
	DutyDuration   *string `json:"duty_duration"`
	WorkDay        string  `json:"work_day"`
	IsLeaveRecord  bool    `json:"is_leave_record"`
	LeaveType      string  `json:"leave_type,omitempty"`
	LeaveStatus    string  `json:"leave_status,omitempty"`
	LeaveReason    string  `json:"leave_reason,omitempty"`
	IsHalfDayLeave bool    `json:"is_half_day_leave,omitempty"`
	LeaveRequestID string  `json:"leave_request_id,omitempty"`
	LeaveText      string  `json:"leave_text"`
}

// ViewSnapshot is what the presentation layer polls: the current page
// window of rows (or raw matrix rows), totals, the summary map, and
// the fetch state.
type ViewSnapshot struct {
	ViewID          string                          `json:"view_id"`
	State           string                          `json:"state"`
	Filters         ViewFilters                     `json:"filters"`
	Rows            []LedgerRow                     `json:"rows,omitempty"`
	MatrixRows      []WideRow                       `json:"matrix_rows,omitempty"`
	TotalRows       int                             `json:"total_rows"`
	UpstreamTotal   int                             `json:"upstream_total"`
	Page            int                             `json:"page"`
	PageSize        int                             `json:"page_size"`
	Summary         map[string]EmployeeLeaveSummary `json:"summary,omitempty"`
	SummaryDegraded bool                            `json:"summary_degraded"`
	Error           string                          `json:"error,omitempty"`
}

// SnapshotQuery selects the page window and optional search term for a
// snapshot read.
type SnapshotQuery struct {
	Page     int
	PageSize int
	Search   string
	// Matrix selects the raw wide-row view instead of the ledger.
	Matrix bool
}

// LedgerExtract is the full reconciled state of a view, for export
// projections.
type LedgerExtract struct {
	Filters         ViewFilters
	Entries         []LedgerEntry
	WideRows        []WideRow
	Summary         map[string]EmployeeLeaveSummary
	SummaryDegraded bool
}
