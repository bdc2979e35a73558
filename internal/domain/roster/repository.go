package roster

import (
	"context"
	"time"
)

// LeaveQuery selects leave requests by status, date range, and limit.
type LeaveQuery struct {
	Status    string
	StartDate string
	EndDate   string
	Limit     int
}

// LeaveRepository reads the leave-management subsystem. This service
// never writes leave data.
type LeaveRepository interface {
	// ListRequests returns leave intervals overlapping the query range.
	ListRequests(ctx context.Context, q LeaveQuery) ([]LeaveRecord, error)

	// EmployeeStats returns the pre-aggregated per-employee totals for
	// (year, month).
	EmployeeStats(ctx context.Context, year int, month time.Month, limit int) ([]LeaveStat, error)
}

// PageQuery addresses one page of the punch appliance's report export.
// Filter ids use the appliance's convention: "-1" means all.
type PageQuery struct {
	Page      int
	PageSize  int
	StartDate string
	EndDate   string
	// Appliance filter ids; "-1" selects all.
	Departments string
	Areas       string
	Groups      string
	Employees   string
}

// PunchPage is one page of wide rows plus the declared overall total.
type PunchPage struct {
	Rows       []WideRow
	TotalCount int
}

// PunchSource is the paginated punch upstream.
type PunchSource interface {
	MonthlyPunch(ctx context.Context, q PageQuery) (*PunchPage, error)
	MonthlyAbsent(ctx context.Context, q PageQuery) (*PunchPage, error)
}

// RefItem is a department/area entry from the appliance, normalized to
// id/name regardless of the vendor field naming.
type RefItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ReferenceSource lists the appliance's department and area catalogs.
type ReferenceSource interface {
	Departments(ctx context.Context) ([]RefItem, error)
	Areas(ctx context.Context) ([]RefItem, error)
}
