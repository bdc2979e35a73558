package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/database"
)

type leaveRepositoryImpl struct {
	db database.Querier
}

func NewLeaveRepository(db *database.DB) roster.LeaveRepository {
	return &leaveRepositoryImpl{db: db.Pool}
}

// ListRequests implements roster.LeaveRepository. Intervals are matched
// by overlap so a request straddling a month boundary still shows up.
func (r *leaveRepositoryImpl) ListRequests(ctx context.Context, q roster.LeaveQuery) ([]roster.LeaveRecord, error) {
	query := `
		SELECT lr.id, e.emp_code, e.first_name, e.last_name, e.dept_name,
			   lt.name, lr.status,
			   to_char(lr.start_date, 'YYYY-MM-DD'),
			   to_char(lr.end_date, 'YYYY-MM-DD'),
			   lr.is_half_day, COALESCE(lr.half_day_segment, ''), COALESCE(lr.reason, '')
		FROM leave_requests lr
		INNER JOIN employees e ON lr.employee_id = e.id
		INNER JOIN leave_types lt ON lr.leave_type_id = lt.id
		WHERE lr.start_date <= $2
		  AND lr.end_date >= $1
	`

	args := []interface{}{q.StartDate, q.EndDate}
	if q.Status != "" && q.Status != "all" {
		query += fmt.Sprintf(" AND lr.status = $%d", len(args)+1)
		args = append(args, q.Status)
	}
	query += " ORDER BY lr.start_date ASC, e.emp_code ASC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, q.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	var records []roster.LeaveRecord
	for rows.Next() {
		var rec roster.LeaveRecord
		err := rows.Scan(
			&rec.RequestID,
			&rec.EmpCode,
			&rec.FirstName,
			&rec.LastName,
			&rec.Department,
			&rec.LeaveType,
			&rec.Status,
			&rec.StartDate,
			&rec.EndDate,
			&rec.IsHalfDay,
			&rec.HalfDay,
			&rec.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave requests: %w", err)
	}

	return records, nil
}

// EmployeeStats implements roster.LeaveRepository. Totals count days
// clipped to the month; half days weigh 0.5. The breakdown carries
// request counts only, no pending or rejected day totals, which is why
// the service recomputes days per status from the raw intervals.
func (r *leaveRepositoryImpl) EmployeeStats(ctx context.Context, year int, month time.Month, limit int) ([]roster.LeaveStat, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	query := `
		SELECT e.emp_code,
			   COALESCE(SUM(
				   (LEAST(lr.end_date, $2::date) - GREATEST(lr.start_date, $1::date) + 1)
				   * CASE WHEN lr.is_half_day THEN 0.5 ELSE 1 END
			   ), 0),
			   COALESCE(SUM(
				   CASE WHEN lr.status = 'approved' THEN
					   (LEAST(lr.end_date, $2::date) - GREATEST(lr.start_date, $1::date) + 1)
					   * CASE WHEN lr.is_half_day THEN 0.5 ELSE 1 END
				   ELSE 0 END
			   ), 0),
			   COUNT(*),
			   COUNT(*) FILTER (WHERE lr.status = 'approved'),
			   COUNT(*) FILTER (WHERE lr.status = 'pending'),
			   COUNT(*) FILTER (WHERE lr.status = 'rejected')
		FROM leave_requests lr
		INNER JOIN employees e ON lr.employee_id = e.id
		WHERE lr.start_date <= $2
		  AND lr.end_date >= $1
		GROUP BY e.emp_code
		ORDER BY e.emp_code ASC
	`

	args := []interface{}{
		monthStart.Format("2006-01-02"),
		monthEnd.Format("2006-01-02"),
	}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave stats: %w", err)
	}
	defer rows.Close()

	var stats []roster.LeaveStat
	for rows.Next() {
		var stat roster.LeaveStat
		var totalDays, approvedDays decimal.Decimal
		err := rows.Scan(
			&stat.EmpCode,
			&totalDays,
			&approvedDays,
			&stat.TotalRequests,
			&stat.ApprovedRequests,
			&stat.PendingRequests,
			&stat.RejectedRequests,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave stats: %w", err)
		}
		stat.TotalDays = totalDays
		stat.ApprovedDays = approvedDays
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave stats: %w", err)
	}

	return stats, nil
}
