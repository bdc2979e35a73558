package roster

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/empcode"
)

type summaryEntry struct {
	roster.EmployeeLeaveSummary
	aggregated bool
}

// BuildLeaveSummary reconciles the two leave feeds into one
// per-employee summary map, keyed by both the raw trimmed code and the
// normalized code so either lookup form resolves.
//
// The pre-aggregated stats feed seeds totals and request counts but
// knows nothing about leave types or pending/rejected day counts, so
// the raw intervals always contribute the type breakdown. Day and
// request totals are recomputed from the intervals only for employees
// the stats feed missed: where both sources cover an employee the
// aggregated totals stand, even when they disagree with a recount.
func BuildLeaveSummary(leaves []roster.LeaveRecord, stats []roster.LeaveStat, window roster.MonthWindow) map[string]*roster.EmployeeLeaveSummary {
	entries := make(map[string]*summaryEntry)

	for _, stat := range stats {
		trimmed := strings.TrimSpace(stat.EmpCode)
		normalized := empcode.Normalize(trimmed)
		if trimmed == "" && normalized == "" {
			continue
		}
		entry := &summaryEntry{
			EmployeeLeaveSummary: roster.EmployeeLeaveSummary{
				TotalDays:        stat.TotalDays,
				ApprovedDays:     stat.ApprovedDays,
				TotalRequests:    stat.TotalRequests,
				ApprovedRequests: stat.ApprovedRequests,
				PendingRequests:  stat.PendingRequests,
				RejectedRequests: stat.RejectedRequests,
				Types:            map[string]decimal.Decimal{},
			},
			aggregated: true,
		}
		if trimmed != "" {
			entries[trimmed] = entry
		}
		if normalized != "" && normalized != trimmed {
			entries[normalized] = entry
		}
	}

	for _, leave := range leaves {
		trimmed := strings.TrimSpace(leave.EmpCode)
		normalized := empcode.Normalize(trimmed)
		targetKey := trimmed
		if targetKey == "" {
			targetKey = normalized
		}
		if targetKey == "" {
			continue
		}

		days := leaveDaysInWindow(leave, window)
		if days.LessThanOrEqual(decimal.Zero) {
			continue
		}

		leaveType := leave.LeaveType
		if leaveType == "" {
			leaveType = "Leave"
		}

		entry, ok := entries[targetKey]
		if !ok {
			entry = &summaryEntry{
				EmployeeLeaveSummary: roster.EmployeeLeaveSummary{
					Types: map[string]decimal.Decimal{},
				},
			}
			entries[targetKey] = entry
			if normalized != "" && normalized != targetKey {
				entries[normalized] = entry
			}
		}

		entry.Types[leaveType] = entry.Types[leaveType].Add(days)

		if !entry.aggregated {
			entry.TotalDays = entry.TotalDays.Add(days)
			switch strings.ToLower(leave.Status) {
			case "approved":
				entry.ApprovedDays = entry.ApprovedDays.Add(days)
				entry.ApprovedRequests++
			case "pending":
				entry.PendingDays = entry.PendingDays.Add(days)
				entry.PendingRequests++
			case "rejected":
				entry.RejectedDays = entry.RejectedDays.Add(days)
				entry.RejectedRequests++
			}
			entry.TotalRequests++
		}
	}

	summary := make(map[string]*roster.EmployeeLeaveSummary, len(entries))
	for key, entry := range entries {
		summary[key] = &entry.EmployeeLeaveSummary
	}
	return summary
}

// leaveDaysInWindow counts the interval's days after clipping to the
// month. A half-day request counts 0.5 regardless of span.
func leaveDaysInWindow(leave roster.LeaveRecord, window roster.MonthWindow) decimal.Decimal {
	start := parseLeaveDate(leave.StartDate)
	end := parseLeaveDate(leave.EndDate)
	if start.IsZero() || end.IsZero() {
		return decimal.Zero
	}
	if start.Before(window.Start) {
		start = window.Start
	}
	if end.After(window.End) {
		end = window.End
	}
	if end.Before(start) {
		return decimal.Zero
	}
	if leave.IsHalfDay {
		return halfDayWeight
	}
	days := int(end.Sub(start).Hours()/24) + 1
	return decimal.NewFromInt(int64(days))
}

// LookupSummary resolves an employee's summary trying the normalized
// code first, then the raw trimmed form.
func LookupSummary(summary map[string]*roster.EmployeeLeaveSummary, rawCode string) *roster.EmployeeLeaveSummary {
	if len(summary) == 0 {
		return nil
	}
	if normalized := empcode.Normalize(rawCode); normalized != "" {
		if s, ok := summary[normalized]; ok {
			return s
		}
	}
	if s, ok := summary[strings.TrimSpace(rawCode)]; ok {
		return s
	}
	return nil
}
