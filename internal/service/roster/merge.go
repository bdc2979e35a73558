package roster

import (
	"sort"
	"strings"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
)

// MergeLedger combines the punch and leave sides into one ledger.
// Leave wins: a punch record whose (employee, date) appears in the
// leave key set is dropped whole, stray punches on approved leave days
// included. The result is sorted by employee code, then date.
func MergeLedger(punch []roster.PunchDayRecord, leave []roster.LeaveDayRecord, leaveKeys map[string]struct{}) []roster.LedgerEntry {
	entries := make([]roster.LedgerEntry, 0, len(punch)+len(leave))

	for i := range punch {
		p := &punch[i]
		if len(leaveKeys) > 0 {
			if _, claimed := leaveKeys[overrideKey(p.EmpCode, p.Date)]; claimed {
				continue
			}
		}
		entries = append(entries, roster.LedgerEntry{Punch: p})
	}
	for i := range leave {
		entries = append(entries, roster.LedgerEntry{Leave: &leave[i]})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a := strings.ToLower(entries[i].EmpCode())
		b := strings.ToLower(entries[j].EmpCode())
		if a != b && a != "" && b != "" {
			return naturalLess(a, b)
		}
		return entries[i].Date().Before(entries[j].Date())
	})

	return entries
}

// naturalLess orders strings with embedded numbers numerically, so
// "EMP2" sorts before "EMP10".
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		aDigit := isDigit(a[0])
		bDigit := isDigit(b[0])
		if aDigit != bDigit {
			return a < b
		}
		if !aDigit {
			if a[0] != b[0] {
				return a[0] < b[0]
			}
			a, b = a[1:], b[1:]
			continue
		}

		aNum, aRest := splitDigits(a)
		bNum, bRest := splitDigits(b)
		aTrim := strings.TrimLeft(aNum, "0")
		bTrim := strings.TrimLeft(bNum, "0")
		if len(aTrim) != len(bTrim) {
			return len(aTrim) < len(bTrim)
		}
		if aTrim != bTrim {
			return aTrim < bTrim
		}
		a, b = aRest, bRest
	}
	return a == "" && b != ""
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func splitDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// FilterByDepartmentName keeps entries whose department matches the
// target, either direction of substring. Rows with no department, or
// the placeholder "n/a", never match. An empty target keeps every row
// that has a real department.
func FilterByDepartmentName(entries []roster.LedgerEntry, target string) []roster.LedgerEntry {
	target = strings.ToLower(strings.TrimSpace(target))
	filtered := make([]roster.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		dept := strings.ToLower(strings.TrimSpace(e.Department()))
		if dept == "" || dept == "n/a" {
			continue
		}
		if target == "" || dept == target ||
			strings.Contains(dept, target) || strings.Contains(target, dept) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
