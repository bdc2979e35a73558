package roster

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
)

var clockTimeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)

var (
	workDayFull = decimal.NewFromInt(1)
	workDayOff  = decimal.Zero
)

// dayKeyCandidates returns the cell keys a vendor may use for one
// day-of-month, in lookup priority: MMDD ("1105"), 1000+day ("1005"),
// "day_5", "Day5".
func dayKeyCandidates(month time.Month, day int) []string {
	return []string{
		strconv.Itoa(int(month)*100 + day),
		strconv.Itoa(1000 + day),
		fmt.Sprintf("day_%d", day),
		fmt.Sprintf("Day%d", day),
	}
}

// dayCell is one day's raw material after candidate-key resolution:
// the combined punch string plus the structured object when the vendor
// sends one.
type dayCell struct {
	punch string
	data  map[string]interface{}
}

func resolveDayCell(row roster.WideRow, month time.Month, day int) dayCell {
	raw, ok := row.Cell(dayKeyCandidates(month, day)...)
	if !ok {
		return dayCell{}
	}
	switch v := raw.(type) {
	case map[string]interface{}:
		sub := roster.WideRow(v)
		return dayCell{
			punch: sub.Str("punch", "time", "value", "check_in", "checkIn"),
			data:  v,
		}
	default:
		return dayCell{punch: cellString(raw)}
	}
}

func cellString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'g', -1, 64)
	default:
		return ""
	}
}

func (c dayCell) str(keys ...string) string {
	if c.data == nil {
		return ""
	}
	return roster.WideRow(c.data).Str(keys...)
}

// pickDayField resolves a per-day field across the vendor's naming
// variants: suffixed row columns first, then the structured cell.
func pickDayField(row roster.WideRow, cell dayCell, mmdd string, day int, base string, cellKeys ...string) string {
	dayN := strconv.Itoa(day)
	if v := row.Str(base+"_"+mmdd, base+"_"+dayN); v != "" {
		return v
	}
	if v := cell.str(cellKeys...); v != "" {
		return v
	}
	return ""
}

// splitCombinedPunch breaks a "09:02-18:11" cell into its in and out
// halves. A bare "09:02" yields only the in side.
func splitCombinedPunch(punch string) (in, out string) {
	punch = strings.TrimSpace(punch)
	if punch == "" {
		return "", ""
	}
	if i := strings.Index(punch, "-"); i >= 0 {
		return strings.TrimSpace(punch[:i]), strings.TrimSpace(punch[i+1:])
	}
	if clockTimeRe.MatchString(punch) {
		return punch, ""
	}
	return "", ""
}

// dutyFromTimes computes "HH:MM" worked time between two clock times.
// Overnight shifts wrap: 22:00-06:00 is eight hours, not minus sixteen.
func dutyFromTimes(in, out string) string {
	if !clockTimeRe.MatchString(in) || !clockTimeRe.MatchString(out) {
		return ""
	}
	inH, _ := strconv.Atoi(in[:2])
	inM, _ := strconv.Atoi(in[3:])
	outH, _ := strconv.Atoi(out[:2])
	outM, _ := strconv.Atoi(out[3:])

	minutes := (outH*60 + outM) - (inH*60 + inM)
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// timetableLabel synthesizes a "9am to 6pm" style label from the punch
// pair when the vendor sends no schedule name.
func timetableLabel(in, out string) string {
	if !clockTimeRe.MatchString(in) || !clockTimeRe.MatchString(out) {
		return ""
	}
	return clockLabel(in) + " to " + clockLabel(out)
}

func clockLabel(t string) string {
	hour, _ := strconv.Atoi(t[:2])
	period := "am"
	if hour >= 12 {
		period = "pm"
	}
	display := hour
	switch {
	case hour > 12:
		display = hour - 12
	case hour == 0:
		display = 12
	}
	return fmt.Sprintf("%d%s", display, period)
}

// fallbackTimetable guesses a schedule from the department when every
// other source is empty. Department names are matched by substring.
func fallbackTimetable(dept, position string) string {
	dept = strings.ToLower(dept)
	position = strings.ToLower(position)
	switch {
	case strings.Contains(dept, "sales") || strings.Contains(dept, "operations"):
		return "Morning 8am to 5pm"
	case strings.Contains(dept, "remote") || strings.Contains(position, "remote"):
		return "Flexible"
	default:
		return "9am to 6pm"
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Transposer turns the appliance's wide month-per-row report into
// per-(employee, day) records. The weekly off day is site policy, not
// vendor data.
type Transposer struct {
	OffDay time.Weekday
}

// LastDayToShow clamps the transposition to yesterday when the window
// is the current month: today's punches are still accumulating and
// would read as absences.
func (t Transposer) LastDayToShow(window roster.MonthWindow, today time.Time) int {
	if today.Year() == window.Year && today.Month() == window.Month {
		if d := today.Day() - 1; d >= 1 {
			return d
		}
		return 1
	}
	return window.Days
}

// Transpose expands every wide row into one record per day, first day
// through lastDay inclusive.
func (t Transposer) Transpose(rows []roster.WideRow, window roster.MonthWindow, lastDay int) []roster.PunchDayRecord {
	if lastDay > window.Days {
		lastDay = window.Days
	}
	records := make([]roster.PunchDayRecord, 0, len(rows)*lastDay)
	for _, row := range rows {
		for day := 1; day <= lastDay; day++ {
			records = append(records, t.transposeDay(row, window, day))
		}
	}
	return records
}

func (t Transposer) transposeDay(row roster.WideRow, window roster.MonthWindow, day int) roster.PunchDayRecord {
	mmdd := strconv.Itoa(int(window.Month)*100 + day)
	cell := resolveDayCell(row, window.Month, day)

	date := window.Date(day)
	isOffDay := date.Weekday() == t.OffDay

	checkIn := pickDayField(row, cell, mmdd, day, "check_in",
		"check_in", "checkIn", "checkInTime", "check_in_time")
	checkOut := pickDayField(row, cell, mmdd, day, "check_out",
		"check_out", "checkOut", "checkOutTime", "check_out_time")

	timetable := pickDayField(row, cell, mmdd, day, "timetable",
		"timetable", "schedule", "time_table", "workSchedule")
	if timetable == "" {
		timetable = row.Str("timetable", "schedule", "work_schedule",
			"time_table", "workSchedule", "default_schedule", "shift_timings")
	}

	duty := pickDayField(row, cell, mmdd, day, "duty_duration",
		"duty_duration", "dutyDuration", "dutyDurationHrs", "duty_duration_hrs",
		"worked_hours", "workedHours", "worked_time")
	if duty == "" {
		duty = row.Str("worked_hours", "duty_duration", "dutyDuration")
	}

	// Combined "in-out" cells only fill in when the structured fields
	// were all empty.
	if checkIn == "" && checkOut == "" && cell.punch != "" {
		in, out := splitCombinedPunch(cell.punch)
		checkIn, checkOut = in, out
		if in != "" && out != "" {
			if d := dutyFromTimes(in, out); d != "" {
				duty = d
			}
		}
	}

	if timetable == "" {
		timetable = timetableLabel(checkIn, checkOut)
	}
	if timetable == "" {
		timetable = fallbackTimetable(row.DeptName(), row.Str("position_name"))
	}

	// Flexible schedules have no fixed window; show the whole day
	// rather than a missing punch.
	if strings.Contains(strings.ToLower(timetable), "flexible") {
		if checkIn == "" {
			checkIn = "00:00"
		}
		if checkOut == "" {
			checkOut = "23:59"
		}
	}

	workDay := workDayFull
	if isOffDay {
		workDay = workDayOff
	}

	// An off day with no punch is a non-event, so empty sides read
	// "00:00". A working day stays blank: nil times are the
	// missing-punch signal downstream.
	if isOffDay {
		if checkIn == "" && checkOut == "" {
			duty = ""
		}
		if checkIn == "" {
			checkIn = "00:00"
		}
		if checkOut == "" {
			checkOut = "00:00"
		}
	}

	return roster.PunchDayRecord{
		EmpCode:      row.EmpCode(),
		EmpName:      row.DisplayName(),
		Department:   row.DeptName(),
		Date:         date,
		Weekday:      date.Weekday().String(),
		Timetable:    timetable,
		CheckIn:      optional(checkIn),
		CheckOut:     optional(checkOut),
		DutyDuration: optional(duty),
		WorkDay:      workDay,
		RawPunch:     cell.punch,
	}
}

// IsNarrow reports whether the upstream already sent per-day rows
// instead of the wide month-per-row layout.
func IsNarrow(rows []roster.WideRow) bool {
	if len(rows) == 0 {
		return false
	}
	return rows[0].Str("date", "dateStr", "attendance_date") != ""
}

// ParseNarrow maps already-narrow upstream rows straight into day
// records, no transposition needed.
func ParseNarrow(rows []roster.WideRow) []roster.PunchDayRecord {
	records := make([]roster.PunchDayRecord, 0, len(rows))
	for _, row := range rows {
		dateStr := row.Str("date", "dateStr", "attendance_date")
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		workDay := workDayFull
		if v := row.Str("work_day", "workDay"); v != "" {
			if d, err := decimal.NewFromString(v); err == nil {
				workDay = d
			}
		}

		records = append(records, roster.PunchDayRecord{
			EmpCode:    row.EmpCode(),
			EmpName:    row.DisplayName(),
			Department: row.DeptName(),
			Date:       date,
			Weekday:    date.Weekday().String(),
			Timetable:  row.Str("timetable", "schedule"),
			CheckIn: optional(row.Str("check_in", "checkIn",
				"check_in_time", "checkInTime", "first_check_in")),
			CheckOut: optional(row.Str("check_out", "checkOut",
				"check_out_time", "checkOutTime", "last_check_out")),
			DutyDuration: optional(row.Str("duty_duration", "dutyDuration",
				"duty_duration_time", "work_duration")),
			WorkDay:  workDay,
			RawPunch: row.Str("punch", "rawPunch"),
		})
	}
	return records
}
