package roster

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/biotime"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/empcode"
)

const (
	defaultPageSize = 20
	maxPageFetches  = 500
)

// DepartmentNamer resolves an appliance department id to its display
// name. The reference cache satisfies this.
type DepartmentNamer interface {
	DepartmentName(id string) string
}

// Config tunes the fetch sequence.
type Config struct {
	// PreferredPageSize is the floor page size for the monthly report:
	// larger first pages mean fewer upstream round trips.
	PreferredPageSize int
	// WeeklyOffDay is the site's fixed weekly off day.
	WeeklyOffDay    time.Weekday
	LeaveFetchLimit int
	StatsFetchLimit int
}

type ViewServiceImpl struct {
	punch     roster.PunchSource
	leaveRepo roster.LeaveRepository
	depts     DepartmentNamer
	log       *slog.Logger
	cfg       Config
	now       func() time.Time

	mu     sync.RWMutex
	views  map[string]*view
	reqSeq atomic.Int64
}

func NewViewService(punch roster.PunchSource, leaveRepo roster.LeaveRepository, depts DepartmentNamer, log *slog.Logger, cfg Config) *ViewServiceImpl {
	if cfg.PreferredPageSize <= 0 {
		cfg.PreferredPageSize = 100
	}
	return &ViewServiceImpl{
		punch:     punch,
		leaveRepo: leaveRepo,
		depts:     depts,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
		views:     make(map[string]*view),
	}
}

// CreateView implements roster.ViewService. The first page is fetched
// before returning so the caller's first snapshot already has rows;
// the rest of the month and the leave data stream in behind it.
func (s *ViewServiceImpl) CreateView(ctx context.Context, filters roster.ViewFilters) (*roster.ViewSnapshot, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	v := &view{id: uuid.New().String()}
	s.mu.Lock()
	s.views[v.id] = v
	s.mu.Unlock()

	if err := s.startSequence(ctx, v, filters); err != nil {
		s.log.Warn("view fetch sequence failed on first page",
			"view_id", v.id, "error", err)
	}

	return s.render(v, roster.SnapshotQuery{Page: 1, PageSize: s.pageWindowSize(filters)}), nil
}

// UpdateFilters implements roster.ViewService. The running sequence is
// superseded; its workers drop their results on the next staleness
// check.
func (s *ViewServiceImpl) UpdateFilters(ctx context.Context, viewID string, filters roster.ViewFilters) (*roster.ViewSnapshot, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	v, err := s.lookup(viewID)
	if err != nil {
		return nil, err
	}

	if err := s.startSequence(ctx, v, filters); err != nil {
		s.log.Warn("view fetch sequence failed on first page",
			"view_id", viewID, "error", err)
	}

	return s.render(v, roster.SnapshotQuery{Page: 1, PageSize: s.pageWindowSize(filters)}), nil
}

// Snapshot implements roster.ViewService.
func (s *ViewServiceImpl) Snapshot(_ context.Context, viewID string, query roster.SnapshotQuery) (*roster.ViewSnapshot, error) {
	v, err := s.lookup(viewID)
	if err != nil {
		return nil, err
	}
	return s.render(v, query), nil
}

// DeleteView implements roster.ViewService.
func (s *ViewServiceImpl) DeleteView(_ context.Context, viewID string) error {
	s.mu.Lock()
	v, ok := s.views[viewID]
	if ok {
		delete(s.views, viewID)
	}
	s.mu.Unlock()
	if !ok {
		return roster.ErrViewNotFound
	}
	v.stop()
	return nil
}

// Ledger implements roster.ViewService.
func (s *ViewServiceImpl) Ledger(_ context.Context, viewID string, query roster.SnapshotQuery) (*roster.LedgerExtract, error) {
	v, err := s.lookup(viewID)
	if err != nil {
		return nil, err
	}
	data := v.snapshotData()

	entries := s.assembleLedger(data)
	if query.Search != "" {
		entries = s.searchLedger(entries, data.summary, query.Search)
	}

	summary := make(map[string]roster.EmployeeLeaveSummary, len(data.summary))
	for key, val := range data.summary {
		summary[key] = *val
	}

	return &roster.LedgerExtract{
		Filters:         data.dataFilters,
		Entries:         entries,
		WideRows:        data.wideRows,
		Summary:         summary,
		SummaryDegraded: data.summaryDegraded,
	}, nil
}

func (s *ViewServiceImpl) lookup(viewID string) (*view, error) {
	s.mu.RLock()
	v, ok := s.views[viewID]
	s.mu.RUnlock()
	if !ok {
		return nil, roster.ErrViewNotFound
	}
	return v, nil
}

func (s *ViewServiceImpl) pageWindowSize(filters roster.ViewFilters) int {
	if filters.PageSize > 0 {
		return filters.PageSize
	}
	return defaultPageSize
}

// fetchPageSize is the size used against the upstream. The monthly
// report fetches big pages regardless of the caller's window so the
// prefetch finishes in few round trips.
func (s *ViewServiceImpl) fetchPageSize(filters roster.ViewFilters) int {
	requested := s.pageWindowSize(filters)
	if filters.ReportType == roster.ReportMonthly && s.cfg.PreferredPageSize > requested {
		return s.cfg.PreferredPageSize
	}
	return requested
}

func baseQuery(filters roster.ViewFilters, pageSize int) roster.PageQuery {
	window := filters.Window()
	q := roster.PageQuery{
		Page:        1,
		PageSize:    pageSize,
		StartDate:   window.StartDate(),
		EndDate:     window.EndDate(),
		Departments: "-1",
		Areas:       "-1",
		Groups:      "-1",
		Employees:   "-1",
	}
	switch filters.FilterType {
	case roster.FilterByDepartment:
		if filters.DepartmentID != "" {
			q.Departments = filters.DepartmentID
		}
	case roster.FilterByArea:
		if filters.AreaID != "" {
			q.Areas = filters.AreaID
		}
	}
	return q
}

func (s *ViewServiceImpl) fetchPage(ctx context.Context, reportType string, q roster.PageQuery) (*roster.PunchPage, error) {
	switch reportType {
	case roster.ReportMonthly:
		return s.punch.MonthlyPunch(ctx, q)
	case roster.ReportMonthlyAbsent:
		return s.punch.MonthlyAbsent(ctx, q)
	default:
		return nil, roster.ErrUnknownReportType
	}
}

// startSequence fetches page 1 synchronously, then hands the rest of
// the month and the leave feeds to background workers. The first-page
// fetch retries once at the caller's smaller window size when the big
// preferred page times out or 500s upstream.
func (s *ViewServiceImpl) startSequence(ctx context.Context, v *view, filters roster.ViewFilters) error {
	reqID := s.reqSeq.Add(1)
	bgCtx := v.beginSequence(reqID, filters)

	pageSize := s.fetchPageSize(filters)
	q := baseQuery(filters, pageSize)

	page, err := s.fetchPage(ctx, filters.ReportType, q)
	if err != nil {
		requested := s.pageWindowSize(filters)
		if filters.ReportType == roster.ReportMonthly && pageSize > requested && biotime.IsRetryable(err) {
			s.log.Warn("first page fetch failed, retrying at smaller page size",
				"page_size", pageSize, "retry_page_size", requested, "error", err)
			pageSize = requested
			q.PageSize = requested
			page, err = s.fetchPage(ctx, filters.ReportType, q)
		}
		if err != nil {
			v.fail(reqID, err.Error())
			return fmt.Errorf("%w: %v", roster.ErrUpstreamUnavailable, err)
		}
	}

	workers := 0
	needMorePages := page.TotalCount > len(page.Rows) && len(page.Rows) > 0
	if needMorePages {
		workers++
	}
	needLeave := filters.ReportType == roster.ReportMonthly
	if needLeave {
		workers++
	}

	v.setFirstPage(reqID, page.Rows, page.TotalCount, workers)

	if needMorePages {
		go s.fetchRemainingPages(bgCtx, v, reqID, filters, q, pageSize, page.TotalCount)
	}
	if needLeave {
		go s.loadLeaveData(bgCtx, v, reqID, filters)
	}
	return nil
}

// fetchRemainingPages walks pages 2..N sequentially, checking
// staleness before every request. A failed page stops the walk but
// keeps what already merged; partial data beats none.
func (s *ViewServiceImpl) fetchRemainingPages(ctx context.Context, v *view, reqID int64, filters roster.ViewFilters, q roster.PageQuery, pageSize, total int) {
	defer v.workerDone(reqID)

	for pageNum := 2; pageNum <= maxPageFetches; pageNum++ {
		if !v.current(reqID) {
			return
		}

		q.Page = pageNum
		q.PageSize = pageSize
		page, err := s.fetchPage(ctx, filters.ReportType, q)
		if err != nil {
			s.log.Warn("background page fetch failed, keeping partial data",
				"view_id", v.id, "page", pageNum, "error", err)
			return
		}
		if len(page.Rows) == 0 {
			return
		}
		if !v.appendRows(reqID, page.Rows) {
			return
		}
		if count, ok := v.rowCount(reqID); !ok || count >= total {
			return
		}
	}
}

// loadLeaveData pulls the raw leave intervals and the pre-aggregated
// stats concurrently. Either feed failing degrades the summary rather
// than the view: a missing stats feed recomputes from raw intervals, a
// missing interval feed leaves the ledger punch-only.
func (s *ViewServiceImpl) loadLeaveData(ctx context.Context, v *view, reqID int64, filters roster.ViewFilters) {
	defer v.workerDone(reqID)

	window := filters.Window()

	var (
		wg       sync.WaitGroup
		leaves   []roster.LeaveRecord
		stats    []roster.LeaveStat
		degraded bool
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		result, err := s.leaveRepo.ListRequests(ctx, roster.LeaveQuery{
			Status:    string(roster.LeaveApproved),
			StartDate: window.StartDate(),
			EndDate:   window.EndDate(),
			Limit:     s.cfg.LeaveFetchLimit,
		})
		if err != nil {
			s.log.Warn("leave interval fetch failed, ledger stays punch-only",
				"view_id", v.id, "error", err)
			return
		}
		leaves = result
	}()
	go func() {
		defer wg.Done()
		result, err := s.leaveRepo.EmployeeStats(ctx, window.Year, window.Month, s.cfg.StatsFetchLimit)
		if err != nil {
			s.log.Warn("leave stats fetch failed, summary degraded",
				"view_id", v.id, "error", err)
			degraded = true
			return
		}
		stats = result
	}()
	wg.Wait()

	if !v.current(reqID) {
		return
	}

	summary := BuildLeaveSummary(leaves, stats, window)
	v.setLeaveData(reqID, leaves, summary, degraded)
}

// assembleLedger reconciles a view's accumulated state into the sorted
// ledger. It works off dataFilters, not the live filters, so rows kept
// from a previous sequence render against the month they belong to.
func (s *ViewServiceImpl) assembleLedger(data viewData) []roster.LedgerEntry {
	window := data.dataFilters.Window()

	var punchRecords []roster.PunchDayRecord
	if IsNarrow(data.wideRows) {
		punchRecords = ParseNarrow(data.wideRows)
	} else {
		t := Transposer{OffDay: s.cfg.WeeklyOffDay}
		lastDay := t.LastDayToShow(window, s.now())
		punchRecords = t.Transpose(data.wideRows, window, lastDay)
	}

	deptLookup := BuildDeptLookup(data.wideRows)
	leaveDays, leaveKeys := ExpandLeave(data.leaves, window, deptLookup)
	entries := MergeLedger(punchRecords, leaveDays, leaveKeys)

	if data.dataFilters.FilterType == roster.FilterByDepartment && data.dataFilters.DepartmentID != "" {
		target := ""
		if s.depts != nil {
			target = s.depts.DepartmentName(data.dataFilters.DepartmentID)
		}
		entries = FilterByDepartmentName(entries, target)
	}

	return entries
}

func (s *ViewServiceImpl) render(v *view, query roster.SnapshotQuery) *roster.ViewSnapshot {
	data := v.snapshotData()

	snap := &roster.ViewSnapshot{
		ViewID:          v.id,
		State:           data.state,
		Filters:         data.filters,
		UpstreamTotal:   data.upstreamTotal,
		SummaryDegraded: data.summaryDegraded,
		Error:           data.errMsg,
	}

	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = s.pageWindowSize(data.filters)
	}
	pageNum := query.Page
	if pageNum <= 0 {
		pageNum = 1
	}
	snap.Page = pageNum
	snap.PageSize = pageSize

	if query.Matrix || data.dataFilters.ReportType == roster.ReportMonthlyAbsent {
		rows := data.wideRows
		snap.TotalRows = len(rows)
		snap.MatrixRows = pageWindowWide(rows, pageNum, pageSize)
		return snap
	}

	entries := s.assembleLedger(data)
	if query.Search != "" {
		entries = s.searchLedger(entries, data.summary, query.Search)
	}
	snap.TotalRows = len(entries)

	if len(data.summary) > 0 {
		snap.Summary = make(map[string]roster.EmployeeLeaveSummary, len(data.summary))
		for key, val := range data.summary {
			snap.Summary[key] = *val
		}
	}

	for _, entry := range pageWindowEntries(entries, pageNum, pageSize) {
		snap.Rows = append(snap.Rows, s.renderRow(entry, data.summary, data.summaryDegraded))
	}
	return snap
}

func pageWindowWide(rows []roster.WideRow, page, size int) []roster.WideRow {
	lo := (page - 1) * size
	if lo >= len(rows) {
		return nil
	}
	hi := lo + size
	if hi > len(rows) {
		hi = len(rows)
	}
	return rows[lo:hi]
}

func pageWindowEntries(entries []roster.LedgerEntry, page, size int) []roster.LedgerEntry {
	lo := (page - 1) * size
	if lo >= len(entries) {
		return nil
	}
	hi := lo + size
	if hi > len(entries) {
		hi = len(entries)
	}
	return entries[lo:hi]
}

// searchLedger applies the free-text filter across every visible
// column, both the raw and normalized employee code forms, and the
// summary text.
func (s *ViewServiceImpl) searchLedger(entries []roster.LedgerEntry, summary map[string]*roster.EmployeeLeaveSummary, term string) []roster.LedgerEntry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return entries
	}

	matched := make([]roster.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if s.entryMatches(e, summary, term) {
			matched = append(matched, e)
		}
	}
	return matched
}

func (s *ViewServiceImpl) entryMatches(e roster.LedgerEntry, summary map[string]*roster.EmployeeLeaveSummary, term string) bool {
	contains := func(v string) bool {
		return strings.Contains(strings.ToLower(v), term)
	}

	rawCode := e.EmpCode()
	if contains(e.EmpName()) || contains(rawCode) ||
		contains(empcode.Normalize(rawCode)) ||
		contains(e.Department()) ||
		contains(roster.DateLabel(e.Date())) ||
		contains(e.Weekday()) ||
		contains(e.Timetable()) {
		return true
	}

	if e.Leave != nil {
		if contains(e.Leave.LeaveType) || contains(string(e.Leave.Status)) || contains(e.Leave.Reason) {
			return true
		}
	}

	if entry := LookupSummary(summary, rawCode); entry != nil {
		if contains(entry.DisplayText()) {
			return true
		}
	}
	return false
}

// renderRow maps a ledger entry to its wire form, composing the Leave
// column text from the entry and the employee's summary.
func (s *ViewServiceImpl) renderRow(e roster.LedgerEntry, summary map[string]*roster.EmployeeLeaveSummary, degraded bool) roster.LedgerRow {
	row := roster.LedgerRow{
		EmpCode:   e.EmpCode(),
		EmpName:   e.EmpName(),
		DeptName:  e.Department(),
		Date:      roster.DateLabel(e.Date()),
		Weekday:   e.Weekday(),
		Timetable: e.Timetable(),
		LeaveText: LeaveCellText(e, LookupSummary(summary, e.EmpCode()), degraded),
	}

	if e.Leave != nil {
		label := "Leave"
		duty := "Leave"
		if e.Leave.IsHalfDay {
			label = "Half-day Leave"
			duty = "Leave (Half Day)"
		}
		row.CheckIn = &label
		row.CheckOut = &label
		row.DutyDuration = &duty
		row.WorkDay = e.Leave.WorkDay.String()
		row.IsLeaveRecord = true
		row.LeaveType = e.Leave.LeaveType
		row.LeaveStatus = string(e.Leave.Status)
		row.LeaveReason = e.Leave.Reason
		row.IsHalfDayLeave = e.Leave.IsHalfDay
		row.LeaveRequestID = e.Leave.RequestID
		return row
	}

	row.CheckIn = e.Punch.CheckIn
	row.CheckOut = e.Punch.CheckOut
	row.DutyDuration = e.Punch.DutyDuration
	row.WorkDay = e.Punch.WorkDay.String()
	return row
}

// LeaveCellText renders the Leave column. Leave rows show their own
// record plus the employee's month total; punch rows show the
// availability fallback.
func LeaveCellText(e roster.LedgerEntry, summary *roster.EmployeeLeaveSummary, degraded bool) string {
	if e.Leave == nil {
		if degraded {
			return "Leave data unavailable"
		}
		return "No leaves"
	}

	leaveType := e.Leave.LeaveType
	if leaveType == "" {
		leaveType = "Leave"
	}
	text := leaveType
	if e.Leave.Status != "" {
		text += " (" + strings.ToUpper(string(e.Leave.Status)) + ")"
	}
	if e.Leave.IsHalfDay {
		text += " - Half Day"
	}

	if summary != nil {
		if summaryText := summary.DisplayText(); summaryText != "" && summaryText != "No leaves" {
			return text + " | Total: " + summaryText
		}
	}
	if degraded {
		return text + " | Summary unavailable"
	}
	return text
}
