package roster

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/biotime"
)

type fakePunchSource struct {
	mu        sync.Mutex
	pages     map[int][]roster.WideRow
	total     int
	failFirst error
	failAll   error
	calls     []roster.PageQuery

	// When blockPage is set, a fetch for that page signals entered and
	// then parks until release is closed.
	blockPage int
	entered   chan struct{}
	release   chan struct{}
}

func (f *fakePunchSource) MonthlyPunch(_ context.Context, q roster.PageQuery) (*roster.PunchPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	if f.failFirst != nil {
		err := f.failFirst
		f.failFirst = nil
		f.mu.Unlock()
		return nil, err
	}
	if f.failAll != nil {
		err := f.failAll
		f.mu.Unlock()
		return nil, err
	}
	rows := f.pages[q.Page]
	total := f.total
	blockPage, entered, release := f.blockPage, f.entered, f.release
	f.mu.Unlock()

	if blockPage != 0 && q.Page == blockPage {
		entered <- struct{}{}
		<-release
	}
	return &roster.PunchPage{Rows: rows, TotalCount: total}, nil
}

func (f *fakePunchSource) MonthlyAbsent(ctx context.Context, q roster.PageQuery) (*roster.PunchPage, error) {
	return f.MonthlyPunch(ctx, q)
}

func (f *fakePunchSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakePunchSource) call(i int) roster.PageQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func (f *fakePunchSource) setFailAll(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = err
}

func (f *fakePunchSource) reconfigure(pages map[int][]roster.WideRow, total int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = pages
	f.total = total
}

type fakeLeaveRepo struct {
	records  []roster.LeaveRecord
	stats    []roster.LeaveStat
	listErr  error
	statsErr error
}

func (f *fakeLeaveRepo) ListRequests(_ context.Context, _ roster.LeaveQuery) ([]roster.LeaveRecord, error) {
	return f.records, f.listErr
}

func (f *fakeLeaveRepo) EmployeeStats(_ context.Context, _ int, _ time.Month, _ int) ([]roster.LeaveStat, error) {
	return f.stats, f.statsErr
}

func wideRowFixture(code, first, dept string) roster.WideRow {
	return roster.WideRow{
		"emp_code":   code,
		"first_name": first,
		"dept_name":  dept,
		"201":        "09:00-18:00",
	}
}

func newTestService(punch roster.PunchSource, leaves roster.LeaveRepository) *ViewServiceImpl {
	s := NewViewService(punch, leaves, nil, slog.New(slog.DiscardHandler), Config{
		PreferredPageSize: 100,
		WeeklyOffDay:      time.Sunday,
	})
	// Fixed clock: March 2024, so a February view shows the whole month.
	s.now = func() time.Time {
		return time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func monthlyFilters() roster.ViewFilters {
	return roster.ViewFilters{
		ReportType: roster.ReportMonthly,
		Month:      2,
		Year:       2024,
		PageSize:   50,
	}
}

func waitSettled(t *testing.T, s *ViewServiceImpl, viewID string) *roster.ViewSnapshot {
	t.Helper()
	var snap *roster.ViewSnapshot
	require.Eventually(t, func() bool {
		var err error
		snap, err = s.Snapshot(context.Background(), viewID, roster.SnapshotQuery{Page: 1, PageSize: 500})
		if err != nil {
			return false
		}
		return snap.State == StateSettled
	}, 2*time.Second, 10*time.Millisecond)
	return snap
}

func TestCreateViewSinglePageSettles(t *testing.T) {
	punch := &fakePunchSource{
		pages: map[int][]roster.WideRow{1: {wideRowFixture("1", "Asha", "Engineering")}},
		total: 1,
	}
	s := newTestService(punch, &fakeLeaveRepo{})

	snap, err := s.CreateView(context.Background(), monthlyFilters())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.UpstreamTotal)

	snap = waitSettled(t, s, snap.ViewID)
	// One employee, 29 days of leap February.
	assert.Equal(t, 29, snap.TotalRows)
}

func TestCreateViewMergesRemainingPages(t *testing.T) {
	punch := &fakePunchSource{
		pages: map[int][]roster.WideRow{
			1: {wideRowFixture("1", "Asha", "Engineering")},
			2: {wideRowFixture("2", "Ravi", "Engineering")},
			3: {wideRowFixture("3", "Meera", "Engineering")},
		},
		total: 3,
	}
	s := newTestService(punch, &fakeLeaveRepo{})

	// Page size 1 forces a three page walk.
	s.cfg.PreferredPageSize = 1
	filters := monthlyFilters()
	filters.PageSize = 1

	snap, err := s.CreateView(context.Background(), filters)
	require.NoError(t, err)

	snap = waitSettled(t, s, snap.ViewID)
	assert.Equal(t, 3*29, snap.TotalRows)
}

func TestCreateViewRetriesSmallerPageOnUpstreamError(t *testing.T) {
	punch := &fakePunchSource{
		pages:     map[int][]roster.WideRow{1: {wideRowFixture("1", "Asha", "Engineering")}},
		total:     1,
		failFirst: &biotime.APIError{StatusCode: 500, Message: "boom"},
	}
	s := newTestService(punch, &fakeLeaveRepo{})

	snap, err := s.CreateView(context.Background(), monthlyFilters())
	require.NoError(t, err)
	require.NotEqual(t, StateFailed, snap.State)

	require.GreaterOrEqual(t, punch.callCount(), 2)
	assert.Equal(t, 100, punch.call(0).PageSize)
	assert.Equal(t, 50, punch.call(1).PageSize)
}

func TestCreateViewClientErrorFails(t *testing.T) {
	punch := &fakePunchSource{
		failFirst: &biotime.APIError{StatusCode: 403, Message: "denied"},
	}
	s := newTestService(punch, &fakeLeaveRepo{})

	snap, err := s.CreateView(context.Background(), monthlyFilters())
	require.NoError(t, err)
	assert.Equal(t, StateFailed, snap.State)
	assert.NotEmpty(t, snap.Error)
	assert.Equal(t, 1, punch.callCount())
}

func TestUpdateFiltersSupersedesOldSequence(t *testing.T) {
	punch := &fakePunchSource{
		pages: map[int][]roster.WideRow{1: {wideRowFixture("1", "Asha", "Engineering")}},
		total: 1,
	}
	s := newTestService(punch, &fakeLeaveRepo{})

	snap, err := s.CreateView(context.Background(), monthlyFilters())
	require.NoError(t, err)
	viewID := snap.ViewID

	newFilters := monthlyFilters()
	newFilters.Month = 1
	snap, err = s.UpdateFilters(context.Background(), viewID, newFilters)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Filters.Month)

	snap = waitSettled(t, s, viewID)
	// January 2024: 31 days, all in the past for the fixed clock.
	assert.Equal(t, 31, snap.TotalRows)
}

func TestUpdateFiltersFailureKeepsPriorLedger(t *testing.T) {
	punch := &fakePunchSource{
		pages: map[int][]roster.WideRow{1: {wideRowFixture("1", "Asha", "Engineering")}},
		total: 1,
	}
	s := newTestService(punch, &fakeLeaveRepo{})

	created, err := s.CreateView(context.Background(), monthlyFilters())
	require.NoError(t, err)
	waitSettled(t, s, created.ViewID)

	// Every fetch now fails, including the smaller-page retry.
	punch.setFailAll(&biotime.APIError{StatusCode: 503, Message: "down"})

	newFilters := monthlyFilters()
	newFilters.Month = 1
	snap, err := s.UpdateFilters(context.Background(), created.ViewID, newFilters)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, snap.State)
	assert.NotEmpty(t, snap.Error)
	assert.Equal(t, 1, snap.Filters.Month)
	// The February ledger is still there to look at.
	assert.Equal(t, 29, snap.TotalRows)
	require.NotEmpty(t, snap.Rows)
	assert.Equal(t, "01-02-2024", snap.Rows[0].Date)
}

func TestBeginSequenceKeepsNewestRequestLive(t *testing.T) {
	v := &view{id: "v1"}

	live := v.beginSequence(6, monthlyFilters())
	require.NoError(t, live.Err())

	// A sequence that allocated its id earlier but armed later must not
	// regress the live one.
	stale := v.beginSequence(5, monthlyFilters())

	assert.True(t, v.current(6))
	assert.False(t, v.current(5))
	assert.Error(t, stale.Err())
	assert.NoError(t, live.Err())

	assert.False(t, v.appendRows(5, []roster.WideRow{wideRowFixture("9", "Zo", "Ops")}))
	assert.True(t, v.appendRows(6, nil))
}

func TestSupersededSequenceDropsLatePages(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	punch := &fakePunchSource{
		pages: map[int][]roster.WideRow{
			1: {wideRowFixture("1", "Asha", "Engineering")},
			2: {wideRowFixture("2", "Ravi", "Engineering")},
		},
		total:     2,
		blockPage: 2,
		entered:   entered,
		release:   release,
	}
	s := newTestService(punch, &fakeLeaveRepo{})
	s.cfg.PreferredPageSize = 1
	filters := monthlyFilters()
	filters.PageSize = 1

	created, err := s.CreateView(context.Background(), filters)
	require.NoError(t, err)

	// The background fetcher is now parked inside its page 2 request.
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("background fetch never reached page 2")
	}

	// Change filters while that page is still in flight. The new month
	// fits in a single page, so the new sequence settles on its own.
	punch.reconfigure(map[int][]roster.WideRow{
		1: {wideRowFixture("1", "Asha", "Engineering")},
	}, 1)
	newFilters := filters
	newFilters.Month = 1
	_, err = s.UpdateFilters(context.Background(), created.ViewID, newFilters)
	require.NoError(t, err)

	close(release)
	snap := waitSettled(t, s, created.ViewID)
	assert.Equal(t, 31, snap.TotalRows)

	// The unparked fetcher belongs to the superseded sequence; its page
	// must never land, even after it has had time to try.
	assert.Never(t, func() bool {
		snap, err := s.Snapshot(context.Background(), created.ViewID, roster.SnapshotQuery{Page: 1, PageSize: 500})
		if err != nil {
			return true
		}
		for _, row := range snap.Rows {
			if row.EmpCode == "2" {
				return true
			}
		}
		return len(snap.Rows) != 31
	}, 300*time.Millisecond, 20*time.Millisecond)
}

func TestSnapshotLeaveOverridesPunch(t *testing.T) {
	punch := &fakePunchSource{
		pages: map[int][]roster.WideRow{1: {wideRowFixture("0123", "Asha", "Engineering")}},
		total: 1,
	}
	leaves := &fakeLeaveRepo{
		records: []roster.LeaveRecord{{
			RequestID: "lr-1",
			EmpCode:   "123",
			FirstName: "Asha",
			LeaveType: "Casual",
			Status:    "approved",
			StartDate: "2024-02-01",
			EndDate:   "2024-02-01",
		}},
	}
	s := newTestService(punch, leaves)

	snap, err := s.CreateView(context.Background(), monthlyFilters())
	require.NoError(t, err)
	snap = waitSettled(t, s, snap.ViewID)

	require.NotEmpty(t, snap.Rows)
	first := snap.Rows[0]
	assert.True(t, first.IsLeaveRecord)
	assert.Equal(t, "Casual", first.LeaveType)
	assert.Equal(t, "01-02-2024", first.Date)
	// The stray punch for the same day is gone: still 29 rows total.
	assert.Equal(t, 29, snap.TotalRows)
	assert.Contains(t, first.LeaveText, "Casual (APPROVED)")
}

func TestSnapshotSummaryDegradedWhenStatsFail(t *testing.T) {
	punch := &fakePunchSource{
		pages: map[int][]roster.WideRow{1: {wideRowFixture("1", "Asha", "Engineering")}},
		total: 1,
	}
	leaves := &fakeLeaveRepo{statsErr: context.DeadlineExceeded}
	s := newTestService(punch, leaves)

	snap, err := s.CreateView(context.Background(), monthlyFilters())
	require.NoError(t, err)
	snap = waitSettled(t, s, snap.ViewID)

	assert.True(t, snap.SummaryDegraded)
	require.NotEmpty(t, snap.Rows)
	assert.Equal(t, "Leave data unavailable", snap.Rows[0].LeaveText)
}

func TestSnapshotSearchFiltersRows(t *testing.T) {
	punch := &fakePunchSource{
		pages: map[int][]roster.WideRow{1: {
			wideRowFixture("1", "Asha", "Engineering"),
			wideRowFixture("2", "Ravi", "Sales"),
		}},
		total: 2,
	}
	s := newTestService(punch, &fakeLeaveRepo{})

	snap, err := s.CreateView(context.Background(), monthlyFilters())
	require.NoError(t, err)
	waitSettled(t, s, snap.ViewID)

	filtered, err := s.Snapshot(context.Background(), snap.ViewID, roster.SnapshotQuery{
		Page: 1, PageSize: 500, Search: "sales",
	})
	require.NoError(t, err)
	assert.Equal(t, 29, filtered.TotalRows)
	for _, row := range filtered.Rows {
		assert.Equal(t, "Sales", row.DeptName)
	}
}

func TestSnapshotPageWindow(t *testing.T) {
	punch := &fakePunchSource{
		pages: map[int][]roster.WideRow{1: {wideRowFixture("1", "Asha", "Engineering")}},
		total: 1,
	}
	s := newTestService(punch, &fakeLeaveRepo{})

	created, err := s.CreateView(context.Background(), monthlyFilters())
	require.NoError(t, err)
	waitSettled(t, s, created.ViewID)

	snap, err := s.Snapshot(context.Background(), created.ViewID, roster.SnapshotQuery{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 29, snap.TotalRows)
	assert.Len(t, snap.Rows, 10)
	assert.Equal(t, "11-02-2024", snap.Rows[0].Date)
}

func TestDeleteView(t *testing.T) {
	punch := &fakePunchSource{
		pages: map[int][]roster.WideRow{1: {wideRowFixture("1", "Asha", "Engineering")}},
		total: 1,
	}
	s := newTestService(punch, &fakeLeaveRepo{})

	snap, err := s.CreateView(context.Background(), monthlyFilters())
	require.NoError(t, err)

	require.NoError(t, s.DeleteView(context.Background(), snap.ViewID))
	_, err = s.Snapshot(context.Background(), snap.ViewID, roster.SnapshotQuery{})
	assert.ErrorIs(t, err, roster.ErrViewNotFound)
	assert.ErrorIs(t, s.DeleteView(context.Background(), snap.ViewID), roster.ErrViewNotFound)
}

func TestCreateViewValidatesFilters(t *testing.T) {
	s := newTestService(&fakePunchSource{}, &fakeLeaveRepo{})

	_, err := s.CreateView(context.Background(), roster.ViewFilters{
		ReportType: "weekly",
		Month:      2,
		Year:       2024,
	})
	require.Error(t, err)
}
