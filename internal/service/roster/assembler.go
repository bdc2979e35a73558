package roster

import (
	"context"
	"sync"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
)

// View fetch states. A sequence moves fetching_first_page ->
// background_merging -> settled, or to failed. superseded is absorbing
// for the sequence it marks: a filter change bumps the request id and
// every in-flight worker for the old sequence drops its results.
const (
	StateFetchingFirstPage = "fetching_first_page"
	StateBackgroundMerging = "background_merging"
	StateSettled           = "settled"
	StateFailed            = "failed"
	StateSuperseded        = "superseded"
)

// view is one reconciliation view's accumulated upstream state. All
// fields behind mu; workers re-check requestID before every write so a
// superseded sequence can never clobber its successor.
type view struct {
	mu sync.Mutex

	id        string
	filters   roster.ViewFilters
	requestID int64
	state     string
	errMsg    string

	// dataFilters are the filters the rows below were fetched under.
	// They trail filters until the new sequence's first page lands.
	dataFilters   roster.ViewFilters
	wideRows      []roster.WideRow
	upstreamTotal int

	leaves          []roster.LeaveRecord
	summary         map[string]*roster.EmployeeLeaveSummary
	summaryDegraded bool

	// pendingWorkers counts the background tasks of the current
	// sequence; the last one out settles the view.
	pendingWorkers int

	cancel context.CancelFunc
}

// current reports whether reqID is still the live sequence.
func (v *view) current(reqID int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.requestID == reqID
}

// beginSequence supersedes any in-flight sequence and arms a new one.
// Returns the context the new sequence's workers run under. Prior view
// data stays in place until the new first page lands, so a sequence
// that fails outright leaves the last good ledger visible.
//
// Request ids only move forward: a caller that allocated its id before
// a newer sequence but armed after it gets a dead context back and the
// live sequence is untouched.
func (v *view) beginSequence(reqID int64, filters roster.ViewFilters) context.Context {
	v.mu.Lock()
	defer v.mu.Unlock()

	if reqID <= v.requestID {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel

	v.requestID = reqID
	v.filters = filters
	v.state = StateFetchingFirstPage
	v.errMsg = ""
	v.pendingWorkers = 0

	return ctx
}

// setFirstPage records the synchronously fetched first page and the
// number of background workers about to run. Zero workers settles
// immediately. This is the point where the previous sequence's data is
// replaced.
func (v *view) setFirstPage(reqID int64, rows []roster.WideRow, total, workers int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.requestID != reqID {
		return
	}
	v.dataFilters = v.filters
	v.wideRows = rows
	v.upstreamTotal = total
	v.leaves = nil
	v.summary = nil
	v.summaryDegraded = false
	v.pendingWorkers = workers
	if workers > 0 {
		v.state = StateBackgroundMerging
	} else {
		v.state = StateSettled
	}
}

func (v *view) fail(reqID int64, msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.requestID != reqID {
		return
	}
	v.state = StateFailed
	v.errMsg = msg
}

// appendRows merges one background page into the sequence.
func (v *view) appendRows(reqID int64, rows []roster.WideRow) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.requestID != reqID {
		return false
	}
	v.wideRows = append(v.wideRows, rows...)
	return true
}

func (v *view) rowCount(reqID int64) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.requestID != reqID {
		return 0, false
	}
	return len(v.wideRows), true
}

func (v *view) setLeaveData(reqID int64, leaves []roster.LeaveRecord, summary map[string]*roster.EmployeeLeaveSummary, degraded bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.requestID != reqID {
		return
	}
	v.leaves = leaves
	v.summary = summary
	v.summaryDegraded = degraded
}

// workerDone retires one background worker; the last one settles the
// sequence unless it already failed.
func (v *view) workerDone(reqID int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.requestID != reqID {
		return
	}
	v.pendingWorkers--
	if v.pendingWorkers <= 0 && v.state == StateBackgroundMerging {
		v.state = StateSettled
	}
}

// viewData is a consistent copy of everything a snapshot needs, taken
// under the lock and rendered outside it.
type viewData struct {
	filters         roster.ViewFilters
	state           string
	errMsg          string
	dataFilters     roster.ViewFilters
	wideRows        []roster.WideRow
	upstreamTotal   int
	leaves          []roster.LeaveRecord
	summary         map[string]*roster.EmployeeLeaveSummary
	summaryDegraded bool
}

func (v *view) snapshotData() viewData {
	v.mu.Lock()
	defer v.mu.Unlock()
	return viewData{
		filters:         v.filters,
		state:           v.state,
		errMsg:          v.errMsg,
		dataFilters:     v.dataFilters,
		wideRows:        v.wideRows,
		upstreamTotal:   v.upstreamTotal,
		leaves:          v.leaves,
		summary:         v.summary,
		summaryDegraded: v.summaryDegraded,
	}
}

func (v *view) stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
	}
	v.requestID = -1
	v.state = StateSuperseded
}
