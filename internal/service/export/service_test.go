package export

import (
	"context"
	"encoding/csv"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domexport "github.com/clockwork-hr/attendance-recon-go/internal/domain/export"
	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/storage"
)

type fakeViewService struct {
	extract *roster.LedgerExtract
	err     error
	lastQ   roster.SnapshotQuery
}

func (f *fakeViewService) CreateView(context.Context, roster.ViewFilters) (*roster.ViewSnapshot, error) {
	panic("not used")
}

func (f *fakeViewService) UpdateFilters(context.Context, string, roster.ViewFilters) (*roster.ViewSnapshot, error) {
	panic("not used")
}

func (f *fakeViewService) Snapshot(context.Context, string, roster.SnapshotQuery) (*roster.ViewSnapshot, error) {
	panic("not used")
}

func (f *fakeViewService) DeleteView(context.Context, string) error {
	panic("not used")
}

func (f *fakeViewService) Ledger(_ context.Context, _ string, q roster.SnapshotQuery) (*roster.LedgerExtract, error) {
	f.lastQ = q
	return f.extract, f.err
}

func ledgerExtract(entries ...roster.LedgerEntry) *roster.LedgerExtract {
	return &roster.LedgerExtract{
		Filters: roster.ViewFilters{
			ReportType: roster.ReportMonthly,
			Month:      2,
			Year:       2024,
		},
		Entries: entries,
	}
}

func newTestExportService(t *testing.T, views roster.ViewService) *ExportServiceImpl {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewExportService(views, local, slog.New(slog.DiscardHandler))
}

func TestCreateWritesCSVWithoutHighlight(t *testing.T) {
	views := &fakeViewService{extract: ledgerExtract(
		punchEntry("1", 1, strp("09:00"), strp("18:00")),
		leaveEntry("2", 2, false),
	)}
	s := newTestExportService(t, views)

	artifact, err := s.Create(context.Background(), "view-1", domexport.CreateRequest{
		Scope: domexport.ScopeAll,
		Mode:  domexport.ModeLedger,
	})
	require.NoError(t, err)

	assert.Equal(t, "monthly-attendance-2024-02.csv", artifact.Filename)
	assert.Equal(t, 2, artifact.RowCount)
	assert.False(t, artifact.CreatedAt.IsZero())

	got, rc, err := s.Open(context.Background(), artifact.ID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, artifact.ID, got.ID)

	records, err := csv.NewReader(rc).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Leave", records[0][len(records[0])-1])
	assert.NotContains(t, records[0], "__highlight")
	assert.Equal(t, "09:00", records[1][6])
	assert.Equal(t, "Leave", records[2][6])
}

func TestCreateCurrentScopeWindowsEntries(t *testing.T) {
	var entries []roster.LedgerEntry
	for day := 1; day <= 5; day++ {
		entries = append(entries, punchEntry("1", day, strp("09:00"), strp("18:00")))
	}
	views := &fakeViewService{extract: ledgerExtract(entries...)}
	s := newTestExportService(t, views)

	artifact, err := s.Create(context.Background(), "view-1", domexport.CreateRequest{
		Scope:    domexport.ScopeCurrent,
		Mode:     domexport.ModeLedger,
		Page:     2,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, artifact.RowCount)

	_, rc, err := s.Open(context.Background(), artifact.ID)
	require.NoError(t, err)
	defer rc.Close()
	records, err := csv.NewReader(rc).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "03-02-2024", records[1][3])
}

func TestCreatePassesSearchThrough(t *testing.T) {
	views := &fakeViewService{extract: ledgerExtract()}
	s := newTestExportService(t, views)

	_, err := s.Create(context.Background(), "view-1", domexport.CreateRequest{
		Scope:  domexport.ScopeAll,
		Mode:   domexport.ModeLedger,
		Search: "sales",
	})
	require.NoError(t, err)
	assert.Equal(t, "sales", views.lastQ.Search)
}

func TestCreateMatrixMode(t *testing.T) {
	extract := ledgerExtract()
	extract.WideRows = []roster.WideRow{{
		"emp_code":   "1",
		"first_name": "Asha",
		"dept_name":  "Engineering",
		"201":        "09:00-18:00",
	}}
	views := &fakeViewService{extract: extract}
	s := newTestExportService(t, views)

	artifact, err := s.Create(context.Background(), "view-1", domexport.CreateRequest{
		Scope: domexport.ScopeAll,
		Mode:  domexport.ModeMatrix,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, artifact.RowCount)

	_, rc, err := s.Open(context.Background(), artifact.ID)
	require.NoError(t, err)
	defer rc.Close()
	records, err := csv.NewReader(rc).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "1", records[0][4])
	assert.Equal(t, "09:00-18:00", records[1][4])
}

func TestCreateValidatesRequest(t *testing.T) {
	s := newTestExportService(t, &fakeViewService{extract: ledgerExtract()})

	_, err := s.Create(context.Background(), "view-1", domexport.CreateRequest{
		Scope: "everything",
		Mode:  domexport.ModeLedger,
	})
	require.Error(t, err)
}

func TestCreatePropagatesViewLookupError(t *testing.T) {
	s := newTestExportService(t, &fakeViewService{err: roster.ErrViewNotFound})

	_, err := s.Create(context.Background(), "missing", domexport.CreateRequest{
		Scope: domexport.ScopeAll,
		Mode:  domexport.ModeLedger,
	})
	assert.ErrorIs(t, err, roster.ErrViewNotFound)
}

func TestDeleteArtifact(t *testing.T) {
	views := &fakeViewService{extract: ledgerExtract(
		punchEntry("1", 1, strp("09:00"), strp("18:00")),
	)}
	s := newTestExportService(t, views)

	artifact, err := s.Create(context.Background(), "view-1", domexport.CreateRequest{
		Scope: domexport.ScopeAll,
		Mode:  domexport.ModeLedger,
	})
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), artifact.ID))
	_, err = s.Get(context.Background(), artifact.ID)
	assert.ErrorIs(t, err, domexport.ErrArtifactNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), artifact.ID), domexport.ErrArtifactNotFound)
}

func TestGetUnknownArtifact(t *testing.T) {
	s := newTestExportService(t, &fakeViewService{})

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domexport.ErrArtifactNotFound)

	_, _, err = s.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, domexport.ErrArtifactNotFound)
}
