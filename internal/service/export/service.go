package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/export"
	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/storage"
)

type ExportServiceImpl struct {
	views   roster.ViewService
	storage storage.FileStorage
	log     *slog.Logger
	now     func() time.Time

	mu        sync.RWMutex
	artifacts map[string]*export.Artifact
}

func NewExportService(views roster.ViewService, fileStorage storage.FileStorage, log *slog.Logger) *ExportServiceImpl {
	return &ExportServiceImpl{
		views:     views,
		storage:   fileStorage,
		log:       log,
		now:       time.Now,
		artifacts: make(map[string]*export.Artifact),
	}
}

// Create implements export.Service. The sheet is projected from the
// view's current state, so an export taken mid-merge contains the rows
// merged so far; callers wanting the full month wait for the view to
// settle first.
func (s *ExportServiceImpl) Create(ctx context.Context, viewID string, req export.CreateRequest) (*export.Artifact, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sheet, filters, err := s.project(ctx, viewID, req)
	if err != nil {
		return nil, err
	}

	// The highlight column drives styling only; the file itself never
	// carries it.
	sheet.StripHighlight()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(sheet.Headers); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	if err := w.WriteAll(sheet.Rows); err != nil {
		return nil, fmt.Errorf("failed to write data rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}

	artifact := &export.Artifact{
		ID:        uuid.New().String(),
		ViewID:    viewID,
		Scope:     req.Scope,
		Mode:      req.Mode,
		Filename:  fmt.Sprintf("%s-attendance-%04d-%02d.csv", filters.ReportType, filters.Year, filters.Month),
		RowCount:  len(sheet.Rows),
		CreatedAt: s.now(),
	}

	path, err := s.storage.Upload(ctx, &buf, "exports/"+artifact.ID+".csv", "text/csv")
	if err != nil {
		return nil, fmt.Errorf("failed to store export artifact: %w", err)
	}
	artifact.Path = path

	s.mu.Lock()
	s.artifacts[artifact.ID] = artifact
	s.mu.Unlock()

	s.log.Info("export artifact created",
		"artifact_id", artifact.ID, "view_id", viewID,
		"scope", req.Scope, "mode", req.Mode, "rows", artifact.RowCount)

	return artifact, nil
}

func (s *ExportServiceImpl) project(ctx context.Context, viewID string, req export.CreateRequest) (*Sheet, *roster.ViewFilters, error) {
	extract, err := s.views.Ledger(ctx, viewID, roster.SnapshotQuery{Search: req.Search})
	if err != nil {
		return nil, nil, err
	}
	filters := extract.Filters

	// The absence report has no per-day ledger; both modes project the
	// wide rows.
	if filters.ReportType == roster.ReportMonthlyAbsent {
		rows := extract.WideRows
		if req.Scope == export.ScopeCurrent {
			rows = windowRows(rows, req)
		}
		return ProjectAbsence(rows), &filters, nil
	}

	if req.Mode == export.ModeMatrix {
		rows := extract.WideRows
		if req.Scope == export.ScopeCurrent {
			rows = windowRows(rows, req)
		}
		return ProjectMatrix(rows, filters.Window()), &filters, nil
	}

	entries := extract.Entries
	if req.Scope == export.ScopeCurrent {
		entries = windowEntries(entries, req)
	}
	return ProjectLedger(entries, extract.Summary, extract.SummaryDegraded), &filters, nil
}

func windowRows(rows []roster.WideRow, req export.CreateRequest) []roster.WideRow {
	lo, hi := windowBounds(len(rows), req)
	return rows[lo:hi]
}

func windowEntries(entries []roster.LedgerEntry, req export.CreateRequest) []roster.LedgerEntry {
	lo, hi := windowBounds(len(entries), req)
	return entries[lo:hi]
}

func windowBounds(n int, req export.CreateRequest) (int, int) {
	size := req.PageSize
	if size <= 0 {
		size = 20
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	lo := (page - 1) * size
	if lo >= n {
		return 0, 0
	}
	hi := lo + size
	if hi > n {
		hi = n
	}
	return lo, hi
}

// Get implements export.Service.
func (s *ExportServiceImpl) Get(_ context.Context, artifactID string) (*export.Artifact, error) {
	s.mu.RLock()
	artifact, ok := s.artifacts[artifactID]
	s.mu.RUnlock()
	if !ok {
		return nil, export.ErrArtifactNotFound
	}
	return artifact, nil
}

// Delete implements export.Service. The record goes first; a file left
// behind by a failed remove is orphaned, not resurrected.
func (s *ExportServiceImpl) Delete(ctx context.Context, artifactID string) error {
	s.mu.Lock()
	artifact, ok := s.artifacts[artifactID]
	if ok {
		delete(s.artifacts, artifactID)
	}
	s.mu.Unlock()
	if !ok {
		return export.ErrArtifactNotFound
	}

	if err := s.storage.Delete(ctx, artifact.Path); err != nil {
		s.log.Warn("failed to remove export file",
			"artifact_id", artifactID, "path", artifact.Path, "error", err)
	}
	return nil
}

// Open implements export.Service.
func (s *ExportServiceImpl) Open(ctx context.Context, artifactID string) (*export.Artifact, io.ReadCloser, error) {
	artifact, err := s.Get(ctx, artifactID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.storage.Download(ctx, artifact.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open export artifact: %w", err)
	}
	return artifact, rc, nil
}
