package export

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/validator"
)

var ErrArtifactNotFound = errors.New("Export artifact not found")

const (
	ScopeCurrent = "current"
	ScopeAll     = "all"
)

const (
	ModeLedger = "ledger"
	ModeMatrix = "matrix"
)

// Artifact is one generated spreadsheet, kept on disk until deleted.
type Artifact struct {
	ID        string    `json:"id"`
	ViewID    string    `json:"view_id"`
	Scope     string    `json:"scope"`
	Mode      string    `json:"mode"`
	Filename  string    `json:"filename"`
	Path      string    `json:"-"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateRequest struct {
	Scope    string `json:"scope"`
	Mode     string `json:"mode"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
	Search   string `json:"search,omitempty"`
}

func (r *CreateRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Scope != ScopeCurrent && r.Scope != ScopeAll {
		errs = append(errs, validator.ValidationError{
			Field:   "scope",
			Message: "scope must be current or all",
		})
	}
	if r.Mode != ModeLedger && r.Mode != ModeMatrix {
		errs = append(errs, validator.ValidationError{
			Field:   "mode",
			Message: "mode must be ledger or matrix",
		})
	}
	if r.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type Service interface {
	Create(ctx context.Context, viewID string, req CreateRequest) (*Artifact, error)
	Get(ctx context.Context, artifactID string) (*Artifact, error)

	// Open returns the artifact and its content stream; the caller
	// closes the stream.
	Open(ctx context.Context, artifactID string) (*Artifact, io.ReadCloser, error)

	// Delete removes the artifact record and its stored file.
	Delete(ctx context.Context, artifactID string) error
}
