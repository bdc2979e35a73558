package roster

import "context"

// ViewService manages reconciliation views: each view owns one fetch
// sequence against the punch source for its filters, merges leave
// records over the ledger, and serves paged snapshots while the rest
// of the month streams in behind the first page.
type ViewService interface {
	CreateView(ctx context.Context, filters ViewFilters) (*ViewSnapshot, error)
	UpdateFilters(ctx context.Context, viewID string, filters ViewFilters) (*ViewSnapshot, error)
	Snapshot(ctx context.Context, viewID string, query SnapshotQuery) (*ViewSnapshot, error)
	DeleteView(ctx context.Context, viewID string) error

	// Ledger returns the view's reconciled state for export. The query's
	// search term applies; its page window does not.
	Ledger(ctx context.Context, viewID string, query SnapshotQuery) (*LedgerExtract, error)
}
