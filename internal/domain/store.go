package domain

import (
	"context"
	"time"
)

// DrawFilter narrows draw listings.
type DrawFilter struct {
	Variant string
	Since   *time.Time
	Until   *time.Time
}

// DrawStore persists draws and their payout rows.
type DrawStore interface {
	// ListDraws returns draws in ascending date order, each with its payouts.
	ListDraws(ctx context.Context, filter DrawFilter) ([]Draw, error)
	// LastDrawDate returns the newest stored draw date, or the zero time.
	LastDrawDate(ctx context.Context, variant string) (time.Time, error)
	// InsertDraw stores a draw and its payouts atomically. Inserting a date
	// that already exists is a no-op.
	InsertDraw(ctx context.Context, draw Draw) error
	Count(ctx context.Context, variant string) (int64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
