package billing

import (
	"context"
	"time"
)

// Repository defines persistence for bill history entries.
type Repository interface {
	// Create inserts one entry together with its movement snapshots.
	// Must be called within a transaction when stock mutations have to
	// commit atomically with the entry.
	Create(ctx context.Context, entry *Entry) error

	// ListByPeriod returns entries with pdf_date in [from, to), newest
	// business date first, movements loaded.
	ListByPeriod(ctx context.Context, from, to time.Time) ([]Entry, error)
}

// HistoryCache caches month listings of bill history. Implementations are
// best-effort: a miss or a cache fault only costs a database round trip.
type HistoryCache interface {
	// GetMonth returns the cached entries for a "YYYY-MM" key.
	GetMonth(ctx context.Context, month string) ([]Entry, bool)

	// SetMonth stores entries for a "YYYY-MM" key.
	SetMonth(ctx context.Context, month string, entries []Entry)

	// InvalidateMonth drops the cached listing for a "YYYY-MM" key.
	InvalidateMonth(ctx context.Context, month string)
}
