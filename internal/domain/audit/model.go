// Package audit provides the append-only event log recorded as a side
// effect of every mutating operation.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"shopledger/internal/core/id"
)

// Event categories.
const (
	CategoryStock  = "stock"
	CategoryLedger = "ledger"
	CategoryAuth   = "auth"
)

// Event is a single audit log entry. Events are append-only: they are never
// updated or deleted.
type Event struct {
	ID id.ID `db:"id" json:"id"`

	// User is the display name of the actor.
	User string `db:"user_name" json:"user"`

	// Detail is a short human-readable description, e.g. "Stock updated".
	Detail string `db:"detail" json:"detail"`

	// EventCategory tags the event for filtering, e.g. "stock".
	EventCategory string `db:"event_category" json:"eventCategory"`

	// Route is the logical operation name, e.g. "POST /api/stocks/transfer".
	Route string `db:"route" json:"route"`

	// AdditionalInfo is an opaque structured payload.
	AdditionalInfo json.RawMessage `db:"additional_info" json:"additionalInfo"`

	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// Filter narrows event listings.
type Filter struct {
	Category string
	Limit    int
}

// Repository defines persistence for audit events.
type Repository interface {
	// Insert appends one event.
	Insert(ctx context.Context, event Event) error

	// List returns events matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]Event, error)
}
