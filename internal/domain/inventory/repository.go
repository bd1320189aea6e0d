package inventory

import (
	"context"

	"shopledger/internal/core/id"
)

// Repository defines persistence for stock rows.
//
// GetForUpdate and FindByKeyForUpdate take row locks and must run inside a
// transaction; SetQuantity is conditional on the version carried by the
// item, so a stale read is rejected instead of clobbering a concurrent
// write.
type Repository interface {
	// ListByShop returns all items for a shop. Empty result is not an error.
	ListByShop(ctx context.Context, shop string) ([]StockItem, error)

	// Get retrieves one item. Returns NOT_FOUND if the id is unknown.
	Get(ctx context.Context, stockID id.ID) (*StockItem, error)

	// GetForUpdate retrieves one item with a row lock.
	GetForUpdate(ctx context.Context, stockID id.ID) (*StockItem, error)

	// FindByKeyForUpdate retrieves the row for (product, size, shop) with a
	// row lock. If legacy duplicate rows exist it picks the first match and
	// logs a warning. Returns NOT_FOUND if no row matches.
	FindByKeyForUpdate(ctx context.Context, product, size, shop string) (*StockItem, error)

	// Create inserts a new row. Returns DUPLICATE_ENTRY when a row with the
	// same (product, size, shop) already exists.
	Create(ctx context.Context, item *StockItem) error

	// SetQuantity overwrites the quantity of item, guarded by item.Version.
	// On success item reflects the new quantity, bumped version and
	// last_updated. Returns CONCURRENT_MODIFICATION on version mismatch.
	SetQuantity(ctx context.Context, item *StockItem, newQuantity int) error

	// Delete removes one row. Returns NOT_FOUND if the id is unknown.
	Delete(ctx context.Context, stockID id.ID) error
}
