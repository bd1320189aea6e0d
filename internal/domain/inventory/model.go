// Package inventory owns per-shop stock rows and their mutation operations:
// receipt, quantity set, delete, and cross-shop transfer.
package inventory

import (
	"context"
	"strings"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// desiMarker classifies a product into the desi sales subtotal when its
// name contains this substring (case-insensitive). Everything else counts
// as beer.
const desiMarker = "desi"

// StockItem is one product line held by one shop. A shop is a plain label,
// not a separate entity. (product, size, shop) is unique.
type StockItem struct {
	ID id.ID `db:"id" json:"id"`

	Product string `db:"product" json:"product"`
	Size    string `db:"size" json:"size"`

	// Quantity is the current on-hand unit count. Closings trust the
	// caller-supplied value; transfers are the only operation that checks
	// it cannot go negative.
	Quantity int `db:"quantity" json:"quantity"`

	// Price is the unit sale price.
	Price types.Money `db:"price" json:"price"`

	Shop string `db:"shop" json:"shop"`

	// Version supports optimistic locking; bumped on every quantity write.
	Version int `db:"version" json:"version"`

	LastUpdated time.Time `db:"last_updated" json:"lastUpdated"`
}

// NewStockItem creates a stock row ready for insertion.
func NewStockItem(product, size string, quantity int, price types.Money, shop string) *StockItem {
	return &StockItem{
		ID:          id.New(),
		Product:     product,
		Size:        size,
		Quantity:    quantity,
		Price:       price,
		Shop:        shop,
		Version:     1,
		LastUpdated: time.Now().UTC(),
	}
}

// IsDesi reports whether the product counts toward the desi sales subtotal.
func (s *StockItem) IsDesi() bool {
	return strings.Contains(strings.ToLower(s.Product), desiMarker)
}

// Validate checks entity invariants.
func (s *StockItem) Validate(ctx context.Context) error {
	if strings.TrimSpace(s.Product) == "" {
		return apperror.NewValidation("product is required").WithDetail("field", "product")
	}
	if strings.TrimSpace(s.Size) == "" {
		return apperror.NewValidation("size is required").WithDetail("field", "size")
	}
	if strings.TrimSpace(s.Shop) == "" {
		return apperror.NewValidation("shop is required").WithDetail("field", "shop")
	}
	if s.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").WithDetail("field", "price")
	}
	return nil
}

// TransferRequest moves quantity between two shops' rows for the same
// product/size.
type TransferRequest struct {
	StockID          id.ID  `json:"stockId"`
	FromShop         string `json:"fromShop"`
	ToShop           string `json:"toShop"`
	TransferQuantity int    `json:"transferQuantity"`
}

// Validate checks the request shape before touching storage.
func (r TransferRequest) Validate() error {
	if id.IsNil(r.StockID) {
		return apperror.NewValidation("stockId is required").WithDetail("field", "stockId")
	}
	if strings.TrimSpace(r.FromShop) == "" {
		return apperror.NewValidation("fromShop is required").WithDetail("field", "fromShop")
	}
	if strings.TrimSpace(r.ToShop) == "" {
		return apperror.NewValidation("toShop is required").WithDetail("field", "toShop")
	}
	if r.FromShop == r.ToShop {
		return apperror.NewValidation("fromShop and toShop must differ")
	}
	if r.TransferQuantity <= 0 {
		return apperror.NewValidation("transferQuantity must be positive").
			WithDetail("field", "transferQuantity")
	}
	return nil
}
