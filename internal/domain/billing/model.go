// Package billing owns the end-of-day closing flow: it applies a batch of
// stock quantity updates for one shop and persists a single immutable bill
// history entry summarizing the day.
package billing

import (
	"strings"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// StockMovement is a point-in-time snapshot of one stock line at closing.
// Snapshots are embedded in the bill entry and keep no reference to the
// live stock row.
type StockMovement struct {
	BillID id.ID `db:"bill_id" json:"-"`

	// LineNo preserves the order the caller submitted the lines in.
	LineNo int `db:"line_no" json:"-"`

	Product      string      `db:"product" json:"product"`
	Size         string      `db:"size" json:"size"`
	LastQuantity int         `db:"last_quantity" json:"lastQuantity"`
	NewQuantity  int         `db:"new_quantity" json:"newQuantity"`
	Price        types.Money `db:"price" json:"price"`
	LineTotal    types.Money `db:"line_total" json:"totalSale"`
}

// Entry is one shop's financial closing for a business date. Entries are
// immutable once created; there are no update or delete operations.
type Entry struct {
	ID   id.ID  `db:"id" json:"id"`
	Shop string `db:"shop" json:"shop"`

	// PDFDate is the business date being closed, distinct from CreatedAt.
	PDFDate time.Time `db:"pdf_date" json:"pdfDate"`

	TotalSale     types.Money `db:"total_sale" json:"totalSale"`
	UPIPayment    types.Money `db:"upi_payment" json:"upiPayment"`
	Discount      types.Money `db:"discount" json:"discount"`
	BreakageCash  types.Money `db:"breakage_cash" json:"breakageCash"`
	CanteenCash   types.Money `db:"canteen_cash" json:"canteenCash"`
	TotalDesiSale types.Money `db:"total_desi_sale" json:"totalDesiSale"`
	TotalBeerSale types.Money `db:"total_beer_sale" json:"totalBeerSale"`
	Salary        types.Money `db:"salary" json:"salary"`
	Rent          types.Money `db:"rent" json:"rent"`
	RateDiff      types.Money `db:"rate_diff" json:"rateDiff"`
	Transportation types.Money `db:"transportation" json:"transportation"`

	// TotalPaymentReceived is the derived cash-in-hand figure reconciled
	// against the physical drawer. Always computed server-side.
	TotalPaymentReceived types.Money `db:"total_payment_received" json:"totalPaymentReceived"`

	UpdatedStocks []StockMovement `db:"-" json:"updatedStocks"`

	CreatedAt time.Time `db:"created_at" json:"date"`
}

// Adjustments are the manual shop-level figures entered at closing.
type Adjustments struct {
	Discount       types.Money `json:"discount"`
	UPIPayment     types.Money `json:"upiPayment"`
	CanteenCash    types.Money `json:"canteenCash"`
	BreakageCash   types.Money `json:"breakageCash"`
	RateDiff       types.Money `json:"rateDiff"`
	Transportation types.Money `json:"transportation"`
	Rent           types.Money `json:"rent"`
	Salary         types.Money `json:"salary"`
}

// TotalPaymentReceived derives the cash-in-hand figure. The formula is
// business policy:
//
//	totalSale + canteenCash - breakageCash - discount - salary
//	          - upiPayment - rent + rateDiff - transportation
func TotalPaymentReceived(totalSale types.Money, adj Adjustments) types.Money {
	return totalSale.
		Add(adj.CanteenCash).
		Sub(adj.BreakageCash).
		Sub(adj.Discount).
		Sub(adj.Salary).
		Sub(adj.UPIPayment).
		Sub(adj.Rent).
		Add(adj.RateDiff).
		Sub(adj.Transportation)
}

// ClosingLine pairs one stock row with its caller-supplied end-of-day
// quantity. Items not listed keep their quantity.
type ClosingLine struct {
	StockID     id.ID `json:"stockId"`
	NewQuantity int   `json:"newQuantity"`
}

// ClosingRequest is the input to the closing coordinator. Any totals the
// client may have computed are ignored; the coordinator is authoritative.
type ClosingRequest struct {
	Shop        string        `json:"shop"`
	PDFDate     time.Time     `json:"pdfDate"`
	Lines       []ClosingLine `json:"updatedStocks"`
	Adjustments Adjustments   `json:"adjustments"`
}

// Validate checks the request shape before touching storage.
func (r ClosingRequest) Validate() error {
	if strings.TrimSpace(r.Shop) == "" {
		return apperror.NewValidation("shop is required").WithDetail("field", "shop")
	}
	if r.PDFDate.IsZero() {
		return apperror.NewValidation("pdfDate is required").WithDetail("field", "pdfDate")
	}
	for i, line := range r.Lines {
		if id.IsNil(line.StockID) {
			return apperror.NewValidation("stockId is required").
				WithDetail("line", i)
		}
	}
	return nil
}
