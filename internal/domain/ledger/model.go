// Package ledger owns cash/bank ledger records: free-form financial entries
// (rent paid, bank deposit, supplier payment) kept alongside the bill
// history.
package ledger

import (
	"context"
	"strings"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Account types a record can be booked against.
const (
	AccountCash = "cash"
	AccountBank = "bank"
)

// Record is one ledger entry.
type Record struct {
	ID id.ID `db:"id" json:"id"`

	RecordName string `db:"record_name" json:"recordName"`
	ShopName   string `db:"shop_name" json:"shopName"`
	Message    string `db:"message" json:"message"`

	Amount types.Money `db:"amount" json:"amount"`

	// Date is the business date of the entry, caller-supplied.
	Date time.Time `db:"date" json:"date"`

	PaymentMethod string `db:"payment_method" json:"paymentMethod"`
	AccountType   string `db:"account_type" json:"accountType"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Validate checks entity invariants.
func (r *Record) Validate(ctx context.Context) error {
	if strings.TrimSpace(r.RecordName) == "" {
		return apperror.NewValidation("recordName is required").WithDetail("field", "recordName")
	}
	if strings.TrimSpace(r.ShopName) == "" {
		return apperror.NewValidation("shopName is required").WithDetail("field", "shopName")
	}
	if strings.TrimSpace(r.Message) == "" {
		return apperror.NewValidation("message is required").WithDetail("field", "message")
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		return apperror.NewValidation("paymentMethod is required").WithDetail("field", "paymentMethod")
	}
	if r.Date.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "date")
	}
	if r.AccountType != "" && r.AccountType != AccountCash && r.AccountType != AccountBank {
		return apperror.NewValidation("accountType must be cash or bank").
			WithDetail("value", r.AccountType)
	}
	return nil
}

// Filter narrows record listings.
type Filter struct {
	// Date, when set, restricts results to that calendar day.
	Date *time.Time

	// AmountDesc sorts by amount descending instead of ascending.
	AmountDesc bool
}

// Repository defines persistence for ledger records.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	List(ctx context.Context, filter Filter) ([]Record, error)
}
