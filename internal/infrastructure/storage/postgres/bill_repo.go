package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/billing"
)

const (
	billTable         = "bill_history"
	billMovementTable = "bill_movements"
)

var billColumns = []string{
	"id", "shop", "pdf_date", "total_sale", "upi_payment", "discount",
	"breakage_cash", "canteen_cash", "total_desi_sale", "total_beer_sale",
	"salary", "rent", "rate_diff", "transportation", "total_payment_received",
	"created_at",
}

var billMovementColumns = []string{
	"bill_id", "line_no", "product", "size", "last_quantity", "new_quantity",
	"price", "line_total",
}

// BillRepo implements billing.Repository.
type BillRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewBillRepo creates a new bill history repository.
func NewBillRepo(txm *TxManager) *BillRepo {
	return &BillRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the bill entry and its movement snapshots.
func (r *BillRepo) Create(ctx context.Context, entry *billing.Entry) error {
	querier := r.txm.GetQuerier(ctx)

	q := r.builder.Insert(billTable).
		Columns(billColumns...).
		Values(entry.ID, entry.Shop, entry.PDFDate, entry.TotalSale,
			entry.UPIPayment, entry.Discount, entry.BreakageCash,
			entry.CanteenCash, entry.TotalDesiSale, entry.TotalBeerSale,
			entry.Salary, entry.Rent, entry.RateDiff, entry.Transportation,
			entry.TotalPaymentReceived, entry.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build bill insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return apperror.NewDatabase(fmt.Errorf("insert bill: %w", err))
	}

	if len(entry.UpdatedStocks) == 0 {
		return nil
	}

	mq := r.builder.Insert(billMovementTable).Columns(billMovementColumns...)
	for _, m := range entry.UpdatedStocks {
		mq = mq.Values(m.BillID, m.LineNo, m.Product, m.Size,
			m.LastQuantity, m.NewQuantity, m.Price, m.LineTotal)
	}

	sql, args, err = mq.ToSql()
	if err != nil {
		return fmt.Errorf("build movements insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return apperror.NewDatabase(fmt.Errorf("insert bill movements: %w", err))
	}

	return nil
}

// ListByPeriod returns entries with pdf_date in [from, to), newest first,
// movements attached in submission order.
func (r *BillRepo) ListByPeriod(ctx context.Context, from, to time.Time) ([]billing.Entry, error) {
	querier := r.txm.GetQuerier(ctx)

	q := r.builder.Select(billColumns...).
		From(billTable).
		Where(squirrel.GtOrEq{"pdf_date": from}).
		Where(squirrel.Lt{"pdf_date": to}).
		OrderBy("pdf_date DESC", "created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entries := []billing.Entry{}
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("select bills: %w", err))
	}
	if len(entries) == 0 {
		return entries, nil
	}

	ids := make([]id.ID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	mq := r.builder.Select(billMovementColumns...).
		From(billMovementTable).
		Where(squirrel.Eq{"bill_id": ids}).
		OrderBy("bill_id", "line_no")

	sql, args, err = mq.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build movements query: %w", err)
	}

	var movements []billing.StockMovement
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("select bill movements: %w", err))
	}

	byBill := make(map[id.ID][]billing.StockMovement, len(entries))
	for _, m := range movements {
		byBill[m.BillID] = append(byBill[m.BillID], m)
	}
	for i := range entries {
		entries[i].UpdatedStocks = byBill[entries[i].ID]
	}

	return entries, nil
}

// Ensure interface compliance.
var _ billing.Repository = (*BillRepo)(nil)
