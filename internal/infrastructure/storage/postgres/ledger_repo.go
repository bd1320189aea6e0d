package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/apperror"
	"shopledger/internal/domain/ledger"
)

const ledgerTable = "ledger_records"

var ledgerColumns = []string{
	"id", "record_name", "shop_name", "message", "amount", "date",
	"payment_method", "account_type", "created_at",
}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts one ledger record.
func (r *LedgerRepo) Create(ctx context.Context, record *ledger.Record) error {
	q := r.builder.Insert(ledgerTable).
		Columns(ledgerColumns...).
		Values(record.ID, record.RecordName, record.ShopName, record.Message,
			record.Amount, record.Date, record.PaymentMethod,
			record.AccountType, record.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewDatabase(fmt.Errorf("insert ledger record: %w", err))
	}

	return nil
}

// List returns records matching the filter, sorted by amount.
func (r *LedgerRepo) List(ctx context.Context, filter ledger.Filter) ([]ledger.Record, error) {
	q := r.builder.Select(ledgerColumns...).From(ledgerTable)

	if filter.Date != nil {
		dayStart := time.Date(filter.Date.Year(), filter.Date.Month(), filter.Date.Day(),
			0, 0, 0, 0, filter.Date.Location())
		q = q.Where(squirrel.GtOrEq{"date": dayStart}).
			Where(squirrel.Lt{"date": dayStart.AddDate(0, 0, 1)})
	}

	if filter.AmountDesc {
		q = q.OrderBy("amount DESC")
	} else {
		q = q.OrderBy("amount ASC")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	records := []ledger.Record{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &records, sql, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("select ledger records: %w", err))
	}

	return records, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*LedgerRepo)(nil)
