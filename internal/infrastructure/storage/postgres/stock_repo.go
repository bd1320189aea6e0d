package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/inventory"
	"shopledger/pkg/logger"
)

const stockTable = "stock_items"

// pgUniqueViolation is the Postgres error code for unique constraint violations.
const pgUniqueViolation = "23505"

var stockColumns = []string{
	"id", "product", "size", "quantity", "price", "shop", "version", "last_updated",
}

// StockRepo implements inventory.Repository.
type StockRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txm *TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListByShop returns all items for a shop.
func (r *StockRepo) ListByShop(ctx context.Context, shop string) ([]inventory.StockItem, error) {
	q := r.builder.Select(stockColumns...).
		From(stockTable).
		Where(squirrel.Eq{"shop": shop}).
		OrderBy("product", "size")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := []inventory.StockItem{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("select stocks: %w", err))
	}

	return items, nil
}

// Get retrieves one item by id.
func (r *StockRepo) Get(ctx context.Context, stockID id.ID) (*inventory.StockItem, error) {
	return r.get(ctx, stockID, false)
}

// GetForUpdate retrieves one item by id with a row lock.
func (r *StockRepo) GetForUpdate(ctx context.Context, stockID id.ID) (*inventory.StockItem, error) {
	return r.get(ctx, stockID, true)
}

func (r *StockRepo) get(ctx context.Context, stockID id.ID, forUpdate bool) (*inventory.StockItem, error) {
	q := r.builder.Select(stockColumns...).
		From(stockTable).
		Where(squirrel.Eq{"id": stockID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item inventory.StockItem
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock", stockID)
		}
		return nil, apperror.NewDatabase(fmt.Errorf("get stock: %w", err))
	}

	return &item, nil
}

// FindByKeyForUpdate retrieves the row for (product, size, shop) with a row
// lock. The composite unique index makes duplicates impossible for new data;
// legacy duplicates resolve to the first match with a warning.
func (r *StockRepo) FindByKeyForUpdate(ctx context.Context, product, size, shop string) (*inventory.StockItem, error) {
	q := r.builder.Select(stockColumns...).
		From(stockTable).
		Where(squirrel.Eq{"product": product, "size": size, "shop": shop}).
		OrderBy("last_updated").
		Limit(2).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []inventory.StockItem
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("find stock by key: %w", err))
	}

	switch len(items) {
	case 0:
		return nil, apperror.NewNotFound("stock", fmt.Sprintf("%s/%s@%s", product, size, shop))
	case 1:
		return &items[0], nil
	default:
		logger.Warn(ctx, "duplicate stock rows for key, using first match",
			"product", product,
			"size", size,
			"shop", shop,
		)
		return &items[0], nil
	}
}

// Create inserts a new stock row.
func (r *StockRepo) Create(ctx context.Context, item *inventory.StockItem) error {
	q := r.builder.Insert(stockTable).
		Columns(stockColumns...).
		Values(item.ID, item.Product, item.Size, item.Quantity, item.Price,
			item.Shop, item.Version, item.LastUpdated)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("stock", "product/size/shop",
				fmt.Sprintf("%s/%s@%s", item.Product, item.Size, item.Shop))
		}
		return apperror.NewDatabase(fmt.Errorf("insert stock: %w", err))
	}

	return nil
}

// SetQuantity overwrites the quantity guarded by the version the caller read.
func (r *StockRepo) SetQuantity(ctx context.Context, item *inventory.StockItem, newQuantity int) error {
	now := time.Now().UTC()

	q := r.builder.Update(stockTable).
		Set("quantity", newQuantity).
		Set("version", item.Version+1).
		Set("last_updated", now).
		Where(squirrel.Eq{"id": item.ID, "version": item.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewDatabase(fmt.Errorf("update stock quantity: %w", err))
	}
	if tag.RowsAffected() == 0 {
		// Either the row is gone or someone raced us on the version.
		if _, err := r.get(ctx, item.ID, false); apperror.IsNotFound(err) {
			return apperror.NewNotFound("stock", item.ID)
		}
		return apperror.NewConcurrentModification("stock", item.ID)
	}

	item.Quantity = newQuantity
	item.Version++
	item.LastUpdated = now
	return nil
}

// Delete removes one stock row.
func (r *StockRepo) Delete(ctx context.Context, stockID id.ID) error {
	q := r.builder.Delete(stockTable).Where(squirrel.Eq{"id": stockID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewDatabase(fmt.Errorf("delete stock: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("stock", stockID)
	}

	return nil
}

// Ensure interface compliance.
var _ inventory.Repository = (*StockRepo)(nil)
