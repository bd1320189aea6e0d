package inventory

import (
	"context"
	"fmt"
	"strings"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/audit"
	"shopledger/pkg/logger"
)

// Service provides business operations on stock rows.
//
// Audit events are emitted after the surrounding transaction commits, so a
// failed audit write can never roll back a stock mutation.
type Service struct {
	repo  Repository
	txm   tx.Manager
	audit *audit.Service
}

// NewService creates a new inventory service.
func NewService(repo Repository, txm tx.Manager, auditSvc *audit.Service) *Service {
	return &Service{
		repo:  repo,
		txm:   txm,
		audit: auditSvc,
	}
}

// GetStocks returns all stock items for a shop.
func (s *Service) GetStocks(ctx context.Context, shop string) ([]StockItem, error) {
	if strings.TrimSpace(shop) == "" {
		return nil, apperror.NewValidation("shop is required").WithDetail("field", "shop")
	}
	return s.repo.ListByShop(ctx, shop)
}

// AddStock inserts a new stock row from a stock receipt.
func (s *Service) AddStock(ctx context.Context, product, size string, quantity int, price types.Money, shop string) (*StockItem, error) {
	item := NewStockItem(product, size, quantity, price, shop)
	if err := item.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, "New stock added", audit.CategoryStock, "POST /api/stocks", map[string]any{
		"product":  item.Product,
		"size":     item.Size,
		"quantity": item.Quantity,
		"price":    item.Price,
		"shop":     item.Shop,
	})

	return item, nil
}

// QuantityChange describes the outcome of a single-item quantity set.
// Sold and SaleAmount are derived for the caller; they are not persisted on
// the item itself.
type QuantityChange struct {
	Item             *StockItem
	PreviousQuantity int
	Sold             int
	SaleAmount       types.Money
}

// SetQuantity overwrites one item's quantity and reports the implied sale.
// The new quantity is caller-supplied and trusted; it is not checked for
// non-negativity.
func (s *Service) SetQuantity(ctx context.Context, stockID id.ID, newQuantity int) (*QuantityChange, error) {
	var change *QuantityChange

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUpdate(ctx, stockID)
		if err != nil {
			return err
		}

		previous := item.Quantity
		sold := previous - newQuantity
		if err := s.repo.SetQuantity(ctx, item, newQuantity); err != nil {
			return err
		}

		change = &QuantityChange{
			Item:             item,
			PreviousQuantity: previous,
			Sold:             sold,
			SaleAmount:       item.Price.Mul(types.NewMoneyFromInt(int64(sold))),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, "Stock updated", audit.CategoryStock,
		fmt.Sprintf("PUT /api/stocks/%s", stockID), map[string]any{
			"product":          change.Item.Product,
			"size":             change.Item.Size,
			"previousQuantity": change.PreviousQuantity,
			"updatedQuantity":  change.Item.Quantity,
			"price":            change.Item.Price,
			"totalSale":        change.SaleAmount,
		})

	return change, nil
}

// DeleteStock removes one stock row.
func (s *Service) DeleteStock(ctx context.Context, stockID id.ID) error {
	var deleted *StockItem

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUpdate(ctx, stockID)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, stockID); err != nil {
			return err
		}
		deleted = item
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, "Stock deleted", audit.CategoryStock,
		fmt.Sprintf("DELETE /api/stocks/%s", stockID), map[string]any{
			"product":  deleted.Product,
			"size":     deleted.Size,
			"quantity": deleted.Quantity,
			"price":    deleted.Price,
			"shop":     deleted.Shop,
		})

	return nil
}

// Transfer moves quantity from one shop's row to another, creating the
// destination row at the source price if it does not exist yet. Both writes
// happen in one transaction: a failure after the decrement cannot lose
// inventory.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	var source *StockItem

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUpdate(ctx, req.StockID)
		if err != nil {
			return err
		}
		if item.Shop != req.FromShop {
			return apperror.NewNotFound("stock", req.StockID).
				WithDetail("shop", req.FromShop)
		}
		if item.Quantity < req.TransferQuantity {
			return apperror.NewInsufficientStock(item.Product, req.TransferQuantity, item.Quantity)
		}

		if err := s.repo.SetQuantity(ctx, item, item.Quantity-req.TransferQuantity); err != nil {
			return err
		}

		dest, err := s.repo.FindByKeyForUpdate(ctx, item.Product, item.Size, req.ToShop)
		switch {
		case apperror.IsNotFound(err):
			created := NewStockItem(item.Product, item.Size, req.TransferQuantity, item.Price, req.ToShop)
			if err := s.repo.Create(ctx, created); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := s.repo.SetQuantity(ctx, dest, dest.Quantity+req.TransferQuantity); err != nil {
				return err
			}
		}

		source = item
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, "Stock transferred", audit.CategoryStock, "POST /api/stocks/transfer", map[string]any{
		"product":          source.Product,
		"size":             source.Size,
		"transferQuantity": req.TransferQuantity,
		"fromShop":         req.FromShop,
		"toShop":           req.ToShop,
	})

	logger.Info(ctx, "stock transferred",
		"stock_id", req.StockID,
		"from_shop", req.FromShop,
		"to_shop", req.ToShop,
		"quantity", req.TransferQuantity,
	)

	return nil
}
