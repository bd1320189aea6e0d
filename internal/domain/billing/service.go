package billing

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/inventory"
	"shopledger/pkg/logger"
)

// monthLayout is the wire format of the bill history month filter.
const monthLayout = "2006-01"

// Service is the closing-transaction coordinator. CloseDay applies all
// stock updates and the bill insert as one unit of work; Audit events and
// cache invalidation happen after commit.
type Service struct {
	bills  Repository
	stocks inventory.Repository
	txm    tx.Manager
	audit  *audit.Service
	cache  HistoryCache // optional
}

// NewService creates a new billing service. cache may be nil.
func NewService(bills Repository, stocks inventory.Repository, txm tx.Manager, auditSvc *audit.Service, cache HistoryCache) *Service {
	return &Service{
		bills:  bills,
		stocks: stocks,
		txm:    txm,
		audit:  auditSvc,
		cache:  cache,
	}
}

// lineAudit carries per-line audit payloads out of the transaction so they
// are emitted only after a successful commit.
type lineAudit struct {
	stockID id.ID
	payload map[string]any
}

// CloseDay performs one shop's end-of-day closing.
//
// All referenced stock rows are loaded and locked up front; if any id is
// unknown the whole operation fails with NOT_FOUND and nothing is written.
// Totals are recomputed here regardless of what the client sent, since
// totalPaymentReceived is the figure reconciled against physical cash.
//
// Closings are not deduplicated: submitting the same request twice creates
// two entries. Callers wanting exactly-once semantics send an
// X-Idempotency-Key header.
func (s *Service) CloseDay(ctx context.Context, req ClosingRequest) (*Entry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		entry  *Entry
		audits []lineAudit
	)

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		// Load and lock every referenced item before mutating anything.
		items := make([]*inventory.StockItem, len(req.Lines))
		for i, line := range req.Lines {
			item, err := s.stocks.GetForUpdate(ctx, line.StockID)
			if err != nil {
				return err
			}
			if item.Shop != req.Shop {
				return apperror.NewValidation("stock does not belong to shop").
					WithDetail("stockId", line.StockID).
					WithDetail("itemShop", item.Shop).
					WithDetail("shop", req.Shop)
			}
			items[i] = item
		}

		totalSale := types.Zero()
		totalDesi := types.Zero()
		totalBeer := types.Zero()
		movements := make([]StockMovement, len(req.Lines))
		audits = audits[:0]
		billID := id.New()

		for i, line := range req.Lines {
			item := items[i]
			lastQuantity := item.Quantity
			sold := lastQuantity - line.NewQuantity
			lineTotal := item.Price.Mul(types.NewMoneyFromInt(int64(sold)))

			if item.IsDesi() {
				totalDesi = totalDesi.Add(lineTotal)
			} else {
				totalBeer = totalBeer.Add(lineTotal)
			}
			totalSale = totalSale.Add(lineTotal)

			if err := s.stocks.SetQuantity(ctx, item, line.NewQuantity); err != nil {
				return err
			}

			movements[i] = StockMovement{
				BillID:       billID,
				LineNo:       i,
				Product:      item.Product,
				Size:         item.Size,
				LastQuantity: lastQuantity,
				NewQuantity:  line.NewQuantity,
				Price:        item.Price,
				LineTotal:    lineTotal,
			}
			audits = append(audits, lineAudit{
				stockID: item.ID,
				payload: map[string]any{
					"product":          item.Product,
					"size":             item.Size,
					"previousQuantity": lastQuantity,
					"updatedQuantity":  line.NewQuantity,
					"price":            item.Price,
					"totalSale":        lineTotal,
				},
			})
		}

		adj := req.Adjustments
		entry = &Entry{
			ID:                   billID,
			Shop:                 req.Shop,
			PDFDate:              req.PDFDate,
			TotalSale:            totalSale,
			UPIPayment:           adj.UPIPayment,
			Discount:             adj.Discount,
			BreakageCash:         adj.BreakageCash,
			CanteenCash:          adj.CanteenCash,
			TotalDesiSale:        totalDesi,
			TotalBeerSale:        totalBeer,
			Salary:               adj.Salary,
			Rent:                 adj.Rent,
			RateDiff:             adj.RateDiff,
			Transportation:       adj.Transportation,
			TotalPaymentReceived: TotalPaymentReceived(totalSale, adj),
			UpdatedStocks:        movements,
			CreatedAt:            time.Now().UTC(),
		}

		return s.bills.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	// Emitted outside the transaction: a failed audit write cannot roll
	// back the committed closing.
	for _, a := range audits {
		s.audit.Record(ctx, "Stock updated", audit.CategoryStock,
			fmt.Sprintf("PUT /api/stocks/%s", a.stockID), a.payload)
	}

	if s.cache != nil {
		s.cache.InvalidateMonth(ctx, entry.PDFDate.Format(monthLayout))
	}

	logger.Info(ctx, "shop day closed",
		"shop", entry.Shop,
		"pdf_date", entry.PDFDate.Format("2006-01-02"),
		"lines", len(entry.UpdatedStocks),
		"total_sale", entry.TotalSale,
		"total_payment_received", entry.TotalPaymentReceived,
	)

	return entry, nil
}

// History returns bill entries for one month ("YYYY-MM"), newest business
// date first.
func (s *Service) History(ctx context.Context, month string) ([]Entry, error) {
	from, err := time.Parse(monthLayout, month)
	if err != nil {
		return nil, apperror.NewValidation("month must be formatted YYYY-MM").
			WithDetail("month", month)
	}
	to := from.AddDate(0, 1, 0)

	if s.cache != nil {
		if entries, ok := s.cache.GetMonth(ctx, month); ok {
			return entries, nil
		}
	}

	entries, err := s.bills.ListByPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetMonth(ctx, month, entries)
	}

	return entries, nil
}
