package ledger

import (
	"context"
	"time"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/audit"
)

// Service provides ledger record operations.
type Service struct {
	repo  Repository
	audit *audit.Service
}

// NewService creates a new ledger service.
func NewService(repo Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, audit: auditSvc}
}

// CreateRecord validates and persists one ledger entry.
func (s *Service) CreateRecord(ctx context.Context, record *Record) (*Record, error) {
	record.ID = id.New()
	record.CreatedAt = time.Now().UTC()
	if record.AccountType == "" {
		record.AccountType = AccountCash
	}

	if err := record.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, "Ledger record created", audit.CategoryLedger, "POST /api/records", map[string]any{
		"recordName":    record.RecordName,
		"shopName":      record.ShopName,
		"amount":        record.Amount,
		"paymentMethod": record.PaymentMethod,
		"accountType":   record.AccountType,
	})

	return record, nil
}

// ListRecords returns ledger entries matching the filter, sorted by amount.
func (s *Service) ListRecords(ctx context.Context, filter Filter) ([]Record, error) {
	return s.repo.List(ctx, filter)
}
