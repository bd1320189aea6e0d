package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/audit"
)

type fakeRepo struct {
	records    []Record
	lastFilter Filter
}

func (r *fakeRepo) Create(ctx context.Context, record *Record) error {
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter Filter) ([]Record, error) {
	r.lastFilter = filter
	return r.records, nil
}

type fakeAuditRepo struct {
	events []audit.Event
}

func (r *fakeAuditRepo) Insert(ctx context.Context, event audit.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	return r.events, nil
}

func validRecord() *Record {
	return &Record{
		RecordName:    "Rent August",
		ShopName:      "shop1",
		Message:       "Monthly rent paid to landlord",
		Amount:        types.MustMoney("12000"),
		Date:          time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PaymentMethod: "cash",
	}
}

func TestCreateRecord_DefaultsAndAudit(t *testing.T) {
	repo := &fakeRepo{}
	auditRepo := &fakeAuditRepo{}
	svc := NewService(repo, audit.NewService(auditRepo))

	created, err := svc.CreateRecord(context.Background(), validRecord())
	require.NoError(t, err)

	assert.False(t, id.IsNil(created.ID))
	assert.Equal(t, AccountCash, created.AccountType)
	assert.False(t, created.CreatedAt.IsZero())
	require.Len(t, repo.records, 1)

	require.Len(t, auditRepo.events, 1)
	assert.Equal(t, "Ledger record created", auditRepo.events[0].Detail)
	assert.Equal(t, audit.CategoryLedger, auditRepo.events[0].EventCategory)
}

func TestCreateRecord_KeepsExplicitAccountType(t *testing.T) {
	svc := NewService(&fakeRepo{}, audit.NewService(&fakeAuditRepo{}))

	rec := validRecord()
	rec.AccountType = AccountBank
	created, err := svc.CreateRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, AccountBank, created.AccountType)
}

func TestCreateRecord_Validation(t *testing.T) {
	svc := NewService(&fakeRepo{}, audit.NewService(&fakeAuditRepo{}))

	tests := []struct {
		name   string
		mutate func(*Record)
	}{
		{"missing record name", func(r *Record) { r.RecordName = " " }},
		{"missing shop name", func(r *Record) { r.ShopName = "" }},
		{"missing message", func(r *Record) { r.Message = "" }},
		{"missing payment method", func(r *Record) { r.PaymentMethod = "" }},
		{"missing date", func(r *Record) { r.Date = time.Time{} }},
		{"bad account type", func(r *Record) { r.AccountType = "crypto" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(rec)
			_, err := svc.CreateRecord(context.Background(), rec)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestListRecords_PassesFilter(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, audit.NewService(&fakeAuditRepo{}))

	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.ListRecords(context.Background(), Filter{Date: &day, AmountDesc: true})
	require.NoError(t, err)

	require.NotNil(t, repo.lastFilter.Date)
	assert.True(t, repo.lastFilter.Date.Equal(day))
	assert.True(t, repo.lastFilter.AmountDesc)
}
