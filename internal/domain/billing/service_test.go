package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/inventory"
)

// --- Fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeStockRepo struct {
	items map[id.ID]*inventory.StockItem
}

func newFakeStockRepo(items ...*inventory.StockItem) *fakeStockRepo {
	r := &fakeStockRepo{items: make(map[id.ID]*inventory.StockItem)}
	for _, item := range items {
		copied := *item
		r.items[item.ID] = &copied
	}
	return r
}

func (r *fakeStockRepo) ListByShop(ctx context.Context, shop string) ([]inventory.StockItem, error) {
	var out []inventory.StockItem
	for _, item := range r.items {
		if item.Shop == shop {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) Get(ctx context.Context, stockID id.ID) (*inventory.StockItem, error) {
	item, ok := r.items[stockID]
	if !ok {
		return nil, apperror.NewNotFound("stock", stockID)
	}
	copied := *item
	return &copied, nil
}

func (r *fakeStockRepo) GetForUpdate(ctx context.Context, stockID id.ID) (*inventory.StockItem, error) {
	return r.Get(ctx, stockID)
}

func (r *fakeStockRepo) FindByKeyForUpdate(ctx context.Context, product, size, shop string) (*inventory.StockItem, error) {
	for _, item := range r.items {
		if item.Product == product && item.Size == size && item.Shop == shop {
			copied := *item
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("stock", product+"/"+size+"@"+shop)
}

func (r *fakeStockRepo) Create(ctx context.Context, item *inventory.StockItem) error {
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeStockRepo) SetQuantity(ctx context.Context, item *inventory.StockItem, newQuantity int) error {
	stored, ok := r.items[item.ID]
	if !ok {
		return apperror.NewNotFound("stock", item.ID)
	}
	if stored.Version != item.Version {
		return apperror.NewConcurrentModification("stock", item.ID)
	}
	stored.Quantity = newQuantity
	stored.Version++
	item.Quantity = newQuantity
	item.Version = stored.Version
	return nil
}

func (r *fakeStockRepo) Delete(ctx context.Context, stockID id.ID) error {
	delete(r.items, stockID)
	return nil
}

type fakeBillRepo struct {
	entries []Entry
}

func (r *fakeBillRepo) Create(ctx context.Context, entry *Entry) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeBillRepo) ListByPeriod(ctx context.Context, from, to time.Time) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if !e.PDFDate.Before(from) && e.PDFDate.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	events []audit.Event
	err    error
}

func (r *fakeAuditRepo) Insert(ctx context.Context, event audit.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	return r.events, nil
}

type fakeCache struct {
	store       map[string][]Entry
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]Entry)}
}

func (c *fakeCache) GetMonth(ctx context.Context, month string) ([]Entry, bool) {
	entries, ok := c.store[month]
	return entries, ok
}

func (c *fakeCache) SetMonth(ctx context.Context, month string, entries []Entry) {
	c.store[month] = entries
}

func (c *fakeCache) InvalidateMonth(ctx context.Context, month string) {
	delete(c.store, month)
	c.invalidated = append(c.invalidated, month)
}

// --- Helpers ---

func businessDate() time.Time {
	return time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
}

func money(s string) types.Money { return types.MustMoney(s) }

// --- Tests ---

func TestCloseDay_DerivedSums(t *testing.T) {
	a := inventory.NewStockItem("Desi Liquor", "180ml", 100, money("50"), "shop1")
	b := inventory.NewStockItem("Strong Beer", "650ml", 50, money("30"), "shop1")
	stocks := newFakeStockRepo(a, b)
	bills := &fakeBillRepo{}
	auditRepo := &fakeAuditRepo{}
	svc := NewService(bills, stocks, fakeTxManager{}, audit.NewService(auditRepo), nil)

	entry, err := svc.CloseDay(context.Background(), ClosingRequest{
		Shop:    "shop1",
		PDFDate: businessDate(),
		Lines: []ClosingLine{
			{StockID: a.ID, NewQuantity: 80},
			{StockID: b.ID, NewQuantity: 50},
		},
		Adjustments: Adjustments{
			Discount:     money("50"),
			UPIPayment:   money("200"),
			CanteenCash:  money("100"),
			BreakageCash: money("20"),
		},
	})
	require.NoError(t, err)

	// (100-80)*50 + (50-50)*30 = 1000
	assert.True(t, entry.TotalSale.Equal(money("1000")), "totalSale = %s", entry.TotalSale)
	// 1000 + 100 - 20 - 50 - 0 - 200 - 0 + 0 - 0 = 830
	assert.True(t, entry.TotalPaymentReceived.Equal(money("830")),
		"totalPaymentReceived = %s", entry.TotalPaymentReceived)

	assert.True(t, entry.TotalDesiSale.Equal(money("1000")))
	assert.True(t, entry.TotalBeerSale.Equal(money("0")))

	require.Len(t, entry.UpdatedStocks, 2)
	assert.Equal(t, 100, entry.UpdatedStocks[0].LastQuantity)
	assert.Equal(t, 80, entry.UpdatedStocks[0].NewQuantity)
	assert.True(t, entry.UpdatedStocks[0].LineTotal.Equal(money("1000")))

	// Stock rows updated.
	assert.Equal(t, 80, stocks.items[a.ID].Quantity)
	assert.Equal(t, 50, stocks.items[b.ID].Quantity)

	// One bill entry, one audit event per line.
	assert.Len(t, bills.entries, 1)
	assert.Len(t, auditRepo.events, 2)
	for _, e := range auditRepo.events {
		assert.Equal(t, "Stock updated", e.Detail)
		assert.Equal(t, audit.CategoryStock, e.EventCategory)
	}
}

func TestCloseDay_DesiBeerClassification(t *testing.T) {
	desi := inventory.NewStockItem("Desi Liquor 180ml", "180ml", 10, money("100"), "shop1")
	beer := inventory.NewStockItem("Strong Beer", "650ml", 10, money("200"), "shop1")
	stocks := newFakeStockRepo(desi, beer)
	bills := &fakeBillRepo{}
	svc := NewService(bills, stocks, fakeTxManager{}, audit.NewService(&fakeAuditRepo{}), nil)

	entry, err := svc.CloseDay(context.Background(), ClosingRequest{
		Shop:    "shop1",
		PDFDate: businessDate(),
		Lines: []ClosingLine{
			{StockID: desi.ID, NewQuantity: 5},
			{StockID: beer.ID, NewQuantity: 7},
		},
	})
	require.NoError(t, err)

	assert.True(t, entry.TotalDesiSale.Equal(money("500")), "desi = %s", entry.TotalDesiSale)
	assert.True(t, entry.TotalBeerSale.Equal(money("600")), "beer = %s", entry.TotalBeerSale)
	assert.True(t, entry.TotalSale.Equal(money("1100")))
}

func TestCloseDay_UnknownItemAbortsEverything(t *testing.T) {
	a := inventory.NewStockItem("Desi Liquor", "180ml", 100, money("50"), "shop1")
	b := inventory.NewStockItem("Strong Beer", "650ml", 50, money("30"), "shop1")
	stocks := newFakeStockRepo(a, b)
	bills := &fakeBillRepo{}
	auditRepo := &fakeAuditRepo{}
	svc := NewService(bills, stocks, fakeTxManager{}, audit.NewService(auditRepo), nil)

	_, err := svc.CloseDay(context.Background(), ClosingRequest{
		Shop:    "shop1",
		PDFDate: businessDate(),
		Lines: []ClosingLine{
			{StockID: a.ID, NewQuantity: 80},
			{StockID: id.New(), NewQuantity: 5}, // unknown
			{StockID: b.ID, NewQuantity: 40},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	// No partial writes of any kind.
	assert.Equal(t, 100, stocks.items[a.ID].Quantity)
	assert.Equal(t, 50, stocks.items[b.ID].Quantity)
	assert.Empty(t, bills.entries)
	assert.Empty(t, auditRepo.events)
}

func TestCloseDay_WrongShopAborts(t *testing.T) {
	a := inventory.NewStockItem("Desi Liquor", "180ml", 100, money("50"), "shop2")
	stocks := newFakeStockRepo(a)
	bills := &fakeBillRepo{}
	svc := NewService(bills, stocks, fakeTxManager{}, audit.NewService(&fakeAuditRepo{}), nil)

	_, err := svc.CloseDay(context.Background(), ClosingRequest{
		Shop:    "shop1",
		PDFDate: businessDate(),
		Lines:   []ClosingLine{{StockID: a.ID, NewQuantity: 80}},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, 100, stocks.items[a.ID].Quantity)
	assert.Empty(t, bills.entries)
}

func TestCloseDay_DuplicateSubmissionCreatesTwoEntries(t *testing.T) {
	a := inventory.NewStockItem("Desi Liquor", "180ml", 100, money("50"), "shop1")
	stocks := newFakeStockRepo(a)
	bills := &fakeBillRepo{}
	svc := NewService(bills, stocks, fakeTxManager{}, audit.NewService(&fakeAuditRepo{}), nil)

	req := ClosingRequest{
		Shop:    "shop1",
		PDFDate: businessDate(),
		Lines:   []ClosingLine{{StockID: a.ID, NewQuantity: 80}},
	}

	_, err := svc.CloseDay(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.CloseDay(context.Background(), req)
	require.NoError(t, err)

	// No dedup without an idempotency key: two bill rows exist.
	assert.Len(t, bills.entries, 2)

	// Second closing saw the already-reduced quantity, so it sold nothing.
	assert.True(t, bills.entries[0].TotalSale.Equal(money("1000")))
	assert.True(t, bills.entries[1].TotalSale.Equal(money("0")))
}

func TestCloseDay_AuditFailureDoesNotRollBack(t *testing.T) {
	a := inventory.NewStockItem("Desi Liquor", "180ml", 100, money("50"), "shop1")
	stocks := newFakeStockRepo(a)
	bills := &fakeBillRepo{}
	auditRepo := &fakeAuditRepo{err: errors.New("audit store down")}
	svc := NewService(bills, stocks, fakeTxManager{}, audit.NewService(auditRepo), nil)

	entry, err := svc.CloseDay(context.Background(), ClosingRequest{
		Shop:    "shop1",
		PDFDate: businessDate(),
		Lines:   []ClosingLine{{StockID: a.ID, NewQuantity: 80}},
	})
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, 80, stocks.items[a.ID].Quantity)
	assert.Len(t, bills.entries, 1)
	assert.Empty(t, auditRepo.events)
}

func TestCloseDay_InvalidatesMonthCache(t *testing.T) {
	a := inventory.NewStockItem("Desi Liquor", "180ml", 100, money("50"), "shop1")
	stocks := newFakeStockRepo(a)
	cache := newFakeCache()
	cache.store["2026-08"] = []Entry{{Shop: "stale"}}
	svc := NewService(&fakeBillRepo{}, stocks, fakeTxManager{}, audit.NewService(&fakeAuditRepo{}), cache)

	_, err := svc.CloseDay(context.Background(), ClosingRequest{
		Shop:    "shop1",
		PDFDate: businessDate(),
		Lines:   []ClosingLine{{StockID: a.ID, NewQuantity: 80}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2026-08"}, cache.invalidated)
	assert.NotContains(t, cache.store, "2026-08")
}

func TestCloseDay_ValidatesRequest(t *testing.T) {
	svc := NewService(&fakeBillRepo{}, newFakeStockRepo(), fakeTxManager{}, audit.NewService(&fakeAuditRepo{}), nil)

	tests := []struct {
		name string
		req  ClosingRequest
	}{
		{"missing shop", ClosingRequest{PDFDate: businessDate()}},
		{"missing pdfDate", ClosingRequest{Shop: "shop1"}},
		{"nil stock id", ClosingRequest{
			Shop:    "shop1",
			PDFDate: businessDate(),
			Lines:   []ClosingLine{{NewQuantity: 5}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CloseDay(context.Background(), tt.req)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestHistory_MonthFilterAndCache(t *testing.T) {
	bills := &fakeBillRepo{entries: []Entry{
		{ID: id.New(), Shop: "shop1", PDFDate: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)},
		{ID: id.New(), Shop: "shop1", PDFDate: time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)},
	}}
	cache := newFakeCache()
	svc := NewService(bills, newFakeStockRepo(), fakeTxManager{}, audit.NewService(&fakeAuditRepo{}), cache)

	entries, err := svc.History(context.Background(), "2026-08")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "shop1", entries[0].Shop)

	// Second read is served from cache.
	cached, ok := cache.GetMonth(context.Background(), "2026-08")
	require.True(t, ok)
	assert.Len(t, cached, 1)

	bills.entries = nil
	entries, err = svc.History(context.Background(), "2026-08")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHistory_RejectsBadMonth(t *testing.T) {
	svc := NewService(&fakeBillRepo{}, newFakeStockRepo(), fakeTxManager{}, audit.NewService(&fakeAuditRepo{}), nil)

	for _, month := range []string{"", "2026", "08-2026", "2026-13"} {
		_, err := svc.History(context.Background(), month)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok, "month %q", month)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	}
}

func TestTotalPaymentReceived_Formula(t *testing.T) {
	got := TotalPaymentReceived(money("1000"), Adjustments{
		Discount:       money("50"),
		UPIPayment:     money("200"),
		CanteenCash:    money("100"),
		BreakageCash:   money("20"),
		RateDiff:       money("15"),
		Transportation: money("10"),
		Rent:           money("30"),
		Salary:         money("25"),
	})
	// 1000 + 100 - 20 - 50 - 25 - 200 - 30 + 15 - 10 = 780
	assert.True(t, got.Equal(money("780")), "got %s", got)
}
