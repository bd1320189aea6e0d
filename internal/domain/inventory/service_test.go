package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/audit"
)

// --- Fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeStockRepo struct {
	items map[id.ID]*StockItem
}

func newFakeStockRepo(items ...*StockItem) *fakeStockRepo {
	r := &fakeStockRepo{items: make(map[id.ID]*StockItem)}
	for _, item := range items {
		copied := *item
		r.items[item.ID] = &copied
	}
	return r
}

func (r *fakeStockRepo) ListByShop(ctx context.Context, shop string) ([]StockItem, error) {
	var out []StockItem
	for _, item := range r.items {
		if item.Shop == shop {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) Get(ctx context.Context, stockID id.ID) (*StockItem, error) {
	item, ok := r.items[stockID]
	if !ok {
		return nil, apperror.NewNotFound("stock", stockID)
	}
	copied := *item
	return &copied, nil
}

func (r *fakeStockRepo) GetForUpdate(ctx context.Context, stockID id.ID) (*StockItem, error) {
	return r.Get(ctx, stockID)
}

func (r *fakeStockRepo) FindByKeyForUpdate(ctx context.Context, product, size, shop string) (*StockItem, error) {
	for _, item := range r.items {
		if item.Product == product && item.Size == size && item.Shop == shop {
			copied := *item
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("stock", product+"/"+size+"@"+shop)
}

func (r *fakeStockRepo) Create(ctx context.Context, item *StockItem) error {
	for _, existing := range r.items {
		if existing.Product == item.Product && existing.Size == item.Size && existing.Shop == item.Shop {
			return apperror.NewDuplicate("stock", "product/size/shop", item.Product)
		}
	}
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeStockRepo) SetQuantity(ctx context.Context, item *StockItem, newQuantity int) error {
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
	if _, ok := r.items[stockID]; !ok {
		return apperror.NewNotFound("stock", stockID)
	}
	delete(r.items, stockID)
	return nil
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

func newTestService(repo *fakeStockRepo) (*Service, *fakeAuditRepo) {
	auditRepo := &fakeAuditRepo{}
	return NewService(repo, fakeTxManager{}, audit.NewService(auditRepo)), auditRepo
}

// --- Tests ---

func TestSetQuantity_ReportsSale(t *testing.T) {
	item := NewStockItem("Desi Santra", "180ml", 30, types.MustMoney("50"), "shop1")
	repo := newFakeStockRepo(item)
	svc, auditRepo := newTestService(repo)

	change, err := svc.SetQuantity(context.Background(), item.ID, 10)
	require.NoError(t, err)

	assert.Equal(t, 30, change.PreviousQuantity)
	assert.Equal(t, 20, change.Sold)
	assert.True(t, change.SaleAmount.Equal(types.MustMoney("1000")),
		"sale amount = price * sold, got %s", change.SaleAmount)
	assert.Equal(t, 10, repo.items[item.ID].Quantity)

	require.Len(t, auditRepo.events, 1)
	assert.Equal(t, "Stock updated", auditRepo.events[0].Detail)
	assert.Equal(t, audit.CategoryStock, auditRepo.events[0].EventCategory)
}

func TestSetQuantity_UnknownID(t *testing.T) {
	repo := newFakeStockRepo()
	svc, auditRepo := newTestService(repo)

	_, err := svc.SetQuantity(context.Background(), id.New(), 5)
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, auditRepo.events)
}

func TestAddStock_Validates(t *testing.T) {
	repo := newFakeStockRepo()
	svc, _ := newTestService(repo)

	_, err := svc.AddStock(context.Background(), "", "180ml", 10, types.MustMoney("50"), "shop1")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestDeleteStock_EmitsAudit(t *testing.T) {
	item := NewStockItem("Strong Beer", "650ml", 12, types.MustMoney("160"), "shop1")
	repo := newFakeStockRepo(item)
	svc, auditRepo := newTestService(repo)

	require.NoError(t, svc.DeleteStock(context.Background(), item.ID))
	assert.NotContains(t, repo.items, item.ID)

	require.Len(t, auditRepo.events, 1)
	assert.Equal(t, "Stock deleted", auditRepo.events[0].Detail)
}

func TestTransfer_MovesQuantityToExistingRow(t *testing.T) {
	source := NewStockItem("Desi Santra", "180ml", 50, types.MustMoney("80"), "shop1")
	dest := NewStockItem("Desi Santra", "180ml", 5, types.MustMoney("80"), "shop2")
	repo := newFakeStockRepo(source, dest)
	svc, auditRepo := newTestService(repo)

	err := svc.Transfer(context.Background(), TransferRequest{
		StockID:          source.ID,
		FromShop:         "shop1",
		ToShop:           "shop2",
		TransferQuantity: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, 30, repo.items[source.ID].Quantity)
	assert.Equal(t, 25, repo.items[dest.ID].Quantity)

	// Total units across both shops unchanged.
	assert.Equal(t, 55, repo.items[source.ID].Quantity+repo.items[dest.ID].Quantity)

	require.Len(t, auditRepo.events, 1)
	assert.Equal(t, "Stock transferred", auditRepo.events[0].Detail)
}

func TestTransfer_CreatesDestinationAtSourcePrice(t *testing.T) {
	source := NewStockItem("Mild Beer", "650ml", 40, types.MustMoney("140"), "shop1")
	repo := newFakeStockRepo(source)
	svc, _ := newTestService(repo)

	err := svc.Transfer(context.Background(), TransferRequest{
		StockID:          source.ID,
		FromShop:         "shop1",
		ToShop:           "shop2",
		TransferQuantity: 15,
	})
	require.NoError(t, err)

	assert.Equal(t, 25, repo.items[source.ID].Quantity)

	created, err := repo.FindByKeyForUpdate(context.Background(), "Mild Beer", "650ml", "shop2")
	require.NoError(t, err)
	assert.Equal(t, 15, created.Quantity)
	assert.True(t, created.Price.Equal(source.Price), "destination inherits source price")
}

func TestTransfer_InsufficientStockLeavesBothUntouched(t *testing.T) {
	source := NewStockItem("Desi Santra", "90ml", 10, types.MustMoney("45"), "shop1")
	dest := NewStockItem("Desi Santra", "90ml", 3, types.MustMoney("45"), "shop2")
	repo := newFakeStockRepo(source, dest)
	svc, auditRepo := newTestService(repo)

	err := svc.Transfer(context.Background(), TransferRequest{
		StockID:          source.ID,
		FromShop:         "shop1",
		ToShop:           "shop2",
		TransferQuantity: 11,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.Equal(t, 10, repo.items[source.ID].Quantity)
	assert.Equal(t, 3, repo.items[dest.ID].Quantity)
	assert.Empty(t, auditRepo.events)
}

func TestTransfer_ShopMismatchIsNotFound(t *testing.T) {
	source := NewStockItem("Strong Beer", "650ml", 10, types.MustMoney("160"), "shop1")
	repo := newFakeStockRepo(source)
	svc, _ := newTestService(repo)

	err := svc.Transfer(context.Background(), TransferRequest{
		StockID:          source.ID,
		FromShop:         "shop3",
		ToShop:           "shop2",
		TransferQuantity: 5,
	})
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, 10, repo.items[source.ID].Quantity)
}

func TestTransferRequest_Validate(t *testing.T) {
	valid := TransferRequest{
		StockID:          id.New(),
		FromShop:         "shop1",
		ToShop:           "shop2",
		TransferQuantity: 1,
	}

	tests := []struct {
		name   string
		mutate func(*TransferRequest)
	}{
		{"missing stock id", func(r *TransferRequest) { r.StockID = id.Nil() }},
		{"missing from shop", func(r *TransferRequest) { r.FromShop = "" }},
		{"missing to shop", func(r *TransferRequest) { r.ToShop = "" }},
		{"same shop", func(r *TransferRequest) { r.ToShop = r.FromShop }},
		{"zero quantity", func(r *TransferRequest) { r.TransferQuantity = 0 }},
		{"negative quantity", func(r *TransferRequest) { r.TransferQuantity = -4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}

	assert.NoError(t, valid.Validate())
}

func TestIsDesi(t *testing.T) {
	tests := []struct {
		product string
		want    bool
	}{
		{"Desi Santra", true},
		{"desi masaledar", true},
		{"SUPER DESI", true},
		{"Strong Beer", false},
		{"Whisky", false},
	}

	for _, tt := range tests {
		item := &StockItem{Product: tt.product}
		assert.Equal(t, tt.want, item.IsDesi(), "product %q", tt.product)
	}
}
