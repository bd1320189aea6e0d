package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "shopledger/internal/core/context"
)

type fakeRepo struct {
	events []Event
	err    error

	lastFilter Filter
}

func (r *fakeRepo) Insert(ctx context.Context, event Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter Filter) ([]Event, error) {
	r.lastFilter = filter
	return r.events, nil
}

func TestRecord_CapturesActorFromContext(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: "u1",
		Name:   "Ravi",
		Roles:  []string{appctx.RoleAdmin},
	})

	svc.Record(ctx, "Stock updated", CategoryStock, "PUT /api/stocks/abc", map[string]any{
		"product": "Desi Santra",
	})

	require.Len(t, repo.events, 1)
	e := repo.events[0]
	assert.Equal(t, "Ravi", e.User)
	assert.Equal(t, "Stock updated", e.Detail)
	assert.Equal(t, CategoryStock, e.EventCategory)
	assert.Equal(t, "PUT /api/stocks/abc", e.Route)
	assert.JSONEq(t, `{"product":"Desi Santra"}`, string(e.AdditionalInfo))
	assert.False(t, e.Timestamp.IsZero())
}

func TestRecord_DefaultsToSystemActor(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	svc.Record(context.Background(), "New stock added", CategoryStock, "POST /api/stocks", nil)

	require.Len(t, repo.events, 1)
	assert.Equal(t, "system", repo.events[0].User)
	assert.JSONEq(t, `{}`, string(repo.events[0].AdditionalInfo))
}

func TestRecord_SwallowsStoreFailure(t *testing.T) {
	repo := &fakeRepo{err: errors.New("disk full")}
	svc := NewService(repo)

	// Must not panic and must not surface the error to the caller.
	svc.Record(context.Background(), "Stock deleted", CategoryStock, "DELETE /api/stocks/x", nil)

	assert.Empty(t, repo.events)
}

func TestRecord_UnserializablePayloadDegrades(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	svc.Record(context.Background(), "Stock updated", CategoryStock, "PUT /api/stocks/x",
		map[string]any{"bad": make(chan int)})

	require.Len(t, repo.events, 1)
	assert.JSONEq(t, `{}`, string(repo.events[0].AdditionalInfo))
}

func TestList_DefaultsLimit(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	_, err := svc.List(context.Background(), Filter{Category: CategoryLedger})
	require.NoError(t, err)
	assert.Equal(t, 200, repo.lastFilter.Limit)
	assert.Equal(t, CategoryLedger, repo.lastFilter.Category)

	_, err = svc.List(context.Background(), Filter{Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, 25, repo.lastFilter.Limit)
}
