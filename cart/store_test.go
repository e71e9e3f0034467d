package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/hoangnm/techshop/api"
	"github.com/hoangnm/techshop/api/request"
	"github.com/hoangnm/techshop/api/response"
	inErrors "github.com/hoangnm/techshop/internal/errors"
	"github.com/hoangnm/techshop/notification"
)

type fakeBackend struct {
	cart        response.Cart
	getErr      error
	addErr      error
	updateErr   error
	removeErr   error
	addCalls    []request.AddCartItem
	updateCalls []request.UpdateCartItem
	removeCalls int
}

func (b *fakeBackend) GetCart(context.Context) (response.Cart, error) {
	if b.getErr != nil {
		return response.Cart{}, b.getErr
	}
	return b.cart, nil
}

func (b *fakeBackend) AddCartItem(_ context.Context, param request.AddCartItem) error {
	b.addCalls = append(b.addCalls, param)
	return b.addErr
}

func (b *fakeBackend) UpdateCartItem(_ context.Context, param request.UpdateCartItem) error {
	b.updateCalls = append(b.updateCalls, param)
	if b.updateErr != nil {
		return b.updateErr
	}
	for i, item := range b.cart.Items {
		if item.Product.ID == param.ProductId && item.Variant.ID == param.VariantId {
			b.cart.Items[i].Quantity = param.Quantity
		}
	}
	return nil
}

func (b *fakeBackend) RemoveCartItem(_ context.Context, productId, variantId uuid.UUID) error {
	b.removeCalls++
	if b.removeErr != nil {
		return b.removeErr
	}
	kept := b.cart.Items[:0]
	for _, item := range b.cart.Items {
		if item.Product.ID == productId && item.Variant.ID == variantId {
			continue
		}
		kept = append(kept, item)
	}
	b.cart.Items = kept
	return nil
}

type authStub struct {
	authed bool
}

func (a authStub) IsAuthenticated() bool { return a.authed }

func cartLine(quantity, stock int32, price int64) response.CartItem {
	return response.CartItem{
		Product: response.ProductRef{ID: uuid.New(), Name: "Kingston Fury 16GB"},
		Variant: response.VariantRef{
			ID:    uuid.New(),
			Name:  "DDR4 3200MHz",
			Price: decimal.NewFromInt(price),
			Stock: stock,
		},
		Quantity: quantity,
	}
}

func newTestStore(backend Backend, authed bool) (*Store, *notification.Relay) {
	relay := notification.NewRelay(time.Minute)
	return NewStore(backend, authStub{authed: authed}, relay), relay
}

func TestFetchReplacesItems(t *testing.T) {
	c := context.Background()
	backend := &fakeBackend{
		cart: response.Cart{Items: []response.CartItem{cartLine(2, 10, 450_000)}},
	}
	store, _ := newTestStore(backend, true)

	err := store.Fetch(c)

	assert.NoError(t, err)
	assert.Equal(t, 1, store.Count())
	assert.Equal(t, decimal.NewFromInt(900_000).String(), store.Total().String())
	assert.Empty(t, store.Err())

	ceiling, ok := store.StockLimit(store.Items()[0].Key())
	assert.True(t, ok)
	assert.EqualValues(t, 10, ceiling)
}

func TestFetchFailureKeepsExistingItems(t *testing.T) {
	c := context.Background()
	backend := &fakeBackend{
		cart: response.Cart{Items: []response.CartItem{cartLine(1, 5, 250_000)}},
	}
	store, _ := newTestStore(backend, true)
	assert.NoError(t, store.Fetch(c))

	backend.getErr = assert.AnError
	err := store.Fetch(c)

	assert.Error(t, err)
	assert.Equal(t, 1, store.Count(), "existing state stays untouched")
	assert.NotEmpty(t, store.Err())
}

func TestAddRequiresAuthentication(t *testing.T) {
	c := context.Background()
	backend := &fakeBackend{}
	store, relay := newTestStore(backend, false)

	err := store.Add(c, uuid.New(), uuid.New(), 1)

	assert.ErrorIs(t, err, inErrors.ErrNotLoggedIn)
	assert.Empty(t, backend.addCalls, "backend must not be called")
	notifications := relay.Active()
	assert.Len(t, notifications, 1)
	assert.Equal(t, notification.LevelError, notifications[0].Level)
}

func TestAddRequiresIdentifiers(t *testing.T) {
	c := context.Background()
	backend := &fakeBackend{}
	store, _ := newTestStore(backend, true)

	err := store.Add(c, uuid.Nil, uuid.New(), 1)

	assert.ErrorIs(t, err, inErrors.ErrMissingIdentifier)
	assert.Empty(t, backend.addCalls)
}

func TestAddSuccessRefetchesAndNotifies(t *testing.T) {
	c := context.Background()
	line := cartLine(1, 10, 450_000)
	backend := &fakeBackend{cart: response.Cart{Items: []response.CartItem{line}}}
	store, relay := newTestStore(backend, true)

	err := store.Add(c, line.Product.ID, line.Variant.ID, 1)

	assert.NoError(t, err)
	assert.Len(t, backend.addCalls, 1)
	assert.Equal(t, 1, store.Count())
	notifications := relay.Active()
	assert.Len(t, notifications, 1)
	assert.Equal(t, notification.LevelSuccess, notifications[0].Level)
}

func TestRemoveRequiresIdentifiers(t *testing.T) {
	c := context.Background()
	backend := &fakeBackend{}
	store, _ := newTestStore(backend, true)

	err := store.Remove(c, uuid.New(), uuid.Nil)

	assert.ErrorIs(t, err, inErrors.ErrMissingIdentifier)
	assert.Zero(t, backend.removeCalls)
}

func TestRemoveOnlyLineEmptiesCart(t *testing.T) {
	c := context.Background()
	line := cartLine(2, 10, 450_000)
	backend := &fakeBackend{cart: response.Cart{Items: []response.CartItem{line}}}
	store, _ := newTestStore(backend, true)
	assert.NoError(t, store.Fetch(c))

	err := store.Remove(c, line.Product.ID, line.Variant.ID)

	assert.NoError(t, err)
	assert.Equal(t, 0, store.Count())
	assert.Equal(t, decimal.Zero.String(), store.Total().String())
}

func TestUpdateClampsToKnownCeiling(t *testing.T) {
	c := context.Background()
	line := cartLine(2, 4, 450_000)
	backend := &fakeBackend{cart: response.Cart{Items: []response.CartItem{line}}}
	store, _ := newTestStore(backend, true)
	assert.NoError(t, store.Fetch(c))

	err := store.Update(c, line.Product.ID, line.Variant.ID, 9)

	assert.NoError(t, err)
	assert.Len(t, backend.updateCalls, 1)
	assert.EqualValues(t, 4, backend.updateCalls[0].Quantity, "submitted quantity is clamped")
}

func TestUpdateRejectionReclampsAndWarns(t *testing.T) {
	c := context.Background()
	line := cartLine(5, 10, 450_000)
	backend := &fakeBackend{cart: response.Cart{Items: []response.CartItem{line}}}
	store, relay := newTestStore(backend, true)
	assert.NoError(t, store.Fetch(c))

	stock := int32(3)
	backend.updateErr = &api.Error{
		StatusCode: 409,
		Message:    "only 3 left in stock",
		Stock:      &stock,
	}
	err := store.Update(c, line.Product.ID, line.Variant.ID, 5)

	assert.Error(t, err)
	ceiling, ok := api.StockCeiling(err)
	assert.True(t, ok, "the revised ceiling is surfaced to the caller")
	assert.EqualValues(t, 3, ceiling)

	items := store.Items()
	assert.Len(t, items, 1, "the line is kept")
	assert.EqualValues(t, 3, items[0].Quantity)
	assert.True(t, items[0].StockWarning)

	cached, ok := store.StockLimit(items[0].Key())
	assert.True(t, ok)
	assert.EqualValues(t, 3, cached, "local cache adopts the backend ceiling")

	notifications := relay.Active()
	assert.Len(t, notifications, 1)
	assert.Equal(t, "only 3 left in stock", notifications[0].Message)
}

func TestAddRejectsOutOfStockLine(t *testing.T) {
	c := context.Background()
	line := cartLine(1, 10, 450_000)
	backend := &fakeBackend{cart: response.Cart{Items: []response.CartItem{line}}}
	store, _ := newTestStore(backend, true)
	assert.NoError(t, store.Fetch(c))

	key := Key{ProductId: line.Product.ID, VariantId: line.Variant.ID}
	store.Reconcile(key, 0)

	err := store.Add(c, line.Product.ID, line.Variant.ID, 1)

	assert.ErrorIs(t, err, inErrors.ErrOutOfStock)
	assert.Empty(t, backend.addCalls)
}
