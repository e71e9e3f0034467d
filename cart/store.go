// Package cart holds the client-side mirror of the backend cart and the
// quantity reconciliation rules shared by every surface that edits it.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hoangnm/techshop/api"
	"github.com/hoangnm/techshop/api/request"
	"github.com/hoangnm/techshop/api/response"
	"github.com/hoangnm/techshop/internal/errors"
	"github.com/hoangnm/techshop/internal/log"
	"github.com/hoangnm/techshop/notification"
)

var (
	tracer = otel.Tracer("techshop/cart")
	meter  = otel.Meter("techshop/cart")
)

// Backend is the slice of the REST client the store depends on.
type Backend interface {
	GetCart(c context.Context) (response.Cart, error)
	AddCartItem(c context.Context, param request.AddCartItem) error
	UpdateCartItem(c context.Context, param request.UpdateCartItem) error
	RemoveCartItem(c context.Context, productId, variantId uuid.UUID) error
}

// AuthState is the read-only view of the external auth collaborator.
type AuthState interface {
	IsAuthenticated() bool
}

// Key identifies one cart line: (product, variant) is unique per cart.
type Key struct {
	ProductId uuid.UUID
	VariantId uuid.UUID
}

type LineItem struct {
	Product  response.ProductRef
	Variant  response.VariantRef
	Quantity int32
	// StockWarning marks a line whose quantity was clamped down to a
	// revised stock ceiling.
	StockWarning bool
}

func (li LineItem) Key() Key {
	return Key{ProductId: li.Product.ID, VariantId: li.Variant.ID}
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.Variant.EffectivePrice().Mul(decimal.NewFromInt32(li.Quantity))
}

// Store mirrors the backend cart. Mutations are serialized behind one
// mutex so rapid interactions cannot interleave their refetches.
type Store struct {
	mu     sync.Mutex
	api    Backend
	auth   AuthState
	relay  *notification.Relay
	items  []LineItem
	limits map[Key]int32
	errMsg string

	mutations metric.Int64Counter
}

func NewStore(backend Backend, auth AuthState, relay *notification.Relay) *Store {
	mutations, _ := meter.Int64Counter("cart.mutations")
	return &Store{
		api:       backend,
		auth:      auth,
		relay:     relay,
		limits:    map[Key]int32{},
		mutations: mutations,
	}
}

// Fetch replaces the line-item list with the backend's current cart. On
// failure existing state is left untouched and the error is recorded.
func (s *Store) Fetch(c context.Context) error {
	c, span := tracer.Start(c, "Store Fetch")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store Fetch").
		Str(log.KeyProcess, "fetching cart").
		Logger()

	logger.Info().Msg("fetching cart")
	cart, err := s.api.GetCart(c)
	if err != nil {
		err = fmt.Errorf("failed fetching cart with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		s.mu.Lock()
		s.errMsg = err.Error()
		s.mu.Unlock()
		return err
	}
	logger = logger.With().Int(log.KeyCartItems, len(cart.Items)).Logger()
	logger.Info().Msg("fetched cart")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
	s.replaceLocked(cart)
	return nil
}

// replaceLocked adopts the backend cart as truth: ceilings are re-sourced
// from the fetched variant stock and quantities re-clamped against them.
func (s *Store) replaceLocked(cart response.Cart) {
	items := make([]LineItem, 0, len(cart.Items))
	limits := make(map[Key]int32, len(cart.Items))
	for _, it := range cart.Items {
		line := LineItem{Product: it.Product, Variant: it.Variant, Quantity: it.Quantity}
		key := line.Key()
		limits[key] = it.Variant.Stock
		if it.Variant.Stock >= 1 && line.Quantity > it.Variant.Stock {
			line.Quantity = it.Variant.Stock
			line.StockWarning = true
		}
		items = append(items, line)
	}
	s.items = items
	s.limits = limits
}

func (s *Store) Add(c context.Context, productId, variantId uuid.UUID, quantity int32) error {
	c, span := tracer.Start(c, "Store Add")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store Add").
		Str(log.KeyProductID, productId.String()).
		Str(log.KeyVariantID, variantId.String()).
		Int32(log.KeyQuantity, quantity).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating add").Logger()
	if productId == uuid.Nil || variantId == uuid.Nil {
		err := errors.ErrMissingIdentifier
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		s.relay.Publish(c, notification.LevelError, err.Error())
		return err
	}
	if !s.auth.IsAuthenticated() {
		err := errors.ErrNotLoggedIn
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		s.relay.Publish(c, notification.LevelError, err.Error())
		return err
	}

	s.mu.Lock()
	key := Key{ProductId: productId, VariantId: variantId}
	ceiling, known := s.limits[key]
	s.mu.Unlock()
	if known && ceiling <= 0 {
		err := errors.ErrOutOfStock
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		s.relay.Publish(c, notification.LevelError, err.Error())
		return err
	}
	quantity = Clamp(quantity, ceiling)
	logger = logger.With().Int32(log.KeyQuantity, quantity).Logger()

	logger = logger.With().Str(log.KeyProcess, "adding cart item").Logger()
	logger.Info().Msg("adding cart item")
	err := s.api.AddCartItem(c, request.AddCartItem{
		ProductId: productId,
		VariantId: variantId,
		Quantity:  quantity,
	})
	s.mutations.Add(c, 1, metric.WithAttributes(attribute.String("op", "add")))
	if err != nil {
		err = fmt.Errorf("failed adding cart item with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		s.relay.Publish(c, notification.LevelError, userMessage(err))
		return err
	}
	logger.Info().Msg("added cart item")

	logger = logger.With().Str(log.KeyProcess, "refetching cart").Logger()
	logger.Info().Msg("refetching cart")
	if err := s.Fetch(c); err != nil {
		s.relay.Publish(c, notification.LevelError, userMessage(err))
		return err
	}
	logger.Info().Msg("refetched cart")

	s.relay.Publish(c, notification.LevelSuccess, "Product added to cart")
	return nil
}

func (s *Store) Update(c context.Context, productId, variantId uuid.UUID, quantity int32) error {
	c, span := tracer.Start(c, "Store Update")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store Update").
		Str(log.KeyProductID, productId.String()).
		Str(log.KeyVariantID, variantId.String()).
		Int32(log.KeyQuantity, quantity).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating update").Logger()
	if productId == uuid.Nil || variantId == uuid.Nil {
		err := errors.ErrMissingIdentifier
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		s.relay.Publish(c, notification.LevelError, err.Error())
		return err
	}
	if !s.auth.IsAuthenticated() {
		err := errors.ErrNotLoggedIn
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		s.relay.Publish(c, notification.LevelError, err.Error())
		return err
	}

	key := Key{ProductId: productId, VariantId: variantId}
	s.mu.Lock()
	quantity = Clamp(quantity, s.limits[key])
	s.mu.Unlock()
	logger = logger.With().Int32(log.KeyQuantity, quantity).Logger()

	logger = logger.With().Str(log.KeyProcess, "updating cart item").Logger()
	logger.Info().Msg("updating cart item")
	err := s.api.UpdateCartItem(c, request.UpdateCartItem{
		ProductId: productId,
		VariantId: variantId,
		Quantity:  quantity,
	})
	s.mutations.Add(c, 1, metric.WithAttributes(attribute.String("op", "update")))
	if err != nil {
		err = fmt.Errorf("failed updating cart item with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		if ceiling, ok := api.StockCeiling(err); ok {
			logger.Info().
				Int32(log.KeyStockLimit, ceiling).
				Msg("backend revised stock ceiling, reclamping line")
			s.Reconcile(key, ceiling)
		}
		s.relay.Publish(c, notification.LevelError, userMessage(err))
		return err
	}
	logger.Info().Msg("updated cart item")

	logger = logger.With().Str(log.KeyProcess, "refetching cart").Logger()
	logger.Info().Msg("refetching cart")
	if err := s.Fetch(c); err != nil {
		s.relay.Publish(c, notification.LevelError, userMessage(err))
		return err
	}
	logger.Info().Msg("refetched cart")

	s.relay.Publish(c, notification.LevelSuccess, "Cart updated")
	return nil
}

func (s *Store) Remove(c context.Context, productId, variantId uuid.UUID) error {
	c, span := tracer.Start(c, "Store Remove")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store Remove").
		Str(log.KeyProductID, productId.String()).
		Str(log.KeyVariantID, variantId.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating remove").Logger()
	if productId == uuid.Nil || variantId == uuid.Nil {
		err := errors.ErrMissingIdentifier
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		s.relay.Publish(c, notification.LevelError, err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "removing cart item").Logger()
	logger.Info().Msg("removing cart item")
	err := s.api.RemoveCartItem(c, productId, variantId)
	s.mutations.Add(c, 1, metric.WithAttributes(attribute.String("op", "remove")))
	if err != nil {
		err = fmt.Errorf("failed removing cart item with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		s.relay.Publish(c, notification.LevelError, userMessage(err))
		return err
	}
	logger.Info().Msg("removed cart item")

	logger = logger.With().Str(log.KeyProcess, "refetching cart").Logger()
	logger.Info().Msg("refetching cart")
	if err := s.Fetch(c); err != nil {
		s.relay.Publish(c, notification.LevelError, userMessage(err))
		return err
	}
	logger.Info().Msg("refetched cart")

	s.relay.Publish(c, notification.LevelSuccess, "Product removed from cart")
	return nil
}

// Reconcile overwrites the cached stock ceiling for a line and re-clamps
// its displayed quantity. The line is kept, with a visible warning.
func (s *Store) Reconcile(key Key, ceiling int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits[key] = ceiling
	for i, line := range s.items {
		if line.Key() != key {
			continue
		}
		if ceiling >= 1 && line.Quantity > ceiling {
			s.items[i].Quantity = ceiling
			s.items[i].StockWarning = true
		}
		return
	}
}

// Total is the sum of effective price times quantity over all lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, line := range s.items {
		total = total.Add(line.LineTotal())
	}
	return total
}

// Count is the number of cart lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return items
}

func (s *Store) StockLimit(key Key) (int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ceiling, ok := s.limits[key]
	return ceiling, ok
}

// Err is the last fetch failure message, empty after a successful fetch.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// userMessage prefers the backend's user-facing message over the wrapped
// transport error chain.
func userMessage(err error) string {
	if apiErr, ok := api.AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
