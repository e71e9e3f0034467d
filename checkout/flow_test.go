package checkout

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
	"github.com/hoangnm/techshop/cart"
	inErrors "github.com/hoangnm/techshop/internal/errors"
	"github.com/hoangnm/techshop/notification"
	"github.com/hoangnm/techshop/session"
)

type flowBackend struct {
	coupon      response.Coupon
	couponErr   error
	order       response.Order
	orderErr    error
	redirect    response.PaymentRedirect
	redirectErr error

	lastVerify request.VerifyCoupon
	lastOrder  request.CreateOrder
}

func (b *flowBackend) VerifyCoupon(
	_ context.Context,
	param request.VerifyCoupon,
) (response.Coupon, error) {
	b.lastVerify = param
	if b.couponErr != nil {
		return response.Coupon{}, b.couponErr
	}
	return b.coupon, nil
}

func (b *flowBackend) CreateOrder(
	_ context.Context,
	param request.CreateOrder,
) (response.Order, error) {
	b.lastOrder = param
	if b.orderErr != nil {
		return response.Order{}, b.orderErr
	}
	return b.order, nil
}

func (b *flowBackend) CreatePaymentRedirect(
	_ context.Context,
	_ uuid.UUID,
) (response.PaymentRedirect, error) {
	if b.redirectErr != nil {
		return response.PaymentRedirect{}, b.redirectErr
	}
	return b.redirect, nil
}

type cartStub struct {
	items []cart.LineItem
}

func (s cartStub) Items() []cart.LineItem { return s.items }

func (s cartStub) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.items {
		total = total.Add(line.LineTotal())
	}
	return total
}

func (s cartStub) Count() int { return len(s.items) }

type userStub struct {
	user session.User
	ok   bool
}

func (s userStub) CurrentUser() (session.User, bool) { return s.user, s.ok }

func stubLine(quantity int32, price int64) cart.LineItem {
	return cart.LineItem{
		Product: response.ProductRef{ID: uuid.New(), Name: "Samsung 980 Pro"},
		Variant: response.VariantRef{
			ID:    uuid.New(),
			Name:  "1TB",
			Price: decimal.NewFromInt(price),
			Stock: 20,
		},
		Quantity: quantity,
	}
}

func validAddress() request.ShippingAddress {
	return request.ShippingAddress{
		FullName: "Nguyen Van A",
		Phone:    "0912345678",
		Address:  "12 Nguyen Trai, Ha Noi",
	}
}

func newTestFlow(backend *flowBackend, items ...cart.LineItem) (*Flow, *notification.Relay) {
	relay := notification.NewRelay(time.Minute)
	flow := NewFlow(
		backend,
		cartStub{items: items},
		userStub{user: session.User{ID: uuid.New(), Points: 100}, ok: true},
		testPricing(),
		relay,
	)
	return flow, relay
}

func TestSubmitShippingInfoValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*request.ShippingAddress)
		blocked bool
	}{
		{
			name:   "given valid address should advance to payment",
			mutate: func(*request.ShippingAddress) {},
		},
		{
			name:    "given empty address should stay on shipping info",
			mutate:  func(a *request.ShippingAddress) { a.Address = "" },
			blocked: true,
		},
		{
			name:    "given empty name should stay on shipping info",
			mutate:  func(a *request.ShippingAddress) { a.FullName = "" },
			blocked: true,
		},
		{
			name:    "given malformed phone should stay on shipping info",
			mutate:  func(a *request.ShippingAddress) { a.Phone = "12345" },
			blocked: true,
		},
		{
			name:    "given foreign phone prefix should stay on shipping info",
			mutate:  func(a *request.ShippingAddress) { a.Phone = "+15551234567" },
			blocked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := context.Background()
			flow, _ := newTestFlow(&flowBackend{}, stubLine(1, 500_000))

			address := validAddress()
			tt.mutate(&address)
			err := flow.SubmitShippingInfo(c, address)

			if tt.blocked {
				assert.Error(t, err)
				assert.Equal(t, StepShippingInfo, flow.Step(), "active step unchanged")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, StepPayment, flow.Step())
		})
	}
}

func TestBackwardTransitions(t *testing.T) {
	c := context.Background()
	flow, _ := newTestFlow(&flowBackend{order: response.Order{ID: uuid.New()}}, stubLine(1, 500_000))

	assert.NoError(t, flow.SubmitShippingInfo(c, validAddress()))
	assert.NoError(t, flow.SelectPayment(c, MethodCOD))
	assert.Equal(t, StepConfirm, flow.Step())

	assert.NoError(t, flow.Back())
	assert.Equal(t, StepPayment, flow.Step())
	assert.NoError(t, flow.Back())
	assert.Equal(t, StepShippingInfo, flow.Step())
	assert.ErrorIs(t, flow.Back(), inErrors.ErrInvalidStep)
}

func TestSelectPaymentRejectsUnknownMethod(t *testing.T) {
	c := context.Background()
	flow, _ := newTestFlow(&flowBackend{}, stubLine(1, 500_000))

	assert.NoError(t, flow.SubmitShippingInfo(c, validAddress()))
	assert.Error(t, flow.SelectPayment(c, "CHEQUE"))
	assert.Equal(t, StepPayment, flow.Step())
}

func TestApplyCouponKeyedBySubtotal(t *testing.T) {
	c := context.Background()
	backend := &flowBackend{
		coupon: response.Coupon{
			Code:           "SALE10",
			DiscountType:   response.DiscountTypePercentage,
			Value:          decimal.NewFromInt(10),
			DiscountAmount: decimal.NewFromInt(100_000),
		},
	}
	flow, _ := newTestFlow(backend, stubLine(2, 500_000))

	err := flow.ApplyCoupon(c, "SALE10")

	assert.NoError(t, err)
	assert.Equal(t, "SALE10", backend.lastVerify.Code)
	assert.Equal(
		t,
		decimal.NewFromInt(1_000_000).String(),
		backend.lastVerify.Amount.String(),
	)
	assert.NotNil(t, flow.Coupon())
	assert.Equal(
		t,
		decimal.NewFromInt(100_000).String(),
		flow.Breakdown().DiscountAmount.String(),
	)
}

func TestApplyCouponFailureClearsPriorCoupon(t *testing.T) {
	c := context.Background()
	backend := &flowBackend{
		coupon: response.Coupon{
			Code:         "SALE10",
			DiscountType: response.DiscountTypePercentage,
			Value:        decimal.NewFromInt(10),
		},
	}
	flow, relay := newTestFlow(backend, stubLine(2, 500_000))
	assert.NoError(t, flow.ApplyCoupon(c, "SALE10"))
	assert.NotNil(t, flow.Coupon())

	backend.couponErr = &api.Error{StatusCode: 400, Message: "coupon has expired"}
	err := flow.ApplyCoupon(c, "SALE10")

	assert.Error(t, err)
	assert.Nil(t, flow.Coupon(), "a failed verification clears the prior coupon")

	notifications := relay.Active()
	found := false
	for _, n := range notifications {
		if n.Message == "coupon has expired" {
			found = true
		}
	}
	assert.True(t, found, "backend message is reported verbatim")
}

func TestRedeemPointsClamps(t *testing.T) {
	tests := []struct {
		name      string
		requested int64
		expected  int64
	}{
		{name: "given request within bounds should keep it", requested: 50, expected: 50},
		{name: "given request above balance should clamp to balance", requested: 500, expected: 100},
		{name: "given negative request should clamp to zero", requested: -1, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// subtotal 1,000,000 absorbs up to 1000 points; balance is 100
			flow, _ := newTestFlow(&flowBackend{}, stubLine(2, 500_000))
			assert.Equal(t, tt.expected, flow.RedeemPoints(tt.requested))
		})
	}
}

func TestRedeemPointsClampsToSubtotalCapacity(t *testing.T) {
	// subtotal 60,500 absorbs only 60 points even with balance 100
	flow, _ := newTestFlow(&flowBackend{}, stubLine(1, 60_500))
	assert.EqualValues(t, 60, flow.RedeemPoints(100))
}

func TestPlaceOrderCashOnDelivery(t *testing.T) {
	c := context.Background()
	orderId := uuid.New()
	backend := &flowBackend{order: response.Order{ID: orderId, Status: "PENDING"}}
	flow, _ := newTestFlow(backend, stubLine(2, 500_000))

	assert.NoError(t, flow.SubmitShippingInfo(c, validAddress()))
	assert.NoError(t, flow.SelectPayment(c, MethodCOD))
	flow.RedeemPoints(50)

	err := flow.PlaceOrder(c)

	assert.NoError(t, err)
	assert.Equal(t, StepPlaced, flow.Step())
	assert.Equal(t, orderId, flow.OrderID())
	assert.Len(t, backend.lastOrder.Items, 1)
	assert.EqualValues(t, 50, backend.lastOrder.PointsUsed)
	assert.Equal(t, MethodCOD, backend.lastOrder.PaymentMethod)

	assert.ErrorIs(t, flow.Back(), inErrors.ErrOrderPlaced, "placed is terminal")
	assert.ErrorIs(t, flow.PlaceOrder(c), inErrors.ErrInvalidStep)
}

func TestPlaceOrderRedirectMethod(t *testing.T) {
	c := context.Background()
	backend := &flowBackend{
		order:    response.Order{ID: uuid.New()},
		redirect: response.PaymentRedirect{Url: "https://pay.example.com/checkout/abc"},
	}
	flow, _ := newTestFlow(backend, stubLine(1, 500_000))

	assert.NoError(t, flow.SubmitShippingInfo(c, validAddress()))
	assert.NoError(t, flow.SelectPayment(c, MethodVNPay))
	assert.NoError(t, flow.PlaceOrder(c))

	assert.Equal(t, StepRedirect, flow.Step())
	assert.Equal(t, "https://pay.example.com/checkout/abc", flow.RedirectUrl())
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	c := context.Background()
	flow, _ := newTestFlow(&flowBackend{})

	assert.NoError(t, flow.SubmitShippingInfo(c, validAddress()))
	assert.NoError(t, flow.SelectPayment(c, MethodCOD))

	assert.ErrorIs(t, flow.PlaceOrder(c), inErrors.ErrEmptyCart)
	assert.Equal(t, StepConfirm, flow.Step())
}

func TestPlaceOrderFailureKeepsStep(t *testing.T) {
	c := context.Background()
	backend := &flowBackend{orderErr: &api.Error{StatusCode: 400, Message: "address unserviceable"}}
	flow, relay := newTestFlow(backend, stubLine(1, 500_000))

	assert.NoError(t, flow.SubmitShippingInfo(c, validAddress()))
	assert.NoError(t, flow.SelectPayment(c, MethodCOD))

	assert.Error(t, flow.PlaceOrder(c))
	assert.Equal(t, StepConfirm, flow.Step())
	assert.Equal(t, uuid.Nil, flow.OrderID())

	notifications := relay.Active()
	assert.Len(t, notifications, 1)
	assert.Equal(t, "address unserviceable", notifications[0].Message)
}
