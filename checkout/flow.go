// Package checkout derives the order price from cart, coupon, and loyalty
// point inputs and walks the order through the checkout steps.
package checkout

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/hoangnm/techshop/api"
	"github.com/hoangnm/techshop/api/request"
	"github.com/hoangnm/techshop/api/response"
	"github.com/hoangnm/techshop/cart"
	"github.com/hoangnm/techshop/internal/errors"
	"github.com/hoangnm/techshop/internal/log"
	"github.com/hoangnm/techshop/notification"
	"github.com/hoangnm/techshop/session"
)

var tracer = otel.Tracer("techshop/checkout")

type Step string

const (
	StepShippingInfo Step = "shipping_info"
	StepPayment      Step = "payment"
	StepConfirm      Step = "confirm"
	StepRedirect     Step = "redirect"
	StepPlaced       Step = "placed"
)

const (
	MethodCOD          = "COD"
	MethodBankTransfer = "BANK_TRANSFER"
	MethodVNPay        = "VNPAY"
)

// redirect-style methods finish on the payment gateway's site.
func requiresRedirect(method string) bool {
	return method == MethodVNPay
}

// Backend is the slice of the REST client the flow depends on.
type Backend interface {
	VerifyCoupon(c context.Context, param request.VerifyCoupon) (response.Coupon, error)
	CreateOrder(c context.Context, param request.CreateOrder) (response.Order, error)
	CreatePaymentRedirect(c context.Context, orderId uuid.UUID) (response.PaymentRedirect, error)
}

// CartReader is the flow's read-only view of the cart store; pricing is a
// pure function of its current state and never mutates it.
type CartReader interface {
	Items() []cart.LineItem
	Total() decimal.Decimal
	Count() int
}

type UserReader interface {
	CurrentUser() (session.User, bool)
}

var vnPhone = regexp.MustCompile(`^(0|\+84)(3|5|7|8|9)[0-9]{8}$`)

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("vnphone", func(fl validator.FieldLevel) bool {
		return vnPhone.MatchString(fl.Field().String())
	})
	return validate
}

// Flow is the checkout state machine:
//
//	ShippingInfo -> Payment -> Confirm -> (Redirect | Placed)
//
// Forward transitions are gated on validation; backward transitions are
// allowed until an order exists. Placed is terminal.
type Flow struct {
	backend  Backend
	cart     CartReader
	user     UserReader
	pricing  Pricing
	relay    *notification.Relay
	validate *validator.Validate

	step          Step
	address       request.ShippingAddress
	paymentMethod string
	coupon        *response.Coupon
	points        int64
	orderId       uuid.UUID
	redirectUrl   string
}

func NewFlow(
	backend Backend,
	cartReader CartReader,
	user UserReader,
	pricing Pricing,
	relay *notification.Relay,
) *Flow {
	return &Flow{
		backend:  backend,
		cart:     cartReader,
		user:     user,
		pricing:  pricing,
		relay:    relay,
		validate: newValidator(),
		step:     StepShippingInfo,
	}
}

func (f *Flow) Step() Step { return f.step }

func (f *Flow) ShippingInfo() request.ShippingAddress { return f.address }

func (f *Flow) PaymentMethod() string { return f.paymentMethod }

// OrderID is the created order's identifier, uuid.Nil until one exists.
func (f *Flow) OrderID() uuid.UUID { return f.orderId }

func (f *Flow) RedirectUrl() string { return f.redirectUrl }

func (f *Flow) Coupon() *response.Coupon { return f.coupon }

func (f *Flow) Points() int64 { return f.points }

// SubmitShippingInfo validates the shipping form and advances to Payment.
// Validation failure leaves the active step unchanged.
func (f *Flow) SubmitShippingInfo(c context.Context, address request.ShippingAddress) error {
	c, span := tracer.Start(c, "Flow SubmitShippingInfo")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Flow SubmitShippingInfo").
		Str(log.KeyStep, string(f.step)).
		Logger()

	if f.step != StepShippingInfo {
		err := errors.ErrInvalidStep
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "validating shipping info").Logger()
	logger.Info().Msg("validating shipping info")
	if err := f.validate.StructCtx(c, address); err != nil {
		err = fmt.Errorf("failed validating shipping info with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("validated shipping info")

	f.address = address
	f.step = StepPayment
	logger.Info().Str(log.KeyStep, string(f.step)).Msg("advanced to payment step")
	return nil
}

// SelectPayment records the chosen method and advances to Confirm.
func (f *Flow) SelectPayment(c context.Context, method string) error {
	c, span := tracer.Start(c, "Flow SelectPayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Flow SelectPayment").
		Str(log.KeyStep, string(f.step)).
		Logger()

	if f.step != StepPayment {
		err := errors.ErrInvalidStep
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	switch method {
	case MethodCOD, MethodBankTransfer, MethodVNPay:
	default:
		err := fmt.Errorf("unknown payment method %q", method)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	f.paymentMethod = method
	f.step = StepConfirm
	logger.Info().Str(log.KeyStep, string(f.step)).Msg("advanced to confirm step")
	return nil
}

// Back steps the flow backward. It is refused once an order exists.
func (f *Flow) Back() error {
	if f.orderId != uuid.Nil {
		return errors.ErrOrderPlaced
	}
	switch f.step {
	case StepPayment:
		f.step = StepShippingInfo
	case StepConfirm:
		f.step = StepPayment
	default:
		return errors.ErrInvalidStep
	}
	return nil
}

// ApplyCoupon verifies code against the current subtotal. Failure clears
// any previously applied coupon and reports the backend's message verbatim
// when it carries one.
func (f *Flow) ApplyCoupon(c context.Context, code string) error {
	c, span := tracer.Start(c, "Flow ApplyCoupon")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Flow ApplyCoupon").
		Str(log.KeyCouponCode, code).
		Logger()

	if f.orderId != uuid.Nil {
		err := errors.ErrOrderPlaced
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	subtotal := f.cart.Total()
	logger = logger.With().
		Str(log.KeySubtotal, subtotal.String()).
		Str(log.KeyProcess, "verifying coupon").
		Logger()
	logger.Info().Msg("verifying coupon")
	coupon, err := f.backend.VerifyCoupon(c, request.VerifyCoupon{Code: code, Amount: subtotal})
	if err != nil {
		f.coupon = nil
		message := "failed to apply coupon"
		if apiErr, ok := api.AsError(err); ok && apiErr.Message != "" {
			message = apiErr.Message
		}
		err = fmt.Errorf("failed verifying coupon with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		f.relay.Publish(c, notification.LevelError, message)
		return err
	}
	logger.Info().Msg("verified coupon")

	f.coupon = &coupon
	f.relay.Publish(c, notification.LevelSuccess, "Coupon applied")
	return nil
}

func (f *Flow) RemoveCoupon() {
	f.coupon = nil
}

// RedeemPoints clamps the requested redemption against the user's balance
// and the current subtotal and returns the applied amount.
func (f *Flow) RedeemPoints(requested int64) int64 {
	balance := int64(0)
	if user, ok := f.user.CurrentUser(); ok {
		balance = user.Points
	}
	f.points = f.pricing.ClampPoints(requested, balance, f.cart.Total())
	return f.points
}

// Breakdown recomputes the pricing from the current inputs.
func (f *Flow) Breakdown() Breakdown {
	return f.pricing.Compute(f.cart.Total(), f.coupon, f.points)
}

// PlaceOrder packages the cart, shipping address, payment method, coupon,
// and points into one create-order call. Redirect-style methods then fetch
// the gateway URL; everything else lands on Placed.
func (f *Flow) PlaceOrder(c context.Context) error {
	c, span := tracer.Start(c, "Flow PlaceOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Flow PlaceOrder").
		Str(log.KeyStep, string(f.step)).
		Logger()

	if f.step != StepConfirm {
		err := errors.ErrInvalidStep
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if f.orderId != uuid.Nil {
		err := errors.ErrOrderPlaced
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	items := f.cart.Items()
	if len(items) == 0 {
		err := errors.ErrEmptyCart
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		f.relay.Publish(c, notification.LevelError, err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "building order request").Logger()
	orderItems := make([]request.OrderItem, len(items))
	for i, line := range items {
		orderItems[i] = request.OrderItem{
			ProductId: line.Product.ID,
			VariantId: line.Variant.ID,
			Quantity:  line.Quantity,
			Price:     line.Variant.EffectivePrice(),
		}
	}
	param := request.CreateOrder{
		Items:         orderItems,
		Address:       f.address,
		PaymentMethod: f.paymentMethod,
		PointsUsed:    f.points,
	}
	if f.coupon != nil {
		param.CouponCode = f.coupon.Code
	}

	logger = logger.With().Str(log.KeyProcess, "creating order").Logger()
	logger.Info().Msg("creating order")
	order, err := f.backend.CreateOrder(c, param)
	if err != nil {
		message := "failed to place order"
		if apiErr, ok := api.AsError(err); ok && apiErr.Message != "" {
			message = apiErr.Message
		}
		err = fmt.Errorf("failed creating order with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		f.relay.Publish(c, notification.LevelError, message)
		return err
	}
	f.orderId = order.ID
	logger = logger.With().Str(log.KeyOrderID, order.ID.String()).Logger()
	logger.Info().Msg("created order")

	if !requiresRedirect(f.paymentMethod) {
		f.step = StepPlaced
		logger.Info().Str(log.KeyStep, string(f.step)).Msg("order placed")
		f.relay.Publish(c, notification.LevelSuccess, "Order placed successfully")
		return nil
	}

	logger = logger.With().Str(log.KeyProcess, "creating payment redirect").Logger()
	logger.Info().Msg("creating payment redirect")
	redirect, err := f.backend.CreatePaymentRedirect(c, order.ID)
	if err != nil {
		err = fmt.Errorf("failed creating payment redirect with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		f.relay.Publish(c, notification.LevelError, userMessage(err))
		return err
	}
	f.redirectUrl = redirect.Url
	f.step = StepRedirect
	logger.Info().Str(log.KeyStep, string(f.step)).Msg("redirecting to payment gateway")
	return nil
}

func userMessage(err error) string {
	if apiErr, ok := api.AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
