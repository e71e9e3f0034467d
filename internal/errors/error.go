package errors

import (
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotLoggedIn       = errors.New("you must be logged in to modify the cart")
	ErrMissingIdentifier = errors.New("missing product or variant identifier")
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidStep       = errors.New("action not allowed in current checkout step")
	ErrOrderPlaced       = errors.New("order has already been placed")
)

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
