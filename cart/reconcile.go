package cart

import (
	"strconv"
)

// Clamp bounds a requested quantity to [1, ceiling]. A ceiling below 1 is
// treated as unknown and only the lower bound applies; out-of-stock lines
// are rejected before clamping ever runs.
func Clamp(quantity, ceiling int32) int32 {
	if quantity < 1 {
		quantity = 1
	}
	if ceiling >= 1 && quantity > ceiling {
		return ceiling
	}
	return quantity
}

// QuantitySelector is the shared quantity rule set behind the product
// quick-add control and the cart line editor. It never reports a value
// outside [1, Ceiling].
type QuantitySelector struct {
	Quantity int32
	Ceiling  int32
	// Warned is set when the last input had to be clamped down to the
	// ceiling, so the surface can attach an inline stock warning.
	Warned bool
}

func NewQuantitySelector(ceiling int32) QuantitySelector {
	return QuantitySelector{Quantity: 1, Ceiling: ceiling}
}

// Increment is a no-op once the stock ceiling is reached.
func (s *QuantitySelector) Increment() {
	if s.Ceiling >= 1 && s.Quantity >= s.Ceiling {
		return
	}
	s.Quantity++
	s.Warned = false
}

// Decrement is a no-op at 1.
func (s *QuantitySelector) Decrement() {
	if s.Quantity <= 1 {
		return
	}
	s.Quantity--
	s.Warned = false
}

// SetInput applies free-form text input. Non-numeric or sub-1 input resets
// to 1; input above the ceiling clamps and flags the warning.
func (s *QuantitySelector) SetInput(raw string) {
	parsed, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || parsed < 1 {
		s.Quantity = 1
		s.Warned = false
		return
	}
	s.Set(int32(parsed))
}

func (s *QuantitySelector) Set(quantity int32) {
	clamped := Clamp(quantity, s.Ceiling)
	s.Warned = s.Ceiling >= 1 && quantity > s.Ceiling
	s.Quantity = clamped
}

// SetCeiling adopts a revised stock ceiling, typically from a backend
// rejection, and re-clamps the current quantity. The local cache is not
// trusted once the backend disagrees.
func (s *QuantitySelector) SetCeiling(ceiling int32) {
	s.Ceiling = ceiling
	if ceiling >= 1 && s.Quantity > ceiling {
		s.Quantity = ceiling
		s.Warned = true
	}
}
