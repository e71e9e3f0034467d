package response

import (
	"github.com/shopspring/decimal"
)

const (
	DiscountTypePercentage = "PERCENTAGE"
	DiscountTypeFixed      = "FIXED"
)

type Coupon struct {
	Code           string          `json:"code"`
	DiscountType   string          `json:"discount_type"`
	Value          decimal.Decimal `json:"value"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// Discount resolves the coupon's discount against a subtotal. The verified
// amount from the backend wins when present; otherwise the amount is derived
// from the coupon's type and value.
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if c.DiscountAmount.IsPositive() {
		return c.DiscountAmount
	}
	switch c.DiscountType {
	case DiscountTypePercentage:
		return subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(0)
	case DiscountTypeFixed:
		return c.Value
	}
	return decimal.Zero
}
