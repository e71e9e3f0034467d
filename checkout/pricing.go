package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/hoangnm/techshop/api/response"
	"github.com/hoangnm/techshop/internal/config"
)

// Breakdown is the order price derivation shown on the checkout page. It is
// recomputed from its inputs on every change, never stored.
type Breakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	PointsValue    decimal.Decimal `json:"points_value"`
	Total          decimal.Decimal `json:"total"`
}

// Pricing holds the configured pricing rules: the free-shipping step
// function and the loyalty-point exchange rate.
type Pricing struct {
	freeShippingThreshold decimal.Decimal
	shippingFlatFee       decimal.Decimal
	pointUnitValue        decimal.Decimal
}

func NewPricing(cfg config.Checkout) Pricing {
	return Pricing{
		freeShippingThreshold: decimal.NewFromInt(cfg.FreeShippingThreshold),
		shippingFlatFee:       decimal.NewFromInt(cfg.ShippingFlatFee),
		pointUnitValue:        decimal.NewFromInt(cfg.PointUnitValue),
	}
}

// ShippingFee is free strictly above the threshold and the flat fee at or
// below it. An empty cart ships nothing and owes nothing.
func (p Pricing) ShippingFee(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	if subtotal.GreaterThan(p.freeShippingThreshold) {
		return decimal.Zero
	}
	return p.shippingFlatFee
}

// ClampPoints bounds a requested redemption to what the user holds and what
// the subtotal can absorb at the configured unit value.
func (p Pricing) ClampPoints(requested, balance int64, subtotal decimal.Decimal) int64 {
	if requested < 0 {
		return 0
	}
	max := subtotal.Div(p.pointUnitValue).Floor().IntPart()
	if balance < max {
		max = balance
	}
	if max < 0 {
		max = 0
	}
	if requested > max {
		return max
	}
	return requested
}

func (p Pricing) PointsValue(points int64) decimal.Decimal {
	return p.pointUnitValue.Mul(decimal.NewFromInt(points))
}

// Compute derives the full breakdown. The grand total never goes negative.
func (p Pricing) Compute(
	subtotal decimal.Decimal,
	coupon *response.Coupon,
	points int64,
) Breakdown {
	fee := p.ShippingFee(subtotal)
	discount := decimal.Zero
	if coupon != nil {
		discount = coupon.Discount(subtotal)
	}
	pointsValue := p.PointsValue(points)

	total := subtotal.Add(fee).Sub(discount).Sub(pointsValue)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Breakdown{
		Subtotal:       subtotal,
		ShippingFee:    fee,
		DiscountAmount: discount,
		PointsValue:    pointsValue,
		Total:          total,
	}
}
