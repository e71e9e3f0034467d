package response

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Image    string    `json:"image"`
	Brand    string    `json:"brand"`
	Variants []Variant `json:"variants"`
}

type Variant struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Stock           int32           `json:"stock"`
	DiscountPercent int32           `json:"discount_percent"`
}

// DefaultVariant resolves the variant shown when none is selected yet: the
// first in-stock variant, falling back to the first variant at all. This is
// the single place that ordering is decided.
func (p Product) DefaultVariant() (Variant, bool) {
	for _, v := range p.Variants {
		if v.Stock > 0 {
			return v, true
		}
	}
	if len(p.Variants) > 0 {
		return p.Variants[0], true
	}
	return Variant{}, false
}

// EffectivePrice is the listed price after the percentage discount. VND has
// no minor unit so the result is rounded to a whole amount.
func (v Variant) EffectivePrice() decimal.Decimal {
	if v.DiscountPercent <= 0 {
		return v.Price
	}
	discount := v.Price.
		Mul(decimal.NewFromInt32(v.DiscountPercent)).
		Div(decimal.NewFromInt(100))
	return v.Price.Sub(discount).Round(0)
}

type ProductPage struct {
	Products   []Product `json:"products"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	Total      int64     `json:"total"`
}
