package response

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRef and VariantRef are read-only projections of catalog data as the
// backend embeds them in cart lines. They are never mutated client-side.
type ProductRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Image string    `json:"image"`
}

type VariantRef struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Stock           int32           `json:"stock"`
	DiscountPercent int32           `json:"discount_percent"`
}

func (v VariantRef) EffectivePrice() decimal.Decimal {
	return Variant{
		ID:              v.ID,
		Name:            v.Name,
		Price:           v.Price,
		Stock:           v.Stock,
		DiscountPercent: v.DiscountPercent,
	}.EffectivePrice()
}

type CartItem struct {
	Product  ProductRef `json:"product"`
	Variant  VariantRef `json:"variant"`
	Quantity int32      `json:"quantity"`
}

type Cart struct {
	Items []CartItem `json:"items"`
}
