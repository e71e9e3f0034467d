package request

import (
	"github.com/google/uuid"
)

type AddCartItem struct {
	ProductId uuid.UUID `validate:"required,uuid"  json:"product_id"`
	VariantId uuid.UUID `validate:"required,uuid"  json:"variant_id"`
	Quantity  int32     `validate:"required,gte=1" json:"quantity"`
}

type UpdateCartItem struct {
	ProductId uuid.UUID `validate:"required,uuid"  json:"product_id"`
	VariantId uuid.UUID `validate:"required,uuid"  json:"variant_id"`
	Quantity  int32     `validate:"required,gte=1" json:"quantity"`
}

type RemoveCartItem struct {
	ProductId uuid.UUID `validate:"required,uuid" json:"product_id"`
	VariantId uuid.UUID `validate:"required,uuid" json:"variant_id"`
}
