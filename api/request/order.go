package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VerifyCoupon struct {
	Code   string          `validate:"required" json:"code"`
	Amount decimal.Decimal `validate:"required" json:"amount"`
}

type OrderItem struct {
	ProductId uuid.UUID       `validate:"required,uuid"  json:"product_id"`
	VariantId uuid.UUID       `validate:"required,uuid"  json:"variant_id"`
	Quantity  int32           `validate:"required,gte=1" json:"quantity"`
	Price     decimal.Decimal `validate:"required"       json:"price"`
}

type ShippingAddress struct {
	FullName string `validate:"required"         json:"full_name"`
	Phone    string `validate:"required,vnphone" json:"phone"`
	Address  string `validate:"required"         json:"address"`
	Note     string `json:"note"`
}

type CreateOrder struct {
	Items         []OrderItem     `validate:"required,min=1,dive" json:"items"`
	Address       ShippingAddress `validate:"required"            json:"address"`
	PaymentMethod string          `validate:"required"            json:"payment_method"`
	CouponCode    string          `json:"coupon_code,omitempty"`
	PointsUsed    int64           `validate:"gte=0"               json:"points_used"`
}
