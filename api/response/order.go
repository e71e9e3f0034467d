package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID        uuid.UUID       `json:"id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

type PaymentRedirect struct {
	OrderID uuid.UUID `json:"order_id"`
	Url     string    `json:"url"`
}
