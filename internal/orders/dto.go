package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
)

// LineInput is one product sold or taken back.
type LineInput struct {
	ProductKey string
	Quantity   int64
}

// CreateInput carries a new order taken during a trip.
type CreateInput struct {
	ShopID      uuid.UUID
	TripID      uuid.UUID
	Lines       []LineInput
	TotalAmount decimal.Decimal
	Discount    decimal.Decimal
	Type        enums.OrderType
	PaymentType enums.PaymentType
}

// Confirmation is the result of settling a credit order in cash.
type Confirmation struct {
	UpdatedOrder *models.Order       `json:"updatedOrder"`
	Transaction  *models.Transaction `json:"transaction"`
}
