package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/enums"
)

// Order records a sale (credit) or a return (debit) against a shop.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ShopID         uuid.UUID         `gorm:"column:shop_id;type:uuid;not null;index" json:"shop_id"`
	Shop           *Shop             `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
	TotalAmount    decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	Discount       decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null;default:0" json:"discount"`
	PaymentType    enums.PaymentType `gorm:"column:payment_type;not null" json:"payment_type"`
	Status         enums.OrderStatus `gorm:"column:status;not null" json:"status"`
	Type           enums.OrderType   `gorm:"column:type;not null" json:"type"`
	ReturnedFromID *uuid.UUID        `gorm:"column:returned_from_id;type:uuid" json:"returned_from_id,omitempty"`
	Lines          []OrderLine       `gorm:"foreignKey:OrderID" json:"order_products,omitempty"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderLine records a product that was part of an order.
type OrderLine struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductKey string    `gorm:"column:product_key;not null;index" json:"product_key"`
	Product    *Product  `gorm:"foreignKey:ProductKey;references:Key" json:"product,omitempty"`
	Quantity   int64     `gorm:"column:quantity;not null" json:"quantity"`
}

func (OrderLine) TableName() string {
	return "order_has_products"
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
