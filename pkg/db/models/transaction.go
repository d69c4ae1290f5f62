package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/enums"
)

// Transaction is an immutable record of money received or paid back.
type Transaction struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID       uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ShopID        uuid.UUID             `gorm:"column:shop_id;type:uuid;not null;index" json:"shop_id"`
	Shop          *Shop                 `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
	Amount        decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	DateCreated   time.Time             `gorm:"column:date_created;not null" json:"date_created"`
	DatePaid      *time.Time            `gorm:"column:date_paid" json:"date_paid,omitempty"`
	PaymentMethod enums.PaymentMethod   `gorm:"column:payment_method;not null" json:"payment_method"`
	Type          enums.TransactionType `gorm:"column:type;not null" json:"type"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
