package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch is one received lot of a product.
type Batch struct {
	BatchID           int64           `gorm:"column:batch_id;primaryKey;autoIncrement" json:"batch_id"`
	ProductKey        string          `gorm:"column:product_key;not null;index" json:"product_key"`
	Product           *Product        `gorm:"foreignKey:ProductKey;references:Key" json:"product,omitempty"`
	UOM               int             `gorm:"column:uom;not null" json:"uom"`
	Packs             int             `gorm:"column:packs;not null" json:"packs"`
	Loose             int             `gorm:"column:loose;not null" json:"loose"`
	MFD               time.Time       `gorm:"column:mfd;not null" json:"mfd"`
	EXP               time.Time       `gorm:"column:exp;not null" json:"exp"`
	Cost              decimal.Decimal `gorm:"column:cost;type:numeric(12,2);not null" json:"cost"`
	LabeledPrice      decimal.Decimal `gorm:"column:labeled_price;type:numeric(12,2);not null" json:"labeled_price"`
	PurchaseInvoiceID string          `gorm:"column:purchase_invoice_id;not null" json:"purchase_invoice_id"`
	AddedBy           string          `gorm:"column:added_by;not null" json:"added_by"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TotalQuantity is the unit count the batch contributes to stock.
func (b Batch) TotalQuantity() int64 {
	return int64(b.UOM)*int64(b.Packs) + int64(b.Loose)
}
