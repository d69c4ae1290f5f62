package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/beveragedistro/ops-backend/pkg/enums"
)

// Product is a sellable item keyed by its catalog code. Stock is only mutated
// through the stock ledger.
type Product struct {
	Key                 string              `gorm:"column:key;primaryKey" json:"key"`
	Name                string              `gorm:"column:name;not null" json:"name"`
	UOM                 int                 `gorm:"column:uom;not null;default:1" json:"uom"`
	Stock               int64               `gorm:"column:stock;not null;default:0" json:"stock"`
	DefaultLabeledPrice decimal.Decimal     `gorm:"column:default_labeled_price;type:numeric(12,2);not null;default:0" json:"default_labeled_price"`
	DefaultCost         decimal.Decimal     `gorm:"column:default_cost;type:numeric(12,2);not null;default:0" json:"default_cost"`
	Status              enums.ProductStatus `gorm:"column:status;not null;default:active" json:"status"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
