package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Route is an ordered list of shops visited together.
type Route struct {
	ID         uuid.UUID   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name       string      `gorm:"column:name;not null" json:"name"`
	RouteShops []RouteShop `gorm:"foreignKey:RouteID" json:"route_shops,omitempty"`
	CreatedAt  time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (r *Route) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// RouteShop places a shop at a position on a route.
type RouteShop struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RouteID       uuid.UUID `gorm:"column:route_id;type:uuid;not null;index" json:"route_id"`
	ShopID        uuid.UUID `gorm:"column:shop_id;type:uuid;not null" json:"shop_id"`
	Shop          *Shop     `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
	SequenceOrder int       `gorm:"column:sequence_order;not null" json:"sequence_order"`
}

func (r *RouteShop) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
