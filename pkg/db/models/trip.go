package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trip assigns a route to a staff member for a day. Completion and
// verification are independent flags.
type Trip struct {
	ID          uuid.UUID   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RouteID     uuid.UUID   `gorm:"column:route_id;type:uuid;not null;index" json:"route_id"`
	Route       *Route      `gorm:"foreignKey:RouteID" json:"route,omitempty"`
	AssignedTo  string      `gorm:"column:assigned_to;not null;index" json:"assigned_to"`
	TripDate    time.Time   `gorm:"column:trip_date;not null" json:"trip_date"`
	IsVerified  bool        `gorm:"column:is_verified;not null;default:false" json:"is_verified"`
	IsCompleted bool        `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	VerifiedBy  *string     `gorm:"column:verified_by" json:"verified_by"`
	TripOrders  []TripOrder `gorm:"foreignKey:TripID" json:"trip_orders,omitempty"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (t *Trip) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// TripOrder links an order into the trip during which it was taken.
type TripOrder struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TripID        uuid.UUID  `gorm:"column:trip_id;type:uuid;not null;index" json:"trip_id"`
	OrderID       uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Order         *Order     `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	RouteID       *uuid.UUID `gorm:"column:route_id;type:uuid" json:"route_id,omitempty"`
	ShopID        *uuid.UUID `gorm:"column:shop_id;type:uuid" json:"shop_id,omitempty"`
	SequenceOrder int        `gorm:"column:sequence_order;not null" json:"sequence_order"`
	IsVisited     bool       `gorm:"column:is_visited;not null;default:false" json:"is_visited"`
	VisitedAt     *time.Time `gorm:"column:visited_at" json:"visited_at,omitempty"`
}

func (TripOrder) TableName() string {
	return "trip_has_orders"
}

func (t *TripOrder) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
