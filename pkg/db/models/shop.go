package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shop is a retail customer visited on routes.
type Shop struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Address        string    `gorm:"column:address;not null" json:"address"`
	PhoneNumber    string    `gorm:"column:phone_number;not null" json:"phone_number"`
	WhatsappNumber *string   `gorm:"column:whatsapp_number" json:"whatsapp_number,omitempty"`
	Lat            *float64  `gorm:"column:lat" json:"lat,omitempty"`
	Long           *float64  `gorm:"column:long" json:"long,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (s *Shop) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
