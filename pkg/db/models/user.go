package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/enums"
)

// User is an operator of the system, identified by email.
type User struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Email        string           `gorm:"column:email;not null;uniqueIndex"`
	Name         string           `gorm:"column:name;not null"`
	Phone        *string          `gorm:"column:phone"`
	Whatsapp     *string          `gorm:"column:whatsapp"`
	Address      *string          `gorm:"column:address"`
	Title        *string          `gorm:"column:title"`
	Role         enums.Role       `gorm:"column:role;not null"`
	Status       enums.UserStatus `gorm:"column:status;not null;default:active"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
