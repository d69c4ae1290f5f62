package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID        `json:"id"`
	Email       string           `json:"email"`
	Name        string           `json:"name"`
	Phone       *string          `json:"phone,omitempty"`
	Whatsapp    *string          `json:"whatsapp,omitempty"`
	Address     *string          `json:"address,omitempty"`
	Title       *string          `json:"title,omitempty"`
	Role        enums.Role       `json:"role"`
	Status      enums.UserStatus `json:"status"`
	LastLoginAt *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// FromModel strips the password hash.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		Whatsapp:    u.Whatsapp,
		Address:     u.Address,
		Title:       u.Title,
		Role:        u.Role,
		Status:      u.Status,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// Profile holds the optional contact fields shared by create and update.
type Profile struct {
	Phone    *string
	Whatsapp *string
	Address  *string
	Title    *string
}

// CreateInput carries a new account.
type CreateInput struct {
	Email    string
	Name     string
	Role     string
	Status   string
	Password string
	Profile
}

// UpdateInput carries account changes for the user addressed by email.
// Email renames the account when set; Password is only changed when non-empty.
type UpdateInput struct {
	Email    string
	Name     string
	Role     string
	Status   string
	Password string
	Profile
}

// DeleteResult tells the caller whether it removed its own account.
type DeleteResult struct {
	LogoutNeeded bool `json:"logoutNeeded"`
}
