package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей. Роль назначается при регистрации и далее не меняется.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// User представляет пользователя в системе
type User struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Role       string    `json:"role"` // buyer, seller
	IsVerified bool      `json:"is_verified"`
	Rating     float64   `json:"rating"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PublicUser представляет минимальную информацию о пользователе для API
type PublicUser struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role,omitempty"`
	IsVerified bool      `json:"is_verified"`
	Rating     float64   `json:"rating"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
}
