package auth

import (
	"github.com/google/uuid"

	"github.com/yourwae/fastget-backend/internal/stores"
	"github.com/yourwae/fastget-backend/internal/users"
	"github.com/yourwae/fastget-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest creates a customer or store account. Store accounts that
// name a store and a town get the store opened in the same transaction.
type SignupRequest struct {
	Email         string              `json:"email" validate:"required,email"`
	Password      string              `json:"password" validate:"required,min=6"`
	FirstName     string              `json:"first_name" validate:"required,notblank,max=80"`
	LastName      string              `json:"last_name" validate:"max=80"`
	Phone         string              `json:"phone" validate:"required"`
	DateOfBirth   string              `json:"date_of_birth" validate:"required"`
	Role          enums.Role          `json:"role,omitempty"`
	StoreName     *string             `json:"store_name,omitempty" validate:"omitempty,max=120"`
	StoreCategory enums.StoreCategory `json:"store_category,omitempty"`
	StoreLocation *string             `json:"store_location,omitempty"`
	TownID        *uuid.UUID          `json:"town_id,omitempty"`
	Latitude      *float64            `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude     *float64            `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned by signup, login and refresh.
type AuthResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresIn    int              `json:"expires_in"`
	Role         enums.Role       `json:"role"`
	User         *users.UserDTO   `json:"user"`
	Store        *stores.StoreDTO `json:"store,omitempty"`
}

// MeResponse carries the authoritative role next to the one chosen at sign-up.
type MeResponse struct {
	User         *users.UserDTO   `json:"user"`
	Role         enums.Role       `json:"role"`
	MetadataRole enums.Role       `json:"metadata_role"`
	Store        *stores.StoreDTO `json:"store,omitempty"`
}
