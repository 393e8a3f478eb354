package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	Phone       *string    `json:"phone,omitempty"`
	DateOfBirth *string    `json:"date_of_birth,omitempty"`
	Role        enums.Role `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	DateOfBirth  *time.Time
	Role         enums.Role
}

// UpdateProfileInput replaces the editable profile fields. A nil or empty
// DateOfBirth clears it.
type UpdateProfileInput struct {
	FirstName   string  `json:"first_name" validate:"required,notblank,max=80"`
	LastName    string  `json:"last_name" validate:"required,notblank,max=80"`
	Phone       string  `json:"phone" validate:"required"`
	DateOfBirth *string `json:"date_of_birth"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	var dob *string
	if u.DateOfBirth != nil {
		formatted := u.DateOfBirth.Format(DateLayout)
		dob = &formatted
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		Phone:       u.Phone,
		DateOfBirth: dob,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.RoleCustomer
	}

	return &models.User{
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		FirstName:    strings.TrimSpace(c.FirstName),
		LastName:     strings.TrimSpace(c.LastName),
		Phone:        c.Phone,
		DateOfBirth:  c.DateOfBirth,
		Role:         role,
		MetadataRole: role,
	}
}
