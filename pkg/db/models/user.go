package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/yourwae/fastget-backend/pkg/enums"
)

// User is an account. MetadataRole keeps the role picked at sign-up so a
// client can render optimistically before the authoritative role loads.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Email        string     `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	FirstName    string     `gorm:"column:first_name;not null"`
	LastName     string     `gorm:"column:last_name;not null"`
	Phone        *string    `gorm:"column:phone"`
	DateOfBirth  *time.Time `gorm:"column:date_of_birth;type:date"`
	Role         enums.Role `gorm:"column:role;not null;default:'customer'"`
	MetadataRole enums.Role `gorm:"column:metadata_role;not null;default:'customer'"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
