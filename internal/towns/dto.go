package towns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/db/models"
)

type TownDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description *string         `json:"description,omitempty"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateTownInput is the admin payload for a new town.
type CreateTownInput struct {
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description,omitempty"`
	Latitude    float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64  `json:"longitude" validate:"gte=-180,lte=180"`
	DeliveryFee *float64 `json:"delivery_fee,omitempty" validate:"omitempty,gte=0"`
}

// UpdateTownInput carries optional admin edits.
type UpdateTownInput struct {
	Description *string  `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	DeliveryFee *float64 `json:"delivery_fee,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

func FromModel(m *models.Town) *TownDTO {
	if m == nil {
		return nil
	}
	return &TownDTO{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		Latitude:    m.Latitude,
		Longitude:   m.Longitude,
		DeliveryFee: m.DeliveryFee,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
	}
}
