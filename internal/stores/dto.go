package stores

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/types"
)

// StoreDTO is the public storefront shape.
type StoreDTO struct {
	ID               uuid.UUID            `json:"id"`
	OwnerID          uuid.UUID            `json:"owner_id"`
	TownID           uuid.UUID            `json:"town_id"`
	Name             string               `json:"name"`
	Description      *string              `json:"description,omitempty"`
	ImageURL         *string              `json:"image_url,omitempty"`
	BannerURL        *string              `json:"banner_url,omitempty"`
	Category         enums.StoreCategory  `json:"category"`
	Address          types.Address        `json:"address"`
	Phone            *string              `json:"phone,omitempty"`
	Email            *string              `json:"email,omitempty"`
	OperatingHours   types.OperatingHours `json:"operating_hours,omitempty"`
	IsOpen           bool                 `json:"is_open"`
	DeliveryRadiusKm float64              `json:"delivery_radius_km"`
	BaseDeliveryFee  decimal.Decimal      `json:"base_delivery_fee"`
	PerKmFee         decimal.Decimal      `json:"per_km_fee"`
	MinOrderValue    decimal.Decimal      `json:"min_order_value"`
	IsVerified       bool                 `json:"is_verified"`
	IsActive         bool                 `json:"is_active"`
	Rating           float64              `json:"rating"`
	ReviewCount      int                  `json:"review_count"`
	TotalOrders      int                  `json:"total_orders"`
	TotalRevenue     decimal.Decimal      `json:"total_revenue"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// CreateStoreDTO holds creation-time data for a new store.
type CreateStoreDTO struct {
	OwnerID          uuid.UUID
	TownID           uuid.UUID
	Name             string
	Description      *string
	ImageURL         *string
	BannerURL        *string
	Category         enums.StoreCategory
	Address          types.Address
	Phone            *string
	Email            *string
	OperatingHours   types.OperatingHours
	DeliveryRadiusKm *float64
	BaseDeliveryFee  *float64
	PerKmFee         *float64
	MinOrderValue    *float64
}

// CreateStoreInput is the request payload for POST /api/stores.
type CreateStoreInput struct {
	OwnerID          *uuid.UUID           `json:"owner_id,omitempty"`
	TownID           uuid.UUID            `json:"town_id" validate:"required"`
	Name             string               `json:"name" validate:"required,notblank,max=120"`
	Description      *string              `json:"description,omitempty"`
	ImageURL         *string              `json:"image_url,omitempty" validate:"omitempty,url"`
	BannerURL        *string              `json:"banner_url,omitempty" validate:"omitempty,url"`
	Category         enums.StoreCategory  `json:"category"`
	Address          types.Address        `json:"address"`
	Phone            *string              `json:"phone,omitempty"`
	Email            *string              `json:"email,omitempty" validate:"omitempty,email"`
	OperatingHours   types.OperatingHours `json:"operating_hours,omitempty"`
	DeliveryRadiusKm *float64             `json:"delivery_radius_km,omitempty" validate:"omitempty,gt=0"`
	BaseDeliveryFee  *float64             `json:"base_delivery_fee,omitempty" validate:"omitempty,gte=0"`
	PerKmFee         *float64             `json:"per_km_fee,omitempty" validate:"omitempty,gte=0"`
	MinOrderValue    *float64             `json:"min_order_value,omitempty" validate:"omitempty,gte=0"`
}

// UpdateStoreInput captures the allowed store fields for mutation.
type UpdateStoreInput struct {
	Name             *string               `json:"name,omitempty" validate:"omitempty,max=120"`
	Description      *string               `json:"description,omitempty"`
	ImageURL         *string               `json:"image_url,omitempty"`
	BannerURL        *string               `json:"banner_url,omitempty"`
	Category         *enums.StoreCategory  `json:"category,omitempty"`
	Address          *types.Address        `json:"address,omitempty"`
	Phone            *string               `json:"phone,omitempty"`
	Email            *string               `json:"email,omitempty" validate:"omitempty,email"`
	OperatingHours   *types.OperatingHours `json:"operating_hours,omitempty"`
	DeliveryRadiusKm *float64              `json:"delivery_radius_km,omitempty" validate:"omitempty,gt=0"`
	BaseDeliveryFee  *float64              `json:"base_delivery_fee,omitempty" validate:"omitempty,gte=0"`
	PerKmFee         *float64              `json:"per_km_fee,omitempty" validate:"omitempty,gte=0"`
	MinOrderValue    *float64              `json:"min_order_value,omitempty" validate:"omitempty,gte=0"`
	IsActive         *bool                 `json:"is_active,omitempty"`
	IsVerified       *bool                 `json:"is_verified,omitempty"`
}

// ListFilter narrows the public store listing.
type ListFilter struct {
	TownID   *uuid.UUID
	Category *enums.StoreCategory
	Verified *bool
	Limit    int
}

// FromModel maps the persisted store into a DTO. now decides is_open.
func FromModel(m *models.Store, now time.Time) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		TownID:           m.TownID,
		Name:             m.Name,
		Description:      m.Description,
		ImageURL:         m.ImageURL,
		BannerURL:        m.BannerURL,
		Category:         m.Category,
		Address:          m.Address,
		Phone:            m.Phone,
		Email:            m.Email,
		OperatingHours:   m.OperatingHours,
		IsOpen:           m.IsActive && m.OperatingHours.IsOpen(now),
		DeliveryRadiusKm: m.DeliveryRadiusKm,
		BaseDeliveryFee:  m.BaseDeliveryFee,
		PerKmFee:         m.PerKmFee,
		MinOrderValue:    m.MinOrderValue,
		IsVerified:       m.IsVerified,
		IsActive:         m.IsActive,
		Rating:           m.Rating,
		ReviewCount:      m.ReviewCount,
		TotalOrders:      m.TotalOrders,
		TotalRevenue:     m.TotalRevenue,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// ToModel applies the documented defaults: radius 5 km, base fee 5, per-km 2, minimum order 0.
func (c CreateStoreDTO) ToModel() *models.Store {
	category := c.Category
	if !category.IsValid() {
		category = enums.StoreCategoryOther
	}
	return &models.Store{
		OwnerID:          c.OwnerID,
		TownID:           c.TownID,
		Name:             c.Name,
		Description:      c.Description,
		ImageURL:         c.ImageURL,
		BannerURL:        c.BannerURL,
		Category:         category,
		Address:          c.Address.Normalized(),
		Phone:            c.Phone,
		Email:            c.Email,
		OperatingHours:   c.OperatingHours,
		DeliveryRadiusKm: floatOr(c.DeliveryRadiusKm, 5),
		BaseDeliveryFee:  types.MoneyFromFloat(floatOr(c.BaseDeliveryFee, 5)),
		PerKmFee:         types.MoneyFromFloat(floatOr(c.PerKmFee, 2)),
		MinOrderValue:    types.MoneyFromFloat(floatOr(c.MinOrderValue, 0)),
		IsActive:         true,
		TotalRevenue:     decimal.Zero,
	}
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
