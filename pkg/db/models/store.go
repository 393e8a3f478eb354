package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/types"
)

// Store is a storefront owned by a store-role user in one town.
type Store struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID          uuid.UUID            `gorm:"column:owner_id;type:uuid;not null;index"`
	TownID           uuid.UUID            `gorm:"column:town_id;type:uuid;not null;index"`
	Name             string               `gorm:"column:name;not null"`
	Description      *string              `gorm:"column:description"`
	ImageURL         *string              `gorm:"column:image_url"`
	BannerURL        *string              `gorm:"column:banner_url"`
	Category         enums.StoreCategory  `gorm:"column:category;not null;default:'other'"`
	Address          types.Address        `gorm:"column:address;not null"`
	Phone            *string              `gorm:"column:phone"`
	Email            *string              `gorm:"column:email"`
	OperatingHours   types.OperatingHours `gorm:"column:operating_hours"`
	DeliveryRadiusKm float64              `gorm:"column:delivery_radius_km;not null;default:5"`
	BaseDeliveryFee  decimal.Decimal      `gorm:"column:base_delivery_fee;type:numeric(12,2);not null;default:5"`
	PerKmFee         decimal.Decimal      `gorm:"column:per_km_fee;type:numeric(12,2);not null;default:2"`
	MinOrderValue    decimal.Decimal      `gorm:"column:min_order_value;type:numeric(12,2);not null;default:0"`
	IsVerified       bool                 `gorm:"column:is_verified;not null;default:false"`
	IsActive         bool                 `gorm:"column:is_active;not null;default:true"`
	Rating           float64              `gorm:"column:rating;not null;default:0"`
	ReviewCount      int                  `gorm:"column:review_count;not null;default:0"`
	TotalOrders      int                  `gorm:"column:total_orders;not null;default:0"`
	TotalRevenue     decimal.Decimal      `gorm:"column:total_revenue;type:numeric(14,2);not null;default:0"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
