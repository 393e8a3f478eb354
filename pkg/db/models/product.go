package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/types"
)

type Product struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	StoreID        uuid.UUID              `gorm:"column:store_id;type:uuid;not null;index"`
	Name           string                 `gorm:"column:name;not null"`
	Description    *string                `gorm:"column:description"`
	Price          decimal.Decimal        `gorm:"column:price;type:numeric(12,2);not null"`
	OriginalPrice  *decimal.Decimal       `gorm:"column:original_price;type:numeric(12,2)"`
	Discount       decimal.Decimal        `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Stock          int                    `gorm:"column:stock;not null;default:0"`
	Category       *string                `gorm:"column:category"`
	SKU            *string                `gorm:"column:sku;uniqueIndex"`
	ImageURL       *string                `gorm:"column:image_url"`
	Tags           types.StringList       `gorm:"column:tags"`
	Specifications types.Specifications   `gorm:"column:specifications"`
	Variations     types.VariationOptions `gorm:"column:variations"`
	Rating         float64                `gorm:"column:rating;not null;default:0"`
	ReviewCount    int                    `gorm:"column:review_count;not null;default:0"`
	IsActive       bool                   `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
