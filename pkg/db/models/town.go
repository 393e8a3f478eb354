package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Town struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name        string          `gorm:"column:name;not null;uniqueIndex"`
	Slug        string          `gorm:"column:slug;not null;uniqueIndex"`
	Description *string         `gorm:"column:description"`
	Latitude    float64         `gorm:"column:latitude;not null;default:0"`
	Longitude   float64         `gorm:"column:longitude;not null;default:0"`
	DeliveryFee decimal.Decimal `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
