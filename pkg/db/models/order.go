package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/types"
)

type Order struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber           string              `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID            uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	StoreID               uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	Subtotal              decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax                   decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	DeliveryFee           decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	DiscountApplied       decimal.Decimal     `gorm:"column:discount_applied;type:numeric(12,2);not null;default:0"`
	Total                 decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	DeliveryAddress       types.Address       `gorm:"column:delivery_address;not null"`
	Status                enums.OrderStatus   `gorm:"column:status;not null;default:'pending';index"`
	PaymentStatus         enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentMethod         enums.PaymentMethod `gorm:"column:payment_method;not null"`
	SpecialInstructions   *string             `gorm:"column:special_instructions"`
	EstimatedDeliveryTime *time.Time          `gorm:"column:estimated_delivery_time"`
	ActualDeliveryTime    *time.Time          `gorm:"column:actual_delivery_time"`
	DeliveryID            *uuid.UUID          `gorm:"column:delivery_id;type:uuid"`
	Rating                *int                `gorm:"column:rating"`
	Review                *string             `gorm:"column:review"`
	Items                 []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a cart line at placement time.
type OrderItem struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID          uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	Name               string           `gorm:"column:name;not null"`
	Price              decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity           int              `gorm:"column:quantity;not null"`
	Discount           decimal.Decimal  `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	SelectedVariations types.Variations `gorm:"column:selected_variations"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
