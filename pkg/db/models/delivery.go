package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/enums"
)

type Delivery struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID                `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	PartnerID        *uuid.UUID               `gorm:"column:partner_id;type:uuid;index"`
	PickupStoreID    uuid.UUID                `gorm:"column:pickup_store_id;type:uuid;not null"`
	PickupLatitude   float64                  `gorm:"column:pickup_latitude;not null;default:0"`
	PickupLongitude  float64                  `gorm:"column:pickup_longitude;not null;default:0"`
	PickupAddress    string                   `gorm:"column:pickup_address;not null;default:''"`
	DropoffLatitude  float64                  `gorm:"column:dropoff_latitude;not null;default:0"`
	DropoffLongitude float64                  `gorm:"column:dropoff_longitude;not null;default:0"`
	DropoffAddress   string                   `gorm:"column:dropoff_address;not null;default:''"`
	DistanceKm       float64                  `gorm:"column:distance_km;not null;default:0"`
	Fee              decimal.Decimal          `gorm:"column:fee;type:numeric(12,2);not null;default:0"`
	Status           enums.DeliveryStatus     `gorm:"column:status;not null;default:'assigned'"`
	OTP              string                   `gorm:"column:otp;not null"`
	OTPVerified      bool                     `gorm:"column:otp_verified;not null;default:false"`
	PickedUpAt       *time.Time               `gorm:"column:picked_up_at"`
	DeliveredAt      *time.Time               `gorm:"column:delivered_at"`
	EstimatedMinutes *int                     `gorm:"column:estimated_minutes"`
	Rating           *int                     `gorm:"column:rating"`
	Feedback         *string                  `gorm:"column:feedback"`
	TrackingUpdates  []DeliveryTrackingUpdate `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// DeliveryTrackingUpdate is append-only.
type DeliveryTrackingUpdate struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DeliveryID uuid.UUID            `gorm:"column:delivery_id;type:uuid;not null;index"`
	Status     enums.DeliveryStatus `gorm:"column:status;not null"`
	Latitude   *float64             `gorm:"column:latitude"`
	Longitude  *float64             `gorm:"column:longitude"`
	Note       *string              `gorm:"column:note"`
	RecordedAt time.Time            `gorm:"column:recorded_at;not null"`
}
