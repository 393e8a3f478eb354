package deliveries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
)

type TrackingUpdateDTO struct {
	Status     enums.DeliveryStatus `json:"status"`
	Latitude   *float64             `json:"latitude,omitempty"`
	Longitude  *float64             `json:"longitude,omitempty"`
	Note       *string              `json:"note,omitempty"`
	RecordedAt time.Time            `json:"recorded_at"`
}

type DeliveryDTO struct {
	ID               uuid.UUID            `json:"id"`
	OrderID          uuid.UUID            `json:"order_id"`
	PartnerID        *uuid.UUID           `json:"partner_id,omitempty"`
	PickupStoreID    uuid.UUID            `json:"pickup_store_id"`
	PickupAddress    string               `json:"pickup_address"`
	PickupLatitude   float64              `json:"pickup_latitude"`
	PickupLongitude  float64              `json:"pickup_longitude"`
	DropoffAddress   string               `json:"dropoff_address"`
	DropoffLatitude  float64              `json:"dropoff_latitude"`
	DropoffLongitude float64              `json:"dropoff_longitude"`
	DistanceKm       float64              `json:"distance_km"`
	Fee              decimal.Decimal      `json:"fee"`
	Status           enums.DeliveryStatus `json:"status"`
	OTP              string               `json:"otp,omitempty"`
	OTPVerified      bool                 `json:"otp_verified"`
	PickedUpAt       *time.Time           `json:"picked_up_at,omitempty"`
	DeliveredAt      *time.Time           `json:"delivered_at,omitempty"`
	EstimatedMinutes *int                 `json:"estimated_minutes,omitempty"`
	Rating           *int                 `json:"rating,omitempty"`
	Feedback         *string              `json:"feedback,omitempty"`
	Tracking         []TrackingUpdateDTO  `json:"tracking"`
	CreatedAt        time.Time            `json:"created_at"`
}

// StatusUpdateInput is the partner payload for POST /deliveries/{id}/status.
type StatusUpdateInput struct {
	Status    enums.DeliveryStatus `json:"status" validate:"required"`
	Latitude  *float64             `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64             `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Note      *string              `json:"note,omitempty" validate:"omitempty,max=500"`
	OTP       string               `json:"otp,omitempty"`
}

type AssignInput struct {
	PartnerID uuid.UUID `json:"partner_id" validate:"required"`
}

type RateInput struct {
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Feedback *string `json:"feedback,omitempty" validate:"omitempty,max=2000"`
}

// FromModel renders a delivery; the OTP is included only when showOTP is set.
func FromModel(m *models.Delivery, showOTP bool) *DeliveryDTO {
	if m == nil {
		return nil
	}
	tracking := make([]TrackingUpdateDTO, 0, len(m.TrackingUpdates))
	for _, u := range m.TrackingUpdates {
		tracking = append(tracking, TrackingUpdateDTO{
			Status:     u.Status,
			Latitude:   u.Latitude,
			Longitude:  u.Longitude,
			Note:       u.Note,
			RecordedAt: u.RecordedAt,
		})
	}
	dto := &DeliveryDTO{
		ID:               m.ID,
		OrderID:          m.OrderID,
		PartnerID:        m.PartnerID,
		PickupStoreID:    m.PickupStoreID,
		PickupAddress:    m.PickupAddress,
		PickupLatitude:   m.PickupLatitude,
		PickupLongitude:  m.PickupLongitude,
		DropoffAddress:   m.DropoffAddress,
		DropoffLatitude:  m.DropoffLatitude,
		DropoffLongitude: m.DropoffLongitude,
		DistanceKm:       m.DistanceKm,
		Fee:              m.Fee,
		Status:           m.Status,
		OTPVerified:      m.OTPVerified,
		PickedUpAt:       m.PickedUpAt,
		DeliveredAt:      m.DeliveredAt,
		EstimatedMinutes: m.EstimatedMinutes,
		Rating:           m.Rating,
		Feedback:         m.Feedback,
		Tracking:         tracking,
		CreatedAt:        m.CreatedAt,
	}
	if showOTP {
		dto.OTP = m.OTP
	}
	return dto
}
