package deliveries

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/fees"
	"github.com/yourwae/fastget-backend/pkg/security"
)

const (
	otpDigits           = 6
	basePrepMinutes     = 15
	minutesPerKilometre = 4
	initialTrackingNote = "Order ready for pickup"
)

// Creator opens a delivery when an order becomes ready for pickup.
type Creator struct {
	now func() time.Time
	otp func() (string, error)
}

func NewCreator() *Creator {
	return &Creator{
		now: func() time.Time { return time.Now().UTC() },
		otp: func() (string, error) { return security.GenerateDigits(otpDigits) },
	}
}

// CreateForOrderWithTx inserts the delivery and its first tracking update and
// stamps the order's estimated delivery time. The caller saves the order.
func (c *Creator) CreateForOrderWithTx(ctx context.Context, tx *gorm.DB, order *models.Order, store *models.Store) (*models.Delivery, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	otp, err := c.otp()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate delivery otp")
	}

	pickup := store.Address
	dropoff := order.DeliveryAddress
	distance := 0.0
	if pickup.HasCoordinates() && dropoff.HasCoordinates() {
		distance = fees.Distance(pickup.Latitude, pickup.Longitude, dropoff.Latitude, dropoff.Longitude)
		distance = math.Round(distance*100) / 100
	}
	estimate := EstimateMinutes(distance)

	now := c.now()
	delivery := &models.Delivery{
		OrderID:          order.ID,
		PickupStoreID:    store.ID,
		PickupLatitude:   pickup.Latitude,
		PickupLongitude:  pickup.Longitude,
		PickupAddress:    pickup.OneLine(),
		DropoffLatitude:  dropoff.Latitude,
		DropoffLongitude: dropoff.Longitude,
		DropoffAddress:   dropoff.OneLine(),
		DistanceKm:       distance,
		Fee:              order.DeliveryFee,
		Status:           enums.DeliveryStatusAssigned,
		OTP:              otp,
		EstimatedMinutes: &estimate,
	}
	repo := NewRepository(tx)
	if err := repo.Create(ctx, delivery); err != nil {
		return nil, db.AsAppError(err, "create delivery")
	}

	note := initialTrackingNote
	first := &models.DeliveryTrackingUpdate{
		DeliveryID: delivery.ID,
		Status:     enums.DeliveryStatusAssigned,
		Note:       &note,
		RecordedAt: now,
	}
	if err := repo.AddTrackingUpdate(ctx, first); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record tracking update")
	}
	delivery.TrackingUpdates = []models.DeliveryTrackingUpdate{*first}

	eta := now.Add(time.Duration(estimate) * time.Minute)
	order.EstimatedDeliveryTime = &eta
	return delivery, nil
}

// EstimateMinutes is a flat pickup allowance plus travel time.
func EstimateMinutes(distanceKm float64) int {
	if distanceKm < 0 {
		distanceKm = 0
	}
	return basePrepMinutes + int(math.Ceil(distanceKm*minutesPerKilometre))
}
