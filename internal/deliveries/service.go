package deliveries

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/internal/orders"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type deliveryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error)
	ListForPartner(ctx context.Context, partnerID uuid.UUID, activeOnly bool, limit int) ([]models.Delivery, error)
	Update(ctx context.Context, delivery *models.Delivery) error
}

type orderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type storeLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service exposes tracking, partner status updates, assignment and rating.
type Service interface {
	GetByOrder(ctx context.Context, p authz.Principal, orderID uuid.UUID) (*DeliveryDTO, error)
	ListForPartner(ctx context.Context, p authz.Principal, activeOnly bool, limit int) ([]DeliveryDTO, error)
	Assign(ctx context.Context, p authz.Principal, deliveryID, partnerID uuid.UUID) (*DeliveryDTO, error)
	UpdateStatus(ctx context.Context, p authz.Principal, deliveryID uuid.UUID, input StatusUpdateInput) (*DeliveryDTO, error)
	Rate(ctx context.Context, p authz.Principal, orderID uuid.UUID, input RateInput) (*DeliveryDTO, error)
}

type Deps struct {
	Repo        deliveryRepository
	Tx          txRunner
	Orders      orderLoader
	Stores      storeLoader
	Users       userLoader
	Fulfillment *orders.Fulfillment
	Metrics     *metrics.CommerceMetrics
	Logger      *logger.Logger
}

type service struct {
	repo        deliveryRepository
	tx          txRunner
	orders      orderLoader
	stores      storeLoader
	users       userLoader
	fulfillment *orders.Fulfillment
	metrics     *metrics.CommerceMetrics
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("delivery repository required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("order loader required")
	case deps.Stores == nil:
		return nil, fmt.Errorf("store loader required")
	case deps.Users == nil:
		return nil, fmt.Errorf("user loader required")
	case deps.Fulfillment == nil:
		return nil, fmt.Errorf("fulfillment required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:        deps.Repo,
		tx:          deps.Tx,
		orders:      deps.Orders,
		stores:      deps.Stores,
		users:       deps.Users,
		fulfillment: deps.Fulfillment,
		metrics:     deps.Metrics,
		logg:        logg,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// GetByOrder returns tracking for an order. Only the ordering customer sees
// the OTP, which they read out to the partner at hand-over.
func (s *service) GetByOrder(ctx context.Context, p authz.Principal, orderID uuid.UUID) (*DeliveryDTO, error) {
	order, delivery, err := s.loadForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	store, err := s.stores.FindByID(ctx, order.StoreID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if err := authz.CanViewOrder(p, order, store, delivery); err != nil {
		return nil, err
	}
	return FromModel(delivery, order.CustomerID == p.UserID), nil
}

func (s *service) ListForPartner(ctx context.Context, p authz.Principal, activeOnly bool, limit int) ([]DeliveryDTO, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListForPartner(ctx, p.UserID, activeOnly, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deliveries")
	}
	out := make([]DeliveryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i], false))
	}
	return out, nil
}

func (s *service) Assign(ctx context.Context, p authz.Principal, deliveryID, partnerID uuid.UUID) (*DeliveryDTO, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return nil, err
	}
	delivery, err := s.load(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if delivery.Status.IsTerminal() {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "delivery is already %s", delivery.Status)
	}

	partner, err := s.users.FindByID(ctx, partnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery partner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner")
	}
	if partner.Role != enums.RoleDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is not a delivery partner")
	}

	delivery.PartnerID = &partner.ID
	if err := s.repo.Update(ctx, delivery); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign delivery")
	}
	return FromModel(delivery, false), nil
}

// UpdateStatus records a partner status change. Pickup moves the order out
// for delivery and a delivered hand-over, which needs the OTP, completes it.
func (s *service) UpdateStatus(ctx context.Context, p authz.Principal, deliveryID uuid.UUID, input StatusUpdateInput) (*DeliveryDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown delivery status %q", input.Status)
	}
	delivery, err := s.load(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanUpdateDelivery(p, delivery); err != nil {
		return nil, err
	}
	if err := enums.CanTransitionDelivery(delivery.Status, input.Status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "delivery status change not allowed")
	}
	if input.Status == enums.DeliveryStatusDelivered {
		given := strings.TrimSpace(input.OTP)
		if given == "" || subtle.ConstantTimeCompare([]byte(given), []byte(delivery.OTP)) != 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery otp")
		}
		delivery.OTPVerified = true
	}

	now := s.now()
	switch input.Status {
	case enums.DeliveryStatusPickedUp:
		delivery.PickedUpAt = &now
	case enums.DeliveryStatusDelivered:
		delivery.DeliveredAt = &now
	}
	delivery.Status = input.Status

	update := models.DeliveryTrackingUpdate{
		DeliveryID: delivery.ID,
		Status:     input.Status,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		Note:       input.Note,
		RecordedAt: now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.Update(ctx, delivery); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery")
		}
		if err := repo.AddTrackingUpdate(ctx, &update); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record tracking update")
		}
		return s.syncOrder(ctx, tx, delivery)
	})
	if err != nil {
		return nil, err
	}

	delivery.TrackingUpdates = append(delivery.TrackingUpdates, update)
	s.metrics.DeliveryUpdated(string(input.Status))
	return FromModel(delivery, false), nil
}

func (s *service) syncOrder(ctx context.Context, tx *gorm.DB, delivery *models.Delivery) error {
	var target enums.OrderStatus
	switch delivery.Status {
	case enums.DeliveryStatusPickedUp:
		target = enums.OrderStatusOutForDelivery
	case enums.DeliveryStatusDelivered:
		target = enums.OrderStatusDelivered
	default:
		return nil
	}

	order, err := orders.NewRepository(tx).FindByID(ctx, delivery.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status == target || order.Status.IsTerminal() {
		return nil
	}
	if target == enums.OrderStatusOutForDelivery && order.Status != enums.OrderStatusReady {
		return nil
	}
	// A partner who skipped the pickup update still completes the order.
	if target == enums.OrderStatusDelivered && order.Status == enums.OrderStatusReady {
		if err := s.fulfillment.Transition(ctx, tx, order, enums.OrderStatusOutForDelivery, enums.ActorSystem); err != nil {
			return err
		}
	}
	return s.fulfillment.Transition(ctx, tx, order, target, enums.ActorSystem)
}

// Rate stores the customer's rating of a completed delivery. It is the only
// change allowed on a terminal delivery.
func (s *service) Rate(ctx context.Context, p authz.Principal, orderID uuid.UUID, input RateInput) (*DeliveryDTO, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	order, delivery, err := s.loadForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanActAsCustomer(p, order); err != nil {
		return nil, err
	}
	if delivery.Status != enums.DeliveryStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only completed deliveries can be rated")
	}
	if delivery.Rating != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "delivery already rated")
	}

	rating := input.Rating
	delivery.Rating = &rating
	delivery.Feedback = input.Feedback
	if err := s.repo.Update(ctx, delivery); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate delivery")
	}
	return FromModel(delivery, true), nil
}

func (s *service) loadForOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, *models.Delivery, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	delivery, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not created yet")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}
	return order, delivery, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	delivery, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}
	return delivery, nil
}
