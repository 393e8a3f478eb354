package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/products"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/metrics"
)

// DeliveryCreator opens the delivery record when an order becomes ready.
type DeliveryCreator interface {
	CreateForOrderWithTx(ctx context.Context, tx *gorm.DB, order *models.Order, store *models.Store) (*models.Delivery, error)
}

type storeAggregates interface {
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Store, error)
	RecordCompletedOrderWithTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error
}

// Fulfillment applies order status changes and their side effects inside a
// caller-owned transaction. Both the seller dashboard and delivery updates go
// through it.
type Fulfillment struct {
	stores     storeAggregates
	deliveries DeliveryCreator
	metrics    *metrics.CommerceMetrics
	logg       *logger.Logger
	now        func() time.Time
}

func NewFulfillment(stores storeAggregates, deliveries DeliveryCreator, m *metrics.CommerceMetrics, logg *logger.Logger) (*Fulfillment, error) {
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if deliveries == nil {
		return nil, fmt.Errorf("delivery creator required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Fulfillment{
		stores:     stores,
		deliveries: deliveries,
		metrics:    m,
		logg:       logg,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Transition moves order to status `to` on behalf of actor and persists it.
//   - ready: creates the delivery when none exists
//   - delivered: stamps the delivery time and bumps store totals
//   - cancelled: returns the reserved stock
func (f *Fulfillment) Transition(ctx context.Context, tx *gorm.DB, order *models.Order, to enums.OrderStatus, actor enums.Actor) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if !to.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order status %q", to)
	}
	if err := enums.CanTransitionOrder(order.Status, to, actor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "order status change not allowed").
			WithDetails(map[string]any{"from": order.Status, "to": to, "allowed": enums.NextOrderStatuses(order.Status)})
	}

	switch to {
	case enums.OrderStatusReady:
		if order.DeliveryID == nil {
			store, err := f.stores.FindByIDWithTx(tx, order.StoreID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
			}
			delivery, err := f.deliveries.CreateForOrderWithTx(ctx, tx, order, store)
			if err != nil {
				return err
			}
			order.DeliveryID = &delivery.ID
		}
	case enums.OrderStatusDelivered:
		now := f.now()
		order.ActualDeliveryTime = &now
		if err := f.stores.RecordCompletedOrderWithTx(tx, order.StoreID, order.Total); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store totals")
		}
	case enums.OrderStatusCancelled:
		stock := products.NewRepository(tx)
		for _, item := range order.Items {
			if err := stock.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}
	}

	from := order.Status
	order.Status = to
	if err := NewRepository(tx).Update(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	f.metrics.OrderTransitioned(string(to))
	f.logg.Info(f.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"from":     string(from),
		"to":       string(to),
		"actor":    string(actor),
	}), "order status changed")
	return nil
}
