package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/metrics"
	"github.com/yourwae/fastget-backend/pkg/security"
	"github.com/yourwae/fastget-backend/pkg/types"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
}

type orderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
}

type storeLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service records payments against orders. There is no gateway: cash on
// delivery stays pending until refunded or settled offline, every other
// method completes synchronously.
type Service interface {
	Process(ctx context.Context, p authz.Principal, orderID uuid.UUID, method enums.PaymentMethod) (*PaymentDTO, error)
	ListForOrder(ctx context.Context, p authz.Principal, orderID uuid.UUID) ([]PaymentDTO, error)
	Refund(ctx context.Context, p authz.Principal, paymentID uuid.UUID, input RefundInput) (*PaymentDTO, error)
}

type service struct {
	repo     paymentRepository
	orders   orderRepository
	stores   storeLoader
	users    userLoader
	currency string
	metrics  *metrics.CommerceMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(repo paymentRepository, orders orderRepository, stores storeLoader, users userLoader, currency string, m *metrics.CommerceMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store loader required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if strings.TrimSpace(currency) == "" {
		currency = "GHS"
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     repo,
		orders:   orders,
		stores:   stores,
		users:    users,
		currency: currency,
		metrics:  m,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Process creates the payment row for the order total.
func (s *service) Process(ctx context.Context, p authz.Principal, orderID uuid.UUID, method enums.PaymentMethod) (*PaymentDTO, error) {
	if !method.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported payment method %q", method)
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanActAsCustomer(p, order); err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
	}

	existing, err := s.repo.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	for _, prior := range existing {
		if prior.Status.BlocksRetry() {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has a payment")
		}
	}

	txnID, err := s.transactionID()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate transaction id")
	}
	status := method.InitialStatus()

	payment := &models.Payment{
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		Amount:        types.Money(order.Total),
		Currency:      s.currency,
		Method:        method,
		TransactionID: txnID,
		Status:        status,
	}
	if user, err := s.users.FindByID(ctx, order.CustomerID); err == nil {
		email := security.MaskEmail(user.Email)
		payment.MaskedEmail = &email
		if user.Phone != nil && *user.Phone != "" {
			phone := security.MaskPhone(*user.Phone)
			payment.MaskedPhone = &phone
		}
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		s.markOrder(ctx, order.ID, enums.PaymentStatusFailed)
		s.metrics.PaymentRecorded(string(method), string(enums.PaymentStatusFailed))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}
	s.markOrder(ctx, order.ID, status)
	s.metrics.PaymentRecorded(string(method), string(status))
	return FromModel(payment), nil
}

func (s *service) ListForOrder(ctx context.Context, p authz.Principal, orderID uuid.UUID) ([]PaymentDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	store, err := s.stores.FindByID(ctx, order.StoreID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if err := authz.CanViewOrder(p, order, store, nil); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	out := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Refund(ctx context.Context, p authz.Principal, paymentID uuid.UUID, input RefundInput) (*PaymentDTO, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	order, err := s.loadOrder(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	store, err := s.stores.FindByID(ctx, order.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if err := authz.CanRefund(p, store); err != nil {
		return nil, err
	}
	if !payment.Status.IsRefundable() {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot refund a %s payment", payment.Status)
	}

	amount := payment.Amount
	if input.Amount != nil {
		amount = types.MoneyFromFloat(*input.Amount)
	}
	if !amount.IsPositive() || amount.GreaterThan(payment.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive and at most the amount paid")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason is required")
	}

	payment.Status = enums.PaymentStatusRefunded
	payment.RefundAmount = &amount
	payment.RefundReason = &reason
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund payment")
	}
	s.markOrder(ctx, order.ID, enums.PaymentStatusRefunded)
	s.metrics.PaymentRecorded(string(payment.Method), string(enums.PaymentStatusRefunded))
	return FromModel(payment), nil
}

// markOrder mirrors the payment outcome onto the order; a failure is logged
// and the payment row stays authoritative.
func (s *service) markOrder(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) {
	if err := s.orders.UpdatePaymentStatus(ctx, orderID, status); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, orderID.String()), "update order payment status", err)
	}
}

func (s *service) transactionID() (string, error) {
	suffix, err := security.GenerateDigits(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TXN-%d-%s", s.now().UnixMilli(), suffix), nil
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
