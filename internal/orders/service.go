package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListActiveByStore(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus, limit int) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	CountActiveByStore(ctx context.Context, storeID uuid.UUID) (int64, error)
	DeliveredSales(ctx context.Context, storeID uuid.UUID) (decimal.Decimal, error)
}

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error)
}

type deliveryLookup interface {
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error)
}

type productCounter interface {
	CountActiveByStore(ctx context.Context, storeID uuid.UUID) (int64, error)
}

// Service covers the customer order history and the seller dashboard.
type Service interface {
	ListMine(ctx context.Context, p authz.Principal, page pagination.Params) (pagination.Page[OrderDTO], error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, p authz.Principal, id uuid.UUID) (*OrderDTO, error)
	Rate(ctx context.Context, p authz.Principal, id uuid.UUID, input RateInput) (*OrderDTO, error)

	SellerOrders(ctx context.Context, p authz.Principal, status *enums.OrderStatus, limit int) ([]OrderDTO, error)
	UpdateStatus(ctx context.Context, p authz.Principal, id uuid.UUID, to enums.OrderStatus) (*OrderDTO, error)
	SellerStats(ctx context.Context, p authz.Principal) (*StatsDTO, error)
}

type service struct {
	repo        orderRepository
	tx          txRunner
	stores      storeLookup
	deliveries  deliveryLookup
	products    productCounter
	fulfillment *Fulfillment
}

func NewService(repo orderRepository, tx txRunner, stores storeLookup, deliveries deliveryLookup, products productCounter, fulfillment *Fulfillment) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if deliveries == nil {
		return nil, fmt.Errorf("delivery lookup required")
	}
	if products == nil {
		return nil, fmt.Errorf("product counter required")
	}
	if fulfillment == nil {
		return nil, fmt.Errorf("fulfillment required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		stores:      stores,
		deliveries:  deliveries,
		products:    products,
		fulfillment: fulfillment,
	}, nil
}

func (s *service) ListMine(ctx context.Context, p authz.Principal, page pagination.Params) (pagination.Page[OrderDTO], error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return pagination.Page[OrderDTO]{}, err
	}
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByCustomer(ctx, p.UserID, cursor, page.Limit)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	kept := pagination.Trim(rows, page.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	rows = kept.Items

	names := map[uuid.UUID]string{}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		order := &rows[i]
		name, ok := names[order.StoreID]
		if !ok {
			if store, err := s.stores.FindByID(ctx, order.StoreID); err == nil {
				name = store.Name
			}
			names[order.StoreID] = name
		}
		out = append(out, *FromModel(order, name, s.deliveryOf(ctx, order)))
	}
	return pagination.Page[OrderDTO]{Items: out, NextCursor: kept.NextCursor}, nil
}

func (s *service) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	store, err := s.stores.FindByID(ctx, order.StoreID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	delivery := s.deliveryOf(ctx, order)
	if err := authz.CanViewOrder(p, order, store, delivery); err != nil {
		return nil, err
	}
	name := ""
	if store != nil {
		name = store.Name
	}
	return FromModel(order, name, delivery), nil
}

// Cancel lets the ordering customer withdraw a pending order.
func (s *service) Cancel(ctx context.Context, p authz.Principal, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanActAsCustomer(p, order); err != nil {
		return nil, err
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.fulfillment.Transition(ctx, tx, order, enums.OrderStatusCancelled, enums.ActorCustomer)
	}); err != nil {
		return nil, err
	}
	return FromModel(order, "", nil), nil
}

func (s *service) Rate(ctx context.Context, p authz.Principal, id uuid.UUID, input RateInput) (*OrderDTO, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanActAsCustomer(p, order); err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be rated")
	}
	if order.Rating != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already rated")
	}

	rating := input.Rating
	order.Rating = &rating
	order.Review = input.Review
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate order")
	}
	return FromModel(order, "", nil), nil
}

func (s *service) SellerOrders(ctx context.Context, p authz.Principal, status *enums.OrderStatus, limit int) ([]OrderDTO, error) {
	store, err := s.ownStore(ctx, p)
	if err != nil {
		return nil, err
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order status %q", *status)
	}
	rows, err := s.repo.ListActiveByStore(ctx, store.ID, status, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i], store.Name, s.deliveryOf(ctx, &rows[i])))
	}
	return out, nil
}

// UpdateStatus advances an order of the caller's store; admins may act on any store.
func (s *service) UpdateStatus(ctx context.Context, p authz.Principal, id uuid.UUID, to enums.OrderStatus) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	store, err := s.stores.FindByID(ctx, order.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if err := authz.CanManageStore(p, store); err != nil {
		return nil, err
	}

	actor := enums.ActorStore
	if p.IsAdmin() {
		actor = enums.ActorAdmin
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.fulfillment.Transition(ctx, tx, order, to, actor)
	}); err != nil {
		return nil, err
	}
	return FromModel(order, store.Name, s.deliveryOf(ctx, order)), nil
}

func (s *service) SellerStats(ctx context.Context, p authz.Principal) (*StatsDTO, error) {
	store, err := s.ownStore(ctx, p)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.CountActiveByStore(ctx, store.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	productCount, err := s.products.CountActiveByStore(ctx, store.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	sales, err := s.repo.DeliveredSales(ctx, store.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum sales")
	}
	return &StatsDTO{
		ActiveOrders: active,
		Products:     productCount,
		Sales:        sales.Round(2),
		TotalOrders:  store.TotalOrders,
	}, nil
}

func (s *service) ownStore(ctx context.Context, p authz.Principal) (*models.Store, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	store, err := s.stores.FindActiveByOwner(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no store found for this account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) deliveryOf(ctx context.Context, order *models.Order) *models.Delivery {
	if order.DeliveryID == nil {
		return nil
	}
	delivery, err := s.deliveries.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil
	}
	return delivery
}
