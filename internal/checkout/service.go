package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/internal/cart"
	"github.com/yourwae/fastget-backend/internal/orders"
	"github.com/yourwae/fastget-backend/internal/payments"
	"github.com/yourwae/fastget-backend/internal/products"
	"github.com/yourwae/fastget-backend/pkg/config"
	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/fees"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/metrics"
	"github.com/yourwae/fastget-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartLines interface {
	Lines(ctx context.Context, userID uuid.UUID) ([]cart.Line, error)
	DeleteLines(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
}

type storeLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type townLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Town, error)
}

type paymentProcessor interface {
	Process(ctx context.Context, p authz.Principal, orderID uuid.UUID, method enums.PaymentMethod) (*payments.PaymentDTO, error)
}

// QuoteCache keeps the latest totals snapshot per user and store.
type QuoteCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	QuoteKey(userID, storeID string) string
}

// Service turns a cart into an order.
type Service interface {
	Quote(ctx context.Context, p authz.Principal, input QuoteInput) (*QuoteDTO, error)
	PlaceOrder(ctx context.Context, p authz.Principal, input PlaceOrderInput) (*PlaceOrderResult, error)
	EstimateFee(ctx context.Context, input FeeEstimateInput) (*FeeEstimateDTO, error)
}

type Deps struct {
	Tx         txRunner
	Cart       cartLines
	Stores     storeLoader
	Towns      townLoader
	Payments   paymentProcessor
	Calculator *fees.Calculator
	Cache      QuoteCache
	Delivery   config.DeliveryConfig
	Checkout   config.CheckoutConfig
	Metrics    *metrics.CommerceMetrics
	Logger     *logger.Logger
}

type service struct {
	tx       txRunner
	cart     cartLines
	stores   storeLoader
	towns    townLoader
	payments paymentProcessor
	calc     *fees.Calculator
	cache    QuoteCache
	taxRate  float64
	quoteTTL time.Duration
	metrics  *metrics.CommerceMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Stores == nil:
		return nil, fmt.Errorf("store loader required")
	case deps.Towns == nil:
		return nil, fmt.Errorf("town loader required")
	case deps.Payments == nil:
		return nil, fmt.Errorf("payment processor required")
	}
	calc := deps.Calculator
	if calc == nil {
		calc = fees.NewCalculator(deps.Delivery)
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:       deps.Tx,
		cart:     deps.Cart,
		stores:   deps.Stores,
		towns:    deps.Towns,
		payments: deps.Payments,
		calc:     calc,
		cache:    deps.Cache,
		taxRate:  deps.Delivery.TaxRate,
		quoteTTL: deps.Checkout.QuoteTTL,
		metrics:  deps.Metrics,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Quote prices one store's cart lines and caches the snapshot.
func (s *service) Quote(ctx context.Context, p authz.Principal, input QuoteInput) (*QuoteDTO, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	lines, storeID, err := s.storeLines(ctx, p.UserID, input.StoreID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
	}
	store, townName, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	var dropoff types.Address
	if input.Address != nil {
		dropoff = input.Address.Normalized()
	}
	t := computeTotals(lines, s.calc.Compute(feeInput(store, townName, dropoff)), s.taxRate)
	quoteLinesOut, count := quoteLines(lines)
	quote := &QuoteDTO{
		StoreID:       store.ID,
		StoreName:     store.Name,
		Lines:         quoteLinesOut,
		ItemCount:     count,
		Subtotal:      t.subtotal,
		DeliveryFee:   t.fee.Fee,
		FeeModel:      t.fee.Model,
		DistanceKm:    t.fee.DistanceKm,
		Tax:           t.tax,
		Total:         t.total,
		MinOrderValue: store.MinOrderValue,
		MeetsMinimum:  !t.subtotal.LessThan(store.MinOrderValue),
	}
	s.cacheQuote(ctx, p.UserID, quote)
	return quote, nil
}

// PlaceOrder validates the cart against the store, writes the order, its item
// snapshots and the stock decrements in one transaction, then records the
// payment and clears the ordered lines. Payment and cart failures after the
// commit are logged; the order stands.
func (s *service) PlaceOrder(ctx context.Context, p authz.Principal, input PlaceOrderInput) (result *PlaceOrderResult, err error) {
	defer func() {
		if err != nil {
			s.metrics.CheckoutFailed(string(pkgerrors.As(err).Code()))
		}
	}()

	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	lines, storeID, err := s.storeLines(ctx, p.UserID, input.StoreID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
	}

	address := input.DeliveryAddress.Normalized()
	if err := validateOrderData(address, input.PaymentMethod); err != nil {
		return nil, err
	}
	if err := checkAvailability(lines); err != nil {
		return nil, err
	}

	store, townName, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !store.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "store is not accepting orders")
	}

	t := computeTotals(lines, s.calc.Compute(feeInput(store, townName, address)), s.taxRate)
	if t.subtotal.LessThan(store.MinOrderValue) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "minimum order value for %s is %s", store.Name, store.MinOrderValue.StringFixed(2)).
			WithDetails(map[string]any{"min_order_value": store.MinOrderValue, "subtotal": t.subtotal})
	}

	order := &models.Order{
		CustomerID:          p.UserID,
		StoreID:             store.ID,
		Subtotal:            t.subtotal,
		Tax:                 t.tax,
		DeliveryFee:         t.fee.Fee,
		Total:               t.total,
		DeliveryAddress:     address,
		Status:              enums.OrderStatusPending,
		PaymentStatus:       enums.PaymentStatusPending,
		PaymentMethod:       input.PaymentMethod,
		SpecialInstructions: trimmedOrNil(input.SpecialInstructions),
		Items:               snapshotItems(lines),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := orders.NewRepository(tx)
		count, err := orderRepo.Count(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
		}
		order.OrderNumber = fmt.Sprintf("FG-%d-%d", s.now().UnixMilli(), count+1)
		if err := orderRepo.Create(ctx, order); err != nil {
			return db.AsAppError(err, "create order")
		}

		stock := products.NewRepository(tx)
		for _, l := range lines {
			ok, err := stock.DecrementStock(ctx, l.Product.ID, l.Item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if !ok {
				return pkgerrors.Newf(pkgerrors.CodeConflict, "%s just sold out", l.Product.Name).
					WithDetails(map[string]any{"product_id": l.Product.ID})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.metrics.OrderPlaced(order.Total)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_number": order.OrderNumber,
		"store_id":     store.ID.String(),
		"total":        order.Total.String(),
	}), "order placed")

	result = &PlaceOrderResult{}
	payment, payErr := s.payments.Process(ctx, p, order.ID, order.PaymentMethod)
	switch {
	case payErr != nil:
		s.logg.Error(ctx, "record payment", payErr)
		order.PaymentStatus = enums.PaymentStatusFailed
	default:
		result.Payment = payment
		order.PaymentStatus = payment.Status
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.Item.ID)
	}
	if err := s.cart.DeleteLines(ctx, p.UserID, ids); err != nil {
		s.logg.Error(ctx, "clear ordered cart lines", err)
	}

	result.Order = orders.FromModel(order, store.Name, nil)
	return result, nil
}

// storeLines returns the cart lines for one store. Without an explicit store
// the cart must hold a single store's products.
func (s *service) storeLines(ctx context.Context, userID uuid.UUID, storeID *uuid.UUID) ([]cart.Line, uuid.UUID, error) {
	all, err := s.cart.Lines(ctx, userID)
	if err != nil {
		return nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if storeID != nil && *storeID != uuid.Nil {
		scoped := make([]cart.Line, 0, len(all))
		for _, l := range all {
			if l.Product.StoreID == *storeID {
				scoped = append(scoped, l)
			}
		}
		return scoped, *storeID, nil
	}

	var target uuid.UUID
	for _, l := range all {
		switch {
		case target == uuid.Nil:
			target = l.Product.StoreID
		case target != l.Product.StoreID:
			return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains items from multiple stores")
		}
	}
	return all, target, nil
}

func (s *service) loadStore(ctx context.Context, id uuid.UUID) (*models.Store, string, error) {
	store, err := s.stores.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	townName := ""
	if town, err := s.towns.FindByID(ctx, store.TownID); err == nil {
		townName = town.Name
	}
	return store, townName, nil
}

func (s *service) cacheQuote(ctx context.Context, userID uuid.UUID, quote *QuoteDTO) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(quote)
	if err != nil {
		s.logg.Error(ctx, "encode checkout quote", err)
		return
	}
	key := s.cache.QuoteKey(userID.String(), quote.StoreID.String())
	if err := s.cache.Set(ctx, key, payload, s.quoteTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cache checkout quote failed")
	}
}

// validateOrderData reports every address and payment problem at once.
func validateOrderData(address types.Address, method enums.PaymentMethod) error {
	var errs error
	for _, field := range address.MissingFields() {
		errs = multierr.Append(errs, fmt.Errorf("delivery_address.%s is required", field))
	}
	if !method.IsValid() {
		errs = multierr.Append(errs, fmt.Errorf("payment_method %q is not supported", method))
	}
	if errs != nil {
		return pkgerrors.Fields("invalid order data", errs)
	}
	return nil
}

// checkAvailability rejects lines whose product was withdrawn or no longer
// has the requested quantity in stock.
func checkAvailability(lines []cart.Line) error {
	var problems []map[string]any
	for _, l := range lines {
		switch {
		case !l.Product.IsActive:
			problems = append(problems, map[string]any{"product_id": l.Product.ID, "name": l.Product.Name, "reason": "unavailable"})
		case l.Item.Quantity > l.Product.Stock:
			problems = append(problems, map[string]any{"product_id": l.Product.ID, "name": l.Product.Name, "reason": "insufficient_stock", "available": l.Product.Stock})
		}
	}
	if len(problems) == 0 {
		return nil
	}
	names := make([]string, 0, len(problems))
	for _, p := range problems {
		names = append(names, p["name"].(string))
	}
	return pkgerrors.Newf(pkgerrors.CodeConflict, "some items are unavailable: %s", strings.Join(names, ", ")).
		WithDetails(map[string]any{"items": problems})
}

func snapshotItems(lines []cart.Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.OrderItem{
			ProductID:          l.Product.ID,
			Name:               l.Product.Name,
			Price:              l.Product.Price,
			Quantity:           l.Item.Quantity,
			Discount:           l.Product.Discount,
			SelectedVariations: l.Item.SelectedVariations,
		})
	}
	return items
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
