package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/internal/products"
	"github.com/yourwae/fastget-backend/internal/stores"
	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/db/dbtest"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/pagination"
)

type stubDeliveries struct {
	created []uuid.UUID
}

func (s *stubDeliveries) CreateForOrderWithTx(ctx context.Context, tx *gorm.DB, order *models.Order, store *models.Store) (*models.Delivery, error) {
	delivery := &models.Delivery{OrderID: order.ID, PickupStoreID: store.ID, OTP: "123456", Status: enums.DeliveryStatusAssigned}
	if err := tx.WithContext(ctx).Create(delivery).Error; err != nil {
		return nil, err
	}
	s.created = append(s.created, order.ID)
	return delivery, nil
}

type fixture struct {
	db         *gorm.DB
	svc        Service
	deliveries *stubDeliveries
	customer   authz.Principal
	owner      authz.Principal
	store      *models.Store
	product    *models.Product
}

type deliveryByOrder struct{ db *gorm.DB }

func (d deliveryByOrder) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	if err := d.db.WithContext(ctx).First(&delivery, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	town := dbtest.Town(t, conn, "Hohoe", 6.7936, -0.4778)
	owner := dbtest.User(t, conn, enums.RoleStore)
	customer := dbtest.User(t, conn, enums.RoleCustomer)
	store := dbtest.Store(t, conn, owner.ID, town)

	storeRepo := stores.NewRepository(conn)
	creator := &stubDeliveries{}
	fulfillment, err := NewFulfillment(storeRepo, creator, nil, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), db.NewFromGorm(conn), storeRepo, deliveryByOrder{conn}, products.NewRepository(conn), fulfillment)
	require.NoError(t, err)

	return &fixture{
		db:         conn,
		svc:        svc,
		deliveries: creator,
		customer:   authz.Principal{UserID: customer.ID, Role: enums.RoleCustomer},
		owner:      authz.Principal{UserID: owner.ID, Role: enums.RoleStore},
		store:      store,
		product:    dbtest.Product(t, conn, store.ID, "Rice", 10, 5),
	}
}

func TestSellerAdvancesOrderThroughFulfillment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := dbtest.Order(t, f.db, f.customer.UserID, f.store, f.product, 2)

	for _, status := range []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusPreparing} {
		got, err := f.svc.UpdateStatus(ctx, f.owner, order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}
	assert.Empty(t, f.deliveries.created)

	ready, err := f.svc.UpdateStatus(ctx, f.owner, order.ID, enums.OrderStatusReady)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{order.ID}, f.deliveries.created)
	require.NotNil(t, ready.Delivery)
	assert.Equal(t, enums.DeliveryStatusAssigned, ready.Delivery.Status)

	_, err = f.svc.UpdateStatus(ctx, f.owner, order.ID, enums.OrderStatusOutForDelivery)
	require.NoError(t, err)
	delivered, err := f.svc.UpdateStatus(ctx, f.owner, order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.NotNil(t, delivered.ActualDeliveryTime)
	assert.Empty(t, delivered.NextStatuses)

	var store models.Store
	require.NoError(t, f.db.First(&store, "id = ?", f.store.ID).Error)
	assert.Equal(t, 1, store.TotalOrders)
	assert.Equal(t, "27", store.TotalRevenue.String())

	stats, err := f.svc.SellerStats(ctx, f.owner)
	require.NoError(t, err)
	assert.Zero(t, stats.ActiveOrders)
	assert.EqualValues(t, 1, stats.Products)
	assert.Equal(t, "27", stats.Sales.String())
}

func TestSellerCannotSkipOrReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := dbtest.Order(t, f.db, f.customer.UserID, f.store, f.product, 1)

	_, err := f.svc.UpdateStatus(ctx, f.owner, order.ID, enums.OrderStatusReady)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	_, err = f.svc.UpdateStatus(ctx, f.owner, order.ID, enums.OrderStatus("shipped"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	stranger := authz.Principal{UserID: uuid.New(), Role: enums.RoleStore}
	_, err = f.svc.UpdateStatus(ctx, stranger, order.ID, enums.OrderStatusConfirmed)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)
}

func TestCustomerCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := dbtest.Order(t, f.db, f.customer.UserID, f.store, f.product, 2)
	require.NoError(t, f.db.Model(f.product).Update("stock", 3).Error)

	other := authz.Principal{UserID: uuid.New(), Role: enums.RoleCustomer}
	_, err := f.svc.Cancel(ctx, other, order.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	cancelled, err := f.svc.Cancel(ctx, f.customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	var product models.Product
	require.NoError(t, f.db.First(&product, "id = ?", f.product.ID).Error)
	assert.Equal(t, 5, product.Stock)

	_, err = f.svc.Cancel(ctx, f.customer, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
}

func TestCustomerCannotCancelConfirmedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := dbtest.Order(t, f.db, f.customer.UserID, f.store, f.product, 1)
	_, err := f.svc.UpdateStatus(ctx, f.owner, order.ID, enums.OrderStatusConfirmed)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.customer, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
}

func TestRateOnlyOnceAfterDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := dbtest.Order(t, f.db, f.customer.UserID, f.store, f.product, 1)

	_, err := f.svc.Rate(ctx, f.customer, order.ID, RateInput{Rating: 5})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	require.NoError(t, f.db.Model(order).Update("status", enums.OrderStatusDelivered).Error)
	_, err = f.svc.Rate(ctx, f.customer, order.ID, RateInput{Rating: 6})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	review := "Fast and friendly"
	rated, err := f.svc.Rate(ctx, f.customer, order.ID, RateInput{Rating: 4, Review: &review})
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 4, *rated.Rating)

	_, err = f.svc.Rate(ctx, f.customer, order.ID, RateInput{Rating: 5})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestOrderVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := dbtest.Order(t, f.db, f.customer.UserID, f.store, f.product, 1)

	mine, err := f.svc.ListMine(ctx, f.customer, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, f.store.Name, mine.Items[0].StoreName)
	assert.Empty(t, mine.NextCursor)

	_, err = f.svc.Get(ctx, f.owner, order.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, authz.Principal{UserID: uuid.New(), Role: enums.RoleCustomer}, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	_, err = f.svc.Get(ctx, authz.Principal{UserID: uuid.New(), Role: enums.RoleAdmin}, order.ID)
	assert.NoError(t, err)
}

func TestSellerOrdersFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := dbtest.Order(t, f.db, f.customer.UserID, f.store, f.product, 1)
	dbtest.Order(t, f.db, f.customer.UserID, f.store, f.product, 1)
	done := dbtest.Order(t, f.db, f.customer.UserID, f.store, f.product, 1)
	require.NoError(t, f.db.Model(done).Update("status", enums.OrderStatusDelivered).Error)

	_, err := f.svc.UpdateStatus(ctx, f.owner, first.ID, enums.OrderStatusConfirmed)
	require.NoError(t, err)

	active, err := f.svc.SellerOrders(ctx, f.owner, nil, 0)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	confirmed := enums.OrderStatusConfirmed
	filtered, err := f.svc.SellerOrders(ctx, f.owner, &confirmed, 0)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)

	_, err = f.svc.SellerOrders(ctx, f.customer, nil, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestListMinePagesByCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	var placed []uuid.UUID
	for i := 0; i < 3; i++ {
		order := dbtest.Order(t, f.db, f.customer.UserID, f.store, f.product, 1)
		require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).
			UpdateColumn("created_at", base.Add(-time.Duration(i)*time.Minute)).Error)
		placed = append(placed, order.ID)
	}

	first, err := f.svc.ListMine(ctx, f.customer, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, placed[0], first.Items[0].ID)
	assert.Equal(t, placed[1], first.Items[1].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.svc.ListMine(ctx, f.customer, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, placed[2], second.Items[0].ID)
	assert.Empty(t, second.NextCursor)

	_, err = f.svc.ListMine(ctx, f.customer, pagination.Params{Cursor: "not-a-cursor"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}
