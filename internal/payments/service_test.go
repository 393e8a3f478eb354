package payments

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/internal/orders"
	"github.com/yourwae/fastget-backend/internal/stores"
	"github.com/yourwae/fastget-backend/internal/users"
	"github.com/yourwae/fastget-backend/pkg/db/dbtest"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
)

type fixture struct {
	db       *gorm.DB
	svc      Service
	customer authz.Principal
	owner    authz.Principal
	other    authz.Principal
	admin    authz.Principal
	order    *models.Order
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	town := dbtest.Town(t, conn, "Hohoe", 6.7936, -0.4778)
	owner := dbtest.User(t, conn, enums.RoleStore)
	other := dbtest.User(t, conn, enums.RoleStore)
	customer := dbtest.User(t, conn, enums.RoleCustomer)
	admin := dbtest.User(t, conn, enums.RoleAdmin)
	phone := "0241234567"
	require.NoError(t, conn.Model(customer).Update("phone", phone).Error)
	store := dbtest.Store(t, conn, owner.ID, town)
	product := dbtest.Product(t, conn, store.ID, "Rice", 10, 5)

	svc, err := NewService(NewRepository(conn), orders.NewRepository(conn), stores.NewRepository(conn), users.NewRepository(conn), "", nil, nil)
	require.NoError(t, err)
	return &fixture{
		db:       conn,
		svc:      svc,
		customer: authz.Principal{UserID: customer.ID, Role: enums.RoleCustomer},
		owner:    authz.Principal{UserID: owner.ID, Role: enums.RoleStore},
		other:    authz.Principal{UserID: other.ID, Role: enums.RoleStore},
		admin:    authz.Principal{UserID: admin.ID, Role: enums.RoleAdmin},
		order:    dbtest.Order(t, conn, customer.ID, store, product, 2),
	}
}

func (f *fixture) orderPaymentStatus(t *testing.T) enums.PaymentStatus {
	t.Helper()
	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", f.order.ID).Error)
	return order.PaymentStatus
}

func TestProcessCardCompletes(t *testing.T) {
	f := newFixture(t)
	payment, err := f.svc.Process(context.Background(), f.customer, f.order.ID, enums.PaymentMethodCard)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusCompleted, payment.Status)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(27)), payment.Amount.String())
	assert.Equal(t, "GHS", payment.Currency)
	assert.True(t, strings.HasPrefix(payment.TransactionID, "TXN-"), payment.TransactionID)
	require.NotNil(t, payment.MaskedEmail)
	assert.Contains(t, *payment.MaskedEmail, "*")
	require.NotNil(t, payment.MaskedPhone)
	assert.NotEqual(t, "0241234567", *payment.MaskedPhone)
	assert.Equal(t, enums.PaymentStatusCompleted, f.orderPaymentStatus(t))

	_, err = f.svc.Process(context.Background(), f.customer, f.order.ID, enums.PaymentMethodWallet)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestProcessCODStaysPending(t *testing.T) {
	f := newFixture(t)
	payment, err := f.svc.Process(context.Background(), f.customer, f.order.ID, enums.PaymentMethodCOD)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, payment.Status)
	assert.Equal(t, enums.PaymentStatusPending, f.orderPaymentStatus(t))

	_, err = f.svc.Refund(context.Background(), f.owner, payment.ID, RefundInput{Reason: "spoiled"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "pending cannot be refunded, got %v", err)
}

func TestProcessRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Process(ctx, f.customer, f.order.ID, enums.PaymentMethod("cheque"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = f.svc.Process(ctx, f.owner, f.order.ID, enums.PaymentMethodCard)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	require.NoError(t, f.db.Model(f.order).Update("status", enums.OrderStatusCancelled).Error)
	_, err = f.svc.Process(ctx, f.customer, f.order.ID, enums.PaymentMethodCard)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
}

func TestRefundRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, err := f.svc.Process(ctx, f.customer, f.order.ID, enums.PaymentMethodUPI)
	require.NoError(t, err)

	_, err = f.svc.Refund(ctx, f.customer, payment.ID, RefundInput{Reason: "changed mind"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)
	_, err = f.svc.Refund(ctx, f.other, payment.ID, RefundInput{Reason: "changed mind"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	tooMuch := 27.01
	_, err = f.svc.Refund(ctx, f.owner, payment.ID, RefundInput{Amount: &tooMuch, Reason: "damaged"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	_, err = f.svc.Refund(ctx, f.owner, payment.ID, RefundInput{Reason: "  "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	partial := 12.5
	refunded, err := f.svc.Refund(ctx, f.owner, payment.ID, RefundInput{Amount: &partial, Reason: "one bag torn"})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRefunded, refunded.Status)
	require.NotNil(t, refunded.RefundAmount)
	assert.Equal(t, "12.5", refunded.RefundAmount.String())
	assert.Equal(t, enums.PaymentStatusRefunded, f.orderPaymentStatus(t))

	_, err = f.svc.Refund(ctx, f.admin, payment.ID, RefundInput{Reason: "again"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	// A refunded payment no longer blocks a new attempt.
	retry, err := f.svc.Process(ctx, f.customer, f.order.ID, enums.PaymentMethodCOD)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, retry.Status)
}

func TestAdminFullRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment, err := f.svc.Process(ctx, f.customer, f.order.ID, enums.PaymentMethodNetBanking)
	require.NoError(t, err)

	refunded, err := f.svc.Refund(ctx, f.admin, payment.ID, RefundInput{Reason: "store closed"})
	require.NoError(t, err)
	require.NotNil(t, refunded.RefundAmount)
	assert.True(t, refunded.RefundAmount.Equal(payment.Amount))
}

func TestListForOrderVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Process(ctx, f.customer, f.order.ID, enums.PaymentMethodCard)
	require.NoError(t, err)

	for _, p := range []authz.Principal{f.customer, f.owner, f.admin} {
		list, err := f.svc.ListForOrder(ctx, p, f.order.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}
	_, err = f.svc.ListForOrder(ctx, f.other, f.order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)
}
