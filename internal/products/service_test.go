package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/internal/stores"
	"github.com/yourwae/fastget-backend/pkg/db/dbtest"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/types"
)

type fixture struct {
	db    *gorm.DB
	svc   Service
	store *models.Store
	owner authz.Principal
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	town := dbtest.Town(t, conn, "Hohoe", 6.79, -0.47)
	owner := dbtest.User(t, conn, enums.RoleStore)
	store := dbtest.Store(t, conn, owner.ID, town)

	svc, err := NewService(NewRepository(conn), stores.NewRepository(conn))
	require.NoError(t, err)
	return fixture{
		db:    conn,
		svc:   svc,
		store: store,
		owner: authz.Principal{UserID: owner.ID, Role: enums.RoleStore},
	}
}

func TestSellerCreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sku := " RICE-5KG "
	created, err := f.svc.Create(ctx, f.owner, CreateProductInput{
		Name:       "Jasmine Rice 5kg",
		Price:      85.499,
		Stock:      12,
		SKU:        &sku,
		Tags:       []string{"staples", "rice"},
		Variations: types.VariationOptions{"Size": {"5kg", "10kg"}},
	})
	require.NoError(t, err)
	assert.Equal(t, f.store.ID, created.StoreID)
	assert.Equal(t, "85.5", created.Price.String())
	assert.Equal(t, "RICE-5KG", *created.SKU)
	assert.True(t, created.InStock)

	_, err = f.svc.Create(ctx, f.owner, CreateProductInput{Name: "Other", SKU: &sku})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	list, err := f.svc.ListByStore(ctx, f.store.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"staples", "rice"}, list[0].Tags)
	assert.Equal(t, []string{"5kg", "10kg"}, list[0].Variations["Size"])
}

func TestCreateRequiresStoreAndValidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stranger := authz.Principal{UserID: uuid.New(), Role: enums.RoleStore}
	_, err := f.svc.Create(ctx, stranger, CreateProductInput{Name: "Soap", Price: 3})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = f.svc.Create(ctx, f.owner, CreateProductInput{Name: "Soap", Price: -1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = f.svc.Create(ctx, authz.Anonymous, CreateProductInput{Name: "Soap"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)
}

func TestUpdateAndDeactivateEnforceOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.Product(t, f.db, f.store.ID, "Milo Tin", 40, 3)

	stock := 10
	_, err := f.svc.Update(ctx, authz.Principal{UserID: uuid.New(), Role: enums.RoleStore}, product.ID, UpdateProductInput{Stock: &stock})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	updated, err := f.svc.Update(ctx, f.owner, product.ID, UpdateProductInput{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Stock)

	require.NoError(t, f.svc.Deactivate(ctx, f.owner, product.ID))

	_, err = f.svc.Get(ctx, authz.Anonymous, product.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "inactive products are hidden, got %v", err)

	got, err := f.svc.Get(ctx, f.owner, product.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	public, err := f.svc.ListByStore(ctx, f.store.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, public)

	seller, err := f.svc.SellerList(ctx, f.owner, 0)
	require.NoError(t, err)
	assert.Len(t, seller, 1)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.Product(t, f.db, f.store.ID, "Fresh Tilapia", 30, 4)
	dbtest.Product(t, f.db, f.store.ID, "Palm Oil", 25, 4)

	hits, err := f.svc.Search(ctx, "TILAPIA", nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Fresh Tilapia", hits[0].Name)

	none, err := f.svc.Search(ctx, "100%", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.Search(ctx, "  ", nil, 10)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecrementStockIsConditional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.Product(t, f.db, f.store.ID, "Eggs", 2, 3)
	repo := NewRepository(f.db)

	ok, err := repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "only one unit left")

	require.NoError(t, repo.RestoreStock(ctx, product.ID, 2))
	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Stock)
}
