package towns

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/pkg/db/dbtest"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/fees"
)

var admin = authz.Principal{UserID: uuid.New(), Role: enums.RoleAdmin}

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)), nil)
	require.NoError(t, err)
	return svc
}

func TestSeedIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(fees.Towns), created)

	created, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, len(fees.Towns))
	assert.Equal(t, "Akpafu", list[0].Name, "ordered by name")

	for _, town := range list {
		want := decimal.NewFromFloat(fees.TownFee(town.Name))
		assert.True(t, town.DeliveryFee.Equal(want), "%s fee %s", town.Name, town.DeliveryFee)
	}
}

func TestCreateValidatesAgainstServedTowns(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	town, err := svc.Create(ctx, admin, CreateTownInput{Name: "  wli "})
	require.NoError(t, err)
	assert.Equal(t, "Wli", town.Name)
	assert.Equal(t, "wli", town.Slug)
	assert.True(t, town.DeliveryFee.Equal(decimal.NewFromInt(22)))

	_, err = svc.Create(ctx, admin, CreateTownInput{Name: "Wli"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = svc.Create(ctx, admin, CreateTownInput{Name: "Accra"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = svc.Create(ctx, authz.Principal{UserID: uuid.New(), Role: enums.RoleStore}, CreateTownInput{Name: "Ve"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	town, err := svc.Create(ctx, admin, CreateTownInput{Name: "Sanko"})
	require.NoError(t, err)

	fee := 18.5
	updated, err := svc.Update(ctx, admin, town.ID, UpdateTownInput{DeliveryFee: &fee})
	require.NoError(t, err)
	assert.Equal(t, "18.5", updated.DeliveryFee.String())

	require.NoError(t, svc.Delete(ctx, admin, town.ID))
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := svc.Get(ctx, town.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "Alavanyo", CanonicalName(" ALAVANYO"))
	assert.Equal(t, "Ve", CanonicalName("ve"))
}
