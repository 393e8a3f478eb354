package dbtest

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/types"
)

// User inserts a user with the given role.
func User(t *testing.T, conn *gorm.DB, role enums.Role) *models.User {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		ID:           id,
		Email:        id.String() + "@example.com",
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     strings.ToUpper(string(role)),
		Role:         role,
		MetadataRole: role,
	}
	mustCreate(t, conn, user)
	return user
}

// Town inserts an active town with coordinates.
func Town(t *testing.T, conn *gorm.DB, name string, lat, lng float64) *models.Town {
	t.Helper()
	town := &models.Town{
		Name:        name,
		Slug:        strings.ToLower(name),
		Latitude:    lat,
		Longitude:   lng,
		DeliveryFee: decimal.NewFromInt(7),
		IsActive:    true,
	}
	mustCreate(t, conn, town)
	return town
}

// Store inserts an active store owned by ownerID in the town.
func Store(t *testing.T, conn *gorm.DB, ownerID uuid.UUID, town *models.Town) *models.Store {
	t.Helper()
	store := &models.Store{
		OwnerID:  ownerID,
		TownID:   town.ID,
		Name:     "Store " + town.Name,
		Category: enums.StoreCategoryGrocery,
		Address: types.Address{
			Street: "1 Market Road", City: town.Name, State: "Volta",
			ZipCode: types.DefaultZipCode, Country: types.DefaultCountry,
			Latitude: town.Latitude, Longitude: town.Longitude,
		},
		DeliveryRadiusKm: 5,
		BaseDeliveryFee:  decimal.NewFromInt(5),
		PerKmFee:         decimal.NewFromInt(2),
		MinOrderValue:    decimal.Zero,
		TotalRevenue:     decimal.Zero,
		IsActive:         true,
	}
	mustCreate(t, conn, store)
	return store
}

// Product inserts an active product.
func Product(t *testing.T, conn *gorm.DB, storeID uuid.UUID, name string, price float64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		StoreID:  storeID,
		Name:     name,
		Price:    decimal.NewFromFloat(price),
		Discount: decimal.Zero,
		Stock:    stock,
		IsActive: true,
	}
	mustCreate(t, conn, product)
	return product
}

// Order inserts a pending order with one line of product and a delivery fee of 7.
// Stock is not touched.
func Order(t *testing.T, conn *gorm.DB, customerID uuid.UUID, store *models.Store, product *models.Product, qty int) *models.Order {
	t.Helper()
	subtotal := product.Price.Mul(decimal.NewFromInt(int64(qty)))
	fee := decimal.NewFromInt(7)
	order := &models.Order{
		OrderNumber: "FG-TEST-" + uuid.NewString()[:8],
		CustomerID:  customerID,
		StoreID:     store.ID,
		Subtotal:    subtotal,
		Tax:         decimal.Zero,
		DeliveryFee: fee,
		Total:       subtotal.Add(fee),
		DeliveryAddress: types.Address{
			Street: "4 Bankoe Road", City: store.Address.City, State: "Volta",
			ZipCode: types.DefaultZipCode, Country: types.DefaultCountry,
			Latitude: store.Address.Latitude + 0.01, Longitude: store.Address.Longitude,
		},
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodCOD,
		Items: []models.OrderItem{{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  qty,
			Discount:  decimal.Zero,
		}},
	}
	mustCreate(t, conn, order)
	return order
}

func mustCreate(t *testing.T, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}
