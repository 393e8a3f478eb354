package client

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/types"
)

type Town struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description *string         `json:"description,omitempty"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	IsActive    bool            `json:"is_active"`
}

type Store struct {
	ID              uuid.UUID            `json:"id"`
	OwnerID         uuid.UUID            `json:"owner_id"`
	TownID          uuid.UUID            `json:"town_id"`
	Name            string               `json:"name"`
	Description     *string              `json:"description,omitempty"`
	ImageURL        *string              `json:"image_url,omitempty"`
	Category        enums.StoreCategory  `json:"category"`
	Address         types.Address        `json:"address"`
	OperatingHours  types.OperatingHours `json:"operating_hours,omitempty"`
	IsOpen          bool                 `json:"is_open"`
	BaseDeliveryFee decimal.Decimal      `json:"base_delivery_fee"`
	PerKmFee        decimal.Decimal      `json:"per_km_fee"`
	MinOrderValue   decimal.Decimal      `json:"min_order_value"`
	IsVerified      bool                 `json:"is_verified"`
	IsActive        bool                 `json:"is_active"`
	Rating          float64              `json:"rating"`
	ReviewCount     int                  `json:"review_count"`
}

type Product struct {
	ID            uuid.UUID              `json:"id"`
	StoreID       uuid.UUID              `json:"store_id"`
	Name          string                 `json:"name"`
	Description   *string                `json:"description,omitempty"`
	Price         decimal.Decimal        `json:"price"`
	OriginalPrice *decimal.Decimal       `json:"original_price,omitempty"`
	Stock         int                    `json:"stock"`
	Category      *string                `json:"category,omitempty"`
	ImageURL      *string                `json:"image_url,omitempty"`
	Tags          []string               `json:"tags,omitempty"`
	Variations    types.VariationOptions `json:"variations,omitempty"`
	IsActive      bool                   `json:"is_active"`
	Rating        float64                `json:"rating"`
	InStock       bool                   `json:"in_stock"`
}

type CartLine struct {
	ID                 uuid.UUID        `json:"id"`
	ProductID          uuid.UUID        `json:"product_id"`
	StoreID            uuid.UUID        `json:"store_id"`
	Name               string           `json:"name"`
	Price              decimal.Decimal  `json:"price"`
	Quantity           int              `json:"quantity"`
	SelectedVariations types.Variations `json:"selected_variations,omitempty"`
	LineTotal          decimal.Decimal  `json:"line_total"`
}

type Cart struct {
	Items     []CartLine      `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	StoreIDs  []uuid.UUID     `json:"store_ids"`
}

type AddCartItem struct {
	ProductID          uuid.UUID        `json:"product_id"`
	Quantity           int              `json:"quantity"`
	SelectedVariations types.Variations `json:"selected_variations,omitempty"`
}

type Quote struct {
	StoreID     uuid.UUID       `json:"store_id"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	FeeModel    string          `json:"fee_model"`
	DistanceKm  float64         `json:"distance_km"`
}

type PlaceOrder struct {
	StoreID             *uuid.UUID          `json:"store_id,omitempty"`
	DeliveryAddress     types.Address       `json:"delivery_address"`
	PaymentMethod       enums.PaymentMethod `json:"payment_method"`
	SpecialInstructions *string             `json:"special_instructions,omitempty"`
}

type OrderItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type Order struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	StoreID         uuid.UUID           `json:"store_id"`
	StoreName       string              `json:"store_name,omitempty"`
	Items           []OrderItem         `json:"items"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DeliveryFee     decimal.Decimal     `json:"delivery_fee"`
	Tax             decimal.Decimal     `json:"tax"`
	Total           decimal.Decimal     `json:"total"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	DeliveryAddress types.Address       `json:"delivery_address"`
	CreatedAt       time.Time           `json:"created_at"`
}

type Payment struct {
	ID            uuid.UUID           `json:"id"`
	OrderID       uuid.UUID           `json:"order_id"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency"`
	Method        enums.PaymentMethod `json:"method"`
	TransactionID string              `json:"transaction_id"`
	Status        enums.PaymentStatus `json:"status"`
}

type PlaceOrderResult struct {
	Order   *Order   `json:"order"`
	Payment *Payment `json:"payment,omitempty"`
}

type User struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       *string    `json:"phone,omitempty"`
	DateOfBirth *string    `json:"date_of_birth,omitempty"`
	Role        enums.Role `json:"role"`
}

type AuthResult struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"`
	Role         enums.Role `json:"role"`
	User         *User      `json:"user"`
	Store        *Store     `json:"store,omitempty"`
}

type Me struct {
	User         *User      `json:"user"`
	Role         enums.Role `json:"role"`
	MetadataRole enums.Role `json:"metadata_role"`
}

// ProfileUpdate replaces the caller's editable profile. DateOfBirth is
// YYYY-MM-DD; nil clears it.
type ProfileUpdate struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Phone       string  `json:"phone"`
	DateOfBirth *string `json:"date_of_birth"`
}

type Signup struct {
	Email         string              `json:"email"`
	Password      string              `json:"password"`
	FirstName     string              `json:"first_name"`
	LastName      string              `json:"last_name"`
	Phone         string              `json:"phone"`
	DateOfBirth   string              `json:"date_of_birth"`
	Role          enums.Role          `json:"role,omitempty"`
	StoreName     *string             `json:"store_name,omitempty"`
	StoreCategory enums.StoreCategory `json:"store_category,omitempty"`
	StoreLocation *string             `json:"store_location,omitempty"`
	TownID        *uuid.UUID          `json:"town_id,omitempty"`
}
