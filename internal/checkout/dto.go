package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/internal/orders"
	"github.com/yourwae/fastget-backend/internal/payments"
	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/fees"
	"github.com/yourwae/fastget-backend/pkg/types"
)

// QuoteInput asks for the totals of one store's cart lines.
type QuoteInput struct {
	StoreID *uuid.UUID     `json:"store_id,omitempty"`
	Address *types.Address `json:"address,omitempty"`
}

// PlaceOrderInput is the body of POST /checkout.
type PlaceOrderInput struct {
	StoreID             *uuid.UUID          `json:"store_id,omitempty"`
	DeliveryAddress     types.Address       `json:"delivery_address"`
	PaymentMethod       enums.PaymentMethod `json:"payment_method" validate:"required"`
	SpecialInstructions *string             `json:"special_instructions,omitempty" validate:"omitempty,max=1000"`
}

type QuoteLineDTO struct {
	CartItemID         uuid.UUID        `json:"cart_item_id"`
	ProductID          uuid.UUID        `json:"product_id"`
	Name               string           `json:"name"`
	Price              decimal.Decimal  `json:"price"`
	Quantity           int              `json:"quantity"`
	SelectedVariations types.Variations `json:"selected_variations,omitempty"`
	LineTotal          decimal.Decimal  `json:"line_total"`
}

// QuoteDTO is the totals snapshot cached for the checkout page.
type QuoteDTO struct {
	StoreID       uuid.UUID       `json:"store_id"`
	StoreName     string          `json:"store_name"`
	Lines         []QuoteLineDTO  `json:"lines"`
	ItemCount     int             `json:"item_count"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	FeeModel      fees.Model      `json:"fee_model"`
	DistanceKm    float64         `json:"distance_km,omitempty"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	MeetsMinimum  bool            `json:"meets_minimum"`
}

type PlaceOrderResult struct {
	Order   *orders.OrderDTO     `json:"order"`
	Payment *payments.PaymentDTO `json:"payment,omitempty"`
}
