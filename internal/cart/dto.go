package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/types"
)

// Line is a cart item joined with its current product row.
type Line struct {
	Item    models.CartItem
	Product models.Product
}

// LineTotal is the current product price times the line quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Item.Quantity)))
}

// AddItemInput is the payload for POST /cart/items.
type AddItemInput struct {
	ProductID          uuid.UUID        `json:"product_id" validate:"required"`
	Quantity           int              `json:"quantity" validate:"required,min=1"`
	SelectedVariations types.Variations `json:"selected_variations,omitempty"`
}

// UpdateItemInput is the payload for PATCH /cart/items/{id}.
type UpdateItemInput struct {
	Quantity int `json:"quantity"`
}

type CartLineDTO struct {
	ID                 uuid.UUID        `json:"id"`
	ProductID          uuid.UUID        `json:"product_id"`
	StoreID            uuid.UUID        `json:"store_id"`
	Name               string           `json:"name"`
	ImageURL           *string          `json:"image_url,omitempty"`
	Price              decimal.Decimal  `json:"price"`
	Quantity           int              `json:"quantity"`
	Stock              int              `json:"stock"`
	Available          bool             `json:"available"`
	SelectedVariations types.Variations `json:"selected_variations"`
	LineTotal          decimal.Decimal  `json:"line_total"`
}

// CartDTO is the full cart of one user.
type CartDTO struct {
	Items     []CartLineDTO   `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	StoreIDs  []uuid.UUID     `json:"store_ids"`
}

func lineFromModel(l Line) CartLineDTO {
	selected := l.Item.SelectedVariations
	if selected == nil {
		selected = types.Variations{}
	}
	return CartLineDTO{
		ID:                 l.Item.ID,
		ProductID:          l.Product.ID,
		StoreID:            l.Product.StoreID,
		Name:               l.Product.Name,
		ImageURL:           l.Product.ImageURL,
		Price:              l.Product.Price,
		Quantity:           l.Item.Quantity,
		Stock:              l.Product.Stock,
		Available:          l.Product.IsActive && l.Product.Stock >= l.Item.Quantity,
		SelectedVariations: selected,
		LineTotal:          types.Money(l.LineTotal()),
	}
}

func cartFromLines(lines []Line) *CartDTO {
	out := &CartDTO{
		Items:    make([]CartLineDTO, 0, len(lines)),
		Subtotal: decimal.Zero,
		StoreIDs: []uuid.UUID{},
	}
	seen := map[uuid.UUID]bool{}
	for _, l := range lines {
		out.Items = append(out.Items, lineFromModel(l))
		out.ItemCount += l.Item.Quantity
		out.Subtotal = out.Subtotal.Add(l.LineTotal())
		if !seen[l.Product.StoreID] {
			seen[l.Product.StoreID] = true
			out.StoreIDs = append(out.StoreIDs, l.Product.StoreID)
		}
	}
	out.Subtotal = types.Money(out.Subtotal)
	return out
}
