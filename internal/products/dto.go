package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/types"
)

// ProductDTO is the catalog shape returned to clients.
type ProductDTO struct {
	ID             uuid.UUID              `json:"id"`
	StoreID        uuid.UUID              `json:"store_id"`
	Name           string                 `json:"name"`
	Description    *string                `json:"description,omitempty"`
	Price          decimal.Decimal        `json:"price"`
	OriginalPrice  *decimal.Decimal       `json:"original_price,omitempty"`
	Discount       decimal.Decimal        `json:"discount"`
	Stock          int                    `json:"stock"`
	InStock        bool                   `json:"in_stock"`
	Category       *string                `json:"category,omitempty"`
	SKU            *string                `json:"sku,omitempty"`
	ImageURL       *string                `json:"image_url,omitempty"`
	Tags           []string               `json:"tags"`
	Specifications types.Specifications   `json:"specifications,omitempty"`
	Variations     types.VariationOptions `json:"variations,omitempty"`
	Rating         float64                `json:"rating"`
	ReviewCount    int                    `json:"review_count"`
	IsActive       bool                   `json:"is_active"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// CreateProductInput is the seller payload for a new product.
type CreateProductInput struct {
	Name           string                 `json:"name" validate:"required,notblank,max=200"`
	Description    *string                `json:"description,omitempty"`
	Price          float64                `json:"price" validate:"gte=0"`
	OriginalPrice  *float64               `json:"original_price,omitempty" validate:"omitempty,gte=0"`
	Discount       float64                `json:"discount" validate:"gte=0"`
	Stock          int                    `json:"stock" validate:"gte=0"`
	Category       *string                `json:"category,omitempty"`
	SKU            *string                `json:"sku,omitempty"`
	ImageURL       *string                `json:"image_url,omitempty" validate:"omitempty,url"`
	Tags           []string               `json:"tags,omitempty"`
	Specifications types.Specifications   `json:"specifications,omitempty"`
	Variations     types.VariationOptions `json:"variations,omitempty"`
}

// UpdateProductInput carries optional seller edits.
type UpdateProductInput struct {
	Name           *string                 `json:"name,omitempty" validate:"omitempty,max=200"`
	Description    *string                 `json:"description,omitempty"`
	Price          *float64                `json:"price,omitempty" validate:"omitempty,gte=0"`
	OriginalPrice  *float64                `json:"original_price,omitempty" validate:"omitempty,gte=0"`
	Discount       *float64                `json:"discount,omitempty" validate:"omitempty,gte=0"`
	Stock          *int                    `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Category       *string                 `json:"category,omitempty"`
	SKU            *string                 `json:"sku,omitempty"`
	ImageURL       *string                 `json:"image_url,omitempty"`
	Tags           *[]string               `json:"tags,omitempty"`
	Specifications *types.Specifications   `json:"specifications,omitempty"`
	Variations     *types.VariationOptions `json:"variations,omitempty"`
	IsActive       *bool                   `json:"is_active,omitempty"`
}

func FromModel(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	tags := []string(m.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &ProductDTO{
		ID:             m.ID,
		StoreID:        m.StoreID,
		Name:           m.Name,
		Description:    m.Description,
		Price:          m.Price,
		OriginalPrice:  m.OriginalPrice,
		Discount:       m.Discount,
		Stock:          m.Stock,
		InStock:        m.Stock > 0,
		Category:       m.Category,
		SKU:            m.SKU,
		ImageURL:       m.ImageURL,
		Tags:           tags,
		Specifications: m.Specifications,
		Variations:     m.Variations,
		Rating:         m.Rating,
		ReviewCount:    m.ReviewCount,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func fromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
