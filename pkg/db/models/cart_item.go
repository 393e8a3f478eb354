package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/yourwae/fastget-backend/pkg/types"
)

// CartItem is one line in a customer's cart. VariationKey is the canonical
// rendering of SelectedVariations and participates in the merge identity.
type CartItem struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID             uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_cart_items_line,priority:1"`
	ProductID          uuid.UUID        `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_line,priority:2"`
	VariationKey       string           `gorm:"column:variation_key;not null;default:'';uniqueIndex:ux_cart_items_line,priority:3"`
	SelectedVariations types.Variations `gorm:"column:selected_variations"`
	Quantity           int              `gorm:"column:quantity;not null"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
