package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/pkg/db/models"
)

// Repository persists cart lines.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, item *models.CartItem) error {
	if item == nil {
		return fmt.Errorf("cart item is required")
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindLine looks up the line identified by (user, product, variation key).
func (r *Repository) FindLine(ctx context.Context, userID, productID uuid.UUID, variationKey string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND variation_key = ?", userID, productID, variationKey).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// IncrementQuantity adds qty to a line in a single statement.
func (r *Repository) IncrementQuantity(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		Updates(map[string]any{"quantity": gorm.Expr("quantity + ?", qty)}).Error
}

func (r *Repository) SetQuantity(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		Update("quantity", qty).Error
}

func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}

// DeleteLines removes the given lines of a user, used after checkout.
func (r *Repository) DeleteLines(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&models.CartItem{}).Error
}

// Lines returns the user's cart joined with product rows, oldest line first.
// Lines whose product row no longer exists are dropped.
func (r *Repository) Lines(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, Line{Item: item, Product: product})
	}
	return lines, nil
}
