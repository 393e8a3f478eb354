package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/pagination"
)

// Repository persists products.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByStore returns the store's products, newest first. activeOnly hides deactivated rows.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, activeOnly bool, limit int) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.Product
	if err := q.Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Search matches active products by name or description, case-insensitively.
func (r *Repository) Search(ctx context.Context, query string, storeID *uuid.UUID, limit int) ([]models.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	q := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\\')", pattern, pattern)
	if storeID != nil {
		q = q.Where("store_id = ?", *storeID)
	}
	var rows []models.Product
	if err := q.Order("rating DESC").
		Order("name ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountActiveByStore counts the listed products of a store.
func (r *Repository) CountActiveByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("store_id = ? AND is_active = ?", storeID, true).
		Count(&count).Error
	return count, err
}

// DecrementStock takes qty units if at least that many remain. It reports
// false when the conditional update matched no row.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RestoreStock returns qty units, used when an order is cancelled.
func (r *Repository) RestoreStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
