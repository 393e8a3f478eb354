package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/pagination"
)

// Repository handles store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error) {
	store := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindActiveByOwner returns the owner's active store.
func (r *Repository) FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Order("created_at ASC").
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// List returns active stores matching the filter, best rated first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Store, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if filter.TownID != nil {
		q = q.Where("town_id = ?", *filter.TownID)
	}
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.Verified != nil {
		q = q.Where("is_verified = ?", *filter.Verified)
	}

	var stores []models.Store
	if err := q.Order("rating DESC").
		Order("name ASC").
		Limit(pagination.NormalizeLimit(filter.Limit)).
		Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// Update saves the provided store.
func (r *Repository) Update(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.db.WithContext(ctx).Save(store).Error
}

// Deactivate soft-deletes the store and every product it lists.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Store{}).
			Where("id = ?", id).
			Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Product{}).
			Where("store_id = ?", id).
			Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()}).Error
	})
}

// FindByIDWithTx loads a store using the provided transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Store, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var store models.Store
	if err := tx.First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// RecordCompletedOrderWithTx bumps the running totals when an order is delivered.
func (r *Repository) RecordCompletedOrderWithTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Model(&models.Store{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_orders":  gorm.Expr("total_orders + ?", 1),
			"total_revenue": gorm.Expr("total_revenue + ?", total),
			"updated_at":    time.Now().UTC(),
		}).Error
}
