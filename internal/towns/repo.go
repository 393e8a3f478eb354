package towns

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/pkg/db/models"
)

// Repository persists towns.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActive returns active towns ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]models.Town, error) {
	var towns []models.Town
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&towns).Error; err != nil {
		return nil, err
	}
	return towns, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Town, error) {
	var town models.Town
	if err := r.db.WithContext(ctx).First(&town, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &town, nil
}

func (r *Repository) FindByName(ctx context.Context, name string) (*models.Town, error) {
	var town models.Town
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&town).Error; err != nil {
		return nil, err
	}
	return &town, nil
}

func (r *Repository) Create(ctx context.Context, town *models.Town) error {
	if town == nil {
		return fmt.Errorf("town is required")
	}
	return r.db.WithContext(ctx).Create(town).Error
}

func (r *Repository) Update(ctx context.Context, town *models.Town) error {
	if town == nil {
		return fmt.Errorf("town is required")
	}
	return r.db.WithContext(ctx).Save(town).Error
}
