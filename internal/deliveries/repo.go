package deliveries

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/pagination"
)

// Repository persists deliveries and their tracking history.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, delivery *models.Delivery) error {
	if delivery == nil {
		return fmt.Errorf("delivery is required")
	}
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *Repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	return r.findOne(ctx, "order_id = ?", orderID)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.WithContext(ctx).
		Preload("TrackingUpdates", func(db *gorm.DB) *gorm.DB {
			return db.Order("recorded_at ASC")
		}).
		Where(query, arg).
		First(&delivery).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

// ListForPartner returns the partner's deliveries, open ones first.
func (r *Repository) ListForPartner(ctx context.Context, partnerID uuid.UUID, activeOnly bool, limit int) ([]models.Delivery, error) {
	q := r.db.WithContext(ctx).Where("partner_id = ?", partnerID)
	if activeOnly {
		q = q.Where("status NOT IN ?", []enums.DeliveryStatus{enums.DeliveryStatusDelivered, enums.DeliveryStatusCancelled})
	}
	var rows []models.Delivery
	if err := q.Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the delivery row; tracking updates are appended separately.
func (r *Repository) Update(ctx context.Context, delivery *models.Delivery) error {
	if delivery == nil {
		return fmt.Errorf("delivery is required")
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(delivery).Error
}

func (r *Repository) AddTrackingUpdate(ctx context.Context, update *models.DeliveryTrackingUpdate) error {
	if update == nil {
		return fmt.Errorf("tracking update is required")
	}
	return r.db.WithContext(ctx).Create(update).Error
}
