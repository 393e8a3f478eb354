package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/pagination"
)

// Repository persists orders and their item snapshots.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	return r.db.WithContext(ctx).Create(order).Error
}

// Count returns how many orders exist; it seeds the order number sequence.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByCustomer returns the customer's orders newest first, starting after
// cursor when one is given. It fetches one row past the page size so the
// caller can tell whether another page exists.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID)
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Order
	if err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActiveByStore returns the store's non-terminal orders, optionally
// narrowed to one status, newest first.
func (r *Repository) ListActiveByStore(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus, limit int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where("store_id = ?", storeID).
		Where("status NOT IN ?", []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var rows []models.Order
	if err := q.Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the order row without touching its items.
func (r *Repository) Update(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error
}

func (r *Repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_status", status).Error
}

func (r *Repository) CountActiveByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("store_id = ?", storeID).
		Where("status NOT IN ?", []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled}).
		Count(&count).Error
	return count, err
}

// DeliveredSales sums the totals of the store's delivered orders.
func (r *Repository) DeliveredSales(ctx context.Context, storeID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Sales decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS sales").
		Where("store_id = ? AND status = ?", storeID, enums.OrderStatusDelivered).
		Scan(&row).Error
	return row.Sales, err
}
