package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/types"
)

type OrderItemDTO struct {
	ID                 uuid.UUID        `json:"id"`
	ProductID          uuid.UUID        `json:"product_id"`
	Name               string           `json:"name"`
	Price              decimal.Decimal  `json:"price"`
	Quantity           int              `json:"quantity"`
	Discount           decimal.Decimal  `json:"discount"`
	SelectedVariations types.Variations `json:"selected_variations,omitempty"`
	LineTotal          decimal.Decimal  `json:"line_total"`
}

// DeliverySummaryDTO is the slice of the delivery shown on order lists.
type DeliverySummaryDTO struct {
	ID               uuid.UUID            `json:"id"`
	Status           enums.DeliveryStatus `json:"status"`
	PartnerID        *uuid.UUID           `json:"partner_id,omitempty"`
	EstimatedMinutes *int                 `json:"estimated_minutes,omitempty"`
	DeliveredAt      *time.Time           `json:"delivered_at,omitempty"`
}

type OrderDTO struct {
	ID                    uuid.UUID           `json:"id"`
	OrderNumber           string              `json:"order_number"`
	CustomerID            uuid.UUID           `json:"customer_id"`
	StoreID               uuid.UUID           `json:"store_id"`
	StoreName             string              `json:"store_name,omitempty"`
	Subtotal              decimal.Decimal     `json:"subtotal"`
	Tax                   decimal.Decimal     `json:"tax"`
	DeliveryFee           decimal.Decimal     `json:"delivery_fee"`
	DiscountApplied       decimal.Decimal     `json:"discount_applied"`
	Total                 decimal.Decimal     `json:"total"`
	DeliveryAddress       types.Address       `json:"delivery_address"`
	Status                enums.OrderStatus   `json:"status"`
	NextStatuses          []enums.OrderStatus `json:"next_statuses"`
	PaymentStatus         enums.PaymentStatus `json:"payment_status"`
	PaymentMethod         enums.PaymentMethod `json:"payment_method"`
	SpecialInstructions   *string             `json:"special_instructions,omitempty"`
	EstimatedDeliveryTime *time.Time          `json:"estimated_delivery_time,omitempty"`
	ActualDeliveryTime    *time.Time          `json:"actual_delivery_time,omitempty"`
	Rating                *int                `json:"rating,omitempty"`
	Review                *string             `json:"review,omitempty"`
	Items                 []OrderItemDTO      `json:"items"`
	Delivery              *DeliverySummaryDTO `json:"delivery,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// StatsDTO backs the seller dashboard header.
type StatsDTO struct {
	ActiveOrders int64           `json:"active_orders"`
	Products     int64           `json:"products"`
	Sales        decimal.Decimal `json:"sales"`
	TotalOrders  int             `json:"total_orders"`
}

// StatusUpdateInput is the seller payload for POST /seller/orders/{id}/status.
type StatusUpdateInput struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

type RateInput struct {
	Rating int     `json:"rating" validate:"required,min=1,max=5"`
	Review *string `json:"review,omitempty" validate:"omitempty,max=2000"`
}

func FromModel(m *models.Order, storeName string, delivery *models.Delivery) *OrderDTO {
	if m == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, OrderItemDTO{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			Name:               item.Name,
			Price:              item.Price,
			Quantity:           item.Quantity,
			Discount:           item.Discount,
			SelectedVariations: item.SelectedVariations,
			LineTotal:          types.Money(item.LineTotal()),
		})
	}
	next := enums.NextOrderStatuses(m.Status)
	if next == nil {
		next = []enums.OrderStatus{}
	}
	dto := &OrderDTO{
		ID:                    m.ID,
		OrderNumber:           m.OrderNumber,
		CustomerID:            m.CustomerID,
		StoreID:               m.StoreID,
		StoreName:             storeName,
		Subtotal:              m.Subtotal,
		Tax:                   m.Tax,
		DeliveryFee:           m.DeliveryFee,
		DiscountApplied:       m.DiscountApplied,
		Total:                 m.Total,
		DeliveryAddress:       m.DeliveryAddress,
		Status:                m.Status,
		NextStatuses:          next,
		PaymentStatus:         m.PaymentStatus,
		PaymentMethod:         m.PaymentMethod,
		SpecialInstructions:   m.SpecialInstructions,
		EstimatedDeliveryTime: m.EstimatedDeliveryTime,
		ActualDeliveryTime:    m.ActualDeliveryTime,
		Rating:                m.Rating,
		Review:                m.Review,
		Items:                 items,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
	if delivery != nil {
		dto.Delivery = &DeliverySummaryDTO{
			ID:               delivery.ID,
			Status:           delivery.Status,
			PartnerID:        delivery.PartnerID,
			EstimatedMinutes: delivery.EstimatedMinutes,
			DeliveredAt:      delivery.DeliveredAt,
		}
	}
	return dto
}
