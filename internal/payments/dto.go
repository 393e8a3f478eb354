package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
)

type PaymentDTO struct {
	ID            uuid.UUID           `json:"id"`
	OrderID       uuid.UUID           `json:"order_id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency"`
	Method        enums.PaymentMethod `json:"method"`
	TransactionID string              `json:"transaction_id"`
	Status        enums.PaymentStatus `json:"status"`
	RefundAmount  *decimal.Decimal    `json:"refund_amount,omitempty"`
	RefundReason  *string             `json:"refund_reason,omitempty"`
	MaskedEmail   *string             `json:"masked_email,omitempty"`
	MaskedPhone   *string             `json:"masked_phone,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// CreatePaymentInput is the customer payload for POST /orders/{id}/payments.
type CreatePaymentInput struct {
	Method enums.PaymentMethod `json:"method" validate:"required"`
}

// RefundInput omits Amount for a full refund.
type RefundInput struct {
	Amount *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Reason string   `json:"reason" validate:"required,max=500"`
}

func FromModel(m *models.Payment) *PaymentDTO {
	if m == nil {
		return nil
	}
	return &PaymentDTO{
		ID:            m.ID,
		OrderID:       m.OrderID,
		CustomerID:    m.CustomerID,
		Amount:        m.Amount,
		Currency:      m.Currency,
		Method:        m.Method,
		TransactionID: m.TransactionID,
		Status:        m.Status,
		RefundAmount:  m.RefundAmount,
		RefundReason:  m.RefundReason,
		MaskedEmail:   m.MaskedEmail,
		MaskedPhone:   m.MaskedPhone,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
