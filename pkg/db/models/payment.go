package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourwae/fastget-backend/pkg/enums"
)

type Payment struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	CustomerID         uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	Amount             decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency           string              `gorm:"column:currency;not null;default:'GHS'"`
	Method             enums.PaymentMethod `gorm:"column:method;not null"`
	TransactionID      string              `gorm:"column:transaction_id;not null;uniqueIndex"`
	ProcessorReference *string             `gorm:"column:processor_reference"`
	Status             enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	RefundAmount       *decimal.Decimal    `gorm:"column:refund_amount;type:numeric(12,2)"`
	RefundReason       *string             `gorm:"column:refund_reason"`
	MaskedEmail        *string             `gorm:"column:masked_email"`
	MaskedPhone        *string             `gorm:"column:masked_phone"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
