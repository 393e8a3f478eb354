package enums

import (
	"fmt"
	"slices"
	"strings"
)

// PaymentMethod is how a customer settles an order. Everything except cash
// on delivery settles at checkout.
type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodWallet     PaymentMethod = "wallet"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
	PaymentMethodCOD        PaymentMethod = "cod"
)

var paymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodWallet,
	PaymentMethodUPI,
	PaymentMethodNetBanking,
	PaymentMethodCOD,
}

func (m PaymentMethod) String() string { return string(m) }

func (m PaymentMethod) IsValid() bool { return slices.Contains(paymentMethods, m) }

// SettlesOnDelivery reports whether money changes hands at the door.
func (m PaymentMethod) SettlesOnDelivery() bool { return m == PaymentMethodCOD }

// InitialStatus is the status a fresh payment attempt starts in.
func (m PaymentMethod) InitialStatus() PaymentStatus {
	if m.SettlesOnDelivery() {
		return PaymentStatusPending
	}
	return PaymentStatusCompleted
}

// ParsePaymentMethod accepts any casing and surrounding whitespace.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid payment method %q", value)
	}
	return m, nil
}

// PaymentStatus tracks a payment attempt and the order's payment summary.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

var paymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusProcessing,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

func (s PaymentStatus) String() string { return string(s) }

func (s PaymentStatus) IsValid() bool { return slices.Contains(paymentStatuses, s) }

// BlocksRetry reports whether an attempt in this status means the order
// must not be charged again.
func (s PaymentStatus) BlocksRetry() bool {
	return s == PaymentStatusPending || s == PaymentStatusProcessing || s == PaymentStatusCompleted
}

func (s PaymentStatus) IsRefundable() bool { return s == PaymentStatusCompleted }

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	s := PaymentStatus(strings.ToLower(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid payment status %q", value)
	}
	return s, nil
}
