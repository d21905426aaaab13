package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment targets exactly one of an order, a field booking or an enrollment.
type Payment struct {
	ID             uint64          // payments.id
	TenantID       uint64          // payments.tenant_id
	UserID         uint64          // payments.user_id
	OrderID        *uint64         // payments.order_id
	FieldBookingID *uint64         // payments.field_booking_id
	EnrollmentID   *uint64         // payments.enrollment_id
	StatusID       uint64          // payments.status_id
	Gateway        string          // payments.gateway
	IntentID       string          // payments.intent_id
	ClientSecret   *string         // payments.client_secret
	Amount         decimal.Decimal // payments.amount
	Currency       string          // payments.currency
	IdempotencyKey string          // payments.idempotency_key
	CreatedAt      time.Time       // payments.created_at
	UpdatedAt      time.Time       // payments.updated_at
}

// TicketPurchase records a purchase made through the external ticketing
// provider.
type TicketPurchase struct {
	ID          uint64          // ticket_purchases.id
	TenantID    uint64          // ticket_purchases.tenant_id
	UserID      uint64          // ticket_purchases.user_id
	EventID     string          // ticket_purchases.event_id
	ExternalRef string          // ticket_purchases.external_ref
	Quantity    uint32          // ticket_purchases.quantity
	Amount      decimal.Decimal // ticket_purchases.amount
	Currency    string          // ticket_purchases.currency
	Status      string          // ticket_purchases.status
	CreatedAt   time.Time       // ticket_purchases.created_at
}
