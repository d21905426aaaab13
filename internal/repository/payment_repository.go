package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

var paymentTable = &Table[model.Payment]{
	Meta: paymentsMeta,
	Columns: []string{"id", "tenant_id", "user_id", "order_id", "field_booking_id", "enrollment_id", "status_id",
		"gateway", "intent_id", "client_secret", "amount", "currency", "idempotency_key", "created_at", "updated_at"},
	Scan: func(s Scanner, p *model.Payment) error {
		return s.Scan(&p.ID, &p.TenantID, &p.UserID, &p.OrderID, &p.FieldBookingID, &p.EnrollmentID, &p.StatusID,
			&p.Gateway, &p.IntentID, &p.ClientSecret, &p.Amount, &p.Currency, &p.IdempotencyKey, &p.CreatedAt, &p.UpdatedAt)
	},
	ID: func(p *model.Payment) uint64 { return p.ID },
	Insert: func(p *model.Payment) ([]string, []any) {
		return []string{"tenant_id", "user_id", "order_id", "field_booking_id", "enrollment_id", "status_id",
				"gateway", "intent_id", "client_secret", "amount", "currency", "idempotency_key"},
			[]any{p.TenantID, p.UserID, p.OrderID, p.FieldBookingID, p.EnrollmentID, p.StatusID,
				p.Gateway, p.IntentID, p.ClientSecret, p.Amount, p.Currency, p.IdempotencyKey}
	},
	Update: func(p *model.Payment) ([]string, []any) {
		return []string{"status_id", "intent_id", "client_secret"}, []any{p.StatusID, p.IntentID, p.ClientSecret}
	},
	Filterable:  []string{"user_id", "order_id", "field_booking_id", "enrollment_id", "status_id", "gateway"},
	Sortable:    []string{"created_at", "amount"},
	DefaultSort: "-created_at",
}

// PaymentRepo stores payments.  Payments are never deleted through the
// API; their targets are SET NULL by the database when removed.
type PaymentRepo struct{ *Repo[model.Payment] }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{NewRepo(db, paymentTable)} }

// OpenForTarget returns PENDING or SUCCEEDED payments pointing at the
// target column/id pair.  column must be one of the payment target columns.
func (r *PaymentRepo) OpenForTarget(ctx context.Context, column string, id uint64) ([]*model.Payment, error) {
	if column != "order_id" && column != "field_booking_id" && column != "enrollment_id" {
		return nil, ErrInvalidFilter
	}
	return r.query(ctx, r.selectSQL()+" WHERE "+column+" = ? AND status_id IN "+
		"(SELECT id FROM statuses WHERE kind = 'PAYMENT' AND code IN ('PENDING','SUCCEEDED')) ORDER BY id", id)
}

var ticketPurchaseTable = &Table[model.TicketPurchase]{
	Meta: ticketPurchasesMeta,
	Columns: []string{"id", "tenant_id", "user_id", "event_id", "external_ref", "quantity", "amount", "currency",
		"status", "created_at"},
	Scan: func(s Scanner, t *model.TicketPurchase) error {
		return s.Scan(&t.ID, &t.TenantID, &t.UserID, &t.EventID, &t.ExternalRef, &t.Quantity, &t.Amount, &t.Currency,
			&t.Status, &t.CreatedAt)
	},
	ID: func(t *model.TicketPurchase) uint64 { return t.ID },
	Insert: func(t *model.TicketPurchase) ([]string, []any) {
		return []string{"tenant_id", "user_id", "event_id", "external_ref", "quantity", "amount", "currency", "status"},
			[]any{t.TenantID, t.UserID, t.EventID, t.ExternalRef, t.Quantity, t.Amount, t.Currency, t.Status}
	},
	Update: func(t *model.TicketPurchase) ([]string, []any) {
		return []string{"status"}, []any{t.Status}
	},
	Filterable:  []string{"user_id", "event_id", "status"},
	Sortable:    []string{"created_at"},
	DefaultSort: "-created_at",
}

type TicketPurchaseRepo struct{ *Repo[model.TicketPurchase] }

func NewTicketPurchaseRepo(db *sql.DB) *TicketPurchaseRepo {
	return &TicketPurchaseRepo{NewRepo(db, ticketPurchaseTable)}
}
