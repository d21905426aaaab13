package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field kinds.
const (
	FieldKindSport = "SPORT"
	FieldKindParty = "PARTY"
)

// Field is a rentable pitch, court or party room.
type Field struct {
	ID          uint64          // fields.id
	TenantID    uint64          // fields.tenant_id
	Name        string          // fields.name
	Kind        string          // fields.kind
	Description *string         // fields.description
	Capacity    uint32          // fields.capacity
	HourlyPrice decimal.Decimal // fields.hourly_price
	IsActive    bool            // fields.is_active
	CreatedAt   time.Time       // fields.created_at
	UpdatedAt   time.Time       // fields.updated_at
	DeletedAt   *time.Time      // fields.deleted_at
}

// FieldBooking reserves a field for the half open interval [StartAt, EndAt).
type FieldBooking struct {
	ID        uint64          // field_bookings.id
	TenantID  uint64          // field_bookings.tenant_id
	FieldID   uint64          // field_bookings.field_id
	UserID    uint64          // field_bookings.user_id
	StatusID  uint64          // field_bookings.status_id
	StartAt   time.Time       // field_bookings.start_at (UTC)
	EndAt     time.Time       // field_bookings.end_at (UTC)
	Total     decimal.Decimal // field_bookings.total
	Notes     *string         // field_bookings.notes
	CreatedAt time.Time       // field_bookings.created_at
	UpdatedAt time.Time       // field_bookings.updated_at
	DeletedAt *time.Time      // field_bookings.deleted_at
}
