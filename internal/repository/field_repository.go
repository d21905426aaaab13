package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

var fieldTable = &Table[model.Field]{
	Meta: fieldsMeta,
	Columns: []string{"id", "tenant_id", "name", "kind", "description", "capacity", "hourly_price", "is_active",
		"created_at", "updated_at", "deleted_at"},
	Scan: func(s Scanner, f *model.Field) error {
		return s.Scan(&f.ID, &f.TenantID, &f.Name, &f.Kind, &f.Description, &f.Capacity, &f.HourlyPrice, &f.IsActive,
			&f.CreatedAt, &f.UpdatedAt, &f.DeletedAt)
	},
	ID: func(f *model.Field) uint64 { return f.ID },
	Insert: func(f *model.Field) ([]string, []any) {
		return []string{"tenant_id", "name", "kind", "description", "capacity", "hourly_price", "is_active"},
			[]any{f.TenantID, f.Name, f.Kind, f.Description, f.Capacity, f.HourlyPrice, f.IsActive}
	},
	Update: func(f *model.Field) ([]string, []any) {
		return []string{"name", "kind", "description", "capacity", "hourly_price", "is_active"},
			[]any{f.Name, f.Kind, f.Description, f.Capacity, f.HourlyPrice, f.IsActive}
	},
	Searchable:  []string{"name", "description"},
	Filterable:  []string{"kind", "is_active"},
	Sortable:    []string{"name", "hourly_price", "capacity", "created_at"},
	DefaultSort: "name",
}

type FieldRepo struct{ *Repo[model.Field] }

func NewFieldRepo(db *sql.DB) *FieldRepo { return &FieldRepo{NewRepo(db, fieldTable)} }

var bookingTable = &Table[model.FieldBooking]{
	Meta: fieldBookingsMeta,
	Columns: []string{"id", "tenant_id", "field_id", "user_id", "status_id", "start_at", "end_at", "total", "notes",
		"created_at", "updated_at", "deleted_at"},
	Scan: func(s Scanner, b *model.FieldBooking) error {
		return s.Scan(&b.ID, &b.TenantID, &b.FieldID, &b.UserID, &b.StatusID, &b.StartAt, &b.EndAt, &b.Total, &b.Notes,
			&b.CreatedAt, &b.UpdatedAt, &b.DeletedAt)
	},
	ID: func(b *model.FieldBooking) uint64 { return b.ID },
	Insert: func(b *model.FieldBooking) ([]string, []any) {
		return []string{"tenant_id", "field_id", "user_id", "status_id", "start_at", "end_at", "total", "notes"},
			[]any{b.TenantID, b.FieldID, b.UserID, b.StatusID, b.StartAt.UTC(), b.EndAt.UTC(), b.Total, b.Notes}
	},
	Update: func(b *model.FieldBooking) ([]string, []any) {
		return []string{"status_id", "notes"}, []any{b.StatusID, b.Notes}
	},
	Filterable:  []string{"field_id", "user_id", "status_id"},
	Sortable:    []string{"start_at", "created_at"},
	DefaultSort: "-start_at",
}

type BookingRepo struct{ *Repo[model.FieldBooking] }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{NewRepo(db, bookingTable)} }

// Overlaps reports whether a live PENDING or CONFIRMED booking of the field
// intersects [start, end).  Bookings that merely touch do not overlap.
func (r *BookingRepo) Overlaps(ctx context.Context, fieldID uint64, start, end time.Time) (bool, error) {
	var one int
	err := r.q(ctx).QueryRowContext(ctx,
		"SELECT 1 FROM field_bookings WHERE field_id = ? AND deleted_at IS NULL AND start_at < ? AND end_at > ? AND "+
			openBookingPredicate+" LIMIT 1",
		fieldID, end.UTC(), start.UTC()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Between returns the open bookings of a field inside [from, to), used for
// the public availability view.
func (r *BookingRepo) Between(ctx context.Context, tenantID, fieldID uint64, from, to time.Time) ([]*model.FieldBooking, error) {
	return r.query(ctx, r.selectSQL()+
		" WHERE tenant_id = ? AND field_id = ? AND deleted_at IS NULL AND start_at < ? AND end_at > ? AND "+
		openBookingPredicate+" ORDER BY start_at",
		tenantID, fieldID, to.UTC(), from.UTC())
}
