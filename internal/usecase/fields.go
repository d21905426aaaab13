package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/queue"
)

// MaxBooking is the longest single field booking.
const MaxBooking = 12 * time.Hour

const maxAvailabilityWindow = 31 * 24 * time.Hour

type fieldStore interface {
	store[model.Field]
	restorer
}

type bookingStore interface {
	store[model.FieldBooking]
	Overlaps(ctx context.Context, fieldID uint64, start, end time.Time) (bool, error)
	Between(ctx context.Context, tenantID, fieldID uint64, from, to time.Time) ([]*model.FieldBooking, error)
}

// FieldUsecase manages rentable fields and their bookings.
type FieldUsecase struct {
	Base
	Fields   fieldStore
	Bookings bookingStore
	Payments openPayments
}

type FieldInput struct {
	Name        string          `json:"name" validate:"required,max=150"`
	Kind        string          `json:"kind" validate:"required,oneof=SPORT PARTY"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Capacity    uint32          `json:"capacity" validate:"gt=0,lte=10000"`
	HourlyPrice decimal.Decimal `json:"hourly_price"`
	IsActive    *bool           `json:"is_active"`
}

type BookInput struct {
	FieldID uint64    `json:"field_id" validate:"required"`
	StartAt time.Time `json:"start_at" validate:"required"`
	EndAt   time.Time `json:"end_at" validate:"required"`
	Notes   *string   `json:"notes" validate:"omitempty,max=500"`
}

func fillField(f *model.Field, in FieldInput) {
	f.Name = strings.TrimSpace(in.Name)
	f.Kind = in.Kind
	f.Description = in.Description
	f.Capacity = in.Capacity
	f.HourlyPrice = in.HourlyPrice
	f.IsActive = boolOr(in.IsActive, f.IsActive)
}

func (u *FieldUsecase) Create(ctx context.Context, s Scope, in FieldInput) (*FieldDTO, error) {
	if err := requireStaff(s); err != nil {
		return nil, err
	}
	in.Kind = strings.ToUpper(in.Kind)
	if err := check(in, func(f fieldErrors) { f.positive("hourly_price", in.HourlyPrice) }); err != nil {
		return nil, err
	}
	f := &model.Field{TenantID: s.TenantID, IsActive: true}
	fillField(f, in)
	if err := u.Fields.Create(ctx, f); err != nil {
		return nil, fromRepo(err)
	}
	dto := fieldDTO(f)
	return &dto, nil
}

func (u *FieldUsecase) visible(ctx context.Context, s Scope, id uint64) (*model.Field, error) {
	f, err := u.Fields.Get(ctx, s.TenantID, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !f.IsActive && !s.IsStaff() {
		return nil, errNotFound("errors.not_found")
	}
	return f, nil
}

func (u *FieldUsecase) Get(ctx context.Context, s Scope, id uint64) (*FieldDTO, error) {
	f, err := u.visible(ctx, s, id)
	if err != nil {
		return nil, err
	}
	dto := fieldDTO(f)
	return &dto, nil
}

func (u *FieldUsecase) List(ctx context.Context, s Scope, q ListQuery) (Page[FieldDTO], error) {
	f := q.filter()
	if k, ok := f.Eq["kind"].(string); ok {
		f.Eq["kind"] = strings.ToUpper(k)
	}
	publicFilter(s, &f)
	items, total, err := u.Fields.List(ctx, s.TenantID, f)
	if err != nil {
		return Page[FieldDTO]{}, fromRepo(err)
	}
	return mapPage(items, total, f, fieldDTO), nil
}

func (u *FieldUsecase) Update(ctx context.Context, s Scope, id uint64, in FieldInput) (*FieldDTO, error) {
	if err := requireStaff(s); err != nil {
		return nil, err
	}
	in.Kind = strings.ToUpper(in.Kind)
	if err := check(in, func(f fieldErrors) { f.positive("hourly_price", in.HourlyPrice) }); err != nil {
		return nil, err
	}
	f, err := u.Fields.Get(ctx, s.TenantID, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	fillField(f, in)
	if err := u.Fields.Update(ctx, s.TenantID, f); err != nil {
		return nil, fromRepo(err)
	}
	dto := fieldDTO(f)
	return &dto, nil
}

// Delete soft deletes a field with no open bookings.
func (u *FieldUsecase) Delete(ctx context.Context, s Scope, id uint64) error {
	if err := requireStaff(s); err != nil {
		return err
	}
	return fromDelete(u.Fields.Delete(ctx, s.TenantID, id))
}

func (u *FieldUsecase) Restore(ctx context.Context, s Scope, id uint64) error {
	if err := requireAdmin(s); err != nil {
		return err
	}
	return fromRepo(u.Fields.Restore(ctx, s.TenantID, id))
}

// Availability lists the busy slots of a field inside [from, to).
func (u *FieldUsecase) Availability(ctx context.Context, s Scope, fieldID uint64, from, to time.Time) ([]SlotDTO, error) {
	if !to.After(from) || to.Sub(from) > maxAvailabilityWindow {
		return nil, errInvalid("validation.range", map[string]any{"field": "to", "min": "from", "max": "31d"})
	}
	if _, err := u.visible(ctx, s, fieldID); err != nil {
		return nil, err
	}
	rows, err := u.Bookings.Between(ctx, s.TenantID, fieldID, from, to)
	if err != nil {
		return nil, fromRepo(err)
	}
	out := make([]SlotDTO, 0, len(rows))
	for _, b := range rows {
		out = append(out, SlotDTO{StartAt: b.StartAt, EndAt: b.EndAt})
	}
	return out, nil
}

// bookingTotal charges the hourly price pro rata per minute.
func bookingTotal(hourly decimal.Decimal, d time.Duration) decimal.Decimal {
	minutes := decimal.NewFromInt(int64(d / time.Minute))
	return hourly.Mul(minutes).Div(decimal.NewFromInt(60)).Round(2)
}

func (u *FieldUsecase) checkWindow(in BookInput) error {
	start, end := in.StartAt.UTC(), in.EndAt.UTC()
	switch {
	case !end.After(start):
		return errInvalid("booking.end_before_start", nil)
	case !start.Truncate(time.Minute).Equal(start) || !end.Truncate(time.Minute).Equal(end):
		return errInvalid("booking.whole_minutes", nil)
	case end.Sub(start) > MaxBooking:
		return errInvalid("booking.too_long", map[string]any{"hours": int(MaxBooking / time.Hour)})
	case !start.After(u.now()):
		return errInvalid("booking.in_past", nil)
	}
	return nil
}

func (u *FieldUsecase) bookingDTO(ctx context.Context, b *model.FieldBooking) BookingDTO {
	return BookingDTO{ID: b.ID, FieldID: b.FieldID, UserID: b.UserID, StartAt: b.StartAt, EndAt: b.EndAt,
		Total: b.Total, Notes: b.Notes, CreatedAt: b.CreatedAt, Status: u.code(ctx, model.StatusKindBooking, b.StatusID)}
}

func bookingData(b *model.FieldBooking, fieldName string) map[string]any {
	return map[string]any{
		"id":    b.ID,
		"field": fieldName,
		"start": b.StartAt.UTC().Format("2006-01-02 15:04"),
		"end":   b.EndAt.UTC().Format("2006-01-02 15:04"),
		"total": b.Total.StringFixed(2),
	}
}

// Book reserves [start, end) on a field.  The field row is locked before
// the overlap check so two bookings of the same field serialize.
func (u *FieldUsecase) Book(ctx context.Context, s Scope, in BookInput) (*BookingDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	if err := check(in); err != nil {
		return nil, err
	}
	if err := u.checkWindow(in); err != nil {
		return nil, err
	}
	b := &model.FieldBooking{
		TenantID: s.TenantID,
		FieldID:  in.FieldID,
		UserID:   s.UserID,
		StartAt:  in.StartAt.UTC(),
		EndAt:    in.EndAt.UTC(),
		Notes:    in.Notes,
	}
	var fieldName string
	err := u.inTx(ctx, func(ctx context.Context) error {
		f, err := u.Fields.Lock(ctx, s.TenantID, in.FieldID)
		if err != nil {
			return fromRepo(err)
		}
		if !f.IsActive {
			return errConflict("booking.field_inactive", nil)
		}
		fieldName = f.Name
		busy, err := u.Bookings.Overlaps(ctx, f.ID, b.StartAt, b.EndAt)
		if err != nil {
			return errInternal(err)
		}
		if busy {
			return errConflict("booking.overlap", nil)
		}
		st, err := u.initial(ctx, model.StatusKindBooking)
		if err != nil {
			return err
		}
		b.StatusID = st.ID
		b.Total = bookingTotal(f.HourlyPrice, b.EndAt.Sub(b.StartAt))
		return fromRepo(u.Bookings.Create(ctx, b))
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, u.event(s, eventType(model.StatusKindBooking, "created"), b.UserID, bookingData(b, fieldName)))
	dto := u.bookingDTO(ctx, b)
	return &dto, nil
}

func (u *FieldUsecase) ownBooking(ctx context.Context, s Scope, id uint64, lock bool) (*model.FieldBooking, error) {
	get := u.Bookings.Get
	if lock {
		get = u.Bookings.Lock
	}
	b, err := get(ctx, s.TenantID, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !s.IsStaff() && b.UserID != s.UserID {
		return nil, errNotFound("errors.not_found")
	}
	return b, nil
}

func (u *FieldUsecase) GetBooking(ctx context.Context, s Scope, id uint64) (*BookingDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	b, err := u.ownBooking(ctx, s, id, false)
	if err != nil {
		return nil, err
	}
	dto := u.bookingDTO(ctx, b)
	return &dto, nil
}

func (u *FieldUsecase) ListBookings(ctx context.Context, s Scope, q ListQuery) (Page[BookingDTO], error) {
	if err := requireUser(s); err != nil {
		return Page[BookingDTO]{}, err
	}
	f := q.filter()
	if !s.IsStaff() {
		f.Eq["user_id"] = s.UserID
		f.IncludeDeleted = false
	}
	if err := u.withStatus(ctx, model.StatusKindBooking, q, &f); err != nil {
		return Page[BookingDTO]{}, err
	}
	items, total, err := u.Bookings.List(ctx, s.TenantID, f)
	if err != nil {
		return Page[BookingDTO]{}, fromRepo(err)
	}
	return mapPage(items, total, f, func(b *model.FieldBooking) BookingDTO { return u.bookingDTO(ctx, b) }), nil
}

func (u *FieldUsecase) advanceBooking(ctx context.Context, s Scope, b *model.FieldBooking, to string) (queue.Event, error) {
	next, err := u.move(ctx, model.StatusKindBooking, b.StatusID, to)
	if err != nil {
		return queue.Event{}, err
	}
	b.StatusID = next.ID
	if err := u.Bookings.Update(ctx, s.TenantID, b); err != nil {
		return queue.Event{}, fromRepo(err)
	}
	name := ""
	if f, err := u.Fields.Get(ctx, s.TenantID, b.FieldID); err == nil {
		name = f.Name
	}
	return u.event(s, eventType(model.StatusKindBooking, next.Code), b.UserID, bookingData(b, name)), nil
}

// TransitionBooking changes the status of a booking.  Customers may only
// cancel their own bookings.
func (u *FieldUsecase) TransitionBooking(ctx context.Context, s Scope, id uint64, to string) (*BookingDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	if !s.IsStaff() && !isCancel(to) {
		return nil, errForbidden("errors.forbidden")
	}
	var (
		b  *model.FieldBooking
		ev queue.Event
	)
	err := u.inTx(ctx, func(ctx context.Context) error {
		var err error
		if b, err = u.ownBooking(ctx, s, id, true); err != nil {
			return err
		}
		if isCancel(to) {
			if err := u.noPendingPayment(ctx, u.Payments, "field_booking_id", b.ID); err != nil {
				return err
			}
		}
		ev, err = u.advanceBooking(ctx, s, b, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, ev)
	dto := u.bookingDTO(ctx, b)
	return &dto, nil
}

func (u *FieldUsecase) CancelBooking(ctx context.Context, s Scope, id uint64) (*BookingDTO, error) {
	return u.TransitionBooking(ctx, s, id, model.StatusCancelled)
}

func (u *FieldUsecase) DeleteBooking(ctx context.Context, s Scope, id uint64) error {
	if err := requireStaff(s); err != nil {
		return err
	}
	return fromDelete(u.Bookings.Delete(ctx, s.TenantID, id))
}
