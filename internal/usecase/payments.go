package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/payment"
	"github.com/iliyamo/sports-booking-backend/internal/queue"
	"github.com/iliyamo/sports-booking-backend/internal/repository"
)

type paymentStore interface {
	store[model.Payment]
	OpenForTarget(ctx context.Context, column string, id uint64) ([]*model.Payment, error)
}

type gatewaySource interface {
	Get(name string) (payment.Gateway, error)
}

// PaymentUsecase collects payments for orders, field bookings and
// enrollments.  A successful payment moves its target forward; a refund
// moves it back out.
type PaymentUsecase struct {
	Base
	Payments    paymentStore
	Gateways    gatewaySource
	Orders      *OrderUsecase
	Fields      *FieldUsecase
	Enrollments *EnrollmentUsecase
	Users       userGetter
	Currency    string
}

type CreatePaymentInput struct {
	OrderID        *uint64 `json:"order_id"`
	FieldBookingID *uint64 `json:"field_booking_id"`
	EnrollmentID   *uint64 `json:"enrollment_id"`
	Gateway        string  `json:"gateway" validate:"omitempty,max=32"`
}

// target is the payable row a payment points at.
type target struct {
	column   string
	id       uint64
	userID   uint64
	amount   decimal.Decimal
	currency string
	desc     string
}

// Target status codes per payment outcome.
var (
	paidTarget     = map[string]string{"order_id": model.StatusPaid, "field_booking_id": model.StatusConfirmed, "enrollment_id": model.StatusActive}
	refundedTarget = map[string]string{"order_id": model.StatusRefunded, "field_booking_id": model.StatusCancelled, "enrollment_id": model.StatusCancelled}
)

func gatewayErr(err error) error {
	if errors.Is(err, payment.ErrDeclined) {
		return &Error{Kind: KindConflict, Key: "payment.gateway_error", Err: err}
	}
	return errUnavailable("payment.gateway_error", err)
}

func (u *PaymentUsecase) dto(ctx context.Context, p *model.Payment) PaymentDTO {
	return PaymentDTO{ID: p.ID, UserID: p.UserID, OrderID: p.OrderID, FieldBookingID: p.FieldBookingID,
		EnrollmentID: p.EnrollmentID, Gateway: p.Gateway, IntentID: p.IntentID, ClientSecret: p.ClientSecret,
		Amount: p.Amount, Currency: p.Currency, CreatedAt: p.CreatedAt,
		Status: u.code(ctx, model.StatusKindPayment, p.StatusID)}
}

func paymentData(p *model.Payment) map[string]any {
	return map[string]any{"id": p.ID, "amount": p.Amount.StringFixed(2), "currency": p.Currency}
}

func notPayable() error { return errConflict("payment.not_payable", nil) }

// resolve locks the single target of in and checks that it still waits for
// payment.
func (u *PaymentUsecase) resolve(ctx context.Context, s Scope, in CreatePaymentInput) (*target, error) {
	n := 0
	for _, p := range []*uint64{in.OrderID, in.FieldBookingID, in.EnrollmentID} {
		if p != nil {
			n++
		}
	}
	if n != 1 {
		return nil, errInvalid("payment.single_target", nil)
	}
	switch {
	case in.OrderID != nil:
		o, err := u.Orders.own(ctx, s, *in.OrderID, true)
		if err != nil {
			return nil, err
		}
		if u.code(ctx, model.StatusKindOrder, o.StatusID) != model.StatusPending {
			return nil, notPayable()
		}
		return &target{column: "order_id", id: o.ID, userID: o.UserID, amount: o.Total, currency: o.Currency,
			desc: fmt.Sprintf("Order #%d", o.ID)}, nil
	case in.FieldBookingID != nil:
		b, err := u.Fields.ownBooking(ctx, s, *in.FieldBookingID, true)
		if err != nil {
			return nil, err
		}
		if u.code(ctx, model.StatusKindBooking, b.StatusID) != model.StatusPending {
			return nil, notPayable()
		}
		return &target{column: "field_booking_id", id: b.ID, userID: b.UserID, amount: b.Total, currency: u.Currency,
			desc: fmt.Sprintf("Field booking #%d", b.ID)}, nil
	default:
		e, err := u.Enrollments.own(ctx, s, *in.EnrollmentID, true)
		if err != nil {
			return nil, err
		}
		if u.code(ctx, model.StatusKindEnrollment, e.StatusID) != model.StatusPending {
			return nil, notPayable()
		}
		c, err := u.Enrollments.Classes.Get(ctx, s.TenantID, e.ClassID)
		if err != nil {
			return nil, fromRepo(err)
		}
		return &target{column: "enrollment_id", id: e.ID, userID: e.UserID, amount: c.Price, currency: u.Currency,
			desc: fmt.Sprintf("Enrollment #%d %s", e.ID, c.Name)}, nil
	}
}

// Create opens a payment intent with the gateway and records it as
// PENDING.  The target row stays locked until the payment row exists, so a
// target never gets two open payments.
func (u *PaymentUsecase) Create(ctx context.Context, s Scope, in CreatePaymentInput) (*PaymentDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	if err := check(in); err != nil {
		return nil, err
	}
	g, err := u.Gateways.Get(in.Gateway)
	if err != nil {
		f := fieldErrors{}
		f.add("gateway", "validation.invalid", nil)
		return nil, f.err()
	}
	var p *model.Payment
	err = u.inTx(ctx, func(ctx context.Context) error {
		t, err := u.resolve(ctx, s, in)
		if err != nil {
			return err
		}
		if !t.amount.IsPositive() {
			return notPayable()
		}
		open, err := u.Payments.OpenForTarget(ctx, t.column, t.id)
		if err != nil {
			return fromRepo(err)
		}
		if len(open) > 0 {
			return errConflict("payment.already_paid", nil)
		}
		email := ""
		if usr, err := u.Users.Get(ctx, s.TenantID, t.userID); err == nil {
			email = usr.Email
		}
		key := uuid.NewString()
		intent, err := g.CreateIntent(ctx, payment.IntentRequest{
			Amount:         t.amount,
			Currency:       t.currency,
			Description:    t.desc,
			Email:          email,
			IdempotencyKey: key,
			Metadata: map[string]string{
				"tenant_id": strconv.FormatUint(s.TenantID, 10),
				t.column:    strconv.FormatUint(t.id, 10),
			},
		})
		if err != nil {
			return gatewayErr(err)
		}
		st, err := u.initial(ctx, model.StatusKindPayment)
		if err != nil {
			return err
		}
		id := t.id
		p = &model.Payment{
			TenantID:       s.TenantID,
			UserID:         t.userID,
			StatusID:       st.ID,
			Gateway:        g.Name(),
			IntentID:       intent.ID,
			Amount:         t.amount,
			Currency:       t.currency,
			IdempotencyKey: key,
		}
		if intent.ClientSecret != "" {
			secret := intent.ClientSecret
			p.ClientSecret = &secret
		}
		switch t.column {
		case "order_id":
			p.OrderID = &id
		case "field_booking_id":
			p.FieldBookingID = &id
		default:
			p.EnrollmentID = &id
		}
		return conflictAs(u.Payments.Create(ctx, p), "payment.already_paid")
	})
	if err != nil {
		return nil, err
	}
	dto := u.dto(ctx, p)
	return &dto, nil
}

func (u *PaymentUsecase) own(ctx context.Context, s Scope, id uint64, lock bool) (*model.Payment, error) {
	get := u.Payments.Get
	if lock {
		get = u.Payments.Lock
	}
	p, err := get(ctx, s.TenantID, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !s.IsStaff() && p.UserID != s.UserID {
		return nil, errNotFound("errors.not_found")
	}
	return p, nil
}

func (u *PaymentUsecase) Get(ctx context.Context, s Scope, id uint64) (*PaymentDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	p, err := u.own(ctx, s, id, false)
	if err != nil {
		return nil, err
	}
	dto := u.dto(ctx, p)
	return &dto, nil
}

func (u *PaymentUsecase) List(ctx context.Context, s Scope, q ListQuery) (Page[PaymentDTO], error) {
	if err := requireUser(s); err != nil {
		return Page[PaymentDTO]{}, err
	}
	f := q.filter()
	if !s.IsStaff() {
		f.Eq["user_id"] = s.UserID
	}
	if err := u.withStatus(ctx, model.StatusKindPayment, q, &f); err != nil {
		return Page[PaymentDTO]{}, err
	}
	items, total, err := u.Payments.List(ctx, s.TenantID, f)
	if err != nil {
		return Page[PaymentDTO]{}, fromRepo(err)
	}
	return mapPage(items, total, f, func(p *model.Payment) PaymentDTO { return u.dto(ctx, p) }), nil
}

// advanceTarget moves the target of p to the code codes holds for its
// column.  A target that is gone is skipped.
func (u *PaymentUsecase) advanceTarget(ctx context.Context, s Scope, p *model.Payment, codes map[string]string) (queue.Event, error) {
	switch {
	case p.OrderID != nil:
		o, err := u.Orders.Orders.Lock(ctx, s.TenantID, *p.OrderID)
		if errors.Is(err, repository.ErrNotFound) {
			return queue.Event{}, nil
		}
		if err != nil {
			return queue.Event{}, fromRepo(err)
		}
		return u.Orders.advance(ctx, s, o, codes["order_id"])
	case p.FieldBookingID != nil:
		b, err := u.Fields.Bookings.Lock(ctx, s.TenantID, *p.FieldBookingID)
		if errors.Is(err, repository.ErrNotFound) {
			return queue.Event{}, nil
		}
		if err != nil {
			return queue.Event{}, fromRepo(err)
		}
		return u.Fields.advanceBooking(ctx, s, b, codes["field_booking_id"])
	case p.EnrollmentID != nil:
		e, err := u.Enrollments.Enrollments.Lock(ctx, s.TenantID, *p.EnrollmentID)
		if errors.Is(err, repository.ErrNotFound) {
			return queue.Event{}, nil
		}
		if err != nil {
			return queue.Event{}, fromRepo(err)
		}
		return u.Enrollments.advance(ctx, s, e, codes["enrollment_id"])
	}
	return queue.Event{}, nil
}

// outcome asks the gateway where the intent stands.  Manual intents never
// settle on their own: staff confirm them after collecting the money.
func (u *PaymentUsecase) outcome(ctx context.Context, s Scope, p *model.Payment) (payment.IntentStatus, error) {
	if p.Gateway == payment.ManualName {
		if !s.IsStaff() {
			return "", errForbidden("errors.forbidden")
		}
		return payment.IntentSucceeded, nil
	}
	g, err := u.Gateways.Get(p.Gateway)
	if err != nil {
		return "", errInternal(err)
	}
	intent, err := g.GetIntent(ctx, p.IntentID)
	if err != nil {
		return "", gatewayErr(err)
	}
	return intent.Status, nil
}

// Confirm settles a PENDING payment from the gateway state: SUCCEEDED moves
// the target forward, FAILED leaves it waiting for a new payment.
// Confirming a settled payment is a no-op.
func (u *PaymentUsecase) Confirm(ctx context.Context, s Scope, id uint64) (*PaymentDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	p, err := u.own(ctx, s, id, false)
	if err != nil {
		return nil, err
	}
	if u.code(ctx, model.StatusKindPayment, p.StatusID) != model.StatusPending {
		dto := u.dto(ctx, p)
		return &dto, nil
	}
	status, err := u.outcome(ctx, s, p)
	if err != nil {
		return nil, err
	}
	var to string
	switch status {
	case payment.IntentSucceeded:
		to = model.StatusSucceeded
	case payment.IntentFailed:
		to = model.StatusFailed
	default:
		dto := u.dto(ctx, p)
		return &dto, nil
	}

	var evs []queue.Event
	err = u.inTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = u.own(ctx, s, id, true); err != nil {
			return err
		}
		if u.code(ctx, model.StatusKindPayment, p.StatusID) != model.StatusPending {
			return nil
		}
		next, err := u.move(ctx, model.StatusKindPayment, p.StatusID, to)
		if err != nil {
			return err
		}
		p.StatusID = next.ID
		if err := u.Payments.Update(ctx, s.TenantID, p); err != nil {
			return fromRepo(err)
		}
		evs = append(evs, u.event(s, eventType(model.StatusKindPayment, next.Code), p.UserID, paymentData(p)))
		if to == model.StatusSucceeded {
			ev, err := u.advanceTarget(ctx, s, p, paidTarget)
			if err != nil {
				return err
			}
			evs = append(evs, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, evs...)
	dto := u.dto(ctx, p)
	return &dto, nil
}

// Refund returns a SUCCEEDED payment.  The gateway refund runs last inside
// the transaction so a rejected refund leaves every status unchanged.
func (u *PaymentUsecase) Refund(ctx context.Context, s Scope, id uint64) (*PaymentDTO, error) {
	if err := requireAdmin(s); err != nil {
		return nil, err
	}
	var (
		p   *model.Payment
		evs []queue.Event
	)
	err := u.inTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = u.own(ctx, s, id, true); err != nil {
			return err
		}
		next, err := u.move(ctx, model.StatusKindPayment, p.StatusID, model.StatusRefunded)
		if err != nil {
			return err
		}
		p.StatusID = next.ID
		if err := u.Payments.Update(ctx, s.TenantID, p); err != nil {
			return fromRepo(err)
		}
		ev, err := u.advanceTarget(ctx, s, p, refundedTarget)
		if err != nil {
			return err
		}
		evs = append(evs, u.event(s, eventType(model.StatusKindPayment, next.Code), p.UserID, paymentData(p)), ev)
		g, err := u.Gateways.Get(p.Gateway)
		if err != nil {
			return errInternal(err)
		}
		if err := g.Refund(ctx, p.IntentID, p.Amount); err != nil {
			return gatewayErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, evs...)
	dto := u.dto(ctx, p)
	return &dto, nil
}
