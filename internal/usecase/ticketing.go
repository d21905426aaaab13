package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/queue"
	"github.com/iliyamo/sports-booking-backend/internal/ticketing"
)

// TicketingUsecase exposes the external ticketing provider to a tenant's
// customers.  API is nil when the integration is not configured.
type TicketingUsecase struct {
	Base
	API       ticketing.API
	Purchases store[model.TicketPurchase]
	Tenants   tenantGetter
	Users     userGetter
}

type PurchaseInput struct {
	EventID   string `json:"event_id" validate:"required,max=64"`
	SectionID string `json:"section_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"gt=0,lte=20"`
}

func ticketingErr(err error) error {
	var apiErr *ticketing.APIError
	switch {
	case errors.Is(err, ticketing.ErrNotFound):
		return &Error{Kind: KindNotFound, Key: "ticketing.not_found", Err: err}
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		return &Error{Kind: KindConflict, Key: "ticketing.unavailable", Err: err}
	}
	return errUnavailable("ticketing.unavailable", err)
}

func (u *TicketingUsecase) enabled() error {
	if u.API == nil {
		return errUnavailable("ticketing.disabled", nil)
	}
	return nil
}

// ListEvents lists the events the provider offers for the tenant, keyed by
// the tenant slug.
func (u *TicketingUsecase) ListEvents(ctx context.Context, s Scope) ([]ticketing.Event, error) {
	if err := u.enabled(); err != nil {
		return nil, err
	}
	t, err := u.Tenants.Get(ctx, 0, s.TenantID)
	if err != nil {
		return nil, fromRepo(err)
	}
	events, err := u.API.ListEvents(ctx, t.Slug)
	if err != nil {
		return nil, ticketingErr(err)
	}
	if events == nil {
		events = []ticketing.Event{}
	}
	return events, nil
}

func (u *TicketingUsecase) GetEvent(ctx context.Context, s Scope, id string) (*ticketing.Event, error) {
	if err := u.enabled(); err != nil {
		return nil, err
	}
	ev, err := u.API.GetEvent(ctx, id)
	if err != nil {
		return nil, ticketingErr(err)
	}
	return ev, nil
}

func (u *TicketingUsecase) Availability(ctx context.Context, s Scope, id string) (*ticketing.Availability, error) {
	if err := u.enabled(); err != nil {
		return nil, err
	}
	a, err := u.API.Availability(ctx, id)
	if err != nil {
		return nil, ticketingErr(err)
	}
	return a, nil
}

// Purchase buys tickets for the caller and records the purchase.  The
// provider call is idempotent on Reference.
func (u *TicketingUsecase) Purchase(ctx context.Context, s Scope, in PurchaseInput) (*TicketPurchaseDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	if err := u.enabled(); err != nil {
		return nil, err
	}
	if err := check(in); err != nil {
		return nil, err
	}
	usr, err := u.Users.Get(ctx, s.TenantID, s.UserID)
	if err != nil {
		return nil, fromRepo(err)
	}
	ref := uuid.NewString()
	p, err := u.API.Purchase(ctx, ticketing.PurchaseRequest{
		EventID:       in.EventID,
		SectionID:     in.SectionID,
		Quantity:      in.Quantity,
		CustomerEmail: usr.Email,
		CustomerName:  usr.FullName,
		Reference:     ref,
	})
	if err != nil {
		return nil, ticketingErr(err)
	}
	row := &model.TicketPurchase{
		TenantID:    s.TenantID,
		UserID:      s.UserID,
		EventID:     in.EventID,
		ExternalRef: p.ID,
		Quantity:    uint32(p.Quantity),
		Amount:      p.Amount,
		Currency:    p.Currency,
		Status:      p.Status,
	}
	if err := u.Purchases.Create(ctx, row); err != nil {
		return nil, fromRepo(err)
	}
	name := in.EventID
	if ev, err := u.API.GetEvent(ctx, in.EventID); err == nil {
		name = ev.Name
	}
	u.publish(ctx, u.event(s, queue.TypeTicketPurchased, s.UserID,
		map[string]any{"event": name, "quantity": row.Quantity, "ref": row.ExternalRef}))
	dto := ticketPurchaseDTO(row)
	return &dto, nil
}

// ListPurchases returns the caller's purchases, or all of them for staff.
func (u *TicketingUsecase) ListPurchases(ctx context.Context, s Scope, q ListQuery) (Page[TicketPurchaseDTO], error) {
	if err := requireUser(s); err != nil {
		return Page[TicketPurchaseDTO]{}, err
	}
	f := q.filter()
	if !s.IsStaff() {
		f.Eq["user_id"] = s.UserID
	}
	items, total, err := u.Purchases.List(ctx, s.TenantID, f)
	if err != nil {
		return Page[TicketPurchaseDTO]{}, fromRepo(err)
	}
	return mapPage(items, total, f, ticketPurchaseDTO), nil
}
