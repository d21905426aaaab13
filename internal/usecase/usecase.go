// Package usecase holds the application operations.  Each one validates its
// input, turns it into entities, persists them through the repositories
// (inside one transaction when it writes more than one row) and maps the
// result to a response DTO.
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/queue"
	"github.com/iliyamo/sports-booking-backend/internal/repository"
	"github.com/iliyamo/sports-booking-backend/internal/workflow"
)

// Scope is who is calling and for which tenant.  Public requests carry a
// tenant but no user.
type Scope struct {
	TenantID uint64
	UserID   uint64
	Role     string
	Locale   string
}

func (s Scope) IsAdmin() bool { return s.Role == model.RoleAdmin }
func (s Scope) IsStaff() bool { return s.Role == model.RoleAdmin || s.Role == model.RoleStaff }

func requireStaff(s Scope) error {
	if !s.IsStaff() {
		return errForbidden("errors.forbidden")
	}
	return nil
}

func requireAdmin(s Scope) error {
	if !s.IsAdmin() {
		return errForbidden("errors.forbidden")
	}
	return nil
}

func requireUser(s Scope) error {
	if s.UserID == 0 {
		return errUnauthorized("errors.unauthorized")
	}
	return nil
}

// Transactor runs fn in one database transaction carried by ctx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Chains resolves the status chain of a kind.
type Chains interface {
	Chain(ctx context.Context, kind string) (*workflow.Chain, error)
}

// store is the generic repository surface the use cases rely on.
type store[T any] interface {
	Create(ctx context.Context, v *T) error
	Get(ctx context.Context, tenantID, id uint64) (*T, error)
	Lock(ctx context.Context, tenantID, id uint64) (*T, error)
	List(ctx context.Context, tenantID uint64, f repository.Filter) ([]*T, int, error)
	Update(ctx context.Context, tenantID uint64, v *T) error
	Delete(ctx context.Context, tenantID, id uint64) error
}

type restorer interface {
	Restore(ctx context.Context, tenantID, id uint64) error
}

type userGetter interface {
	Get(ctx context.Context, tenantID, id uint64) (*model.User, error)
}

type tenantGetter interface {
	Get(ctx context.Context, tenantID, id uint64) (*model.Tenant, error)
}

// ListQuery is the paging, sorting and filtering input of list operations.
// Status is a status code, resolved against the chain of the listed kind.
type ListQuery struct {
	Page           int
	PerPage        int
	Sort           string
	Search         string
	Status         string
	Eq             map[string]any
	IncludeDeleted bool
}

func (q ListQuery) filter() repository.Filter {
	eq := make(map[string]any, len(q.Eq)+1)
	for k, v := range q.Eq {
		eq[k] = v
	}
	f := repository.Filter{
		Eq:             eq,
		Search:         strings.TrimSpace(q.Search),
		Page:           q.Page,
		PerPage:        q.PerPage,
		Sort:           q.Sort,
		IncludeDeleted: q.IncludeDeleted,
	}
	f.Normalize()
	return f
}

// Page is one page of a list response.
type Page[T any] struct {
	Items   []T `json:"items"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

func mapPage[M any, D any](items []*M, total int, f repository.Filter, conv func(*M) D) Page[D] {
	out := make([]D, 0, len(items))
	for _, it := range items {
		out = append(out, conv(it))
	}
	return Page[D]{Items: out, Page: f.Page, PerPage: f.PerPage, Total: total}
}

// Base carries what every use case shares.
type Base struct {
	Tx     Transactor
	Chains Chains
	Events queue.Publisher
	Log    *zap.Logger
	Now    func() time.Time
}

func (b *Base) now() time.Time {
	if b.Now != nil {
		return b.Now().UTC()
	}
	return time.Now().UTC()
}

func (b *Base) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if b.Tx == nil {
		return fn(ctx)
	}
	return b.Tx.WithinTx(ctx, fn)
}

// publish hands committed events to the publisher.  A failed publish is
// logged; the write it reports on already happened.
func (b *Base) publish(ctx context.Context, evs ...queue.Event) {
	if b.Events == nil {
		return
	}
	for _, ev := range evs {
		if ev.Type == "" {
			continue
		}
		if err := b.Events.Publish(ctx, ev); err != nil && b.Log != nil {
			b.Log.Warn("publish event", zap.String("type", ev.Type), zap.String("event_id", ev.ID), zap.Error(err))
		}
	}
}

// event builds an event for userID.  The caller's locale only sticks when
// the caller is the recipient; otherwise the recipient's own locale applies.
func (b *Base) event(s Scope, typ string, userID uint64, data map[string]any) queue.Event {
	locale := ""
	if userID == s.UserID {
		locale = s.Locale
	}
	return queue.NewEvent(typ, s.TenantID, userID, locale, data)
}

func (b *Base) chain(ctx context.Context, kind string) (*workflow.Chain, error) {
	c, err := b.Chains.Chain(ctx, kind)
	if err != nil {
		return nil, errInternal(err)
	}
	return c, nil
}

func (b *Base) initial(ctx context.Context, kind string) (*model.Status, error) {
	c, err := b.chain(ctx, kind)
	if err != nil {
		return nil, err
	}
	return c.Initial(), nil
}

// statusID resolves a status code of kind.
func (b *Base) statusID(ctx context.Context, kind, code string) (uint64, error) {
	c, err := b.chain(ctx, kind)
	if err != nil {
		return 0, err
	}
	s, err := c.ByCode(strings.ToUpper(code))
	if err != nil {
		return 0, errInvalid("workflow.unknown_status", map[string]any{"status": code})
	}
	return s.ID, nil
}

// code returns the status code of id, or "" when it is unknown.
func (b *Base) code(ctx context.Context, kind string, id uint64) string {
	c, err := b.Chains.Chain(ctx, kind)
	if err != nil {
		return ""
	}
	s, err := c.ByID(id)
	if err != nil {
		return ""
	}
	return s.Code
}

// move checks a transition of kind from fromID to the code to.
func (b *Base) move(ctx context.Context, kind string, fromID uint64, to string) (*model.Status, error) {
	c, err := b.chain(ctx, kind)
	if err != nil {
		return nil, err
	}
	next, err := c.Transition(fromID, strings.ToUpper(to))
	if err != nil {
		var te *workflow.TransitionError
		if errors.As(err, &te) {
			return nil, &Error{Kind: KindConflict, Key: "workflow.invalid_transition",
				Args: map[string]any{"from": te.From, "to": te.To}, Err: err}
		}
		return nil, errInternal(err)
	}
	return next, nil
}

// withStatus adds the status_id equality filter for a status code.
func (b *Base) withStatus(ctx context.Context, kind string, q ListQuery, f *repository.Filter) error {
	if q.Status == "" {
		return nil
	}
	id, err := b.statusID(ctx, kind, q.Status)
	if err != nil {
		return err
	}
	f.Eq["status_id"] = id
	return nil
}

func eventType(kind, code string) string {
	return strings.ToLower(kind) + "." + strings.ToLower(code)
}

func isCancel(code string) bool { return strings.EqualFold(code, model.StatusCancelled) }

type openPayments interface {
	OpenForTarget(ctx context.Context, column string, id uint64) ([]*model.Payment, error)
}

// noPendingPayment fails with payment.pending while a payment for the
// target is still waiting on its gateway.
func (b *Base) noPendingPayment(ctx context.Context, pays openPayments, column string, id uint64) error {
	if pays == nil {
		return nil
	}
	open, err := pays.OpenForTarget(ctx, column, id)
	if err != nil {
		return fromRepo(err)
	}
	for _, p := range open {
		if b.code(ctx, model.StatusKindPayment, p.StatusID) == model.StatusPending {
			return errConflict("payment.pending", nil)
		}
	}
	return nil
}
