package usecase

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/queue"
	"github.com/iliyamo/sports-booking-backend/internal/repository"
)

type orderItemStore interface {
	Create(ctx context.Context, v *model.OrderItem) error
	ByOrder(ctx context.Context, orderID uint64) ([]*model.OrderItem, error)
}

// OrderUsecase places shop orders and moves them through the ORDER chain.
type OrderUsecase struct {
	Base
	Orders   store[model.Order]
	Items    orderItemStore
	Products productStore
	Payments openPayments
	Currency string
}

type OrderLineInput struct {
	ProductID uint64 `json:"product_id" validate:"required"`
	Quantity  uint32 `json:"quantity" validate:"gt=0,lte=1000"`
}

type PlaceOrderInput struct {
	Items []OrderLineInput `json:"items" validate:"required,min=1,max=50,dive"`
	Notes *string          `json:"notes" validate:"omitempty,max=500"`
}

// mergeLines sums quantities per product and sorts by product id so stock
// rows are always locked in the same order.
func mergeLines(lines []OrderLineInput) []OrderLineInput {
	qty := map[uint64]uint32{}
	for _, l := range lines {
		qty[l.ProductID] += l.Quantity
	}
	out := make([]OrderLineInput, 0, len(qty))
	for id, q := range qty {
		out = append(out, OrderLineInput{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (u *OrderUsecase) dto(ctx context.Context, o *model.Order, items []*model.OrderItem) OrderDTO {
	d := OrderDTO{ID: o.ID, UserID: o.UserID, Total: o.Total, Currency: o.Currency, Notes: o.Notes,
		CreatedAt: o.CreatedAt, Status: u.code(ctx, model.StatusKindOrder, o.StatusID)}
	for _, it := range items {
		d.Items = append(d.Items, OrderItemDTO{ProductID: it.ProductID, Quantity: it.Quantity,
			UnitPrice: it.UnitPrice, LineTotal: it.LineTotal})
	}
	return d
}

func orderData(o *model.Order) map[string]any {
	return map[string]any{"id": o.ID, "total": o.Total.StringFixed(2), "currency": o.Currency}
}

// Place creates a PENDING order.  Stock is taken with guarded decrements in
// the same transaction, so a failing line leaves every product untouched.
func (u *OrderUsecase) Place(ctx context.Context, s Scope, in PlaceOrderInput) (*OrderDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, errInvalid("order.empty", nil)
	}
	if err := check(in); err != nil {
		return nil, err
	}
	o := &model.Order{TenantID: s.TenantID, UserID: s.UserID, Currency: u.Currency, Notes: in.Notes}
	var items []*model.OrderItem
	err := u.inTx(ctx, func(ctx context.Context) error {
		total := decimal.Zero
		for _, l := range mergeLines(in.Items) {
			p, err := u.Products.Get(ctx, s.TenantID, l.ProductID)
			if errors.Is(err, repository.ErrNotFound) || (err == nil && !p.IsActive) {
				return errConflict("order.product_unavailable", map[string]any{"product": l.ProductID})
			}
			if err != nil {
				return fromRepo(err)
			}
			if err := u.Products.DecrementStock(ctx, s.TenantID, p.ID, l.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return errConflict("order.insufficient_stock", map[string]any{"product": p.Name})
				}
				return errInternal(err)
			}
			line := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			total = total.Add(line)
			items = append(items, &model.OrderItem{ProductID: p.ID, Quantity: l.Quantity, UnitPrice: p.Price, LineTotal: line})
		}
		st, err := u.initial(ctx, model.StatusKindOrder)
		if err != nil {
			return err
		}
		o.StatusID = st.ID
		o.Total = total
		if err := u.Orders.Create(ctx, o); err != nil {
			return fromRepo(err)
		}
		for _, it := range items {
			it.OrderID = o.ID
			if err := u.Items.Create(ctx, it); err != nil {
				return fromRepo(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, u.event(s, eventType(model.StatusKindOrder, "created"), o.UserID, orderData(o)))
	dto := u.dto(ctx, o, items)
	return &dto, nil
}

func (u *OrderUsecase) own(ctx context.Context, s Scope, id uint64, lock bool) (*model.Order, error) {
	get := u.Orders.Get
	if lock {
		get = u.Orders.Lock
	}
	o, err := get(ctx, s.TenantID, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !s.IsStaff() && o.UserID != s.UserID {
		return nil, errNotFound("errors.not_found")
	}
	return o, nil
}

func (u *OrderUsecase) Get(ctx context.Context, s Scope, id uint64) (*OrderDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	o, err := u.own(ctx, s, id, false)
	if err != nil {
		return nil, err
	}
	items, err := u.Items.ByOrder(ctx, o.ID)
	if err != nil {
		return nil, fromRepo(err)
	}
	dto := u.dto(ctx, o, items)
	return &dto, nil
}

// List returns the caller's orders, or every order for staff.
func (u *OrderUsecase) List(ctx context.Context, s Scope, q ListQuery) (Page[OrderDTO], error) {
	if err := requireUser(s); err != nil {
		return Page[OrderDTO]{}, err
	}
	f := q.filter()
	if !s.IsStaff() {
		f.Eq["user_id"] = s.UserID
		f.IncludeDeleted = false
	}
	if err := u.withStatus(ctx, model.StatusKindOrder, q, &f); err != nil {
		return Page[OrderDTO]{}, err
	}
	items, total, err := u.Orders.List(ctx, s.TenantID, f)
	if err != nil {
		return Page[OrderDTO]{}, fromRepo(err)
	}
	return mapPage(items, total, f, func(o *model.Order) OrderDTO { return u.dto(ctx, o, nil) }), nil
}

// advance moves a locked order.  Cancelling puts the stock back.
func (u *OrderUsecase) advance(ctx context.Context, s Scope, o *model.Order, to string) (queue.Event, error) {
	next, err := u.move(ctx, model.StatusKindOrder, o.StatusID, to)
	if err != nil {
		return queue.Event{}, err
	}
	if next.Code == model.StatusCancelled {
		items, err := u.Items.ByOrder(ctx, o.ID)
		if err != nil {
			return queue.Event{}, fromRepo(err)
		}
		for _, it := range items {
			if err := u.Products.IncrementStock(ctx, s.TenantID, it.ProductID, it.Quantity); err != nil {
				return queue.Event{}, errInternal(err)
			}
		}
	}
	o.StatusID = next.ID
	if err := u.Orders.Update(ctx, s.TenantID, o); err != nil {
		return queue.Event{}, fromRepo(err)
	}
	return u.event(s, eventType(model.StatusKindOrder, next.Code), o.UserID, orderData(o)), nil
}

// Transition changes the status of an order.  Customers may only cancel
// their own orders.
func (u *OrderUsecase) Transition(ctx context.Context, s Scope, id uint64, to string) (*OrderDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	if !s.IsStaff() && !isCancel(to) {
		return nil, errForbidden("errors.forbidden")
	}
	var (
		o  *model.Order
		ev queue.Event
	)
	err := u.inTx(ctx, func(ctx context.Context) error {
		var err error
		if o, err = u.own(ctx, s, id, true); err != nil {
			return err
		}
		if isCancel(to) {
			if err := u.noPendingPayment(ctx, u.Payments, "order_id", o.ID); err != nil {
				return err
			}
		}
		ev, err = u.advance(ctx, s, o, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, ev)
	dto := u.dto(ctx, o, nil)
	return &dto, nil
}

func (u *OrderUsecase) Cancel(ctx context.Context, s Scope, id uint64) (*OrderDTO, error) {
	return u.Transition(ctx, s, id, model.StatusCancelled)
}

func (u *OrderUsecase) Delete(ctx context.Context, s Scope, id uint64) error {
	if err := requireStaff(s); err != nil {
		return err
	}
	return fromDelete(u.Orders.Delete(ctx, s.TenantID, id))
}
