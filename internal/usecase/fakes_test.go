package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/payment"
	"github.com/iliyamo/sports-booking-backend/internal/queue"
	"github.com/iliyamo/sports-booking-backend/internal/repository"
	"github.com/iliyamo/sports-booking-backend/internal/workflow"
)

// memStore is an in-memory stand-in for the generic repositories.  Rows
// are copied in and out so use cases cannot mutate stored state without
// calling Update.
type memStore[T any] struct {
	mu      sync.Mutex
	rows    map[uint64]*T
	deleted map[uint64]bool
	next    uint64
	id      func(*T) *uint64
	tenant  func(*T) uint64
	cols    func(*T) map[string]any
	unique  func(a, b *T) bool

	deleteErr error
}

func newMem[T any](id func(*T) *uint64, tenant func(*T) uint64, cols func(*T) map[string]any) *memStore[T] {
	return &memStore[T]{rows: map[uint64]*T{}, deleted: map[uint64]bool{}, id: id, tenant: tenant, cols: cols}
}

func (m *memStore[T]) clone(v *T) *T {
	c := *v
	return &c
}

// snapshot copies the store and returns a func that puts the copy back.
func (m *memStore[T]) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make(map[uint64]*T, len(m.rows))
	for id, r := range m.rows {
		rows[id] = m.clone(r)
	}
	deleted := make(map[uint64]bool, len(m.deleted))
	for id, d := range m.deleted {
		deleted[id] = d
	}
	next := m.next
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.rows, m.deleted, m.next = rows, deleted, next
	}
}

func (m *memStore[T]) Create(_ context.Context, v *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unique != nil {
		for id, r := range m.rows {
			if !m.deleted[id] && m.unique(r, v) {
				return repository.ErrConflict
			}
		}
	}
	m.next++
	*m.id(v) = m.next
	m.rows[m.next] = m.clone(v)
	return nil
}

func (m *memStore[T]) get(tenantID, id uint64, withDeleted bool) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || (m.deleted[id] && !withDeleted) || (tenantID != 0 && m.tenant(r) != tenantID) {
		return nil, repository.ErrNotFound
	}
	return m.clone(r), nil
}

func (m *memStore[T]) Get(_ context.Context, tenantID, id uint64) (*T, error) {
	return m.get(tenantID, id, false)
}

func (m *memStore[T]) Lock(_ context.Context, tenantID, id uint64) (*T, error) {
	return m.get(tenantID, id, false)
}

func (m *memStore[T]) GetWithDeleted(_ context.Context, tenantID, id uint64) (*T, error) {
	return m.get(tenantID, id, true)
}

func (m *memStore[T]) List(_ context.Context, tenantID uint64, f repository.Filter) ([]*T, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []*T
	for _, id := range ids {
		r := m.rows[id]
		if (m.deleted[id] && !f.IncludeDeleted) || (tenantID != 0 && m.tenant(r) != tenantID) {
			continue
		}
		if m.cols != nil {
			cols := m.cols(r)
			match := true
			for k, v := range f.Eq {
				if cols[k] != v {
					match = false
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, m.clone(r))
	}
	return out, len(out), nil
}

func (m *memStore[T]) Update(_ context.Context, tenantID uint64, v *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := *m.id(v)
	if _, ok := m.rows[id]; !ok || m.deleted[id] {
		return repository.ErrNotFound
	}
	m.rows[id] = m.clone(v)
	return nil
}

func (m *memStore[T]) Delete(_ context.Context, tenantID, id uint64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, err := m.get(tenantID, id, false); err != nil {
		return err
	}
	m.mu.Lock()
	m.deleted[id] = true
	m.mu.Unlock()
	return nil
}

func (m *memStore[T]) Restore(_ context.Context, tenantID, id uint64) error {
	if _, err := m.get(tenantID, id, true); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.deleted, id)
	m.mu.Unlock()
	return nil
}

func (m *memStore[T]) all() []*T {
	items, _, _ := m.List(context.Background(), 0, repository.Filter{IncludeDeleted: true})
	return items
}

// Entity specific stores.

type memTenants struct{ *memStore[model.Tenant] }

func (m memTenants) GetBySlug(_ context.Context, slug string) (*model.Tenant, error) {
	for _, t := range m.all() {
		if t.Slug == slug && !m.deleted[t.ID] {
			return t, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memUsers struct{ *memStore[model.User] }

func (m memUsers) GetByEmail(_ context.Context, tenantID uint64, email string) (*model.User, error) {
	email = repository.NormalizeEmail(email)
	for _, u := range m.all() {
		if u.TenantID == tenantID && u.Email == email && !m.deleted[u.ID] {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memTokens struct {
	mu   sync.Mutex
	rows map[string]*model.RefreshToken
}

func (m *memTokens) StoreRefresh(_ context.Context, tenantID, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[hash] = &model.RefreshToken{TenantID: tenantID, UserID: userID, TokenHash: hash, ExpiresAt: exp}
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (*model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[hash]
	if !ok || t.RevokedAt != nil || time.Now().After(t.ExpiresAt) {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[hash]
	if !ok || t.RevokedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.rows {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *memTokens) live(userID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.rows {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}

// openIDs returns the ids of the statuses of kind with the given codes.
func openIDs(kind string, codes ...string) map[uint64]bool {
	out := map[uint64]bool{}
	for _, s := range workflow.DefaultStatuses() {
		if s.Kind != kind {
			continue
		}
		for _, c := range codes {
			if s.Code == c {
				out[s.ID] = true
			}
		}
	}
	return out
}

func statusIDOf(kind, code string) uint64 {
	for id := range openIDs(kind, code) {
		return id
	}
	return 0
}

type memEnrollments struct{ *memStore[model.Enrollment] }

func (m memEnrollments) open() []*model.Enrollment {
	ids := openIDs(model.StatusKindEnrollment, model.StatusPending, model.StatusActive)
	var out []*model.Enrollment
	for _, e := range m.all() {
		if ids[e.StatusID] && !m.deleted[e.ID] {
			out = append(out, e)
		}
	}
	return out
}

func (m memEnrollments) CountOpen(_ context.Context, classID uint64) (int, error) {
	n := 0
	for _, e := range m.open() {
		if e.ClassID == classID {
			n++
		}
	}
	return n, nil
}

func (m memEnrollments) HasOpen(_ context.Context, classID, userID uint64) (bool, error) {
	for _, e := range m.open() {
		if e.ClassID == classID && e.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type memBookings struct{ *memStore[model.FieldBooking] }

func (m memBookings) open(fieldID uint64, start, end time.Time) []*model.FieldBooking {
	ids := openIDs(model.StatusKindBooking, model.StatusPending, model.StatusConfirmed)
	var out []*model.FieldBooking
	for _, b := range m.all() {
		if b.FieldID == fieldID && ids[b.StatusID] && !m.deleted[b.ID] && b.StartAt.Before(end) && b.EndAt.After(start) {
			out = append(out, b)
		}
	}
	return out
}

func (m memBookings) Overlaps(_ context.Context, fieldID uint64, start, end time.Time) (bool, error) {
	return len(m.open(fieldID, start, end)) > 0, nil
}

func (m memBookings) Between(_ context.Context, _ uint64, fieldID uint64, from, to time.Time) ([]*model.FieldBooking, error) {
	return m.open(fieldID, from, to), nil
}

type memProducts struct{ *memStore[model.Product] }

func (m memProducts) DecrementStock(ctx context.Context, tenantID, id uint64, qty uint32) error {
	p, err := m.Get(ctx, tenantID, id)
	if err != nil || p.Stock < int32(qty) {
		return repository.ErrInsufficientStock
	}
	p.Stock -= int32(qty)
	return m.Update(ctx, tenantID, p)
}

func (m memProducts) IncrementStock(ctx context.Context, tenantID, id uint64, qty uint32) error {
	p, err := m.GetWithDeleted(ctx, tenantID, id)
	if err != nil {
		return err
	}
	p.Stock += int32(qty)
	m.mu.Lock()
	m.rows[id] = p
	m.mu.Unlock()
	return nil
}

type memOrderItems struct{ *memStore[model.OrderItem] }

func (m memOrderItems) ByOrder(_ context.Context, orderID uint64) ([]*model.OrderItem, error) {
	var out []*model.OrderItem
	for _, it := range m.all() {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

type memPayments struct{ *memStore[model.Payment] }

func (m memPayments) OpenForTarget(_ context.Context, column string, id uint64) ([]*model.Payment, error) {
	ids := openIDs(model.StatusKindPayment, model.StatusPending, model.StatusSucceeded)
	var out []*model.Payment
	for _, p := range m.all() {
		var target *uint64
		switch column {
		case "order_id":
			target = p.OrderID
		case "field_booking_id":
			target = p.FieldBookingID
		case "enrollment_id":
			target = p.EnrollmentID
		}
		if target != nil && *target == id && ids[p.StatusID] {
			out = append(out, p)
		}
	}
	return out, nil
}

type memNotifications struct {
	*memStore[model.Notification]
}

func (m memNotifications) MarkRead(ctx context.Context, tenantID, userID, id uint64) error {
	n, err := m.Get(ctx, tenantID, id)
	if err != nil || n.UserID != userID {
		return repository.ErrNotFound
	}
	if n.ReadAt == nil {
		now := time.Now()
		n.ReadAt = &now
	}
	return m.Update(ctx, tenantID, n)
}

func (m memNotifications) MarkAllRead(ctx context.Context, tenantID, userID uint64) (int64, error) {
	var changed int64
	for _, n := range m.all() {
		if n.TenantID == tenantID && n.UserID == userID && n.ReadAt == nil {
			now := time.Now()
			n.ReadAt = &now
			_ = m.Update(ctx, tenantID, n)
			changed++
		}
	}
	return changed, nil
}

func (m memNotifications) CountUnread(_ context.Context, tenantID, userID uint64) (int, error) {
	c := 0
	for _, n := range m.all() {
		if n.TenantID == tenantID && n.UserID == userID && n.ReadAt == nil {
			c++
		}
	}
	return c, nil
}

// recorder collects published events.
type recorder struct {
	mu  sync.Mutex
	evs []queue.Event
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.evs))
	for _, ev := range r.evs {
		out = append(out, ev.Type)
	}
	return out
}

type statusSource struct{}

func (statusSource) ListAll(context.Context) ([]*model.Status, error) { return workflow.DefaultStatuses(), nil }

// fakeGateway settles intents as told by status.
type fakeGateway struct {
	name     string
	status   payment.IntentStatus
	created  []payment.IntentRequest
	refunded []string
	err      error
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.created = append(g.created, req)
	return &payment.Intent{ID: "pi_" + strings.Repeat("x", len(g.created)), ClientSecret: "secret", Status: payment.IntentPending,
		Amount: req.Amount, Currency: req.Currency}, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	return &payment.Intent{ID: id, Status: g.status}, nil
}

func (g *fakeGateway) Refund(_ context.Context, id string, _ decimal.Decimal) error {
	if g.err != nil {
		return g.err
	}
	g.refunded = append(g.refunded, id)
	return nil
}

type snapshotter interface{ snapshot() func() }

type txKey struct{}

// memTx rolls every registered store back when fn fails.  Nested calls join
// the outer transaction like database.WithTx does.
type memTx struct {
	stores []snapshotter
}

func (x *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	restore := make([]func(), 0, len(x.stores))
	for _, st := range x.stores {
		restore = append(restore, st.snapshot())
	}
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		for _, r := range restore {
			r()
		}
		return err
	}
	return nil
}

// env wires every use case against in-memory stores for tenant 1.
type env struct {
	base     Base
	events   *recorder
	now      time.Time
	tenants  memTenants
	users    memUsers
	tokens   *memTokens
	academy  *memStore[model.Academy]
	classes  *memStore[model.AcademyClass]
	enrolls  memEnrollments
	fields   *memStore[model.Field]
	bookings memBookings
	products memProducts
	orders   *memStore[model.Order]
	items    memOrderItems
	payments memPayments
	files    *memStore[model.File]
	notes    memNotifications
	tickets  *memStore[model.TicketPurchase]
	gateway  *fakeGateway
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		events:  &recorder{},
		now:     time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		tokens:  &memTokens{rows: map[string]*model.RefreshToken{}},
		gateway: &fakeGateway{name: "card", status: payment.IntentPending},
	}
	e.base = Base{
		Chains: workflow.NewRegistry(statusSource{}),
		Events: e.events,
		Log:    zap.NewNop(),
		Now:    func() time.Time { return e.now },
	}
	e.tenants = memTenants{newMem(func(v *model.Tenant) *uint64 { return &v.ID }, func(*model.Tenant) uint64 { return 0 }, nil)}
	e.tenants.unique = func(a, b *model.Tenant) bool { return a.Slug == b.Slug }
	e.users = memUsers{newMem(func(v *model.User) *uint64 { return &v.ID }, func(v *model.User) uint64 { return v.TenantID },
		func(v *model.User) map[string]any { return map[string]any{"role": v.Role} })}
	e.users.unique = func(a, b *model.User) bool { return a.TenantID == b.TenantID && a.Email == b.Email }
	e.academy = newMem(func(v *model.Academy) *uint64 { return &v.ID }, func(v *model.Academy) uint64 { return v.TenantID },
		func(v *model.Academy) map[string]any { return map[string]any{"is_active": v.IsActive} })
	e.classes = newMem(func(v *model.AcademyClass) *uint64 { return &v.ID }, func(v *model.AcademyClass) uint64 { return v.TenantID },
		func(v *model.AcademyClass) map[string]any {
			return map[string]any{"academy_id": v.AcademyID, "is_active": v.IsActive}
		})
	e.enrolls = memEnrollments{newMem(func(v *model.Enrollment) *uint64 { return &v.ID }, func(v *model.Enrollment) uint64 { return v.TenantID },
		func(v *model.Enrollment) map[string]any { return map[string]any{"user_id": v.UserID, "status_id": v.StatusID} })}
	e.fields = newMem(func(v *model.Field) *uint64 { return &v.ID }, func(v *model.Field) uint64 { return v.TenantID },
		func(v *model.Field) map[string]any { return map[string]any{"is_active": v.IsActive, "kind": v.Kind} })
	e.bookings = memBookings{newMem(func(v *model.FieldBooking) *uint64 { return &v.ID }, func(v *model.FieldBooking) uint64 { return v.TenantID },
		func(v *model.FieldBooking) map[string]any { return map[string]any{"user_id": v.UserID, "status_id": v.StatusID} })}
	e.products = memProducts{newMem(func(v *model.Product) *uint64 { return &v.ID }, func(v *model.Product) uint64 { return v.TenantID },
		func(v *model.Product) map[string]any { return map[string]any{"is_active": v.IsActive} })}
	e.products.unique = func(a, b *model.Product) bool { return a.TenantID == b.TenantID && a.SKU == b.SKU }
	e.orders = newMem(func(v *model.Order) *uint64 { return &v.ID }, func(v *model.Order) uint64 { return v.TenantID },
		func(v *model.Order) map[string]any { return map[string]any{"user_id": v.UserID, "status_id": v.StatusID} })
	e.items = memOrderItems{newMem(func(v *model.OrderItem) *uint64 { return &v.ID }, func(*model.OrderItem) uint64 { return 0 }, nil)}
	e.payments = memPayments{newMem(func(v *model.Payment) *uint64 { return &v.ID }, func(v *model.Payment) uint64 { return v.TenantID },
		func(v *model.Payment) map[string]any { return map[string]any{"user_id": v.UserID, "status_id": v.StatusID} })}
	e.files = newMem(func(v *model.File) *uint64 { return &v.ID }, func(v *model.File) uint64 { return v.TenantID }, nil)
	e.notes = memNotifications{newMem(func(v *model.Notification) *uint64 { return &v.ID }, func(v *model.Notification) uint64 { return v.TenantID },
		func(v *model.Notification) map[string]any {
			return map[string]any{"user_id": v.UserID, "channel": v.Channel}
		})}
	e.tickets = newMem(func(v *model.TicketPurchase) *uint64 { return &v.ID }, func(v *model.TicketPurchase) uint64 { return v.TenantID },
		func(v *model.TicketPurchase) map[string]any { return map[string]any{"user_id": v.UserID} })

	e.base.Tx = &memTx{stores: []snapshotter{e.tenants, e.users, e.academy, e.classes, e.enrolls, e.fields,
		e.bookings, e.products, e.orders, e.items, e.payments, e.files, e.notes, e.tickets}}

	require.NoError(t, e.tenants.Create(context.Background(), &model.Tenant{Slug: "club", Name: "Club", Locale: "en", Currency: "EUR", IsActive: true}))
	return e
}

func (e *env) user(t *testing.T, role string) Scope {
	t.Helper()
	u := &model.User{TenantID: 1, Email: fmt.Sprintf("%s%d@example.com", strings.ToLower(role), len(e.users.all())+1),
		FullName: role, Role: role, IsActive: true}
	require.NoError(t, e.users.Create(context.Background(), u))
	return Scope{TenantID: 1, UserID: u.ID, Role: role, Locale: "en"}
}

func (e *env) academies() *AcademyUsecase {
	return &AcademyUsecase{Base: e.base, Academies: e.academy, Classes: e.classes, Files: e.files}
}

func (e *env) enrollments() *EnrollmentUsecase {
	return &EnrollmentUsecase{Base: e.base, Enrollments: e.enrolls, Classes: e.classes, Payments: e.payments}
}

func (e *env) fieldsUC() *FieldUsecase {
	return &FieldUsecase{Base: e.base, Fields: e.fields, Bookings: e.bookings, Payments: e.payments}
}

func (e *env) ordersUC() *OrderUsecase {
	return &OrderUsecase{Base: e.base, Orders: e.orders, Items: e.items, Products: e.products, Payments: e.payments,
		Currency: "EUR"}
}

func (e *env) paymentsUC() *PaymentUsecase {
	return &PaymentUsecase{
		Base:        e.base,
		Payments:    e.payments,
		Gateways:    payment.NewRegistry(e.gateway, payment.NewManual()),
		Orders:      e.ordersUC(),
		Fields:      e.fieldsUC(),
		Enrollments: e.enrollments(),
		Users:       e.users,
		Currency:    "EUR",
	}
}

func errKind(t *testing.T, err error) Kind {
	t.Helper()
	require.Error(t, err)
	return AsError(err).Kind
}

func errKey(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return AsError(err).Key
}
