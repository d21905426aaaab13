package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

// ErrInsufficientStock is returned when a guarded stock decrement matches
// no row.
var ErrInsufficientStock = errors.New("insufficient stock")

var productTable = &Table[model.Product]{
	Meta: productsMeta,
	Columns: []string{"id", "tenant_id", "sku", "name", "description", "price", "stock", "image_file_id", "is_active",
		"created_at", "updated_at", "deleted_at"},
	Scan: func(s Scanner, p *model.Product) error {
		return s.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageFileID, &p.IsActive,
			&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	},
	ID: func(p *model.Product) uint64 { return p.ID },
	Insert: func(p *model.Product) ([]string, []any) {
		return []string{"tenant_id", "sku", "name", "description", "price", "stock", "image_file_id", "is_active"},
			[]any{p.TenantID, p.SKU, p.Name, p.Description, p.Price, p.Stock, p.ImageFileID, p.IsActive}
	},
	Update: func(p *model.Product) ([]string, []any) {
		return []string{"sku", "name", "description", "price", "stock", "image_file_id", "is_active"},
			[]any{p.SKU, p.Name, p.Description, p.Price, p.Stock, p.ImageFileID, p.IsActive}
	},
	Searchable:  []string{"sku", "name", "description"},
	Filterable:  []string{"sku", "is_active"},
	Sortable:    []string{"name", "price", "stock", "created_at"},
	DefaultSort: "name",
}

type ProductRepo struct{ *Repo[model.Product] }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{NewRepo(db, productTable)} }

// DecrementStock takes qty units if at least qty remain.
func (r *ProductRepo) DecrementStock(ctx context.Context, tenantID, productID uint64, qty uint32) error {
	res, err := r.q(ctx).ExecContext(ctx,
		"UPDATE products SET stock = stock - ? WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL AND stock >= ?",
		qty, productID, tenantID, qty)
	if err != nil {
		return err
	}
	if err := affected(res); err != nil {
		return ErrInsufficientStock
	}
	return nil
}

// IncrementStock returns qty units, also for soft deleted products so a
// cancelled order always restocks.
func (r *ProductRepo) IncrementStock(ctx context.Context, tenantID, productID uint64, qty uint32) error {
	_, err := r.q(ctx).ExecContext(ctx,
		"UPDATE products SET stock = stock + ? WHERE id = ? AND tenant_id = ?",
		qty, productID, tenantID)
	return err
}

var orderTable = &Table[model.Order]{
	Meta:    ordersMeta,
	Columns: []string{"id", "tenant_id", "user_id", "status_id", "total", "currency", "notes", "created_at", "updated_at", "deleted_at"},
	Scan: func(s Scanner, o *model.Order) error {
		return s.Scan(&o.ID, &o.TenantID, &o.UserID, &o.StatusID, &o.Total, &o.Currency, &o.Notes, &o.CreatedAt, &o.UpdatedAt, &o.DeletedAt)
	},
	ID: func(o *model.Order) uint64 { return o.ID },
	Insert: func(o *model.Order) ([]string, []any) {
		return []string{"tenant_id", "user_id", "status_id", "total", "currency", "notes"},
			[]any{o.TenantID, o.UserID, o.StatusID, o.Total, o.Currency, o.Notes}
	},
	Update: func(o *model.Order) ([]string, []any) {
		return []string{"status_id", "total", "notes"}, []any{o.StatusID, o.Total, o.Notes}
	},
	Filterable:  []string{"user_id", "status_id"},
	Sortable:    []string{"created_at", "total"},
	DefaultSort: "-created_at",
}

type OrderRepo struct{ *Repo[model.Order] }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{NewRepo(db, orderTable)} }

var orderItemTable = &Table[model.OrderItem]{
	Meta:    orderItemsMeta,
	Columns: []string{"id", "order_id", "product_id", "quantity", "unit_price", "line_total", "created_at"},
	Scan: func(s Scanner, i *model.OrderItem) error {
		return s.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &i.UnitPrice, &i.LineTotal, &i.CreatedAt)
	},
	ID: func(i *model.OrderItem) uint64 { return i.ID },
	Insert: func(i *model.OrderItem) ([]string, []any) {
		return []string{"order_id", "product_id", "quantity", "unit_price", "line_total"},
			[]any{i.OrderID, i.ProductID, i.Quantity, i.UnitPrice, i.LineTotal}
	},
	Update: func(i *model.OrderItem) ([]string, []any) {
		return []string{"quantity", "unit_price", "line_total"}, []any{i.Quantity, i.UnitPrice, i.LineTotal}
	},
	Filterable: []string{"order_id", "product_id"},
}

// OrderItemRepo stores order lines.  Items are hard deleted together with
// their order by the database cascade.
type OrderItemRepo struct{ *Repo[model.OrderItem] }

func NewOrderItemRepo(db *sql.DB) *OrderItemRepo { return &OrderItemRepo{NewRepo(db, orderItemTable)} }

// ByOrder returns the lines of an order in insertion order.
func (r *OrderItemRepo) ByOrder(ctx context.Context, orderID uint64) ([]*model.OrderItem, error) {
	return r.query(ctx, r.selectSQL()+" WHERE order_id = ? ORDER BY id", orderID)
}
