package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item with tracked stock.
type Product struct {
	ID          uint64          // products.id
	TenantID    uint64          // products.tenant_id
	SKU         string          // products.sku (unique per tenant)
	Name        string          // products.name
	Description *string         // products.description
	Price       decimal.Decimal // products.price
	Stock       int32           // products.stock
	ImageFileID *uint64         // products.image_file_id
	IsActive    bool            // products.is_active
	CreatedAt   time.Time       // products.created_at
	UpdatedAt   time.Time       // products.updated_at
	DeletedAt   *time.Time      // products.deleted_at
}

// Order groups items bought by a customer.
type Order struct {
	ID        uint64          // orders.id
	TenantID  uint64          // orders.tenant_id
	UserID    uint64          // orders.user_id
	StatusID  uint64          // orders.status_id
	Total     decimal.Decimal // orders.total
	Currency  string          // orders.currency
	Notes     *string         // orders.notes
	CreatedAt time.Time       // orders.created_at
	UpdatedAt time.Time       // orders.updated_at
	DeletedAt *time.Time      // orders.deleted_at
}

// OrderItem is one order line.  Prices are copied from the product at
// order time.
type OrderItem struct {
	ID        uint64          // order_items.id
	OrderID   uint64          // order_items.order_id
	ProductID uint64          // order_items.product_id
	Quantity  uint32          // order_items.quantity
	UnitPrice decimal.Decimal // order_items.unit_price
	LineTotal decimal.Decimal // order_items.line_total
	CreatedAt time.Time       // order_items.created_at
}
