package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

type TenantDTO struct {
	ID        uint64    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Locale    string    `json:"locale"`
	Currency  string    `json:"currency"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	Deleted   bool      `json:"deleted,omitempty"`
}

func tenantDTO(t *model.Tenant) TenantDTO {
	return TenantDTO{ID: t.ID, Slug: t.Slug, Name: t.Name, Email: t.Email, Locale: t.Locale,
		Currency: t.Currency, IsActive: t.IsActive, CreatedAt: t.CreatedAt, Deleted: t.DeletedAt != nil}
}

type UserDTO struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     *string   `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Locale    *string   `json:"locale,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func userDTO(u *model.User) UserDTO {
	return UserDTO{ID: u.ID, Email: u.Email, FullName: u.FullName, Phone: u.Phone, Role: u.Role,
		Locale: u.Locale, IsActive: u.IsActive, CreatedAt: u.CreatedAt}
}

type TokenDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthResult struct {
	User    UserDTO   `json:"user"`
	Access  TokenDTO  `json:"access"`
	Refresh *TokenDTO `json:"refresh,omitempty"`
}

type AcademyDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Sport       string    `json:"sport"`
	Description *string   `json:"description,omitempty"`
	Address     *string   `json:"address,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	LogoFileID  *uint64   `json:"logo_file_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func academyDTO(a *model.Academy) AcademyDTO {
	return AcademyDTO{ID: a.ID, Name: a.Name, Sport: a.Sport, Description: a.Description, Address: a.Address,
		Phone: a.Phone, LogoFileID: a.LogoFileID, IsActive: a.IsActive, CreatedAt: a.CreatedAt}
}

type ClassDTO struct {
	ID          uint64          `json:"id"`
	AcademyID   uint64          `json:"academy_id"`
	Name        string          `json:"name"`
	Coach       *string         `json:"coach,omitempty"`
	Description *string         `json:"description,omitempty"`
	Capacity    uint32          `json:"capacity"`
	Weekday     uint8           `json:"weekday"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
}

func classDTO(c *model.AcademyClass) ClassDTO {
	return ClassDTO{ID: c.ID, AcademyID: c.AcademyID, Name: c.Name, Coach: c.Coach, Description: c.Description,
		Capacity: c.Capacity, Weekday: c.Weekday, StartTime: c.StartTime, EndTime: c.EndTime, Price: c.Price,
		IsActive: c.IsActive}
}

type EnrollmentDTO struct {
	ID        uint64    `json:"id"`
	ClassID   uint64    `json:"class_id"`
	UserID    uint64    `json:"user_id"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type FieldDTO struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Description *string         `json:"description,omitempty"`
	Capacity    uint32          `json:"capacity"`
	HourlyPrice decimal.Decimal `json:"hourly_price"`
	IsActive    bool            `json:"is_active"`
}

func fieldDTO(f *model.Field) FieldDTO {
	return FieldDTO{ID: f.ID, Name: f.Name, Kind: f.Kind, Description: f.Description, Capacity: f.Capacity,
		HourlyPrice: f.HourlyPrice, IsActive: f.IsActive}
}

type BookingDTO struct {
	ID        uint64          `json:"id"`
	FieldID   uint64          `json:"field_id"`
	UserID    uint64          `json:"user_id"`
	Status    string          `json:"status"`
	StartAt   time.Time       `json:"start_at"`
	EndAt     time.Time       `json:"end_at"`
	Total     decimal.Decimal `json:"total"`
	Notes     *string         `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// SlotDTO is a busy interval in the public availability view.
type SlotDTO struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

type ProductDTO struct {
	ID          uint64          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int32           `json:"stock"`
	ImageFileID *uint64         `json:"image_file_id,omitempty"`
	IsActive    bool            `json:"is_active"`
}

func productDTO(p *model.Product) ProductDTO {
	return ProductDTO{ID: p.ID, SKU: p.SKU, Name: p.Name, Description: p.Description, Price: p.Price,
		Stock: p.Stock, ImageFileID: p.ImageFileID, IsActive: p.IsActive}
}

type OrderItemDTO struct {
	ProductID uint64          `json:"product_id"`
	Quantity  uint32          `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type OrderDTO struct {
	ID        uint64          `json:"id"`
	UserID    uint64          `json:"user_id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
	Notes     *string         `json:"notes,omitempty"`
	Items     []OrderItemDTO  `json:"items,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type PaymentDTO struct {
	ID             uint64          `json:"id"`
	UserID         uint64          `json:"user_id"`
	OrderID        *uint64         `json:"order_id,omitempty"`
	FieldBookingID *uint64         `json:"field_booking_id,omitempty"`
	EnrollmentID   *uint64         `json:"enrollment_id,omitempty"`
	Status         string          `json:"status"`
	Gateway        string          `json:"gateway"`
	IntentID       string          `json:"intent_id"`
	ClientSecret   *string         `json:"client_secret,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"created_at"`
}

type NotificationDTO struct {
	ID        uint64     `json:"id"`
	Type      string     `json:"type"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func notificationDTO(n *model.Notification) NotificationDTO {
	return NotificationDTO{ID: n.ID, Type: n.Type, Subject: n.Subject, Body: n.Body, ReadAt: n.ReadAt, CreatedAt: n.CreatedAt}
}

type FileDTO struct {
	ID           uint64    `json:"id"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Driver       string    `json:"driver"`
	URL          string    `json:"url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type TicketPurchaseDTO struct {
	ID          uint64          `json:"id"`
	EventID     string          `json:"event_id"`
	ExternalRef string          `json:"external_ref"`
	Quantity    uint32          `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

func ticketPurchaseDTO(t *model.TicketPurchase) TicketPurchaseDTO {
	return TicketPurchaseDTO{ID: t.ID, EventID: t.EventID, ExternalRef: t.ExternalRef, Quantity: t.Quantity,
		Amount: t.Amount, Currency: t.Currency, Status: t.Status, CreatedAt: t.CreatedAt}
}

type StatusDTO struct {
	ID      uint64   `json:"id"`
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Initial bool     `json:"initial,omitempty"`
	Final   bool     `json:"final,omitempty"`
	Targets []string `json:"targets"`
}
