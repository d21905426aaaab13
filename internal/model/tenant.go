package model

import "time"

// Roles a user can hold inside a tenant.
const (
	RoleAdmin    = "ADMIN"
	RoleStaff    = "STAFF"
	RoleCustomer = "CUSTOMER"
)

// Tenant is one club or venue operator.  Every other business row is
// scoped to a tenant through tenant_id.
type Tenant struct {
	ID        uint64     // tenants.id
	Slug      string     // tenants.slug (unique, used in the X-Tenant header)
	Name      string     // tenants.name
	Email     string     // tenants.email
	Locale    string     // tenants.locale
	Currency  string     // tenants.currency (ISO 4217)
	IsActive  bool       // tenants.is_active
	CreatedAt time.Time  // tenants.created_at
	UpdatedAt time.Time  // tenants.updated_at
	DeletedAt *time.Time // tenants.deleted_at (soft delete)
}

// User is an account inside a tenant.  Emails are unique per tenant.
type User struct {
	ID           uint64     // users.id
	TenantID     uint64     // users.tenant_id
	Email        string     // users.email
	PasswordHash string     // users.password_hash
	FullName     string     // users.full_name
	Phone        *string    // users.phone (nullable)
	Role         string     // users.role
	Locale       *string    // users.locale (nullable, falls back to tenant locale)
	IsActive     bool       // users.is_active
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
	DeletedAt    *time.Time // users.deleted_at
}

// RefreshToken stores the SHA-256 hash of an issued refresh token.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	TenantID  uint64     // refresh_tokens.tenant_id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
