package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

var tenantTable = &Table[model.Tenant]{
	Meta:    tenantsMeta,
	Columns: []string{"id", "slug", "name", "email", "locale", "currency", "is_active", "created_at", "updated_at", "deleted_at"},
	Scan: func(s Scanner, t *model.Tenant) error {
		return s.Scan(&t.ID, &t.Slug, &t.Name, &t.Email, &t.Locale, &t.Currency, &t.IsActive, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	},
	ID: func(t *model.Tenant) uint64 { return t.ID },
	Insert: func(t *model.Tenant) ([]string, []any) {
		return []string{"slug", "name", "email", "locale", "currency", "is_active"},
			[]any{t.Slug, t.Name, t.Email, t.Locale, t.Currency, t.IsActive}
	},
	Update: func(t *model.Tenant) ([]string, []any) {
		return []string{"name", "email", "locale", "currency", "is_active"},
			[]any{t.Name, t.Email, t.Locale, t.Currency, t.IsActive}
	},
	Searchable:  []string{"slug", "name", "email"},
	Filterable:  []string{"is_active", "locale"},
	Sortable:    []string{"name", "slug", "created_at"},
	DefaultSort: "name",
}

// TenantRepo stores tenants.  Tenant rows are not tenant scoped, callers
// pass 0 as tenantID.
type TenantRepo struct{ *Repo[model.Tenant] }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{NewRepo(db, tenantTable)} }

// GetBySlug resolves a live tenant from its public slug.
func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	items, err := r.query(ctx, r.selectSQL()+" WHERE slug = ? AND deleted_at IS NULL LIMIT 1",
		strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

var userTable = &Table[model.User]{
	Meta: usersMeta,
	Columns: []string{"id", "tenant_id", "email", "password_hash", "full_name", "phone", "role", "locale",
		"is_active", "created_at", "updated_at", "deleted_at"},
	Scan: func(s Scanner, u *model.User) error {
		return s.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.Locale,
			&u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	},
	ID: func(u *model.User) uint64 { return u.ID },
	Insert: func(u *model.User) ([]string, []any) {
		return []string{"tenant_id", "email", "password_hash", "full_name", "phone", "role", "locale", "is_active"},
			[]any{u.TenantID, u.Email, u.PasswordHash, u.FullName, u.Phone, u.Role, u.Locale, u.IsActive}
	},
	Update: func(u *model.User) ([]string, []any) {
		return []string{"password_hash", "full_name", "phone", "role", "locale", "is_active"},
			[]any{u.PasswordHash, u.FullName, u.Phone, u.Role, u.Locale, u.IsActive}
	},
	Searchable:  []string{"email", "full_name"},
	Filterable:  []string{"role", "is_active"},
	Sortable:    []string{"email", "full_name", "created_at"},
	DefaultSort: "-created_at",
}

type UserRepo struct{ *Repo[model.User] }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{NewRepo(db, userTable)} }

// NormalizeEmail lower cases and trims an address before it is stored or
// looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByEmail fetches a live user of the tenant by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, tenantID uint64, email string) (*model.User, error) {
	items, err := r.query(ctx, r.selectSQL()+" WHERE tenant_id = ? AND email = ? AND deleted_at IS NULL LIMIT 1",
		tenantID, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}
