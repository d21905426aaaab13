package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/repository"
)

type tenantStore interface {
	store[model.Tenant]
	restorer
	GetBySlug(ctx context.Context, slug string) (*model.Tenant, error)
}

type userStore interface {
	store[model.User]
	GetByEmail(ctx context.Context, tenantID uint64, email string) (*model.User, error)
}

// TenantUsecase manages tenants from the platform API.  Tenants are not
// scoped, so every repository call passes tenant 0.
type TenantUsecase struct {
	Base
	Tenants         tenantStore
	Users           userStore
	BcryptCost      int
	DefaultLocale   string
	DefaultCurrency string
}

type CreateTenantInput struct {
	Slug          string `json:"slug" validate:"required,min=2,max=64,slug"`
	Name          string `json:"name" validate:"required,max=150"`
	Email         string `json:"email" validate:"required,email,max=190"`
	Locale        string `json:"locale" validate:"omitempty,min=2,max=10"`
	Currency      string `json:"currency" validate:"omitempty,len=3"`
	AdminEmail    string `json:"admin_email" validate:"required,email,max=190"`
	AdminPassword string `json:"admin_password" validate:"required,min=8,max=72"`
	AdminName     string `json:"admin_name" validate:"required,max=150"`
}

type UpdateTenantInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=150"`
	Email    *string `json:"email" validate:"omitempty,email,max=190"`
	Locale   *string `json:"locale" validate:"omitempty,min=2,max=10"`
	Currency *string `json:"currency" validate:"omitempty,len=3"`
	IsActive *bool   `json:"is_active"`
}

type CreatedTenant struct {
	Tenant TenantDTO `json:"tenant"`
	Admin  UserDTO   `json:"admin"`
}

func (u *TenantUsecase) Create(ctx context.Context, in CreateTenantInput) (*CreatedTenant, error) {
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Email = repository.NormalizeEmail(in.Email)
	in.AdminEmail = repository.NormalizeEmail(in.AdminEmail)
	if err := check(in); err != nil {
		return nil, err
	}
	t := &model.Tenant{
		Slug:     in.Slug,
		Name:     strings.TrimSpace(in.Name),
		Email:    in.Email,
		Locale:   in.Locale,
		Currency: strings.ToUpper(in.Currency),
		IsActive: true,
	}
	if t.Locale == "" {
		t.Locale = u.DefaultLocale
	}
	if t.Currency == "" {
		t.Currency = u.DefaultCurrency
	}
	hash, err := hashPassword("admin_password", in.AdminPassword, u.BcryptCost)
	if err != nil {
		return nil, err
	}
	admin := &model.User{
		Email:        in.AdminEmail,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.AdminName),
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	err = u.inTx(ctx, func(ctx context.Context) error {
		if err := u.Tenants.Create(ctx, t); err != nil {
			return conflictAs(err, "tenant.slug_taken")
		}
		admin.TenantID = t.ID
		return fromRepo(u.Users.Create(ctx, admin))
	})
	if err != nil {
		return nil, err
	}
	return &CreatedTenant{Tenant: tenantDTO(t), Admin: userDTO(admin)}, nil
}

func (u *TenantUsecase) Get(ctx context.Context, id uint64) (*TenantDTO, error) {
	t, err := u.Tenants.Get(ctx, 0, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	dto := tenantDTO(t)
	return &dto, nil
}

func (u *TenantUsecase) List(ctx context.Context, q ListQuery) (Page[TenantDTO], error) {
	f := q.filter()
	items, total, err := u.Tenants.List(ctx, 0, f)
	if err != nil {
		return Page[TenantDTO]{}, fromRepo(err)
	}
	return mapPage(items, total, f, tenantDTO), nil
}

func (u *TenantUsecase) Update(ctx context.Context, id uint64, in UpdateTenantInput) (*TenantDTO, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	var t *model.Tenant
	err := u.inTx(ctx, func(ctx context.Context) error {
		var err error
		if t, err = u.Tenants.Lock(ctx, 0, id); err != nil {
			return fromRepo(err)
		}
		if in.Name != nil {
			t.Name = strings.TrimSpace(*in.Name)
		}
		if in.Email != nil {
			t.Email = repository.NormalizeEmail(*in.Email)
		}
		if in.Locale != nil {
			t.Locale = *in.Locale
		}
		if in.Currency != nil {
			t.Currency = strings.ToUpper(*in.Currency)
		}
		if in.IsActive != nil {
			t.IsActive = *in.IsActive
		}
		return fromRepo(u.Tenants.Update(ctx, 0, t))
	})
	if err != nil {
		return nil, err
	}
	dto := tenantDTO(t)
	return &dto, nil
}

// Delete soft deletes the tenant and, through the cascade, its users.
func (u *TenantUsecase) Delete(ctx context.Context, id uint64) error {
	return fromDelete(u.Tenants.Delete(ctx, 0, id))
}

func (u *TenantUsecase) Restore(ctx context.Context, id uint64) error {
	return fromRepo(u.Tenants.Restore(ctx, 0, id))
}

// Resolve maps the public slug of a request to a live, active tenant.
func (u *TenantUsecase) Resolve(ctx context.Context, slug string) (*model.Tenant, error) {
	t, err := u.Tenants.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errNotFound("tenant.not_found")
	}
	if err != nil {
		return nil, fromRepo(err)
	}
	if !t.IsActive {
		return nil, errForbidden("tenant.inactive")
	}
	return t, nil
}

// ResolveID is Resolve for the tenant id carried by an access token.
func (u *TenantUsecase) ResolveID(ctx context.Context, id uint64) (*model.Tenant, error) {
	t, err := u.Tenants.Get(ctx, 0, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errNotFound("tenant.not_found")
	}
	if err != nil {
		return nil, fromRepo(err)
	}
	if !t.IsActive {
		return nil, errForbidden("tenant.inactive")
	}
	return t, nil
}
