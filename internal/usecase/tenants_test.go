package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/utils"
)

func newTenants(e *env) *TenantUsecase {
	return &TenantUsecase{Base: e.base, Tenants: e.tenants, Users: e.users, BcryptCost: 4,
		DefaultLocale: "en", DefaultCurrency: "USD"}
}

func TestCreateTenant(t *testing.T) {
	e := newEnv(t)
	uc := newTenants(e)
	ctx := context.Background()
	in := CreateTenantInput{Slug: " North-Club ", Name: "North", Email: "Desk@North.test",
		AdminEmail: " Boss@North.test ", AdminPassword: "secret123", AdminName: "Boss"}

	res, err := uc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "north-club", res.Tenant.Slug)
	assert.Equal(t, "USD", res.Tenant.Currency)
	assert.Equal(t, "en", res.Tenant.Locale)
	assert.Equal(t, model.RoleAdmin, res.Admin.Role)
	assert.Equal(t, "boss@north.test", res.Admin.Email)

	admin, err := e.users.Get(ctx, res.Tenant.ID, res.Admin.ID)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(admin.PasswordHash, "secret123"))

	_, err = uc.Create(ctx, in)
	assert.Equal(t, "tenant.slug_taken", errKey(t, err))

	in.Slug = "bad slug!"
	_, err = uc.Create(ctx, in)
	assert.Equal(t, "validation.slug", AsError(err).Fields["slug"].Key)
}

func TestResolveTenant(t *testing.T) {
	e := newEnv(t)
	uc := newTenants(e)
	ctx := context.Background()

	got, err := uc.Resolve(ctx, "club")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.ID)

	_, err = uc.Resolve(ctx, "nope")
	assert.Equal(t, "tenant.not_found", errKey(t, err))

	off := false
	_, err = uc.Update(ctx, 1, UpdateTenantInput{IsActive: &off})
	require.NoError(t, err)
	_, err = uc.Resolve(ctx, "club")
	assert.Equal(t, "tenant.inactive", errKey(t, err))

	require.NoError(t, uc.Delete(ctx, 1))
	_, err = uc.Resolve(ctx, "club")
	assert.Equal(t, KindNotFound, errKind(t, err))
	require.NoError(t, uc.Restore(ctx, 1))
}

func TestAdminCannotLockThemselvesOut(t *testing.T) {
	e := newEnv(t)
	uc := &UserUsecase{Base: e.base, Users: e.users, Tokens: e.tokens, BcryptCost: 4}
	ctx := context.Background()
	admin := e.user(t, model.RoleAdmin)
	staff := e.user(t, model.RoleStaff)

	role := model.RoleCustomer
	_, err := uc.Update(ctx, admin, admin.UserID, UpdateUserInput{Role: &role})
	assert.Equal(t, KindForbidden, errKind(t, err))
	assert.Equal(t, KindForbidden, errKind(t, uc.Delete(ctx, admin, admin.UserID)))

	require.NoError(t, e.tokens.StoreRefresh(ctx, 1, staff.UserID, "h1", e.now.AddDate(1, 0, 0)))
	off := false
	got, err := uc.Update(ctx, admin, staff.UserID, UpdateUserInput{IsActive: &off})
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 0, e.tokens.live(staff.UserID))

	_, err = uc.Update(ctx, staff, admin.UserID, UpdateUserInput{Role: &role})
	assert.Equal(t, KindForbidden, errKind(t, err))

	bad := "OWNER"
	_, err = uc.Update(ctx, admin, staff.UserID, UpdateUserInput{Role: &bad})
	assert.Equal(t, "validation.one_of", AsError(err).Fields["role"].Key)
}

func TestUpdateProfilePassword(t *testing.T) {
	e := newEnv(t)
	uc := &UserUsecase{Base: e.base, Users: e.users, Tokens: e.tokens, BcryptCost: 4}
	ctx := context.Background()
	s := e.user(t, model.RoleCustomer)
	usr, err := e.users.Get(ctx, 1, s.UserID)
	require.NoError(t, err)
	usr.PasswordHash, err = utils.HashPassword("old-secret", 4)
	require.NoError(t, err)
	require.NoError(t, e.users.Update(ctx, 1, usr))
	require.NoError(t, e.tokens.StoreRefresh(ctx, 1, s.UserID, "h1", e.now.AddDate(1, 0, 0)))

	pw := "new-secret"
	_, err = uc.UpdateProfile(ctx, s, ProfileInput{Password: &pw, CurrentPassword: "wrong"})
	assert.Equal(t, KindUnauthorized, errKind(t, err))
	assert.Equal(t, 1, e.tokens.live(s.UserID))

	name := "Renamed"
	got, err := uc.UpdateProfile(ctx, s, ProfileInput{FullName: &name, Password: &pw, CurrentPassword: "old-secret"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.FullName)
	assert.Equal(t, 0, e.tokens.live(s.UserID))

	usr, err = e.users.Get(ctx, 1, s.UserID)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(usr.PasswordHash, pw))
}
