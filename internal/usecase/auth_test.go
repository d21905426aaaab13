package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/queue"
	"github.com/iliyamo/sports-booking-backend/internal/utils"
)

func newAuth(e *env) *AuthUsecase {
	return &AuthUsecase{
		Base:       e.base,
		Users:      e.users,
		Tokens:     e.tokens,
		Tenants:    e.tenants,
		Secret:     "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: 4,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(e)
	ctx := context.Background()
	guest := Scope{TenantID: 1, Locale: "es"}

	res, err := auth.Register(ctx, guest, RegisterInput{Email: "  Ana@Example.com ", Password: "secret123", FullName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", res.User.Email)
	assert.Equal(t, model.RoleCustomer, res.User.Role)
	require.NotNil(t, res.Refresh)

	claims, err := utils.ParseAccessToken("test-secret", res.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, uint64(1), claims.TenantID)

	require.Len(t, e.events.evs, 1)
	ev := e.events.evs[0]
	assert.Equal(t, queue.TypeUserRegistered, ev.Type)
	assert.Equal(t, res.User.ID, ev.UserID)
	assert.Equal(t, "Club", ev.Data["tenant"])

	_, err = auth.Register(ctx, guest, RegisterInput{Email: "ana@example.com", Password: "secret123", FullName: "Ana"})
	assert.Equal(t, "auth.email_taken", errKey(t, err))
	assert.Equal(t, KindConflict, errKind(t, err))

	_, err = auth.Login(ctx, guest, LoginInput{Email: "ANA@example.com", Password: "wrong-pass"})
	assert.Equal(t, KindUnauthorized, errKind(t, err))

	_, err = auth.Login(ctx, guest, LoginInput{Email: "nobody@example.com", Password: "secret123"})
	assert.Equal(t, "auth.invalid_credentials", errKey(t, err))

	res, err = auth.Login(ctx, guest, LoginInput{Email: "ANA@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Access.Token)

	res, err = auth.Login(ctx, guest, LoginInput{Email: "\tana@example.com  ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", res.User.Email)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	_, err := newAuth(e).Register(context.Background(), Scope{TenantID: 1},
		RegisterInput{Email: "not-an-email", Password: "short"})
	ue := AsError(err)
	require.Equal(t, KindInvalid, ue.Kind)
	assert.Equal(t, "validation.email", ue.Fields["email"].Key)
	assert.Equal(t, "validation.min_length", ue.Fields["password"].Key)
	assert.Equal(t, "8", ue.Fields["password"].Args["min"])
	assert.Equal(t, "validation.required", ue.Fields["full_name"].Key)
}

func TestLoginInactiveUser(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(e)
	ctx := context.Background()
	res, err := auth.Register(ctx, Scope{TenantID: 1}, RegisterInput{Email: "bo@example.com", Password: "secret123", FullName: "Bo"})
	require.NoError(t, err)

	u, err := e.users.Get(ctx, 1, res.User.ID)
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, e.users.Update(ctx, 1, u))

	_, err = auth.Login(ctx, Scope{TenantID: 1}, LoginInput{Email: "bo@example.com", Password: "secret123"})
	assert.Equal(t, KindForbidden, errKind(t, err))
}

func TestRefreshRotates(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(e)
	ctx := context.Background()
	res, err := auth.Register(ctx, Scope{TenantID: 1}, RegisterInput{Email: "cy@example.com", Password: "secret123", FullName: "Cy"})
	require.NoError(t, err)
	old := res.Refresh.Token

	rotated, err := auth.Refresh(ctx, Scope{TenantID: 1}, old)
	require.NoError(t, err)
	require.NotNil(t, rotated.Refresh)
	assert.NotEqual(t, old, rotated.Refresh.Token)

	_, err = auth.Refresh(ctx, Scope{TenantID: 1}, old)
	assert.Equal(t, "auth.invalid_refresh", errKey(t, err))

	_, err = auth.Refresh(ctx, Scope{TenantID: 2}, rotated.Refresh.Token)
	assert.Equal(t, KindUnauthorized, errKind(t, err))

	access, err := auth.RefreshAccess(ctx, Scope{TenantID: 1}, rotated.Refresh.Token)
	require.NoError(t, err)
	assert.Nil(t, access.Refresh)
	assert.Equal(t, 1, e.tokens.live(res.User.ID))
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(e)
	ctx := context.Background()
	guest := Scope{TenantID: 1}
	first, err := auth.Register(ctx, guest, RegisterInput{Email: "di@example.com", Password: "secret123", FullName: "Di"})
	require.NoError(t, err)
	_, err = auth.Login(ctx, guest, LoginInput{Email: "di@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, 2, e.tokens.live(first.User.ID))

	me := Scope{TenantID: 1, UserID: first.User.ID, Role: model.RoleCustomer}
	require.NoError(t, auth.Logout(ctx, me, first.Refresh.Token, false))
	assert.Equal(t, 1, e.tokens.live(first.User.ID))

	require.NoError(t, auth.Logout(ctx, me, "", true))
	assert.Equal(t, 0, e.tokens.live(first.User.ID))

	assert.Equal(t, KindUnauthorized, errKind(t, auth.Logout(ctx, guest, "", true)))
}

func TestMe(t *testing.T) {
	e := newEnv(t)
	s := e.user(t, model.RoleStaff)
	dto, err := newAuth(e).Me(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, dto.Role)

	_, err = newAuth(e).Me(context.Background(), Scope{TenantID: 1, UserID: 999})
	assert.Equal(t, KindUnauthorized, errKind(t, err))
}
