package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/queue"
	"github.com/iliyamo/sports-booking-backend/internal/repository"
	"github.com/iliyamo/sports-booking-backend/internal/utils"
)

type tokenStore interface {
	StoreRefresh(ctx context.Context, tenantID, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthUsecase issues and rotates credentials.  Access tokens are HS256 JWTs;
// refresh tokens are opaque and stored hashed.
type AuthUsecase struct {
	Base
	Users      userStore
	Tokens     tokenStore
	Tenants    tenantGetter
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

type RegisterInput struct {
	Email    string  `json:"email" validate:"required,email,max=190"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	FullName string  `json:"full_name" validate:"required,max=150"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Locale   *string `json:"locale" validate:"omitempty,min=2,max=10"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (u *AuthUsecase) issue(ctx context.Context, usr *model.User, withRefresh bool) (*AuthResult, error) {
	access, err := utils.NewAccessToken(u.Secret, utils.Claims{UserID: usr.ID, TenantID: usr.TenantID, Role: usr.Role}, u.AccessTTL)
	if err != nil {
		return nil, errInternal(err)
	}
	res := &AuthResult{User: userDTO(usr), Access: TokenDTO{Token: access.Token, ExpiresAt: access.Exp}}
	if !withRefresh {
		return res, nil
	}
	ref, err := utils.NewRefreshToken(u.RefreshTTL)
	if err != nil {
		return nil, errInternal(err)
	}
	if err := u.Tokens.StoreRefresh(ctx, usr.TenantID, usr.ID, utils.HashRefreshRaw(ref.Raw), ref.Exp); err != nil {
		return nil, errInternal(err)
	}
	res.Refresh = &TokenDTO{Token: ref.Raw, ExpiresAt: ref.Exp}
	return res, nil
}

// Register creates a CUSTOMER of the scope tenant and signs it in.
func (u *AuthUsecase) Register(ctx context.Context, s Scope, in RegisterInput) (*AuthResult, error) {
	in.Email = repository.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := check(in); err != nil {
		return nil, err
	}
	t, err := u.Tenants.Get(ctx, 0, s.TenantID)
	if err != nil {
		return nil, fromRepo(err)
	}
	hash, err := hashPassword("password", in.Password, u.BcryptCost)
	if err != nil {
		return nil, err
	}
	usr := &model.User{
		TenantID:     s.TenantID,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Role:         model.RoleCustomer,
		Locale:       in.Locale,
		IsActive:     true,
	}
	if err := u.Users.Create(ctx, usr); err != nil {
		return nil, conflictAs(err, "auth.email_taken")
	}
	res, err := u.issue(ctx, usr, true)
	if err != nil {
		return nil, err
	}
	u.publish(ctx, u.event(s, queue.TypeUserRegistered, usr.ID, map[string]any{"tenant": t.Name}))
	return res, nil
}

func (u *AuthUsecase) Login(ctx context.Context, s Scope, in LoginInput) (*AuthResult, error) {
	in.Email = repository.NormalizeEmail(in.Email)
	if err := check(in); err != nil {
		return nil, err
	}
	usr, err := u.Users.GetByEmail(ctx, s.TenantID, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errUnauthorized("auth.invalid_credentials")
	}
	if err != nil {
		return nil, fromRepo(err)
	}
	if !utils.VerifyPassword(usr.PasswordHash, in.Password) {
		return nil, errUnauthorized("auth.invalid_credentials")
	}
	if !usr.IsActive {
		return nil, errForbidden("auth.inactive")
	}
	if utils.NeedsRehash(usr.PasswordHash, u.BcryptCost) {
		if hash, err := utils.HashPassword(in.Password, u.BcryptCost); err == nil {
			usr.PasswordHash = hash
			if err := u.Users.Update(ctx, usr.TenantID, usr); err != nil && u.Log != nil {
				u.Log.Warn("password rehash", zap.Uint64("user_id", usr.ID), zap.Error(err))
			}
		}
	}
	return u.issue(ctx, usr, true)
}

// refreshOwner validates a raw refresh token and loads its active user.
func (u *AuthUsecase) refreshOwner(ctx context.Context, s Scope, raw string) (string, *model.User, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, errInvalid("validation.required", map[string]any{"field": "refresh_token"})
	}
	hash := utils.HashRefreshRaw(raw)
	tok, err := u.Tokens.ValidateRefresh(ctx, hash)
	if err != nil || (s.TenantID != 0 && tok.TenantID != s.TenantID) {
		return "", nil, errUnauthorized("auth.invalid_refresh")
	}
	usr, err := u.Users.Get(ctx, tok.TenantID, tok.UserID)
	if err != nil || !usr.IsActive {
		return "", nil, errUnauthorized("auth.invalid_refresh")
	}
	return hash, usr, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.
func (u *AuthUsecase) Refresh(ctx context.Context, s Scope, raw string) (*AuthResult, error) {
	var res *AuthResult
	err := u.inTx(ctx, func(ctx context.Context) error {
		hash, usr, err := u.refreshOwner(ctx, s, raw)
		if err != nil {
			return err
		}
		if err := u.Tokens.RevokeByHash(ctx, hash); err != nil {
			return errUnauthorized("auth.invalid_refresh")
		}
		res, err = u.issue(ctx, usr, true)
		return err
	})
	return res, err
}

// RefreshAccess returns a new access token and keeps the refresh token.
func (u *AuthUsecase) RefreshAccess(ctx context.Context, s Scope, raw string) (*AuthResult, error) {
	_, usr, err := u.refreshOwner(ctx, s, raw)
	if err != nil {
		return nil, err
	}
	return u.issue(ctx, usr, false)
}

// Logout revokes one refresh token of the caller, or all of them.
func (u *AuthUsecase) Logout(ctx context.Context, s Scope, raw string, all bool) error {
	if err := requireUser(s); err != nil {
		return err
	}
	if all {
		return fromRepo(u.Tokens.RevokeAllForUser(ctx, s.UserID))
	}
	hash, usr, err := u.refreshOwner(ctx, s, raw)
	if err != nil {
		return err
	}
	if usr.ID != s.UserID {
		return errForbidden("errors.forbidden")
	}
	if err := u.Tokens.RevokeByHash(ctx, hash); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return errInternal(err)
	}
	return nil
}

func (u *AuthUsecase) Me(ctx context.Context, s Scope) (*UserDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	usr, err := u.Users.Get(ctx, s.TenantID, s.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUnauthorized("errors.unauthorized")
		}
		return nil, fromRepo(err)
	}
	dto := userDTO(usr)
	return &dto, nil
}
