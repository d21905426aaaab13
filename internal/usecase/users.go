package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/utils"
)

func hashPassword(field, plain string, cost int) (string, error) {
	hash, err := utils.HashPassword(plain, cost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		f := fieldErrors{}
		f.add(field, "validation.max_length", map[string]any{"max": 72})
		return "", f.err()
	}
	if err != nil {
		return "", errInternal(err)
	}
	return hash, nil
}

type tokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// UserUsecase is user management inside a tenant (ADMIN) plus the
// caller's own profile.
type UserUsecase struct {
	Base
	Users      userStore
	Tokens     tokenRevoker
	BcryptCost int
}

type UpdateUserInput struct {
	Role     *string `json:"role" validate:"omitempty,oneof=ADMIN STAFF CUSTOMER"`
	IsActive *bool   `json:"is_active"`
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=150"`
}

type ProfileInput struct {
	FullName        *string `json:"full_name" validate:"omitempty,min=1,max=150"`
	Phone           *string `json:"phone" validate:"omitempty,max=32"`
	Locale          *string `json:"locale" validate:"omitempty,min=2,max=10"`
	Password        *string `json:"password" validate:"omitempty,min=8,max=72"`
	CurrentPassword string  `json:"current_password"`
}

func (u *UserUsecase) List(ctx context.Context, s Scope, q ListQuery) (Page[UserDTO], error) {
	if err := requireAdmin(s); err != nil {
		return Page[UserDTO]{}, err
	}
	f := q.filter()
	items, total, err := u.Users.List(ctx, s.TenantID, f)
	if err != nil {
		return Page[UserDTO]{}, fromRepo(err)
	}
	return mapPage(items, total, f, userDTO), nil
}

func (u *UserUsecase) Get(ctx context.Context, s Scope, id uint64) (*UserDTO, error) {
	if err := requireAdmin(s); err != nil {
		return nil, err
	}
	usr, err := u.Users.Get(ctx, s.TenantID, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	dto := userDTO(usr)
	return &dto, nil
}

// Update changes role, activity or name.  Admins cannot demote or disable
// themselves; disabling a user revokes its refresh tokens.
func (u *UserUsecase) Update(ctx context.Context, s Scope, id uint64, in UpdateUserInput) (*UserDTO, error) {
	if err := requireAdmin(s); err != nil {
		return nil, err
	}
	if err := check(in); err != nil {
		return nil, err
	}
	if id == s.UserID && ((in.Role != nil && *in.Role != s.Role) || (in.IsActive != nil && !*in.IsActive)) {
		return nil, errForbidden("errors.forbidden")
	}
	var usr *model.User
	err := u.inTx(ctx, func(ctx context.Context) error {
		var err error
		if usr, err = u.Users.Lock(ctx, s.TenantID, id); err != nil {
			return fromRepo(err)
		}
		if in.Role != nil {
			usr.Role = *in.Role
		}
		if in.FullName != nil {
			usr.FullName = strings.TrimSpace(*in.FullName)
		}
		if in.IsActive != nil {
			usr.IsActive = *in.IsActive
		}
		if err := u.Users.Update(ctx, s.TenantID, usr); err != nil {
			return fromRepo(err)
		}
		if !usr.IsActive {
			return fromRepo(u.Tokens.RevokeAllForUser(ctx, usr.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := userDTO(usr)
	return &dto, nil
}

// Delete soft deletes a user.  Users holding open bookings are kept.
func (u *UserUsecase) Delete(ctx context.Context, s Scope, id uint64) error {
	if err := requireAdmin(s); err != nil {
		return err
	}
	if id == s.UserID {
		return errForbidden("errors.forbidden")
	}
	return fromDelete(u.Users.Delete(ctx, s.TenantID, id))
}

// UpdateProfile edits the caller's own account.  Changing the password
// needs the current one and signs out every other session.
func (u *UserUsecase) UpdateProfile(ctx context.Context, s Scope, in ProfileInput) (*UserDTO, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	if err := check(in); err != nil {
		return nil, err
	}
	var usr *model.User
	err := u.inTx(ctx, func(ctx context.Context) error {
		var err error
		if usr, err = u.Users.Lock(ctx, s.TenantID, s.UserID); err != nil {
			return fromRepo(err)
		}
		if in.FullName != nil {
			usr.FullName = strings.TrimSpace(*in.FullName)
		}
		if in.Phone != nil {
			usr.Phone = in.Phone
		}
		if in.Locale != nil {
			usr.Locale = in.Locale
		}
		if in.Password != nil {
			if !utils.VerifyPassword(usr.PasswordHash, in.CurrentPassword) {
				return errUnauthorized("auth.invalid_credentials")
			}
			if usr.PasswordHash, err = hashPassword("password", *in.Password, u.BcryptCost); err != nil {
				return err
			}
			if err := u.Tokens.RevokeAllForUser(ctx, usr.ID); err != nil {
				return fromRepo(err)
			}
		}
		return fromRepo(u.Users.Update(ctx, s.TenantID, usr))
	})
	if err != nil {
		return nil, err
	}
	dto := userDTO(usr)
	return &dto, nil
}
