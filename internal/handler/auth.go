package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/middleware"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// AuthHandler serves registration, login, token rotation and the caller's
// own profile.
type AuthHandler struct {
	Auth  *usecase.AuthUsecase
	Users *usecase.UserUsecase
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
	All          bool   `json:"all"`
}

// Register creates a CUSTOMER account in the request tenant and returns a
// token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var in usecase.RegisterInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Auth.Register(ctx, middleware.Scope(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var in usecase.LoginInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Auth.Login(ctx, middleware.Scope(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Refresh rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Auth.Refresh(ctx, middleware.Scope(c), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// RefreshAccess issues a new access token and keeps the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Auth.RefreshAccess(ctx, middleware.Scope(c), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.Logout(ctx, middleware.Scope(c), req.RefreshToken, req.All); err != nil {
		return err
	}
	return noContent(c)
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Auth.Me(ctx, middleware.Scope(c))
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, u)
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var in usecase.ProfileInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.UpdateProfile(ctx, middleware.Scope(c), in)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, u)
}
