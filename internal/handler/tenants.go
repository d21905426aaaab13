package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/middleware"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// TenantHandler is the platform API over tenants.
type TenantHandler struct {
	UC *usecase.TenantUsecase
}

func (h *TenantHandler) Create(c echo.Context) error {
	var in usecase.CreateTenantInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.UC.Create(ctx, in)
	if err != nil {
		return err
	}
	return item(c, http.StatusCreated, res)
}

func (h *TenantHandler) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.UC.List(ctx, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *TenantHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.UC.Get(ctx, id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, t)
}

func (h *TenantHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in usecase.UpdateTenantInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.UC.Update(ctx, id, in)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, t)
}

func (h *TenantHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.UC.Delete(ctx, id); err != nil {
		return err
	}
	return noContent(c)
}

func (h *TenantHandler) Restore(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.UC.Restore(ctx, id); err != nil {
		return err
	}
	return noContent(c)
}

// UserHandler is tenant user management for admins.
type UserHandler struct {
	UC *usecase.UserUsecase
}

func (h *UserHandler) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.UC.List(ctx, middleware.Scope(c), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.UC.Get(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, u)
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in usecase.UpdateUserInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.UC.Update(ctx, middleware.Scope(c), id, in)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, u)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.UC.Delete(ctx, middleware.Scope(c), id); err != nil {
		return err
	}
	return noContent(c)
}
