package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/middleware"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// PaymentHandler starts, confirms and refunds payments.
type PaymentHandler struct {
	UC *usecase.PaymentUsecase
}

func (h *PaymentHandler) Create(c echo.Context) error {
	var in usecase.CreatePaymentInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.UC.Create(ctx, middleware.Scope(c), in)
	if err != nil {
		return err
	}
	return item(c, http.StatusCreated, p)
}

func (h *PaymentHandler) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.UC.List(ctx, middleware.Scope(c), staffQuery(c, q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *PaymentHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.UC.Get(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, p)
}

// Confirm asks the gateway for the outcome and moves payment and target.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.UC.Confirm(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, p)
}

func (h *PaymentHandler) Refund(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.UC.Refund(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, p)
}
