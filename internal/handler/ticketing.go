package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/middleware"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// TicketingHandler proxies the external ticketing provider.
type TicketingHandler struct {
	UC *usecase.TicketingUsecase
}

func (h *TicketingHandler) ListEvents(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	events, err := h.UC.ListEvents(ctx, middleware.Scope(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

func (h *TicketingHandler) GetEvent(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	ev, err := h.UC.GetEvent(ctx, middleware.Scope(c), c.Param("id"))
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, ev)
}

func (h *TicketingHandler) Availability(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	av, err := h.UC.Availability(ctx, middleware.Scope(c), c.Param("id"))
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, av)
}

func (h *TicketingHandler) Purchase(c echo.Context) error {
	var in usecase.PurchaseInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.UC.Purchase(ctx, middleware.Scope(c), in)
	if err != nil {
		return err
	}
	return item(c, http.StatusCreated, p)
}

func (h *TicketingHandler) ListPurchases(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.UC.ListPurchases(ctx, middleware.Scope(c), staffQuery(c, q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}
