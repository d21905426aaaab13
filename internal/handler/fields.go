package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/middleware"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// FieldHandler serves rentable fields and their bookings.
type FieldHandler struct {
	UC *usecase.FieldUsecase
}

func (h *FieldHandler) List(c echo.Context) error {
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

func (h *FieldHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.UC.Get(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, f)
}

func (h *FieldHandler) Create(c echo.Context) error {
	var in usecase.FieldInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.UC.Create(ctx, middleware.Scope(c), in)
	if err != nil {
		return err
	}
	return item(c, http.StatusCreated, f)
}

func (h *FieldHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in usecase.FieldInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.UC.Update(ctx, middleware.Scope(c), id, in)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, f)
}

func (h *FieldHandler) Delete(c echo.Context) error {
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

func (h *FieldHandler) Restore(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.UC.Restore(ctx, middleware.Scope(c), id); err != nil {
		return err
	}
	return noContent(c)
}

// Availability lists the free and booked slots of a field between the
// from and to query times (RFC 3339).
func (h *FieldHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	slots, err := h.UC.Availability(ctx, middleware.Scope(c), id, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": slots})
}

// ---- Bookings ----

func (h *FieldHandler) Book(c echo.Context) error {
	var in usecase.BookInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.UC.Book(ctx, middleware.Scope(c), in)
	if err != nil {
		return err
	}
	return item(c, http.StatusCreated, b)
}

func (h *FieldHandler) ListBookings(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.UC.ListBookings(ctx, middleware.Scope(c), staffQuery(c, q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *FieldHandler) GetBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.UC.GetBooking(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, b)
}

func (h *FieldHandler) TransitionBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transitionReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.UC.TransitionBooking(ctx, middleware.Scope(c), id, req.Status)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, b)
}

func (h *FieldHandler) CancelBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.UC.CancelBooking(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, b)
}

func (h *FieldHandler) DeleteBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.UC.DeleteBooking(ctx, middleware.Scope(c), id); err != nil {
		return err
	}
	return noContent(c)
}
