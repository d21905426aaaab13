package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/middleware"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// NotificationHandler is the caller's in-app inbox.
type NotificationHandler struct {
	UC *usecase.NotificationUsecase
}

// List returns the inbox page plus the unread count; ?unread=true keeps
// only unread notifications.
func (h *NotificationHandler) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	unread := false
	if v := c.QueryParam("unread"); v != "" {
		if unread, err = strconv.ParseBool(v); err != nil {
			return invalidParam("unread")
		}
	}
	q.IncludeDeleted = false
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.UC.List(ctx, middleware.Scope(c), q, unread)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.UC.MarkRead(ctx, middleware.Scope(c), id); err != nil {
		return err
	}
	return noContent(c)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.UC.MarkAllRead(ctx, middleware.Scope(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}

// StatusHandler exposes the workflow chains.
type StatusHandler struct {
	UC *usecase.StatusUsecase
}

func (h *StatusHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.UC.List(ctx, c.Param("kind"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *StatusHandler) Reload(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.UC.Reload(ctx, middleware.Scope(c)); err != nil {
		return err
	}
	return noContent(c)
}
