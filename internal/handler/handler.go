// Package handler holds the echo handlers of the API.  Handlers bind the
// request, build the use case scope from the middleware context and wrap
// the result in the response envelope: {"item": ...} for single records and
// {"items": [...], "page", "per_page", "total"} for lists.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/middleware"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// requestTimeout bounds the database work of one request.
const requestTimeout = 10 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func item(c echo.Context, status int, v any) error {
	return c.JSON(status, echo.Map{"item": v})
}

// bind decodes the body into v.  Malformed bodies become a 400 with the
// errors.bad_request message.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return &usecase.Error{Kind: usecase.KindInvalid, Key: "errors.bad_request", Err: err}
	}
	return nil
}

func invalidParam(name string) error {
	return &usecase.Error{Kind: usecase.KindInvalid, Key: "validation.invalid", Args: map[string]any{"field": name}}
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, invalidParam(name)
	}
	return id, nil
}

// reserved query parameters are never turned into equality filters.
var reserved = map[string]bool{
	"page": true, "per_page": true, "sort": true, "q": true, "status": true,
	"include_deleted": true, "lang": true, "unread": true, "from": true, "to": true,
}

// listQuery reads paging, sorting, search and status from the query string.
// Every other parameter is an equality filter; the repository rejects
// columns it does not allow.
func listQuery(c echo.Context) (usecase.ListQuery, error) {
	qs := c.QueryParams()
	q := usecase.ListQuery{
		Sort:   qs.Get("sort"),
		Search: qs.Get("q"),
		Status: qs.Get("status"),
		Eq:     map[string]any{},
	}
	var err error
	if v := qs.Get("page"); v != "" {
		if q.Page, err = strconv.Atoi(v); err != nil {
			return q, invalidParam("page")
		}
	}
	if v := qs.Get("per_page"); v != "" {
		if q.PerPage, err = strconv.Atoi(v); err != nil {
			return q, invalidParam("per_page")
		}
	}
	if v := qs.Get("include_deleted"); v != "" {
		if q.IncludeDeleted, err = strconv.ParseBool(v); err != nil {
			return q, invalidParam("include_deleted")
		}
	}
	for k, vals := range qs {
		if reserved[k] || len(vals) == 0 {
			continue
		}
		q.Eq[k] = filterValue(vals[0])
	}
	return q, nil
}

func filterValue(v string) any {
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

// includeDeleted is only honoured for staff.
func staffQuery(c echo.Context, q usecase.ListQuery) usecase.ListQuery {
	if s := middleware.Scope(c); !s.IsStaff() {
		q.IncludeDeleted = false
	}
	return q
}

func queryTime(c echo.Context, name string) (time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return time.Time{}, &usecase.Error{Kind: usecase.KindInvalid, Key: "validation.required", Args: map[string]any{"field": name}}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, invalidParam(name)
	}
	return t, nil
}

func noContent(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

type transitionReq struct {
	Status string `json:"status"`
}
