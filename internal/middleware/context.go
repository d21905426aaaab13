// Package middleware holds the echo middleware of the API: authentication,
// tenant resolution, locale negotiation, request logging, rate limiting and
// the response cache.
package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// Context keys set by the middleware.
const (
	keyTenant      = "tenant"
	keyUserID      = "user_id"
	keyRole        = "role"
	keyTokenTenant = "token_tenant_id"
	keyLocale      = "locale"
)

// Tenant returns the tenant resolved for the request, or nil.
func Tenant(c echo.Context) *model.Tenant {
	t, _ := c.Get(keyTenant).(*model.Tenant)
	return t
}

// UserID returns the authenticated user id, 0 for guests.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get(keyUserID).(uint64)
	return id
}

func Role(c echo.Context) string {
	r, _ := c.Get(keyRole).(string)
	return r
}

func tokenTenant(c echo.Context) uint64 {
	id, _ := c.Get(keyTokenTenant).(uint64)
	return id
}

// Locale returns the negotiated locale, falling back to the tenant locale.
func Locale(c echo.Context) string {
	if l, _ := c.Get(keyLocale).(string); l != "" {
		return l
	}
	if t := Tenant(c); t != nil {
		return t.Locale
	}
	return ""
}

// Scope builds the use case scope of the request.
func Scope(c echo.Context) usecase.Scope {
	s := usecase.Scope{UserID: UserID(c), Role: Role(c), Locale: Locale(c)}
	if t := Tenant(c); t != nil {
		s.TenantID = t.ID
	} else {
		s.TenantID = tokenTenant(c)
	}
	return s
}

// identity is the caller as used in rate limit keys.
func identity(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
