package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// HeaderPlatformKey authenticates calls to the platform API.
const HeaderPlatformKey = "X-Platform-Key"

// PlatformKey guards the tenant management endpoints.  With an empty key the
// endpoints do not exist.
func PlatformKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return &usecase.Error{Kind: usecase.KindNotFound, Key: "errors.not_found"}
			}
			got := c.Request().Header.Get(HeaderPlatformKey)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				return &usecase.Error{Kind: usecase.KindUnauthorized, Key: "auth.platform_key"}
			}
			return next(c)
		}
	}
}
