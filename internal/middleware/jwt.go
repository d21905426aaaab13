package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/usecase"
	"github.com/iliyamo/sports-booking-backend/internal/utils"
)

func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(auth[7:])
	return raw, raw != ""
}

func authenticate(c echo.Context, secret, raw string) error {
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return &usecase.Error{Kind: usecase.KindUnauthorized, Key: "auth.invalid_token", Err: err}
	}
	c.Set(keyUserID, claims.UserID)
	c.Set(keyRole, claims.Role)
	c.Set(keyTokenTenant, claims.TenantID)
	return nil
}

// JWTAuth requires a valid Bearer access token and stores its user id, role
// and tenant id in the context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return &usecase.Error{Kind: usecase.KindUnauthorized, Key: "auth.missing_token"}
			}
			if err := authenticate(c, secret, raw); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// OptionalJWT authenticates the caller when a token is sent and lets guests
// through.  A token that is sent but invalid is still rejected.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearer(c); ok {
				if err := authenticate(c, secret, raw); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}
