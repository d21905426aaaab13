package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// RequireRole lets the request through when the role stored by JWTAuth is
// one of roles.  Guests get 401, other roles 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserID(c) == 0 {
				return &usecase.Error{Kind: usecase.KindUnauthorized, Key: "errors.unauthorized"}
			}
			if !allowed[Role(c)] {
				return &usecase.Error{Kind: usecase.KindForbidden, Key: "errors.forbidden"}
			}
			return next(c)
		}
	}
}
