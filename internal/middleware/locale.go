package middleware

import (
	"github.com/labstack/echo/v4"
)

// LocaleMatcher picks a shipped locale for an Accept-Language value.
type LocaleMatcher interface {
	Match(accept string) string
}

// NegotiateLocale picks the response language from the lang query parameter or
// the Accept-Language header.  Without either the tenant locale applies.
func NegotiateLocale(m LocaleMatcher) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			want := c.QueryParam("lang")
			if want == "" {
				want = c.Request().Header.Get("Accept-Language")
			}
			if want != "" {
				c.Set(keyLocale, m.Match(want))
			}
			return next(c)
		}
	}
}
