package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// HeaderTenant carries the tenant slug of public requests.
const HeaderTenant = "X-Tenant"

// TenantResolver finds live, active tenants.
type TenantResolver interface {
	Resolve(ctx context.Context, slug string) (*model.Tenant, error)
	ResolveID(ctx context.Context, id uint64) (*model.Tenant, error)
}

// TenantScope resolves the tenant from the X-Tenant header, or from the
// token when the header is absent.  It must run after the JWT middleware: a
// token issued for another tenant is rejected.
func TenantScope(r TenantResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			slug := strings.ToLower(strings.TrimSpace(c.Request().Header.Get(HeaderTenant)))
			var (
				t   *model.Tenant
				err error
			)
			switch {
			case slug != "":
				t, err = r.Resolve(ctx, slug)
			case tokenTenant(c) != 0:
				t, err = r.ResolveID(ctx, tokenTenant(c))
			default:
				return &usecase.Error{Kind: usecase.KindInvalid, Key: "tenant.missing"}
			}
			if err != nil {
				return err
			}
			if tid := tokenTenant(c); tid != 0 && tid != t.ID {
				return &usecase.Error{Kind: usecase.KindForbidden, Key: "tenant.mismatch"}
			}
			c.Set(keyTenant, t)
			return next(c)
		}
	}
}
