// Package router wires handlers and middleware into the echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/sports-booking-backend/internal/config"
	"github.com/iliyamo/sports-booking-backend/internal/handler"
	"github.com/iliyamo/sports-booking-backend/internal/middleware"
	"github.com/iliyamo/sports-booking-backend/internal/model"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	Tenants       *handler.TenantHandler
	Users         *handler.UserHandler
	Academies     *handler.AcademyHandler
	Fields        *handler.FieldHandler
	Shop          *handler.ShopHandler
	Payments      *handler.PaymentHandler
	Notifications *handler.NotificationHandler
	Files         *handler.FileHandler
	Ticketing     *handler.TicketingHandler
	Statuses      *handler.StatusHandler
}

// Deps is what the middleware needs.
type Deps struct {
	JWTSecret   string
	PlatformKey string
	BodyLimit   string // e.g. "6M"
	Tenants     middleware.TenantResolver
	Locales     middleware.LocaleMatcher
	Errors      *handler.ErrorHandler
	Redis       *redis.Client
	RateLimit   config.RateLimitConfig
	Cache       config.CacheConfig
	Log         *zap.Logger
}

// New builds the echo instance with the global middleware and every route.
func New(h Handlers, d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.HTTPErrorHandler = d.Errors.Handle

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	if d.BodyLimit != "" {
		e.Use(echomw.BodyLimit(d.BodyLimit))
	}
	e.Use(middleware.NegotiateLocale(d.Locales))

	e.GET("/healthz", h.Health.Healthz)
	e.GET("/readyz", h.Health.Readyz)

	limit := middleware.RateLimit(d.RateLimit, d.Redis, d.Log)
	RegisterPlatform(e, h, d, limit)

	v1 := e.Group("/v1",
		middleware.OptionalJWT(d.JWTSecret),
		middleware.TenantScope(d.Tenants),
		limit,
	)
	RegisterPublic(v1, h, middleware.ResponseCache(d.Cache, d.Redis, d.Log))
	RegisterAuth(v1, h)
	RegisterCustomer(v1, h)
	RegisterStaff(v1, h)
	return e
}

var (
	anyUser = middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleCustomer)
	staff   = middleware.RequireRole(model.RoleAdmin, model.RoleStaff)
	admin   = middleware.RequireRole(model.RoleAdmin)
)

// RegisterPlatform mounts tenant management under /v1/platform, guarded by
// the platform key instead of a user token.
func RegisterPlatform(e *echo.Echo, h Handlers, d Deps, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/platform", middleware.PlatformKey(d.PlatformKey), limit)
	g.POST("/tenants", h.Tenants.Create)
	g.GET("/tenants", h.Tenants.List)
	g.GET("/tenants/:id", h.Tenants.Get)
	g.PATCH("/tenants/:id", h.Tenants.Update)
	g.DELETE("/tenants/:id", h.Tenants.Delete)
	g.POST("/tenants/:id/restore", h.Tenants.Restore)
}

// RegisterPublic mounts the catalog reads.  Guests get cached responses.
func RegisterPublic(g *echo.Group, h Handlers, cache echo.MiddlewareFunc) {
	g.GET("/academies", h.Academies.List, cache)
	g.GET("/academies/:id", h.Academies.Get, cache)
	g.GET("/academies/:id/classes", h.Academies.ListClasses, cache)
	g.GET("/academies/:id/classes/:class_id", h.Academies.GetClass, cache)

	g.GET("/fields", h.Fields.List, cache)
	g.GET("/fields/:id", h.Fields.Get, cache)
	g.GET("/fields/:id/availability", h.Fields.Availability)

	g.GET("/products", h.Shop.ListProducts, cache)
	g.GET("/products/:id", h.Shop.GetProduct, cache)

	g.GET("/files/:id", h.Files.Get, cache)
	g.GET("/files/:id/content", h.Files.Content)

	g.GET("/statuses/:kind", h.Statuses.List, cache)

	g.GET("/ticketing/events", h.Ticketing.ListEvents)
	g.GET("/ticketing/events/:id", h.Ticketing.GetEvent)
	g.GET("/ticketing/events/:id/availability", h.Ticketing.Availability)
}

// RegisterAuth mounts the credential endpoints and the caller's profile.
func RegisterAuth(g *echo.Group, h Handlers) {
	g.POST("/auth/register", h.Auth.Register)
	g.POST("/auth/login", h.Auth.Login)
	g.POST("/auth/refresh", h.Auth.Refresh)
	g.POST("/auth/refresh-access", h.Auth.RefreshAccess)
	g.POST("/auth/logout", h.Auth.Logout, anyUser)

	g.GET("/me", h.Auth.Me, anyUser)
	g.PATCH("/me", h.Auth.UpdateProfile, anyUser)
}

// RegisterCustomer mounts what any signed in user can do.  Use cases narrow
// lists and reads to the caller's own rows unless the caller is staff.
func RegisterCustomer(g *echo.Group, h Handlers) {
	g.POST("/enrollments", h.Academies.Enroll, anyUser)
	g.GET("/enrollments", h.Academies.ListEnrollments, anyUser)
	g.GET("/enrollments/:id", h.Academies.GetEnrollment, anyUser)
	g.POST("/enrollments/:id/cancel", h.Academies.CancelEnrollment, anyUser)

	g.POST("/bookings", h.Fields.Book, anyUser)
	g.GET("/bookings", h.Fields.ListBookings, anyUser)
	g.GET("/bookings/:id", h.Fields.GetBooking, anyUser)
	g.POST("/bookings/:id/cancel", h.Fields.CancelBooking, anyUser)

	g.POST("/orders", h.Shop.PlaceOrder, anyUser)
	g.GET("/orders", h.Shop.ListOrders, anyUser)
	g.GET("/orders/:id", h.Shop.GetOrder, anyUser)
	g.POST("/orders/:id/cancel", h.Shop.CancelOrder, anyUser)

	g.POST("/payments", h.Payments.Create, anyUser)
	g.GET("/payments", h.Payments.List, anyUser)
	g.GET("/payments/:id", h.Payments.Get, anyUser)
	g.POST("/payments/:id/confirm", h.Payments.Confirm, anyUser)

	g.GET("/notifications", h.Notifications.List, anyUser)
	g.POST("/notifications/read-all", h.Notifications.MarkAllRead, anyUser)
	g.POST("/notifications/:id/read", h.Notifications.MarkRead, anyUser)

	g.POST("/ticketing/purchases", h.Ticketing.Purchase, anyUser)
	g.GET("/ticketing/purchases", h.Ticketing.ListPurchases, anyUser)
}

// RegisterStaff mounts catalog writes, workflow moves and administration.
func RegisterStaff(g *echo.Group, h Handlers) {
	g.POST("/academies", h.Academies.Create, staff)
	g.PATCH("/academies/:id", h.Academies.Update, staff)
	g.DELETE("/academies/:id", h.Academies.Delete, staff)
	g.POST("/academies/:id/restore", h.Academies.Restore, staff)
	g.POST("/academies/:id/classes", h.Academies.CreateClass, staff)
	g.PATCH("/academies/:id/classes/:class_id", h.Academies.UpdateClass, staff)
	g.DELETE("/academies/:id/classes/:class_id", h.Academies.DeleteClass, staff)
	g.POST("/academies/:id/classes/:class_id/restore", h.Academies.RestoreClass, staff)
	g.POST("/enrollments/:id/transition", h.Academies.TransitionEnrollment, staff)
	g.DELETE("/enrollments/:id", h.Academies.DeleteEnrollment, staff)

	g.POST("/fields", h.Fields.Create, staff)
	g.PATCH("/fields/:id", h.Fields.Update, staff)
	g.DELETE("/fields/:id", h.Fields.Delete, staff)
	g.POST("/fields/:id/restore", h.Fields.Restore, staff)
	g.POST("/bookings/:id/transition", h.Fields.TransitionBooking, staff)
	g.DELETE("/bookings/:id", h.Fields.DeleteBooking, staff)

	g.POST("/products", h.Shop.CreateProduct, staff)
	g.PATCH("/products/:id", h.Shop.UpdateProduct, staff)
	g.DELETE("/products/:id", h.Shop.DeleteProduct, staff)
	g.POST("/products/:id/restore", h.Shop.RestoreProduct, staff)
	g.POST("/orders/:id/transition", h.Shop.TransitionOrder, staff)
	g.DELETE("/orders/:id", h.Shop.DeleteOrder, staff)

	g.POST("/payments/:id/refund", h.Payments.Refund, admin)

	g.POST("/files", h.Files.Upload, staff)
	g.GET("/files", h.Files.List, staff)
	g.DELETE("/files/:id", h.Files.Delete, staff)
	g.POST("/files/:id/restore", h.Files.Restore, admin)

	g.GET("/users", h.Users.List, admin)
	g.GET("/users/:id", h.Users.Get, admin)
	g.PATCH("/users/:id", h.Users.Update, admin)
	g.DELETE("/users/:id", h.Users.Delete, admin)

	g.POST("/statuses/reload", h.Statuses.Reload, admin)
}
