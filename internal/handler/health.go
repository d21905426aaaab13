package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler serves the liveness and readiness checks.
type HealthHandler struct {
	DB    *sql.DB
	Redis *redis.Client
}

// Healthz reports that the process is up.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Readyz pings the database and, when configured, Redis.
func (h *HealthHandler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	ready := true
	if h.DB == nil || h.DB.PingContext(ctx) != nil {
		checks["database"] = "unavailable"
		ready = false
	}
	if h.Redis != nil {
		checks["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
			ready = false
		}
	}
	if !ready {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "checks": checks})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "checks": checks})
}
