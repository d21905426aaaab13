package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/sports-booking-backend/internal/i18n"
	"github.com/iliyamo/sports-booking-backend/internal/middleware"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

type errorPart struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorBody struct {
	Error errorPart `json:"error"`
}

// ErrorHandler renders every error returned by handlers and middleware as
// {"error": {"code", "message", "fields"}} in the request locale.
type ErrorHandler struct {
	Bundle *i18n.Bundle
	Log    *zap.Logger
}

func statusOf(k usecase.Kind, fields int) int {
	switch k {
	case usecase.KindInvalid:
		if fields > 0 {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadRequest
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindConflict:
		return http.StatusConflict
	case usecase.KindForbidden:
		return http.StatusForbidden
	case usecase.KindUnauthorized:
		return http.StatusUnauthorized
	case usecase.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// statusKey is the message of echo errors that carry no catalog key.
func statusKey(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "errors.bad_request"
	case http.StatusUnauthorized:
		return "errors.unauthorized"
	case http.StatusForbidden:
		return "errors.forbidden"
	case http.StatusNotFound:
		return "errors.not_found"
	case http.StatusMethodNotAllowed:
		return "errors.method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "errors.too_large"
	case http.StatusTooManyRequests:
		return "errors.rate_limited"
	case http.StatusServiceUnavailable:
		return "errors.unavailable"
	}
	if code >= 500 {
		return "errors.internal"
	}
	return "errors.validation"
}

func (h *ErrorHandler) locale(c echo.Context) string {
	if l := middleware.Locale(c); l != "" {
		return l
	}
	return h.Bundle.Default()
}

func (h *ErrorHandler) Handle(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	locale := h.locale(c)

	var (
		status int
		key    string
		args   map[string]any
		fields map[string]usecase.Message
		cause  = err
	)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		key = statusKey(status)
		if msg, ok := he.Message.(string); ok && h.Bundle.Has(locale, msg) {
			key = msg
		}
		if he.Internal != nil {
			cause = he.Internal
		}
	} else {
		ue := usecase.AsError(err)
		status = statusOf(ue.Kind, len(ue.Fields))
		key, args, fields = ue.Key, ue.Args, ue.Fields
	}

	body := errorBody{Error: errorPart{
		Code:    key,
		Message: h.Bundle.Translate(locale, key, args),
	}}
	if len(fields) > 0 {
		body.Error.Fields = make(map[string]string, len(fields))
		for name, m := range fields {
			body.Error.Fields[name] = h.Bundle.Translate(locale, m.Key, m.Args)
		}
	}

	if status >= http.StatusInternalServerError && h.Log != nil {
		h.Log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Int("status", status),
			zap.Error(cause))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil && h.Log != nil {
		h.Log.Warn("write error response", zap.Error(err))
	}
}
