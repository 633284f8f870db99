package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/domain"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/transport"
	"github.com/labstack/echo/v4"
)

func statusFor(kind string) int {
	switch kind {
	case "validation":
		return http.StatusBadRequest
	case "unauthorized":
		return http.StatusUnauthorized
	case "forbidden":
		return http.StatusForbidden
	case "not_found":
		return http.StatusNotFound
	case "conflict":
		return http.StatusConflict
	case "unavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// fail logs a service error under event and converts it to an HTTP error
// whose status follows the error kind. Store details never reach the client.
func fail(l *slog.Logger, event string, err error) error {
	kind := domain.Kind(err)
	status := statusFor(kind)

	msg := err.Error()
	if status >= 500 && kind != "unavailable" {
		msg = "internal error"
	}

	if status >= 500 {
		l.Error(event, "status", status, "kind", kind, "error", err)
	} else {
		l.Warn(event, "status", status, "kind", kind, "error", err)
	}
	return echo.NewHTTPError(status, msg).SetInternal(err)
}

// HTTPErrorHandler renders every error as {"error": {"code", "message"}}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		code   string
		msg    string
	)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
		code = codeFor(status)
		if he.Internal != nil {
			if kind := domain.Kind(he.Internal); kind != "internal" {
				code = kind
			}
		}
	} else {
		code = domain.Kind(err)
		status = statusFor(code)
		msg = http.StatusText(status)
		if status < 500 || code == "unavailable" {
			msg = err.Error()
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, transport.ErrorResponse{Error: transport.ErrorBody{Code: code, Message: msg}})
}
