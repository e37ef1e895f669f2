package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/easystore/internal/service"
)

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "already exists"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username or password"
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "invalid refresh token"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// fail logs a service error under "<op>_error" and turns it into an HTTP error.
// Client errors carry the service message, server errors a generic one.
func fail(l *slog.Logger, op string, err error) error {
	status, reason := statusFor(err)
	if status >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", status, "reason", reason, "error", err)
		return echo.NewHTTPError(status, reason)
	}
	l.Warn(op+"_error", "status", status, "reason", reason, "error", err)
	return echo.NewHTTPError(status, err.Error())
}

func parseID(c echo.Context) (string, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
