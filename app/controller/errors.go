package controller

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-pos-auth/app/service"
	"github.com/vibast-solutions/ms-go-pos-auth/app/types"

	"github.com/labstack/echo/v4"
)

const (
	internalErrorMessage     = "internal server error"
	notificationErrorMessage = "failed to send OTP, please try again"
)

// errorStatus maps a service error to its HTTP status and caller-visible message.
// Kind errors carry generic messages already; anything else is an internal failure.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotificationFailure):
		return http.StatusServiceUnavailable, notificationErrorMessage
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidCredential):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

func errorJSON(ctx echo.Context, err error) error {
	code, message := errorStatus(err)
	return ctx.JSON(code, types.ErrorResponse{Error: message})
}

func isInternal(err error) bool {
	code, _ := errorStatus(err)
	return code >= http.StatusInternalServerError
}
