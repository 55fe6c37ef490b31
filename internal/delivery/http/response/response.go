// Package response renders the unified API envelope.
package response

import (
	"net/http"

	deliverycontext "memorylane/internal/delivery/context"
	domainerrors "memorylane/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// Success renders a successful response with the request ID in the meta.
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, domainerrors.SuccessResponse{
		Data: data,
		Meta: &domainerrors.MetaInfo{RequestID: deliverycontext.GetRequestID(c)},
	})
}

// Error renders an error response with a business error code.
func Error(c echo.Context, statusCode int, errorCode, message string, details any) error {
	if message == "" {
		message = http.StatusText(statusCode)
	}

	return c.JSON(statusCode, domainerrors.ErrorResponse{
		Error: &domainerrors.ErrorInfo{
			Code:    errorCode,
			Message: message,
			Details: details,
		},
		Meta: &domainerrors.MetaInfo{RequestID: deliverycontext.GetRequestID(c)},
	})
}

// BindingError renders a 400 for malformed request bodies.
func BindingError(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, "INVALID_INPUT", message, nil)
}

// Unauthorized renders a 401.
func Unauthorized(c echo.Context, message string) error {
	return Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

// Forbidden renders a 403.
func Forbidden(c echo.Context, message string) error {
	return Error(c, http.StatusForbidden, "FORBIDDEN", message, nil)
}

// NotFound renders a 404.
func NotFound(c echo.Context, message string) error {
	return Error(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}
