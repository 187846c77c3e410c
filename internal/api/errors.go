package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIError represents a structured API error with HTTP status code.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// NotFoundError reports a missing resource.
func NotFoundError(kind, name string) *APIError {
	return &APIError{
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("%s not found", kind),
		Details: name,
	}
}

// InternalError reports an unexpected server-side failure.
func InternalError(message, details string) *APIError {
	return &APIError{
		Code:    http.StatusInternalServerError,
		Message: message,
		Details: details,
	}
}

// HTTPErrorHandler is a custom error handler for Echo.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	switch e := err.(type) {
	case *echo.HTTPError:
		apiErr = &APIError{
			Code:    e.Code,
			Message: http.StatusText(e.Code),
			Details: fmt.Sprintf("%v", e.Message),
		}
	case *APIError:
		apiErr = e
	default:
		apiErr = &APIError{
			Code:    http.StatusInternalServerError,
			Message: http.StatusText(http.StatusInternalServerError),
			Details: err.Error(),
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Code)
		return
	}
	_ = c.JSON(apiErr.Code, apiErr)
}
