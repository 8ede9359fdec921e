package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	pkgerrors "github.com/nodeshop/dataflow/internal/pkg/errors"
)

// ErrorResponse is the JSON body written for any handler error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorHandler maps pkg/errors.DomainError codes to HTTP status codes, the
// same dispatch the teacher's ErrorHandler performs, adapted to this
// domain's error codes (VALIDATION_ERROR, MISSING_INPUT, INVOKE_ERROR in
// addition to the teacher's CRUD-style codes).
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var domainErr *pkgerrors.DomainError
		if pkgerrors.As(err, &domainErr) {
			c.JSON(mapDomainErrorToHTTPStatus(domainErr), ErrorResponse{
				Error:   domainErr.Code,
				Message: domainErr.Message,
				Code:    domainErr.Code,
			})
			return
		}

		if he, ok := err.(*echo.HTTPError); ok {
			c.JSON(he.Code, ErrorResponse{
				Error:   http.StatusText(he.Code),
				Message: fmt.Sprintf("%v", he.Message),
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}

func mapDomainErrorToHTTPStatus(err *pkgerrors.DomainError) int {
	switch err.Code {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "ALREADY_EXISTS":
		return http.StatusConflict
	case "INVALID_INPUT", "VALIDATION_ERROR", "MISSING_INPUT":
		return http.StatusBadRequest
	case "INVALID_STATE":
		return http.StatusConflict
	case "UNAUTHORIZED":
		return http.StatusUnauthorized
	case "FORBIDDEN":
		return http.StatusForbidden
	case "INVOKE_ERROR":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
