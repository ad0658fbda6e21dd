package handlers

import (
	"errors"
	"net/http"
	"sort"

	e "github.com/gartstein/companyconsole/internal/company/errors"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse is the error envelope of every non-2xx response. Message is
// a string, or a list of strings for validation failures.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    any    `json:"message"`
	Error      string `json:"error"`
}

func newErrorResponse(status int, message any) ErrorResponse {
	return ErrorResponse{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	}
}

// mapServiceError maps domain or repository errors to an HTTP status and
// message.
func (h *CompanyHandler) mapServiceError(err error) (int, any) {
	var ve *e.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, validationMessages(ve)
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, "Company not found"
	case errors.Is(err, e.ErrDuplicateDocument):
		return http.StatusConflict, "company with this document already exists"
	case errors.Is(err, e.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (h *CompanyHandler) serviceError(c echo.Context, err error) error {
	status, message := h.mapServiceError(err)
	return c.JSON(status, newErrorResponse(status, message))
}

func validationMessages(ve *e.ValidationError) []string {
	fields := make([]string, 0, len(ve.Problems))
	for f := range ve.Problems {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var out []string
	for _, f := range fields {
		out = append(out, ve.Problems[f]...)
	}
	return out
}

// httpErrorHandler renders errors that escaped the handlers, such as unknown
// routes or rejected tokens, in the same envelope.
func httpErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		var message any = "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			message = he.Message
		} else {
			logger.Error("Unhandled error", zap.Error(err))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, newErrorResponse(status, message))
		}
		if writeErr != nil {
			logger.Error("Failed to write error response", zap.Error(writeErr))
		}
	}
}
