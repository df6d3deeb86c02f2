// Package httputil maps wallet errors onto HTTP responses.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/wallets/internal/errors"
)

// ErrorResponse is the JSON body written for failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
	// expose copies the wrapped error text into Message.
	expose bool
}

// Custody and configuration failures are operator problems, so callers get 503
// without the underlying detail.
var errorMappings = []errorMapping{
	{target: apperrors.ErrNotFound, status: http.StatusNotFound, code: "not_found", message: "wallet not found"},
	{target: apperrors.ErrConflict, status: http.StatusConflict, code: "conflict", message: "wallet or credential already exists"},
	{target: apperrors.ErrInvalidInput, status: http.StatusUnprocessableEntity, code: "invalid_input", expose: true},
	{target: apperrors.ErrCustodyFailure, status: http.StatusServiceUnavailable, code: "service_unavailable", message: "key custody unavailable"},
	{
		target:  apperrors.ErrConfigurationFailure,
		status:  http.StatusServiceUnavailable,
		code:    "service_unavailable",
		message: "service is not configured",
	},
}

func mapError(err error) (int, ErrorResponse) {
	for _, m := range errorMappings {
		if !apperrors.Is(err, m.target) {
			continue
		}
		response := ErrorResponse{Error: m.code, Message: m.message}
		if m.expose {
			response.Message = err.Error()
		}
		return m.status, response
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "internal error"}
}

// HandleErrorGin writes the JSON error response for err and logs it with the
// full error chain. A nil err writes nothing.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	status, response := mapError(err)
	if logger != nil {
		logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.Int("status_code", status),
			slog.String("error_code", response.Error),
			slog.Any("error", err),
		)
	}
	c.JSON(status, response)
}
