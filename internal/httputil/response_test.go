package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/wallets/internal/errors"
)

func TestHandleErrorGin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedError   string
		expectedMessage string
	}{
		{
			name:            "NotFound",
			err:             apperrors.Wrap(apperrors.ErrNotFound, "wallet BPNL000000000009"),
			expectedStatus:  http.StatusNotFound,
			expectedError:   "not_found",
			expectedMessage: "wallet not found",
		},
		{
			name:           "Conflict",
			err:            apperrors.Wrap(apperrors.ErrConflict, "wallet already exists"),
			expectedStatus: http.StatusConflict,
			expectedError:  "conflict",
		},
		{
			name:            "InvalidInputIsExposed",
			err:             apperrors.Wrap(apperrors.ErrInvalidInput, "invalid wallet id"),
			expectedStatus:  http.StatusUnprocessableEntity,
			expectedError:   "invalid_input",
			expectedMessage: "invalid wallet id: invalid input",
		},
		{
			name:            "CustodyFailureIsHidden",
			err:             apperrors.Wrap(apperrors.ErrCustodyFailure, "signing key missing in vault"),
			expectedStatus:  http.StatusServiceUnavailable,
			expectedError:   "service_unavailable",
			expectedMessage: "key custody unavailable",
		},
		{
			name:           "ConfigurationFailure",
			err:            apperrors.Wrap(apperrors.ErrConfigurationFailure, "authority wallet not found"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  "service_unavailable",
		},
		{
			name:            "Internal",
			err:             errors.New("connection reset"),
			expectedStatus:  http.StatusInternalServerError,
			expectedError:   "internal_error",
			expectedMessage: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			HandleErrorGin(c, tt.err, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.expectedError, response.Error)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, response.Message)
			}
		})
	}

	t.Run("LogsFullChain", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&logs, nil))
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		HandleErrorGin(c, apperrors.Wrap(apperrors.ErrCustodyFailure, "signing key missing in vault"), logger)

		assert.Contains(t, logs.String(), "signing key missing in vault")
		assert.NotContains(t, w.Body.String(), "signing key missing in vault")
	})

	t.Run("NilErrorWritesNothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		HandleErrorGin(c, nil, nil)
		assert.Empty(t, w.Body.String())
	})
}
