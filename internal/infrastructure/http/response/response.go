// Package response writes the JSON envelopes shared by every API endpoint
package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rasoiops/rasoiops/internal/infrastructure/monitoring"
	"github.com/rasoiops/rasoiops/pkg/errors"
	"go.uber.org/zap"
)

// Envelope represents a standard API success response
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSON writes v with the given status
func JSON(w http.ResponseWriter, logger *zap.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// Success wraps data in the success envelope
func Success(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}, message string) {
	JSON(w, logger, status, Envelope{Success: true, Data: data, Message: message})
}

// Error converts err to an AppError and writes it with the request id.
// Errors that are not AppErrors are logged and reported as internal errors.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	requestID := chimiddleware.GetReqID(r.Context())

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError("An unexpected error occurred").WithCause(err)
	}

	status := appErr.StatusCode()
	logger = monitoring.WithContext(r.Context(), logger)
	fields := []zap.Field{
		zap.String("code", string(appErr.Code)),
		zap.String("message", appErr.Message),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Debug("Request rejected", fields...)
	}

	JSON(w, logger, status, errors.ToErrorResponse(appErr, requestID))
}
