// Package response provides JSON response formatting for the reference sync
// server. The wire shapes are flat, matching what released clients already
// parse: {"ok":...} for mutations, {"records":[...]} for reads, and
// {"error":...} for failures.
package response

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"

	domainerrors "github.com/quillapp/quill-engine/internal/errors"
)

// JSON writes a JSON response with the given status code using json/v2.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, data); err != nil {
		if logger != nil {
			logger.Error("failed to encode JSON response", "error", err)
		}
	}
}

// OK writes a 200 response.
func OK(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// errorBody is the wire shape for failures.
type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Error writes an error response with the given status code.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	JSON(w, status, errorBody{Error: message}, logger)
}

// HandleError maps domain errors to their HTTP status; anything unknown
// becomes a 500 without leaking internals.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var derr *domainerrors.Error
	if domainerrors.As(err, &derr) {
		JSON(w, derr.HTTPStatus(), errorBody{
			Error:   derr.Message,
			Code:    string(derr.Code),
			Details: derr.Details,
		}, logger)
		return
	}

	if logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	Error(w, http.StatusInternalServerError, "internal server error", logger)
}
