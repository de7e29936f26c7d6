package server

import (
	"encoding/json"
	"net/http"

	"AriaVault/logger"

	"github.com/google/uuid"
)

// respondJSON 写出JSON响应
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

// respondClientError returns a client-visible error message (4xx). The
// message itself is safe to disclose.
func respondClientError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondUpstreamError returns a generic message plus a correlation id and
// logs the underlying error server-side under the same id. Raw error text
// never reaches the response body.
func respondUpstreamError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	correlationID := uuid.NewString()
	logger.Error("Request failed",
		logger.String("correlationId", correlationID),
		logger.String("method", r.Method),
		logger.String("path", r.URL.Path),
		logger.ErrorField(err),
	)
	respondJSON(w, http.StatusInternalServerError, map[string]string{
		"error":         msg,
		"correlationId": correlationID,
	})
}
