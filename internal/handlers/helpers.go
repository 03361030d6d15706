package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/compare"
	"github.com/bobmcallan/stock-compare/internal/interfaces"
	"github.com/bobmcallan/stock-compare/internal/llm"
	"github.com/bobmcallan/stock-compare/internal/models"
)

// dateLayout is the format of the date inputs and query parameters.
const dateLayout = "2006-01-02"

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// StatusForError maps a service error to an HTTP status code.
// Errors from the market or language-model collaborators map to 502.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, interfaces.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrNoData), errors.Is(err, compare.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, llm.ErrMissingAPIKey), errors.Is(err, common.ErrAPIKeyNotFound):
		return http.StatusPreconditionFailed
	default:
		return http.StatusBadGateway
	}
}

// writeServiceError logs err and writes it as a JSON error with its mapped status.
func writeServiceError(w http.ResponseWriter, logger *common.Logger, op string, err error) {
	status := StatusForError(err)
	if logger != nil {
		evt := logger.Warn()
		if status >= http.StatusInternalServerError {
			evt = logger.Error()
		}
		evt.Str("op", op).Int("status", status).Err(err).Msg("request failed")
	}
	WriteError(w, status, err.Error())
}

// parseDate parses a yyyy-mm-dd value as a UTC date.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// today returns the UTC date of now.
func today(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
