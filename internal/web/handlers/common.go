package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/constants"
	"github.com/kozaktomas/bird-tagger/internal/logger"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps service errors onto HTTP status codes. Decode is checked
// before not-found: a missing object during ingestion is a decode failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, asset.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, asset.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, asset.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, asset.ErrStore):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondServiceError logs err and sends it with the mapped status. Internal
// error details are not exposed to clients.
func respondServiceError(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	status := statusForError(err)
	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		log.Error(op+" failed", "error", err)
		message = op + " failed"
	case http.StatusServiceUnavailable:
		log.Error(op+" failed", "error", err)
		message = "record store unavailable"
	default:
		log.Debug(op+" rejected", "status", status, "error", sanitizeForLog(err.Error()))
	}
	respondError(w, status, message)
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxJSONBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// HealthCheck returns the health endpoint. When ready is set it must succeed
// for the service to report ok; a failure answers 503.
func HealthCheck(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  "record store unavailable",
				})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	}
}
