// Package service implements the HTTP handlers for authentication, list
// reconciliation and friend relationships. Handlers decode JSON, resolve
// the caller identity from the request context, orchestrate the store and
// the pure engines, and classify errors into HTTP statuses.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/listkeep/listkeep/internal/auth"
	"github.com/listkeep/listkeep/internal/friendship"
	"github.com/listkeep/listkeep/internal/reconcile"
	"github.com/listkeep/listkeep/internal/storage"
)

var (
	// ErrForbidden is returned when an authenticated caller lacks access
	// to the target resource.
	ErrForbidden = errors.New("not authorized for this resource")

	// ErrBadRequest is returned for malformed or incomplete request bodies.
	ErrBadRequest = errors.New("invalid request")
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError classifies err into an HTTP status, logs it and sends a JSON
// error body. Store errors are surfaced as 500s, never swallowed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.Warn("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailExists),
		errors.Is(err, auth.ErrUsernameExists),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, friendship.ErrUnknownAction),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden),
		errors.Is(err, friendship.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrVersionConflict),
		errors.Is(err, friendship.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, reconcile.ErrMissingItem):
		// Consistency violation: the whole reconciliation was aborted
		// rather than silently dropping the stored item.
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes the request body into v, mapping malformed JSON to a
// bad-request error.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
