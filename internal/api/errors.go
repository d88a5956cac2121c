package api

import (
	"encoding/json"
	"net/http"

	"github.com/yuriscavalcante/rh360/internal/guard"
	"github.com/yuriscavalcante/rh360/internal/logging"
)

// Error codes in error bodies.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeForbidden   = "forbidden"
	ErrCodeUnavailable = "unavailable"
	ErrCodeInternal    = "internal_error"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError writes {"error":{"code","message"}}, the same shape the guard uses.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeUnauthorized sends the guard's uniform rejection.
func writeUnauthorized(w http.ResponseWriter) {
	guard.WriteError(w, guard.ErrUnauthenticated)
}

func writeUnavailable(w http.ResponseWriter) {
	guard.WriteError(w, guard.ErrUnavailable)
}

// writeInternalError logs err and sends a 500 without detail.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Log().WithError(err).WithField("path", r.URL.Path).Error("api: request failed")
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}
