package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"sip-go/internal/sip"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sip.ErrInvalidAmount),
		errors.Is(err, sip.ErrInvalidGoal),
		errors.Is(err, sip.ErrMalformedDate):
		return http.StatusBadRequest
	case errors.Is(err, sip.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sip.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, sip.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
