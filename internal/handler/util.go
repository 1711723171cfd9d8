// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/capitalize-ai/briefing-platform/internal/llm"
	"github.com/capitalize-ai/briefing-platform/internal/service"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps core errors to HTTP responses. Messages are generic
// so upstream bodies and credentials never reach the client.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrBriefingNotFound):
		writeError(w, http.StatusNotFound, "briefing not found")
	case service.IsConfigError(err):
		writeError(w, http.StatusInternalServerError, "persona is not configured")
	case errors.Is(err, service.ErrDialogFinished):
		writeError(w, http.StatusConflict, "dialog already finished")
	case errors.Is(err, service.ErrEmptyHistory):
		writeError(w, http.StatusConflict, "conversation has no messages to compile")
	case errors.Is(err, service.ErrCompilationParse):
		writeError(w, http.StatusUnprocessableEntity, "AI service returned an invalid document")
	case errors.Is(err, context.DeadlineExceeded) && errors.Is(err, llm.ErrUpstreamUnavailable):
		writeError(w, http.StatusGatewayTimeout, "AI service unavailable")
	case llm.IsUpstream(err):
		writeError(w, http.StatusBadGateway, "AI service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
