package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/briefing-platform/internal/model"
	"github.com/capitalize-ai/briefing-platform/internal/service"
)

// PersonaHandler exposes the public part of persona definitions.
type PersonaHandler struct {
	personas service.PersonaStore
}

// NewPersonaHandler creates a new persona handler.
func NewPersonaHandler(personas service.PersonaStore) *PersonaHandler {
	return &PersonaHandler{personas: personas}
}

// Get handles GET /api/v1/personas/:name
func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.personas.GetPersona(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "persona not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get persona")
		return
	}

	writeJSON(w, http.StatusOK, p.View())
}
