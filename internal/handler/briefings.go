package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/briefing-platform/internal/middleware"
	"github.com/capitalize-ai/briefing-platform/internal/model"
	"github.com/capitalize-ai/briefing-platform/internal/service"
	"github.com/capitalize-ai/briefing-platform/pkg/logger"
)

// BriefingHandler handles briefing endpoints.
type BriefingHandler struct {
	briefings       *service.BriefingService
	compiler        *service.CompilerService
	compilerPersona string
	logger          *logger.Logger
}

// NewBriefingHandler creates a new briefing handler.
func NewBriefingHandler(
	briefings *service.BriefingService,
	compiler *service.CompilerService,
	compilerPersona string,
	log *logger.Logger,
) *BriefingHandler {
	return &BriefingHandler{
		briefings:       briefings,
		compiler:        compiler,
		compilerPersona: compilerPersona,
		logger:          log,
	}
}

// Create handles POST /api/v1/briefings
func (h *BriefingHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.CreateBriefingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.briefings.Create(ctx, userID, &req)
	if err != nil {
		h.logger.Error("failed to create briefing", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create briefing")
		return
	}

	writeJSON(w, http.StatusCreated, b)
}

// Get handles GET /api/v1/briefings/:id
func (h *BriefingHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.briefings.Get(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		h.logError("failed to get briefing", id, err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, b)
}

// Turns handles GET /api/v1/briefings/:id/turns
func (h *BriefingHandler) Turns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.briefings.ListTurns(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		h.logError("failed to list turns", id, err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Compile handles POST /api/v1/briefings/:id/compile
func (h *BriefingHandler) Compile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.CompileBriefingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	persona := h.compilerPersona
	if req.Persona != "" {
		if err := middleware.ValidatePersonaName(req.Persona); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		persona = req.Persona
	}

	if _, err := h.briefings.Get(ctx, middleware.GetUserID(ctx), id); err != nil {
		writeServiceError(w, err)
		return
	}

	content, err := h.compiler.Compile(ctx, id, persona)
	if err != nil {
		h.logError("failed to compile briefing", id, err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.CompileBriefingResponse{
		Content: content,
		Status:  model.BriefingStatusCompiled,
	})
}

func (h *BriefingHandler) logError(msg, id string, err error) {
	if errors.Is(err, service.ErrBriefingNotFound) {
		return
	}
	h.logger.Error(msg, zap.String("conversation_id", id), zap.Error(err))
}
