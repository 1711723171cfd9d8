package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/briefing-platform/internal/middleware"
	"github.com/capitalize-ai/briefing-platform/internal/model"
	"github.com/capitalize-ai/briefing-platform/internal/service"
	"github.com/capitalize-ai/briefing-platform/pkg/logger"
)

// DialogHandler handles persona dialog endpoints.
type DialogHandler struct {
	dialog    *service.DialogService
	briefings *service.BriefingService
	logger    *logger.Logger
}

// NewDialogHandler creates a new dialog handler.
func NewDialogHandler(
	dialog *service.DialogService,
	briefings *service.BriefingService,
	log *logger.Logger,
) *DialogHandler {
	return &DialogHandler{
		dialog:    dialog,
		briefings: briefings,
		logger:    log,
	}
}

// Continue handles POST /api/v1/briefings/:id/dialog
func (h *DialogHandler) Continue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.ContinueDialogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidatePersonaName(req.Persona); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageContent(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Verify briefing exists and belongs to the caller
	if _, err := h.briefings.Get(ctx, middleware.GetUserID(ctx), id); err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.dialog.Continue(ctx, id, req.Persona, req.Text)
	if err != nil {
		h.logger.WithRequest(middleware.GetCorrelationID(ctx), middleware.GetUserID(ctx)).
			WithConversation(id).
			Error("dialog turn failed", zap.String("persona", req.Persona), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
