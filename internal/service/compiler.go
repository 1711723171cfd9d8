package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/briefing-platform/internal/llm"
	"github.com/capitalize-ai/briefing-platform/internal/model"
	"github.com/capitalize-ai/briefing-platform/internal/prompt"
	"github.com/capitalize-ai/briefing-platform/pkg/logger"
	"github.com/capitalize-ai/briefing-platform/pkg/metrics"
)

// CompilerService compiles conversations into structured briefing content.
type CompilerService struct {
	personas  PersonaStore
	turns     ConversationStore
	briefings BriefingWriter
	gateway   llm.Gateway
	locks     *KeyedLocker
	events    EventPublisher
	logger    *logger.Logger
}

// NewCompilerService creates a new compiler service. locks should be shared
// with the DialogService so compilation never races a dialog turn. events
// may be nil.
func NewCompilerService(
	personas PersonaStore,
	turns ConversationStore,
	briefings BriefingWriter,
	gateway llm.Gateway,
	locks *KeyedLocker,
	events EventPublisher,
	log *logger.Logger,
) *CompilerService {
	return &CompilerService{
		personas:  personas,
		turns:     turns,
		briefings: briefings,
		gateway:   gateway,
		locks:     locks,
		events:    events,
		logger:    log,
	}
}

// Compile asks the compiler persona to turn the full conversation into a
// JSON object and stores it as the briefing content. On any failure the
// previous content is left as it was.
func (s *CompilerService) Compile(ctx context.Context, conversationID, compilerPersona string) (map[string]any, error) {
	log := s.logger.WithConversation(conversationID).With(zap.String("persona", compilerPersona))

	persona, err := resolvePersona(ctx, s.personas, compilerPersona)
	if err != nil {
		metrics.RecordCompilation(compilerPersona, "config_error")
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock conversation: %w", err)
	}
	defer unlock()

	history, err := s.turns.ListTurns(ctx, conversationID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(history) == 0 {
		metrics.RecordCompilation(persona.Name, "empty_history")
		return nil, ErrEmptyHistory
	}

	raw, err := s.gateway.Call(ctx, persona, prompt.BuildCompilation(persona.Context(), history))
	if err != nil {
		metrics.RecordCompilation(persona.Name, "upstream_error")
		s.publish(ctx, conversationID, model.EventTypeUpstreamError, persona.Name, llm.ErrorClass(err), nil)
		return nil, err
	}

	content, err := ExtractJSON(raw)
	if err != nil {
		metrics.RecordCompilation(persona.Name, "parse_error")
		log.Warn("compiler answered without a JSON object", zap.Int("response_len", len(raw)))
		s.publish(ctx, conversationID, model.EventTypeCompileFailed, persona.Name, "parse_error", nil)
		return nil, err
	}

	if err := s.briefings.WriteContent(ctx, conversationID, content, model.BriefingStatusCompiled, persona.Name); err != nil {
		metrics.RecordCompilation(persona.Name, "store_error")
		return nil, fmt.Errorf("failed to write briefing content: %w", err)
	}

	metrics.RecordCompilation(persona.Name, "success")
	s.publish(ctx, conversationID, model.EventTypeBriefingCompiled, persona.Name, "", map[string]string{
		"turns": strconv.Itoa(len(history)),
		"keys":  strconv.Itoa(len(content)),
	})
	log.Info("briefing compiled", zap.Int("turns", len(history)), zap.Int("keys", len(content)))

	return content, nil
}

func (s *CompilerService) publish(ctx context.Context, conversationID string, typ model.EventType, persona, reason string, metadata map[string]string) {
	if s.events == nil {
		return
	}
	publishEvent(ctx, s.events, s.logger, &model.BriefingEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Type:           typ,
		Persona:        persona,
		Reason:         reason,
		Metadata:       metadata,
		CreatedAt:      time.Now(),
	})
}
