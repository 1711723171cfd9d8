package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/capitalize-ai/briefing-platform/internal/llm"
	"github.com/capitalize-ai/briefing-platform/internal/model"
	"github.com/capitalize-ai/briefing-platform/internal/prompt"
	"github.com/capitalize-ai/briefing-platform/pkg/logger"
	"github.com/capitalize-ai/briefing-platform/pkg/metrics"
)

// FinishedPolicy decides what happens to a turn sent after the persona has
// closed the dialog.
type FinishedPolicy string

const (
	FinishedPolicyContinue FinishedPolicy = "continue"
	FinishedPolicyWarn     FinishedPolicy = "warn"
	FinishedPolicyReject   FinishedPolicy = "reject"
)

// ParseFinishedPolicy parses a policy name. Empty means continue.
func ParseFinishedPolicy(s string) (FinishedPolicy, error) {
	switch p := FinishedPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return FinishedPolicyContinue, nil
	case FinishedPolicyContinue, FinishedPolicyWarn, FinishedPolicyReject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown finished policy %q", s)
	}
}

// DialogConfig tunes the dialog service.
type DialogConfig struct {
	// HistoryLimit bounds the turns rendered into a prompt.
	HistoryLimit int

	FinishedPolicy FinishedPolicy

	// FinishedCacheSize bounds the number of finished conversations
	// remembered without rereading history.
	FinishedCacheSize int
}

// DefaultDialogConfig returns the default dialog settings.
func DefaultDialogConfig() DialogConfig {
	return DialogConfig{
		HistoryLimit:      50,
		FinishedPolicy:    FinishedPolicyContinue,
		FinishedCacheSize: 4096,
	}
}

// DialogService runs persona dialog turns.
type DialogService struct {
	personas PersonaStore
	turns    ConversationStore
	gateway  llm.Gateway
	locks    *KeyedLocker
	events   EventPublisher
	finished *lru.Cache[string, bool]
	cfg      DialogConfig
	logger   *logger.Logger
}

// NewDialogService creates a new dialog service. events may be nil.
func NewDialogService(
	personas PersonaStore,
	turns ConversationStore,
	gateway llm.Gateway,
	locks *KeyedLocker,
	events EventPublisher,
	cfg DialogConfig,
	log *logger.Logger,
) (*DialogService, error) {
	defaults := DefaultDialogConfig()
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaults.HistoryLimit
	}
	if cfg.FinishedPolicy == "" {
		cfg.FinishedPolicy = defaults.FinishedPolicy
	}
	if cfg.FinishedCacheSize <= 0 {
		cfg.FinishedCacheSize = defaults.FinishedCacheSize
	}

	cache, err := lru.New[string, bool](cfg.FinishedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create finished cache: %w", err)
	}

	return &DialogService{
		personas: personas,
		turns:    turns,
		gateway:  gateway,
		locks:    locks,
		events:   events,
		finished: cache,
		cfg:      cfg,
		logger:   log,
	}, nil
}

// Continue records userText, asks the persona for its answer, records the
// answer and reports whether the persona closed the dialog.
//
// The user turn is recorded before the provider call and stays recorded if
// that call fails. Provider errors are returned unchanged.
func (s *DialogService) Continue(ctx context.Context, conversationID, personaName, userText string) (*model.DialogResult, error) {
	log := s.logger.WithConversation(conversationID).With(zap.String("persona", personaName))

	persona, err := resolvePersona(ctx, s.personas, personaName)
	if err != nil {
		metrics.RecordDialogTurn(personaName, "config_error", false)
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock conversation: %w", err)
	}
	defer unlock()

	if s.cfg.FinishedPolicy != FinishedPolicyContinue {
		done, err := s.isFinished(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		if done {
			if s.cfg.FinishedPolicy == FinishedPolicyReject {
				metrics.RecordDialogTurn(persona.Name, "rejected", false)
				return nil, ErrDialogFinished
			}
			log.Warn("dialog continued after it was finished")
		}
	}

	if _, err := s.turns.AppendTurn(ctx, conversationID, model.SenderUser, userText); err != nil {
		return nil, fmt.Errorf("failed to append user turn: %w", err)
	}

	history, err := s.turns.ListTurns(ctx, conversationID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	raw, err := s.gateway.Call(ctx, persona, prompt.Build(persona.Context(), history, userText))
	if err != nil {
		metrics.RecordDialogTurn(persona.Name, "upstream_error", false)
		s.publish(ctx, conversationID, model.EventTypeUpstreamError, persona.Name, llm.ErrorClass(err))
		return nil, err
	}

	if _, err := s.turns.AppendTurn(ctx, conversationID, persona.Name, raw); err != nil {
		return nil, fmt.Errorf("failed to append persona turn: %w", err)
	}

	visible, finished := DetectSentinel(raw)
	if finished {
		s.finished.Add(conversationID, true)
		s.publish(ctx, conversationID, model.EventTypeDialogFinished, persona.Name, "")
		log.Info("dialog finished by persona")
	}
	metrics.RecordDialogTurn(persona.Name, "success", finished)

	return &model.DialogResult{
		Text:     visible,
		Finished: finished,
	}, nil
}

// Finished reports whether the persona has closed the conversation.
func (s *DialogService) Finished(ctx context.Context, conversationID string) (bool, error) {
	unlock, err := s.locks.Lock(ctx, conversationID)
	if err != nil {
		return false, fmt.Errorf("failed to lock conversation: %w", err)
	}
	defer unlock()

	return s.isFinished(ctx, conversationID)
}

// isFinished must be called with the conversation lock held.
func (s *DialogService) isFinished(ctx context.Context, conversationID string) (bool, error) {
	if done, ok := s.finished.Get(conversationID); ok && done {
		return true, nil
	}

	history, err := s.turns.ListTurns(ctx, conversationID, s.cfg.HistoryLimit)
	if err != nil {
		return false, fmt.Errorf("failed to load history: %w", err)
	}
	for _, t := range history {
		if !t.IsUser() && ContainsSentinel(t.Text) {
			s.finished.Add(conversationID, true)
			return true, nil
		}
	}
	return false, nil
}

func (s *DialogService) publish(ctx context.Context, conversationID string, typ model.EventType, persona, reason string) {
	if s.events == nil {
		return
	}
	publishEvent(ctx, s.events, s.logger, &model.BriefingEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Type:           typ,
		Persona:        persona,
		Reason:         reason,
		CreatedAt:      time.Now(),
	})
}

// publishEvent is best effort and survives cancellation of the caller.
func publishEvent(ctx context.Context, events EventPublisher, log *logger.Logger, event *model.BriefingEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if _, err := events.PublishEvent(ctx, event); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn("failed to publish event",
			zap.String("conversation_id", event.ConversationID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
