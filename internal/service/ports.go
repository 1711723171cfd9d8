// Package service implements dialog orchestration and briefing compilation.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/capitalize-ai/briefing-platform/internal/model"
)

// PersonaStore returns personas by name. Missing personas yield
// model.ErrNotFound.
type PersonaStore interface {
	GetPersona(ctx context.Context, name string) (*model.Persona, error)
}

// ConversationStore appends and lists the ordered turns of a conversation.
type ConversationStore interface {
	// AppendTurn records a turn and returns it with its sequence set.
	AppendTurn(ctx context.Context, conversationID, sender, text string) (model.Turn, error)

	// ListTurns returns the last limit turns in ascending sequence order.
	// A limit <= 0 returns every turn.
	ListTurns(ctx context.Context, conversationID string, limit int) ([]model.Turn, error)
}

// BriefingWriter replaces the compiled content of a briefing. Implementations
// must apply content, status and editor in a single write.
type BriefingWriter interface {
	WriteContent(ctx context.Context, conversationID string, content map[string]any, status, editedBy string) error
}

// BriefingRepository is the full briefing store used by the HTTP layer.
type BriefingRepository interface {
	BriefingWriter
	Create(ctx context.Context, briefing *model.Briefing) error
	Get(ctx context.Context, id string) (*model.Briefing, error)
}

// EventPublisher publishes briefing events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *model.BriefingEvent) (uint64, error)
}

// resolvePersona loads a persona and checks that its script has a context.
func resolvePersona(ctx context.Context, store PersonaStore, name string) (*model.Persona, error) {
	persona, err := store.GetPersona(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrPersonaNotFound, name)
		}
		return nil, fmt.Errorf("failed to load persona %q: %w", name, err)
	}
	if persona == nil {
		return nil, fmt.Errorf("%w: %q", ErrPersonaNotFound, name)
	}
	if persona.Context() == "" {
		return nil, fmt.Errorf("%w: persona %q has no script context", ErrPersonaConfigInvalid, name)
	}
	return persona, nil
}
