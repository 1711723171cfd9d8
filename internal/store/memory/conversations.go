// Package memory provides in-process store implementations.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/briefing-platform/internal/model"
)

// ConversationStore keeps conversation turns in memory.
type ConversationStore struct {
	mu    sync.RWMutex
	turns map[string][]model.Turn
	seq   uint64
}

// NewConversationStore creates an empty conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{turns: make(map[string][]model.Turn)}
}

// AppendTurn records a turn.
func (s *ConversationStore) AppendTurn(ctx context.Context, conversationID, sender, text string) (model.Turn, error) {
	if err := ctx.Err(); err != nil {
		return model.Turn{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := model.Turn{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		CreatedAt:      time.Now(),
		Sequence:       s.seq,
	}
	s.turns[conversationID] = append(s.turns[conversationID], t)

	return t, nil
}

// ListTurns returns the last limit turns, or all when limit <= 0.
func (s *ConversationStore) ListTurns(ctx context.Context, conversationID string, limit int) ([]model.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.turns[conversationID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}

	out := make([]model.Turn, len(all))
	copy(out, all)
	return out, nil
}
