package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/capitalize-ai/briefing-platform/internal/model"
)

// BriefingStore keeps briefings in memory.
type BriefingStore struct {
	mu        sync.RWMutex
	briefings map[string]*model.Briefing
}

// NewBriefingStore creates an empty briefing store.
func NewBriefingStore() *BriefingStore {
	return &BriefingStore{briefings: make(map[string]*model.Briefing)}
}

// Create stores a new briefing.
func (s *BriefingStore) Create(ctx context.Context, b *model.Briefing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.briefings[b.ID]; exists {
		return fmt.Errorf("briefing %s already exists", b.ID)
	}
	s.briefings[b.ID] = clone(b)
	return nil
}

// Get returns a copy of a briefing.
func (s *BriefingStore) Get(ctx context.Context, id string) (*model.Briefing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.briefings[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return clone(b), nil
}

// WriteContent replaces the content, status and editor of a briefing in one
// step, creating the record if needed.
func (s *BriefingStore) WriteContent(ctx context.Context, conversationID string, content map[string]any, status, editedBy string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	b, ok := s.briefings[conversationID]
	if !ok {
		b = &model.Briefing{ID: conversationID, CreatedAt: now}
	} else {
		b = clone(b)
	}
	b.Content = maps.Clone(content)
	b.Status = status
	b.LastEditedBy = editedBy
	b.UpdatedAt = now

	s.briefings[conversationID] = b
	return nil
}

func clone(b *model.Briefing) *model.Briefing {
	c := *b
	c.Content = maps.Clone(b.Content)
	return &c
}
