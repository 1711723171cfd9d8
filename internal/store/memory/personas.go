package memory

import (
	"context"
	"sync"

	"github.com/capitalize-ai/briefing-platform/internal/model"
)

// PersonaStore keeps personas in memory.
type PersonaStore struct {
	mu       sync.RWMutex
	personas map[string]*model.Persona
}

// NewPersonaStore creates a store holding personas.
func NewPersonaStore(personas ...*model.Persona) *PersonaStore {
	s := &PersonaStore{personas: make(map[string]*model.Persona)}
	for _, p := range personas {
		s.Put(p)
	}
	return s
}

// Put adds or replaces a persona.
func (s *PersonaStore) Put(p *model.Persona) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personas[p.Name] = p
}

// GetPersona returns a persona by name.
func (s *PersonaStore) GetPersona(ctx context.Context, name string) (*model.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.personas[name]
	if !ok {
		return nil, model.ErrNotFound
	}
	c := *p
	return &c, nil
}
