// Package persona loads persona definitions from a YAML file.
package persona

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/capitalize-ai/briefing-platform/internal/model"
)

// File is the on-disk personas file schema.
type File struct {
	Personas []model.Persona `yaml:"personas"`
}

// FileStore serves personas loaded from a YAML file.
type FileStore struct {
	path     string
	personas map[string]*model.Persona
}

// Load reads and validates a personas file. Endpoint keys and header values
// may reference environment variables as $VAR or ${VAR}.
func Load(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persona: read %s: %w", path, err)
	}

	store, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("persona: parse %s: %w", path, err)
	}
	store.path = path
	return store, nil
}

// Path returns the file the store was loaded from, or "" for parsed data.
func (s *FileStore) Path() string {
	return s.path
}

// Parse builds a store from YAML data.
func Parse(data []byte) (*FileStore, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	personas := make(map[string]*model.Persona, len(file.Personas))
	for i := range file.Personas {
		p := file.Personas[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("persona #%d has no name", i+1)
		}
		if _, dup := personas[p.Name]; dup {
			return nil, fmt.Errorf("duplicate persona %q", p.Name)
		}
		if strings.TrimSpace(p.EndpointURL) == "" {
			return nil, fmt.Errorf("persona %q has no endpoint_url", p.Name)
		}
		p.EndpointKey = os.ExpandEnv(p.EndpointKey)
		for k, v := range p.HeadersTemplate {
			p.HeadersTemplate[k] = os.ExpandEnv(v)
		}
		personas[p.Name] = &p
	}

	return &FileStore{personas: personas}, nil
}

// GetPersona returns a copy of the named persona.
func (s *FileStore) GetPersona(ctx context.Context, name string) (*model.Persona, error) {
	p, ok := s.personas[name]
	if !ok {
		return nil, model.ErrNotFound
	}
	c := *p
	return &c, nil
}

// Names returns the configured persona names in sorted order.
func (s *FileStore) Names() []string {
	names := make([]string, 0, len(s.personas))
	for name := range s.personas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Incomplete returns the names of personas whose script has no context.
// Using them fails at runtime with a configuration error.
func (s *FileStore) Incomplete() []string {
	var names []string
	for _, name := range s.Names() {
		if s.personas[name].Context() == "" {
			names = append(names, name)
		}
	}
	return names
}
