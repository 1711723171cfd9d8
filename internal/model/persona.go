// Package model defines data structures for the briefing platform.
package model

import "strings"

// Script keys understood by the engine.
const (
	ScriptContext = "context"
	ScriptIntro   = "intro"
)

// Persona is a configured AI character (an "employee") that answers through
// an external provider endpoint.
type Persona struct {
	Name            string            `json:"name" yaml:"name"`
	Provider        string            `json:"provider" yaml:"provider"`
	EndpointURL     string            `json:"endpoint_url" yaml:"endpoint_url"`
	EndpointKey     string            `json:"-" yaml:"endpoint_key"`
	HeadersTemplate map[string]string `json:"headers_template,omitempty" yaml:"headers_template"`
	BodyTemplate    map[string]any    `json:"body_template,omitempty" yaml:"body_template"`
	Script          map[string]string `json:"script" yaml:"script"`
}

// Context returns the behavioral context of the persona script.
func (p *Persona) Context() string {
	if p == nil || p.Script == nil {
		return ""
	}
	return strings.TrimSpace(p.Script[ScriptContext])
}

// Intro returns the optional UI-facing introduction text.
func (p *Persona) Intro() string {
	if p == nil || p.Script == nil {
		return ""
	}
	return p.Script[ScriptIntro]
}

// PersonaView is the public projection of a persona. It never carries
// endpoint credentials.
type PersonaView struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Intro    string `json:"intro,omitempty"`
}

// View returns the public projection of the persona.
func (p *Persona) View() PersonaView {
	return PersonaView{
		Name:     p.Name,
		Provider: p.Provider,
		Intro:    p.Intro(),
	}
}
