// Package llm adapts prompts to external AI provider HTTP APIs and performs
// the outbound calls.
package llm

import (
	"context"
	"strings"

	"github.com/capitalize-ai/briefing-platform/internal/model"
)

// Gateway sends a prompt to the provider configured on a persona and returns
// the plain text of its answer.
type Gateway interface {
	Call(ctx context.Context, persona *model.Persona, prompt string) (string, error)
}

// Adapter shapes request bodies for, and extracts text from, one provider
// family.
type Adapter interface {
	// Name returns the provider family name.
	Name() string

	// ShapeBody returns a new request body with prompt injected into a copy
	// of template. The template itself is never modified.
	ShapeBody(template map[string]any, prompt string) map[string]any

	// ExtractText returns the answer text from a decoded JSON response, or
	// "" when the expected path is missing.
	ExtractText(response any) string
}

// Provider is the family of an AI provider API.
type Provider string

const (
	ProviderOpenAI  Provider = "openai"
	ProviderGemini  Provider = "gemini"
	ProviderGeneric Provider = "generic"
)

// ParseProvider normalizes a persona provider name into a Provider.
// Unknown names map to ProviderGeneric.
func ParseProvider(name string) Provider {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai", "openai-compatible", "openai_compatible", "groq", "deepseek":
		return ProviderOpenAI
	case "gemini", "google", "gemini-compatible", "gemini_compatible":
		return ProviderGemini
	default:
		return ProviderGeneric
	}
}

// AdapterFor returns the adapter for a persona provider name.
func AdapterFor(name string) Adapter {
	switch ParseProvider(name) {
	case ProviderOpenAI:
		return openAIAdapter{}
	case ProviderGemini:
		return geminiAdapter{}
	default:
		return genericAdapter{}
	}
}
