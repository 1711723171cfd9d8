package service

import (
	"context"
	"sync"

	"github.com/capitalize-ai/briefing-platform/internal/model"
	"github.com/capitalize-ai/briefing-platform/internal/store/memory"
)

const (
	personaAna      = "Ana"
	personaCompiler = "Compilador"
	personaNoScript = "Vazio"
)

// fakeGateway answers with reply and records every prompt it receives.
type fakeGateway struct {
	mu      sync.Mutex
	prompts []string
	reply   func(ctx context.Context, persona *model.Persona, prompt string) (string, error)
}

func replyWith(text string, err error) *fakeGateway {
	return &fakeGateway{
		reply: func(context.Context, *model.Persona, string) (string, error) {
			return text, err
		},
	}
}

func (g *fakeGateway) Call(ctx context.Context, persona *model.Persona, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	reply := g.reply
	g.mu.Unlock()
	return reply(ctx, persona, prompt)
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func (g *fakeGateway) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

func testPersonas() *memory.PersonaStore {
	return memory.NewPersonaStore(
		&model.Persona{
			Name:        personaAna,
			Provider:    "openai",
			EndpointURL: "http://ana.invalid",
			Script: map[string]string{
				model.ScriptContext: "Você é Ana, gerente de contas.",
				model.ScriptIntro:   "Oi, eu sou a Ana.",
			},
		},
		&model.Persona{
			Name:        personaCompiler,
			Provider:    "gemini",
			EndpointURL: "http://compiler.invalid",
			Script: map[string]string{
				model.ScriptContext: "Transforme a conversa em um JSON.",
			},
		},
		&model.Persona{
			Name:        personaNoScript,
			EndpointURL: "http://empty.invalid",
			Script:      map[string]string{model.ScriptIntro: "sem contexto"},
		},
	)
}

func eventTypes(events []model.BriefingEvent) []model.EventType {
	out := make([]model.EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}
