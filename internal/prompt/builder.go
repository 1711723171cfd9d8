// Package prompt renders persona context and conversation history into the
// single text prompt sent to a provider.
package prompt

import (
	"sort"
	"strings"

	"github.com/capitalize-ai/briefing-platform/internal/model"
)

// Persona scripts are tuned against these literals; keep them byte-exact.
const (
	UserLabel           = "Usuário"
	ResponseInstruction = "Responda mantendo o personagem descrito acima."
	CompilationStart    = "--- Histórico da Conversa para Compilação ---"
	CompilationEnd      = "--- Fim do Histórico ---"
)

// Build renders a dialog prompt: the persona context, a blank line, one
// "<sender>: <text>" line per history turn, a blank line, the new user
// message and a closing instruction.
func Build(context string, history []model.Turn, userText string) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(context))
	b.WriteString("\n\n")
	writeTurns(&b, history)
	b.WriteString("\n")
	b.WriteString(UserLabel)
	b.WriteString(": ")
	b.WriteString(userText)
	b.WriteString("\n")
	b.WriteString(ResponseInstruction)

	return b.String()
}

// BuildCompilation renders the prompt that asks the compiler persona to turn
// the full history into a document.
func BuildCompilation(context string, history []model.Turn) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(context))
	b.WriteString("\n")
	b.WriteString(CompilationStart)
	b.WriteString("\n")
	writeTurns(&b, history)
	b.WriteString(CompilationEnd)

	return b.String()
}

func writeTurns(b *strings.Builder, history []model.Turn) {
	for _, t := range ordered(history) {
		b.WriteString(t.Sender)
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteString("\n")
	}
}

// ordered returns history sorted by ascending sequence without touching the
// caller's slice.
func ordered(history []model.Turn) []model.Turn {
	if sort.SliceIsSorted(history, func(i, j int) bool {
		return history[i].Sequence < history[j].Sequence
	}) {
		return history
	}
	out := make([]model.Turn, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sequence < out[j].Sequence
	})
	return out
}
