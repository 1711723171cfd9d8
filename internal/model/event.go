package model

import (
	"time"
)

// EventType represents the type of briefing event.
type EventType string

const (
	EventTypeDialogFinished   EventType = "dialog_finished"
	EventTypeBriefingCompiled EventType = "briefing_compiled"
	EventTypeUpstreamError    EventType = "upstream_error"
	EventTypeCompileFailed    EventType = "compile_failed"
)

// BriefingEvent is published when something noteworthy happens to a briefing.
type BriefingEvent struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	Type           EventType         `json:"type"`
	Persona        string            `json:"persona,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}
