package model

import (
	"time"
)

// Briefing statuses.
const (
	BriefingStatusOpen     = "open"
	BriefingStatusCompiled = "compiled"
)

// Briefing is the structured document compiled from a conversation. The
// briefing ID doubles as the conversation ID.
type Briefing struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"owner_id"`
	Title        string         `json:"title"`
	Content      map[string]any `json:"content,omitempty"`
	Status       string         `json:"status"`
	LastEditedBy string         `json:"last_edited_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CreateBriefingRequest is the request to open a new briefing.
type CreateBriefingRequest struct {
	Title string `json:"title"`
}

// CompileBriefingRequest optionally overrides the compiler persona.
type CompileBriefingRequest struct {
	Persona string `json:"persona,omitempty"`
}

// CompileBriefingResponse is returned after a successful compilation.
type CompileBriefingResponse struct {
	Content map[string]any `json:"content"`
	Status  string         `json:"status"`
}
