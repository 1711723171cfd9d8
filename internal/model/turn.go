package model

import (
	"time"
)

// SenderUser is the sender recorded for turns written by the end user.
const SenderUser = "user"

// Turn is a single immutable entry of a conversation.
type Turn struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`

	// Populated by the store on append and read.
	Sequence uint64 `json:"sequence,omitempty"`
}

// IsUser reports whether the turn was written by the end user.
func (t Turn) IsUser() bool {
	return t.Sender == SenderUser
}

// ContinueDialogRequest is the request to send a user message to a persona.
type ContinueDialogRequest struct {
	Persona string `json:"persona"`
	Text    string `json:"text"`
}

// DialogResult is the outcome of one dialog turn.
type DialogResult struct {
	Text     string `json:"text"`
	Finished bool   `json:"finished"`
}

// ListTurnsResponse is the response for listing conversation turns.
type ListTurnsResponse struct {
	Turns []Turn `json:"turns"`
	Total int    `json:"total"`
}
