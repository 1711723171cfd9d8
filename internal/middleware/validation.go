package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateMessageContent validates dialog message text.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("text cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("text exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("text must be valid UTF-8")
	}
	return nil
}

// ValidateConversationID validates a briefing/conversation ID.
func ValidateConversationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid briefing ID format")
	}
	return nil
}

// ValidatePersonaName validates a persona name.
func ValidatePersonaName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("persona cannot be empty")
	}
	if len(name) > 128 {
		return errors.New("persona exceeds maximum length")
	}
	if !utf8.ValidString(name) {
		return errors.New("persona must be valid UTF-8")
	}
	return nil
}

// ValidateTitle validates a briefing title.
func ValidateTitle(title string) error {
	if len(title) > 256 {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}
