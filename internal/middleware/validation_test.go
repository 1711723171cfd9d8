package middleware

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateMessageContent(t *testing.T) {
	assert.NoError(t, ValidateMessageContent("Olá"))
	assert.Error(t, ValidateMessageContent(""))
	assert.Error(t, ValidateMessageContent(" \n\t"))
	assert.Error(t, ValidateMessageContent(strings.Repeat("a", 100001)))
	assert.Error(t, ValidateMessageContent("\xff\xfe"))
}

func TestValidateConversationID(t *testing.T) {
	assert.NoError(t, ValidateConversationID(uuid.NewString()))
	assert.Error(t, ValidateConversationID("conv-1"))
	assert.Error(t, ValidateConversationID(""))
}

func TestValidatePersonaName(t *testing.T) {
	assert.NoError(t, ValidatePersonaName("Compilador"))
	assert.Error(t, ValidatePersonaName(" "))
	assert.Error(t, ValidatePersonaName(strings.Repeat("x", 129)))
}

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, ValidateTitle(""))
	assert.NoError(t, ValidateTitle("Site institucional"))
	assert.Error(t, ValidateTitle(strings.Repeat("x", 257)))
}
