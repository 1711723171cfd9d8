package nats

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/capitalize-ai/briefing-platform/internal/model"
	"github.com/capitalize-ai/briefing-platform/pkg/logger"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "conv.abc.turn", TurnSubject("abc"))
	assert.Equal(t, "conv.abc.event.dialog_finished", EventSubject("abc", model.EventTypeDialogFinished))
}

func TestCapacity(t *testing.T) {
	assert.Equal(t, 10, capacity(10, 0))
	assert.Equal(t, 4, capacity(10, 3))
	assert.Equal(t, 2, capacity(2, 50))
}

func TestIsConflict(t *testing.T) {
	assert.True(t, isConflict(jetstream.ErrKeyExists))
	assert.True(t, isConflict(fmt.Errorf("update: %w", &jetstream.APIError{Code: 400, ErrorCode: errCodeWrongLastSequence})))
	assert.False(t, isConflict(&jetstream.APIError{Code: 503, ErrorCode: 10039}))
	assert.False(t, isConflict(errors.New("boom")))
}

func TestDecodeTurn(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := &logger.Logger{Logger: zap.New(core)}

	turn, ok := decodeTurn(log, "conv.c1.turn", []byte(`{"id":"t1","conversation_id":"c1","sender":"user","text":"Oi"}`))
	require.True(t, ok)
	assert.Equal(t, "Oi", turn.Text)
	assert.Equal(t, 0, logs.Len())

	_, ok = decodeTurn(log, "conv.c1.turn", []byte(`{"text":`))
	assert.False(t, ok)

	entries := logs.FilterMessage("skipping undecodable turn").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "conv.c1.turn", entries[0].ContextMap()["subject"])
}
