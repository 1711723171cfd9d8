package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/briefing-platform/internal/model"
	"github.com/capitalize-ai/briefing-platform/pkg/logger"
)

const (
	// StreamName is the name of the conversations stream.
	StreamName = "CONVERSATIONS"

	// SubjectPrefix is the prefix for all conversation subjects.
	SubjectPrefix = "conv"

	fetchBatch = 256
)

// ConversationStore keeps conversation turns in a JetStream stream, one
// subject per conversation. The stream sequence orders turns.
type ConversationStore struct {
	client *Client
}

// NewConversationStore creates a new JetStream-backed conversation store.
func NewConversationStore(client *Client) *ConversationStore {
	return &ConversationStore{client: client}
}

// EnsureStream ensures the conversations stream exists with proper configuration.
func (s *ConversationStore) EnsureStream(ctx context.Context) error {
	js := s.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Duplicates:  2 * time.Minute,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Briefing conversation turns and events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// TurnSubject returns the subject holding the turns of a conversation.
func TurnSubject(conversationID string) string {
	return fmt.Sprintf("%s.%s.turn", SubjectPrefix, conversationID)
}

// EventSubject returns the subject for an event.
func EventSubject(conversationID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.event.%s", SubjectPrefix, conversationID, eventType)
}

// AppendTurn publishes a turn and returns it with its stream sequence.
func (s *ConversationStore) AppendTurn(ctx context.Context, conversationID, sender, text string) (model.Turn, error) {
	turn := model.Turn{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		CreatedAt:      time.Now(),
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return model.Turn{}, fmt.Errorf("failed to marshal turn: %w", err)
	}

	ack, err := s.client.JetStream().Publish(ctx, TurnSubject(conversationID), data, jetstream.WithMsgID(turn.ID))
	if err != nil {
		return model.Turn{}, fmt.Errorf("failed to publish turn: %w", err)
	}
	turn.Sequence = ack.Sequence

	return turn, nil
}

// ListTurns returns the last limit turns of a conversation in stream order,
// or every turn when limit <= 0.
func (s *ConversationStore) ListTurns(ctx context.Context, conversationID string, limit int) ([]model.Turn, error) {
	js := s.client.JetStream()

	consumer, err := js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject:     TurnSubject(conversationID),
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		InactiveThreshold: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	info := consumer.CachedInfo()
	defer func() {
		_ = js.DeleteConsumer(context.WithoutCancel(ctx), StreamName, info.Name)
	}()

	remaining := int(info.NumPending)
	turns := make([]model.Turn, 0, capacity(remaining, limit))

	for remaining > 0 {
		batch, err := consumer.Fetch(min(remaining, fetchBatch), jetstream.FetchMaxWait(2*time.Second))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch turns: %w", err)
		}

		received := 0
		for msg := range batch.Messages() {
			received++

			turn, ok := decodeTurn(s.client.logger, msg.Subject(), msg.Data())
			if !ok {
				continue
			}
			if meta, err := msg.Metadata(); err == nil {
				turn.Sequence = meta.Sequence.Stream
			}

			turns = append(turns, turn)
			if limit > 0 && len(turns) > limit {
				turns = turns[1:]
			}
		}

		if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("batch error: %w", err)
		}
		if received == 0 {
			break
		}
		remaining -= received
	}

	return turns, nil
}

// decodeTurn parses a stored turn. Records that do not decode are logged and
// left out of the history.
func decodeTurn(log *logger.Logger, subject string, data []byte) (model.Turn, bool) {
	var turn model.Turn
	if err := json.Unmarshal(data, &turn); err != nil {
		log.Error("skipping undecodable turn",
			zap.String("subject", subject),
			zap.Int("size", len(data)),
			zap.Error(err),
		)
		return model.Turn{}, false
	}
	return turn, true
}

// PublishEvent publishes an event to the conversation's event subject.
func (s *ConversationStore) PublishEvent(ctx context.Context, event *model.BriefingEvent) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := s.client.JetStream().Publish(ctx, EventSubject(event.ConversationID, event.Type), data, jetstream.WithMsgID(event.ID))
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	return ack.Sequence, nil
}

func capacity(pending, limit int) int {
	if limit > 0 && limit < pending {
		return limit + 1
	}
	return pending
}
