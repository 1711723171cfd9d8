package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/briefing-platform/internal/model"
)

const (
	// BriefingBucket is the key-value bucket holding briefings.
	BriefingBucket = "BRIEFINGS"

	maxWriteAttempts = 5

	// errCodeWrongLastSequence is the JetStream API code for a failed
	// revision check.
	errCodeWrongLastSequence jetstream.ErrorCode = 10071
)

// BriefingStore keeps briefings in a JetStream key-value bucket keyed by
// conversation ID. Content writes use revision checks so a write is applied
// whole or not at all.
type BriefingStore struct {
	client *Client
	kv     jetstream.KeyValue
}

// NewBriefingStore opens the briefing bucket, creating it when missing.
func NewBriefingStore(ctx context.Context, client *Client) (*BriefingStore, error) {
	js := client.JetStream()

	kv, err := js.KeyValue(ctx, BriefingBucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      BriefingBucket,
			Description: "Briefing documents by conversation",
			History:     5,
			Storage:     jetstream.FileStorage,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open briefing bucket: %w", err)
	}

	return &BriefingStore{client: client, kv: kv}, nil
}

// Create stores a new briefing. It fails if the ID is already taken.
func (s *BriefingStore) Create(ctx context.Context, b *model.Briefing) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal briefing: %w", err)
	}
	if _, err := s.kv.Create(ctx, b.ID, data); err != nil {
		return fmt.Errorf("failed to create briefing: %w", err)
	}
	return nil
}

// Get returns a briefing by ID.
func (s *BriefingStore) Get(ctx context.Context, id string) (*model.Briefing, error) {
	b, _, err := s.get(ctx, id)
	return b, err
}

// WriteContent replaces the content, status and editor of a briefing,
// creating the record if needed.
func (s *BriefingStore) WriteContent(ctx context.Context, conversationID string, content map[string]any, status, editedBy string) error {
	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		now := time.Now()

		b, rev, err := s.get(ctx, conversationID)
		switch {
		case errors.Is(err, model.ErrNotFound):
			b = &model.Briefing{ID: conversationID, CreatedAt: now}
		case err != nil:
			return err
		}

		b.Content = content
		b.Status = status
		b.LastEditedBy = editedBy
		b.UpdatedAt = now

		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to marshal briefing: %w", err)
		}

		if rev == 0 {
			_, err = s.kv.Create(ctx, conversationID, data)
		} else {
			_, err = s.kv.Update(ctx, conversationID, data, rev)
		}
		if err == nil {
			return nil
		}
		if !isConflict(err) {
			return fmt.Errorf("failed to write briefing: %w", err)
		}
		lastErr = err
	}

	return fmt.Errorf("failed to write briefing after %d attempts: %w", maxWriteAttempts, lastErr)
}

func (s *BriefingStore) get(ctx context.Context, id string) (*model.Briefing, uint64, error) {
	entry, err := s.kv.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, 0, model.ErrNotFound
		}
		return nil, 0, fmt.Errorf("failed to get briefing: %w", err)
	}

	var b model.Briefing
	if err := json.Unmarshal(entry.Value(), &b); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal briefing: %w", err)
	}
	return &b, entry.Revision(), nil
}

// isConflict reports whether a write lost a race with another writer.
func isConflict(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == errCodeWrongLastSequence
}
