package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/briefing-platform/internal/model"
	"github.com/capitalize-ai/briefing-platform/pkg/logger"
	"github.com/capitalize-ai/briefing-platform/pkg/metrics"
)

// BriefingService handles briefing ownership and reads.
type BriefingService struct {
	briefings BriefingRepository
	turns     ConversationStore
	logger    *logger.Logger
}

// NewBriefingService creates a new briefing service.
func NewBriefingService(briefings BriefingRepository, turns ConversationStore, log *logger.Logger) *BriefingService {
	return &BriefingService{
		briefings: briefings,
		turns:     turns,
		logger:    log,
	}
}

// Create opens a new briefing owned by ownerID.
func (s *BriefingService) Create(ctx context.Context, ownerID string, req *model.CreateBriefingRequest) (*model.Briefing, error) {
	now := time.Now()

	b := &model.Briefing{
		ID:        uuid.Must(uuid.NewV7()).String(),
		OwnerID:   ownerID,
		Title:     req.Title,
		Status:    model.BriefingStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.briefings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create briefing: %w", err)
	}

	metrics.BriefingsTotal.Inc()
	s.logger.Info("briefing created", zap.String("conversation_id", b.ID), zap.String("user_id", ownerID))

	return b, nil
}

// Get returns a briefing owned by ownerID.
func (s *BriefingService) Get(ctx context.Context, ownerID, id string) (*model.Briefing, error) {
	b, err := s.briefings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrBriefingNotFound
		}
		return nil, fmt.Errorf("failed to get briefing: %w", err)
	}

	if b.OwnerID != ownerID {
		return nil, ErrBriefingNotFound
	}

	return b, nil
}

// ListTurns returns the full history of a briefing owned by ownerID.
func (s *BriefingService) ListTurns(ctx context.Context, ownerID, id string) (*model.ListTurnsResponse, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return nil, err
	}

	turns, err := s.turns.ListTurns(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	if turns == nil {
		turns = []model.Turn{}
	}

	return &model.ListTurnsResponse{
		Turns: turns,
		Total: len(turns),
	}, nil
}
