package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/model"
	"github.com/junes231/funnel-editor/internal/repository"
)

// TrackingService counts answer clicks
type TrackingService struct {
	funnelRepo  repository.FunnelRepo
	broadcaster Broadcaster
	logger      *zap.Logger
	timeout     time.Duration
}

// NewTrackingService creates a new tracking service
func NewTrackingService(funnelRepo repository.FunnelRepo, logger *zap.Logger) *TrackingService {
	return &TrackingService{
		funnelRepo: funnelRepo,
		logger:     logger,
		timeout:    5 * time.Second,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *TrackingService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// RecordClick increments the chosen answer's counter
func (s *TrackingService) RecordClick(ctx context.Context, ev model.ClickEvent) error {
	if ev.FunnelID == "" || ev.QuestionID == "" || ev.AnswerID == "" {
		return fmt.Errorf("%w: funnelId, questionId and answerId are required", ErrInvalidClick)
	}

	if err := s.funnelRepo.IncrementClick(ctx, ev.FunnelID, ev.QuestionID, ev.AnswerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: no such answer", ErrInvalidClick)
		}
		return fmt.Errorf("failed to record click: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToEditors(ev.FunnelID, EventClickRecorded, ev)
	}
	return nil
}

// Track records a click in the background. Playback never waits on it.
func (s *TrackingService) Track(ev model.ClickEvent) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in click tracking", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.RecordClick(ctx, ev); err != nil {
			s.logger.Warn("click tracking failed",
				zap.String("funnelId", ev.FunnelID),
				zap.String("questionId", ev.QuestionID),
				zap.String("answerId", ev.AnswerID),
				zap.Error(err),
			)
		}
	}()
}
