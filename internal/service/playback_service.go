package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/cache"
	"github.com/junes231/funnel-editor/internal/model"
	"github.com/junes231/funnel-editor/internal/quiz"
	"github.com/junes231/funnel-editor/internal/repository"
)

// ConfigurationErrorMessage is shown to players when a funnel cannot resolve a result
const ConfigurationErrorMessage = "This quiz has no valid final redirect configured."

type funnelSource interface {
	GetPublished(ctx context.Context, id string) (*model.Funnel, error)
}

type clickTracker interface {
	Track(ev model.ClickEvent)
}

type leadDeliverer interface {
	Deliver(hookURL string, lead *model.Lead)
}

// PlaybackService runs play sessions on top of the quiz engine
type PlaybackService struct {
	funnels      funnelSource
	sessions     cache.SessionCache
	leadRepo     repository.LeadRepo
	outcomeStats cache.OutcomeStatsCache
	engine       *quiz.Engine
	tracker      clickTracker
	webhook      leadDeliverer
	broadcaster  Broadcaster
	logger       *zap.Logger
	now          func() time.Time
}

// NewPlaybackService creates a new playback service
func NewPlaybackService(
	funnels funnelSource,
	sessions cache.SessionCache,
	leadRepo repository.LeadRepo,
	outcomeStats cache.OutcomeStatsCache,
	engine *quiz.Engine,
	tracker clickTracker,
	webhook leadDeliverer,
	logger *zap.Logger,
) *PlaybackService {
	return &PlaybackService{
		funnels:      funnels,
		sessions:     sessions,
		leadRepo:     leadRepo,
		outcomeStats: outcomeStats,
		engine:       engine,
		tracker:      tracker,
		webhook:      webhook,
		logger:       logger,
		now:          time.Now,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *PlaybackService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Funnel returns the player-facing summary of a published funnel
func (s *PlaybackService) Funnel(ctx context.Context, funnelID string) (*model.PublicFunnel, error) {
	funnel, err := s.funnels.GetPublished(ctx, funnelID)
	if err != nil {
		return nil, err
	}
	return funnel.Public(), nil
}

// Start opens a new session on a published funnel
func (s *PlaybackService) Start(ctx context.Context, funnelID string) (*model.PlayView, error) {
	funnel, err := s.funnels.GetPublished(ctx, funnelID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &model.PlaySession{
		ID:        uuid.New().String(),
		FunnelID:  funnel.ID,
		State:     s.engine.Start(funnel),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	s.settled(ctx, funnel, session)
	return s.view(funnel, session), nil
}

// Get returns the current view of a session
func (s *PlaybackService) Get(ctx context.Context, sessionID string) (*model.PlayView, error) {
	session, funnel, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(funnel, session), nil
}

// Answer applies the player's choice. The click is tracked without waiting.
func (s *PlaybackService) Answer(ctx context.Context, sessionID, answerID string) (*model.PlayView, error) {
	session, funnel, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state, err := s.engine.Answer(funnel, session.State, answerID)
	if err != nil {
		return nil, err
	}

	// the engine already rejected out-of-range indexes
	q := funnel.Questions[session.State.QuestionIndex]

	session.State = state
	session.UpdatedAt = s.now()
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	if _, ok := q.Answers[answerID]; ok {
		s.tracker.Track(model.ClickEvent{FunnelID: funnel.ID, QuestionID: q.ID, AnswerID: answerID})
	}
	s.settled(ctx, funnel, session)
	return s.view(funnel, session), nil
}

// SubmitLead stores the lead, forwards it to the webhook and resolves the outcome
func (s *PlaybackService) SubmitLead(ctx context.Context, sessionID, name, email string) (*model.PlayView, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidLead)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalidLead)
	}

	session, funnel, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state, err := s.engine.SubmitLead(funnel, session.State)
	if err != nil {
		return nil, err
	}

	lead := &model.Lead{
		FunnelID:  funnel.ID,
		SessionID: session.ID,
		Name:      name,
		Email:     email,
		CreatedAt: s.now(),
	}
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to store lead: %w", err)
	}

	// A failed save leaves the session in lead_capture. A retry stores the
	// lead again, but the webhook only fires once the session has moved on.
	session.State = state
	session.UpdatedAt = s.now()
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	s.webhook.Deliver(funnel.Settings.LeadCapture.WebhookURL, lead)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToEditors(funnel.ID, EventLeadCaptured, lead)
	}
	s.settled(ctx, funnel, session)
	return s.view(funnel, session), nil
}

func (s *PlaybackService) load(ctx context.Context, sessionID string) (*model.PlaySession, *model.Funnel, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}
	funnel, err := s.funnels.GetPublished(ctx, session.FunnelID)
	if err != nil {
		return nil, nil, err
	}
	return session, funnel, nil
}

func (s *PlaybackService) save(ctx context.Context, session *model.PlaySession) error {
	if err := s.sessions.Set(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// settled records terminal states once, on the transition into them
func (s *PlaybackService) settled(ctx context.Context, funnel *model.Funnel, session *model.PlaySession) {
	switch session.State.Phase {
	case model.PhaseOutcome:
		if err := s.outcomeStats.Increment(ctx, funnel.ID, session.State.OutcomeID); err != nil {
			s.logger.Warn("failed to count outcome", zap.String("funnelId", funnel.ID), zap.Error(err))
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastToEditors(funnel.ID, EventOutcomeResolved, map[string]interface{}{
				"sessionId": session.ID,
				"outcomeId": session.State.OutcomeID,
				"score":     session.State.Score,
			})
		}
	case model.PhaseConfigurationError:
		s.logger.Error("funnel has no outcome for final score",
			zap.String("funnelId", funnel.ID),
			zap.String("sessionId", session.ID),
			zap.Float64("score", session.State.Score),
		)
	}
}

func (s *PlaybackService) view(funnel *model.Funnel, session *model.PlaySession) *model.PlayView {
	v := &model.PlayView{SessionID: session.ID, State: session.State}
	switch session.State.Phase {
	case model.PhaseAnswering:
		if i := session.State.QuestionIndex; i >= 0 && i < len(funnel.Questions) {
			v.Question = publicQuestion(funnel.Questions[i])
		}
	case model.PhaseOutcome:
		if o, ok := funnel.Outcome(session.State.OutcomeID); ok {
			v.Outcome = o
		}
	case model.PhaseConfigurationError:
		v.Message = ConfigurationErrorMessage
	}
	return v
}
