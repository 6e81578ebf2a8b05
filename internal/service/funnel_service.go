package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/cache"
	"github.com/junes231/funnel-editor/internal/importer"
	"github.com/junes231/funnel-editor/internal/model"
	"github.com/junes231/funnel-editor/internal/repository"
	"github.com/junes231/funnel-editor/internal/templates"
)

// FunnelService handles funnel CRUD, imports and templates
type FunnelService struct {
	funnelRepo   repository.FunnelRepo
	leadRepo     repository.LeadRepo
	funnelCache  cache.FunnelCache
	outcomeStats cache.OutcomeStatsCache
	templates    *templates.Loader
	broadcaster  Broadcaster
	logger       *zap.Logger
}

// NewFunnelService creates a new funnel service
func NewFunnelService(
	funnelRepo repository.FunnelRepo,
	leadRepo repository.LeadRepo,
	funnelCache cache.FunnelCache,
	outcomeStats cache.OutcomeStatsCache,
	loader *templates.Loader,
	logger *zap.Logger,
) *FunnelService {
	return &FunnelService{
		funnelRepo:   funnelRepo,
		leadRepo:     leadRepo,
		funnelCache:  funnelCache,
		outcomeStats: outcomeStats,
		templates:    loader,
		logger:       logger,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *FunnelService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Create stores a new funnel owned by ownerID
func (s *FunnelService) Create(ctx context.Context, ownerID string, funnel *model.Funnel) (string, error) {
	funnel.OwnerID = ownerID
	if funnel.Questions == nil {
		funnel.Questions = []model.Question{}
	}
	if err := sanitizeFunnel(funnel); err != nil {
		return "", err
	}

	id, err := s.funnelRepo.Create(ctx, funnel)
	if err != nil {
		return "", fmt.Errorf("failed to create funnel: %w", err)
	}
	s.logger.Info("funnel created", zap.String("funnelId", id), zap.String("ownerId", ownerID))
	return id, nil
}

// Get returns a funnel the editor owns
func (s *FunnelService) Get(ctx context.Context, id, ownerID string) (*model.Funnel, error) {
	funnel, err := s.funnelRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load funnel: %w", err)
	}
	if funnel == nil {
		return nil, ErrFunnelNotFound
	}
	if funnel.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return funnel, nil
}

// List returns every funnel of an editor, most recently updated first
func (s *FunnelService) List(ctx context.Context, ownerID string) ([]*model.Funnel, error) {
	return s.funnelRepo.GetByOwnerID(ctx, ownerID)
}

// Update replaces an existing funnel document
func (s *FunnelService) Update(ctx context.Context, ownerID string, funnel *model.Funnel) error {
	existing, err := s.Get(ctx, funnel.ID, ownerID)
	if err != nil {
		return err
	}
	if err := sanitizeFunnel(funnel); err != nil {
		return err
	}

	funnel.OwnerID = existing.OwnerID
	funnel.CreatedAt = existing.CreatedAt
	keepClickCounts(existing, funnel)
	if err := s.funnelRepo.Update(ctx, funnel); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFunnelNotFound
		}
		return fmt.Errorf("failed to update funnel: %w", err)
	}
	s.changed(ctx, funnel.ID)
	return nil
}

// Delete removes a funnel and its cached state
func (s *FunnelService) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return err
	}
	if err := s.funnelRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFunnelNotFound
		}
		return fmt.Errorf("failed to delete funnel: %w", err)
	}
	s.invalidate(ctx, id)
	if err := s.outcomeStats.Reset(ctx, id); err != nil {
		s.logger.Warn("failed to reset outcome stats", zap.String("funnelId", id), zap.Error(err))
	}
	return nil
}

// ImportQuestions replaces the funnel's questions with an uploaded JSON list.
// The import is all-or-nothing; a FormatError leaves the funnel untouched.
func (s *FunnelService) ImportQuestions(ctx context.Context, id, ownerID string, data []byte) ([]model.Question, error) {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return nil, err
	}

	questions, err := importer.Parse(data)
	if err != nil {
		s.logger.Info("question import rejected", zap.String("funnelId", id), zap.Error(err))
		return nil, err
	}

	if err := s.funnelRepo.ReplaceQuestions(ctx, id, questions); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFunnelNotFound
		}
		return nil, fmt.Errorf("failed to save imported questions: %w", err)
	}
	s.changed(ctx, id)
	s.logger.Info("questions imported", zap.String("funnelId", id), zap.Int("count", len(questions)))
	return questions, nil
}

// ApplyTemplate overwrites the funnel body with a built-in template
func (s *FunnelService) ApplyTemplate(ctx context.Context, id, ownerID, name string) (*model.Funnel, error) {
	tmpl := s.templates.Get(name)
	if tmpl == nil {
		return nil, ErrTemplateNotFound
	}

	funnel, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	tmpl.Apply(funnel)

	if err := s.funnelRepo.Update(ctx, funnel); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFunnelNotFound
		}
		return nil, fmt.Errorf("failed to apply template: %w", err)
	}
	s.changed(ctx, id)
	return funnel, nil
}

// Templates lists the built-in templates
func (s *FunnelService) Templates() []templates.Summary {
	return s.templates.List()
}

// GetPublished returns a funnel for playback, reading through the cache.
// Unpublished funnels are reported as not found.
func (s *FunnelService) GetPublished(ctx context.Context, id string) (*model.Funnel, error) {
	funnel, err := s.funnelCache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("funnel cache read failed", zap.String("funnelId", id), zap.Error(err))
	}
	if funnel == nil {
		funnel, err = s.funnelRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load funnel: %w", err)
		}
		if funnel == nil {
			return nil, ErrFunnelNotFound
		}
		if err := s.funnelCache.Set(ctx, funnel); err != nil {
			s.logger.Warn("funnel cache write failed", zap.String("funnelId", id), zap.Error(err))
		}
	}
	if !funnel.Settings.Published {
		return nil, ErrFunnelNotFound
	}
	return funnel, nil
}

// Stats returns click counters and the outcome distribution of a funnel
func (s *FunnelService) Stats(ctx context.Context, id, ownerID string) (*model.FunnelStats, error) {
	funnel, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &model.FunnelStats{FunnelID: id, Clicks: []model.AnswerClicks{}}
	for _, q := range funnel.Questions {
		for _, a := range q.SortedAnswers() {
			stats.Clicks = append(stats.Clicks, model.AnswerClicks{
				QuestionID: q.ID,
				AnswerID:   a.ID,
				Text:       a.Text,
				Clicks:     a.ClickCount,
			})
			stats.TotalClicks += a.ClickCount
		}
	}

	outcomes, err := s.outcomeStats.GetAll(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load outcome stats: %w", err)
	}
	stats.Outcomes = outcomes
	return stats, nil
}

// Leads lists captured leads, newest first
func (s *FunnelService) Leads(ctx context.Context, id, ownerID string, limit int64) ([]*model.Lead, error) {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return nil, err
	}
	return s.leadRepo.ListByFunnel(ctx, id, limit)
}

func (s *FunnelService) changed(ctx context.Context, id string) {
	s.invalidate(ctx, id)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToEditors(id, EventFunnelUpdated, map[string]string{"funnelId": id})
	}
}

func (s *FunnelService) invalidate(ctx context.Context, id string) {
	if err := s.funnelCache.Delete(ctx, id); err != nil {
		s.logger.Warn("funnel cache invalidation failed", zap.String("funnelId", id), zap.Error(err))
	}
}

// keepClickCounts carries stored counters over so an editor save never
// rewinds them. Counters are only written by click tracking.
func keepClickCounts(from, to *model.Funnel) {
	stored := make(map[string]map[string]int, len(from.Questions))
	for _, q := range from.Questions {
		counts := make(map[string]int, len(q.Answers))
		for id, a := range q.Answers {
			counts[id] = a.ClickCount
		}
		stored[q.ID] = counts
	}
	for _, q := range to.Questions {
		for id, a := range q.Answers {
			a.ClickCount = stored[q.ID][id]
			q.Answers[id] = a
		}
	}
}

// sanitizeFunnel trims editor input and enforces the document invariants
func sanitizeFunnel(f *model.Funnel) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFunnel)
	}

	seenQuestions := make(map[string]bool, len(f.Questions))
	for i := range f.Questions {
		q := &f.Questions[i]
		if q.ID == "" {
			q.ID = fmt.Sprintf("question-%d", i)
		}
		if seenQuestions[q.ID] {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidFunnel, q.ID)
		}
		seenQuestions[q.ID] = true

		q.Title = strings.TrimSpace(q.Title)
		if q.Title == "" {
			return fmt.Errorf("%w: question %d has no title", ErrInvalidFunnel, i+1)
		}
		if !q.Type.Valid() {
			q.Type = model.QuestionTypeSingleChoice
		}
		if len(q.Answers) == 0 {
			return fmt.Errorf("%w: question %q has no answers", ErrInvalidFunnel, q.Title)
		}
		for key, a := range q.Answers {
			if !model.ValidAnswerID(key) {
				return fmt.Errorf("%w: invalid answer id %q", ErrInvalidFunnel, key)
			}
			a.ID = key
			a.Text = strings.TrimSpace(a.Text)
			if a.Text == "" {
				return fmt.Errorf("%w: answer %q of question %q has no text", ErrInvalidFunnel, key, q.Title)
			}
			if a.ClickCount < 0 {
				a.ClickCount = 0
			}
			a.NextStepID = strings.TrimSpace(a.NextStepID)
			q.Answers[key] = a
		}
	}

	seenOutcomes := make(map[string]bool, len(f.Outcomes))
	for _, o := range f.Outcomes {
		if o.ID == "" {
			return fmt.Errorf("%w: outcome without id", ErrInvalidFunnel)
		}
		if seenOutcomes[o.ID] {
			return fmt.Errorf("%w: duplicate outcome id %q", ErrInvalidFunnel, o.ID)
		}
		seenOutcomes[o.ID] = true
	}

	for _, m := range f.ScoreMappings {
		if m.MinScore > m.MaxScore {
			return fmt.Errorf("%w: score mapping for %q has min %g above max %g", ErrInvalidFunnel, m.OutcomeID, m.MinScore, m.MaxScore)
		}
	}

	if hook := f.Settings.LeadCapture.WebhookURL; hook != "" {
		u, err := url.Parse(hook)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: webhook url must be an absolute http(s) url", ErrInvalidFunnel)
		}
	}
	return nil
}
