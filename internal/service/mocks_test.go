package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/model"
	"github.com/junes231/funnel-editor/internal/repository"
)

// mockFunnelRepo implements repository.FunnelRepo for testing.
type mockFunnelRepo struct {
	mu        sync.Mutex
	funnels   map[string]*model.Funnel
	nextID    int
	createErr error
	updateErr error
}

func newMockFunnelRepo() *mockFunnelRepo {
	return &mockFunnelRepo{
		funnels: make(map[string]*model.Funnel),
		nextID:  1,
	}
}

func (m *mockFunnelRepo) Create(ctx context.Context, funnel *model.Funnel) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	funnel.ID = fmt.Sprintf("funnel-%d", m.nextID)
	m.nextID++
	m.funnels[funnel.ID] = funnel
	return funnel.ID, nil
}

func (m *mockFunnelRepo) GetByID(ctx context.Context, id string) (*model.Funnel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.funnels[id], nil
}

func (m *mockFunnelRepo) GetByOwnerID(ctx context.Context, ownerID string) ([]*model.Funnel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Funnel
	for _, f := range m.funnels {
		if f.OwnerID == ownerID {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockFunnelRepo) Update(ctx context.Context, funnel *model.Funnel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.funnels[funnel.ID]; !ok {
		return repository.ErrNotFound
	}
	m.funnels[funnel.ID] = funnel
	return nil
}

func (m *mockFunnelRepo) ReplaceQuestions(ctx context.Context, id string, questions []model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.funnels[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.Questions = questions
	return nil
}

func (m *mockFunnelRepo) IncrementClick(ctx context.Context, funnelID, questionID, answerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.funnels[funnelID]
	if !ok || !model.ValidAnswerID(answerID) {
		return repository.ErrNotFound
	}
	for _, q := range f.Questions {
		if q.ID != questionID {
			continue
		}
		a, ok := q.Answers[answerID]
		if !ok {
			return repository.ErrNotFound
		}
		a.ClickCount++
		q.Answers[answerID] = a
		return nil
	}
	return repository.ErrNotFound
}

func (m *mockFunnelRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.funnels[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.funnels, id)
	return nil
}

// mockLeadRepo implements repository.LeadRepo for testing.
type mockLeadRepo struct {
	leads     []*model.Lead
	createErr error
}

func newMockLeadRepo() *mockLeadRepo {
	return &mockLeadRepo{}
}

func (m *mockLeadRepo) Create(ctx context.Context, lead *model.Lead) error {
	if m.createErr != nil {
		return m.createErr
	}
	lead.ID = fmt.Sprintf("lead-%d", len(m.leads)+1)
	m.leads = append(m.leads, lead)
	return nil
}

func (m *mockLeadRepo) ListByFunnel(ctx context.Context, funnelID string, limit int64) ([]*model.Lead, error) {
	var result []*model.Lead
	for i := len(m.leads) - 1; i >= 0; i-- {
		if m.leads[i].FunnelID == funnelID {
			result = append(result, m.leads[i])
		}
		if limit > 0 && int64(len(result)) == limit {
			break
		}
	}
	return result, nil
}

// mockFunnelCache implements cache.FunnelCache for testing.
type mockFunnelCache struct {
	funnels map[string]*model.Funnel
	getErr  error
	deletes []string
}

func newMockFunnelCache() *mockFunnelCache {
	return &mockFunnelCache{funnels: make(map[string]*model.Funnel)}
}

func (m *mockFunnelCache) Set(ctx context.Context, funnel *model.Funnel) error {
	m.funnels[funnel.ID] = funnel
	return nil
}

func (m *mockFunnelCache) Get(ctx context.Context, id string) (*model.Funnel, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.funnels[id], nil
}

func (m *mockFunnelCache) Delete(ctx context.Context, id string) error {
	m.deletes = append(m.deletes, id)
	delete(m.funnels, id)
	return nil
}

// mockSessionCache implements cache.SessionCache for testing.
type mockSessionCache struct {
	sessions map[string]model.PlaySession
	setErr   error
}

func newMockSessionCache() *mockSessionCache {
	return &mockSessionCache{sessions: make(map[string]model.PlaySession)}
}

func (m *mockSessionCache) Set(ctx context.Context, session *model.PlaySession) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sessions[session.ID] = *session
	return nil
}

func (m *mockSessionCache) Get(ctx context.Context, id string) (*model.PlaySession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *mockSessionCache) Delete(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

// mockOutcomeStats implements cache.OutcomeStatsCache for testing.
type mockOutcomeStats struct {
	counts map[string]map[string]int
	resets []string
}

func newMockOutcomeStats() *mockOutcomeStats {
	return &mockOutcomeStats{counts: make(map[string]map[string]int)}
}

func (m *mockOutcomeStats) Increment(ctx context.Context, funnelID, outcomeID string) error {
	if m.counts[funnelID] == nil {
		m.counts[funnelID] = make(map[string]int)
	}
	m.counts[funnelID][outcomeID]++
	return nil
}

func (m *mockOutcomeStats) GetAll(ctx context.Context, funnelID string) ([]model.OutcomeCount, error) {
	var result []model.OutcomeCount
	for id, n := range m.counts[funnelID] {
		result = append(result, model.OutcomeCount{OutcomeID: id, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].OutcomeID < result[j].OutcomeID
	})
	return result, nil
}

func (m *mockOutcomeStats) Reset(ctx context.Context, funnelID string) error {
	m.resets = append(m.resets, funnelID)
	delete(m.counts, funnelID)
	return nil
}

type broadcastEvent struct {
	FunnelID string
	Type     string
	Payload  interface{}
}

// recordingBroadcaster collects events instead of pushing them to sockets.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *recordingBroadcaster) BroadcastToEditors(funnelID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{FunnelID: funnelID, Type: msgType, Payload: payload})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.Type
	}
	return out
}

// syncTracker records clicks inline so tests need not wait on goroutines.
type syncTracker struct {
	clicks []model.ClickEvent
}

func (t *syncTracker) Track(ev model.ClickEvent) {
	t.clicks = append(t.clicks, ev)
}

type delivery struct {
	URL  string
	Lead *model.Lead
}

type syncDeliverer struct {
	deliveries []delivery
}

func (d *syncDeliverer) Deliver(hookURL string, lead *model.Lead) {
	d.deliveries = append(d.deliveries, delivery{URL: hookURL, Lead: lead})
}

var errBoom = errors.New("boom")

func score(v float64) *float64 { return &v }

func newTestLogger() *zap.Logger { return zap.NewNop() }
