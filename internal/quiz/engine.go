// Package quiz walks a funnel's questions for one player: it accumulates the
// answer scores, follows branches and picks the final outcome.
package quiz

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/model"
)

const questionIDPrefix = "question-"

// AnomalySink receives non-fatal playback deviations
type AnomalySink interface {
	Anomaly(funnelID string, a model.Anomaly)
}

// ZapSink logs anomalies as warnings
type ZapSink struct {
	Logger *zap.Logger
}

func (s ZapSink) Anomaly(funnelID string, a model.Anomaly) {
	s.Logger.Warn("playback anomaly",
		zap.String("funnelId", funnelID),
		zap.String("kind", a.Kind),
		zap.String("questionId", a.QuestionID),
		zap.String("answerId", a.AnswerID),
		zap.String("target", a.Target),
	)
}

// Engine applies player actions to a PlayState. It holds no per-session data
// and is safe for concurrent use.
type Engine struct {
	sink AnomalySink
}

// NewEngine creates an engine; sink may be nil
func NewEngine(sink AnomalySink) *Engine {
	return &Engine{sink: sink}
}

// Start returns the initial state for a funnel
func (e *Engine) Start(f *model.Funnel) model.PlayState {
	st := model.PlayState{Phase: model.PhaseAnswering}
	if len(f.Questions) == 0 {
		return e.finish(f, st)
	}
	return st
}

// Answer records the chosen answer for the current question and moves on
func (e *Engine) Answer(f *model.Funnel, st model.PlayState, answerID string) (model.PlayState, error) {
	if st.Phase != model.PhaseAnswering {
		return st, fmt.Errorf("%w: cannot answer in phase %s", ErrInvalidTransition, st.Phase)
	}
	if st.QuestionIndex < 0 || st.QuestionIndex >= len(f.Questions) {
		return st, fmt.Errorf("%w: question index %d out of range", ErrInvalidTransition, st.QuestionIndex)
	}

	q := f.Questions[st.QuestionIndex]
	st.Anomalies = append([]model.Anomaly(nil), st.Anomalies...)

	answer, ok := q.Answers[answerID]
	if !ok {
		e.record(f, &st, model.Anomaly{Kind: model.AnomalyAnswerNotFound, QuestionID: q.ID, AnswerID: answerID})
	}
	st.Score += answer.Score()

	if answer.NextStepID != "" {
		if target := findQuestion(f.Questions, answer.NextStepID); target >= 0 {
			st.QuestionIndex = target
			return st, nil
		}
		e.record(f, &st, model.Anomaly{
			Kind:       model.AnomalyBranchTargetNotFound,
			QuestionID: q.ID,
			AnswerID:   answerID,
			Target:     answer.NextStepID,
		})
	}

	if st.QuestionIndex+1 < len(f.Questions) {
		st.QuestionIndex++
		return st, nil
	}
	return e.finish(f, st), nil
}

// SubmitLead completes the lead capture step
func (e *Engine) SubmitLead(f *model.Funnel, st model.PlayState) (model.PlayState, error) {
	if st.Phase != model.PhaseLeadCapture {
		return st, fmt.Errorf("%w: no lead capture pending (phase %s)", ErrInvalidTransition, st.Phase)
	}
	return e.resolve(f, st), nil
}

func (e *Engine) finish(f *model.Funnel, st model.PlayState) model.PlayState {
	if f.Settings.LeadCapture.Enabled && !st.LeadCaptureShown {
		st.Phase = model.PhaseLeadCapture
		st.LeadCaptureShown = true
		return st
	}
	return e.resolve(f, st)
}

func (e *Engine) resolve(f *model.Funnel, st model.PlayState) model.PlayState {
	outcome, err := ResolveOutcome(st.Score, f.ScoreMappings, f.Outcomes)
	if err != nil {
		st.Phase = model.PhaseConfigurationError
		st.Error = err.Error()
		return st
	}
	st.Phase = model.PhaseOutcome
	st.OutcomeID = outcome.ID
	return st
}

func (e *Engine) record(f *model.Funnel, st *model.PlayState, a model.Anomaly) {
	st.Anomalies = append(st.Anomalies, a)
	if e.sink != nil {
		e.sink.Anomaly(f.ID, a)
	}
}

// findQuestion matches a branch target by id, tolerating a missing or extra
// "question-" prefix on either side.
func findQuestion(questions []model.Question, target string) int {
	bare := strings.TrimPrefix(target, questionIDPrefix)
	for i, q := range questions {
		if q.ID == target || q.ID == questionIDPrefix+target || strings.TrimPrefix(q.ID, questionIDPrefix) == bare {
			return i
		}
	}
	return -1
}
