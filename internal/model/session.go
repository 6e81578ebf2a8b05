package model

import "time"

// PlayPhase is the playback state machine position
type PlayPhase string

const (
	PhaseAnswering          PlayPhase = "answering"
	PhaseLeadCapture        PlayPhase = "lead_capture"
	PhaseOutcome            PlayPhase = "outcome"
	PhaseConfigurationError PlayPhase = "configuration_error"
)

// Terminal reports whether no further transitions are possible
func (p PlayPhase) Terminal() bool {
	return p == PhaseOutcome || p == PhaseConfigurationError
}

// Anomaly is a non-fatal deviation recorded during playback
type Anomaly struct {
	Kind       string `json:"kind"`
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId,omitempty"`
	Target     string `json:"target,omitempty"`
}

const (
	AnomalyBranchTargetNotFound = "branch_target_not_found"
	AnomalyAnswerNotFound       = "answer_not_found"
)

// PlayState is the scorer's position within a funnel
type PlayState struct {
	Phase            PlayPhase `json:"phase"`
	QuestionIndex    int       `json:"questionIndex"`
	Score            float64   `json:"score"`
	LeadCaptureShown bool      `json:"leadCaptureShown"`
	OutcomeID        string    `json:"outcomeId,omitempty"`
	Error            string    `json:"error,omitempty"`
	Anomalies        []Anomaly `json:"anomalies,omitempty"`
}

// PlaySession is one visitor's walk through a funnel
type PlaySession struct {
	ID        string    `json:"id"`
	FunnelID  string    `json:"funnelId"`
	State     PlayState `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlayView is what a player client needs to render the current step
type PlayView struct {
	SessionID string    `json:"sessionId"`
	State     PlayState `json:"state"`
	Question  *Question `json:"question,omitempty"`
	Outcome   *Outcome  `json:"outcome,omitempty"`
	Message   string    `json:"message,omitempty"`
}
