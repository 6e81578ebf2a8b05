package model

import "time"

// Lead is a name/email pair captured before the final outcome
type Lead struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	FunnelID  string    `json:"funnelId" bson:"funnelId"`
	SessionID string    `json:"sessionId" bson:"sessionId"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// ClickEvent is reported each time a player picks an answer
type ClickEvent struct {
	FunnelID   string `json:"funnelId"`
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
}

// AnswerClicks is the click count of one answer, for the stats view
type AnswerClicks struct {
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
	Text       string `json:"text"`
	Clicks     int    `json:"clicks"`
}

// OutcomeCount is how many sessions ended on an outcome
type OutcomeCount struct {
	OutcomeID string `json:"outcomeId"`
	Count     int    `json:"count"`
}

// FunnelStats aggregates click and outcome counters for one funnel
type FunnelStats struct {
	FunnelID    string         `json:"funnelId"`
	Clicks      []AnswerClicks `json:"clicks"`
	TotalClicks int            `json:"totalClicks"`
	Outcomes    []OutcomeCount `json:"outcomes"`
}
