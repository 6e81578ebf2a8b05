package model

import (
	"sort"
	"strings"
)

// QuestionType defines how a question is answered
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "single-choice" // Pick one answer, may branch
	QuestionTypeTextInput    QuestionType = "text-input"    // Free text, answers act as suggestions
)

// Valid reports whether t is a known question type
func (t QuestionType) Valid() bool {
	return t == QuestionTypeSingleChoice || t == QuestionTypeTextInput
}

// Question is one step of a funnel
type Question struct {
	ID      string            `json:"id" bson:"id"`
	Title   string            `json:"title" bson:"title"`
	Type    QuestionType      `json:"type" bson:"type"`
	Answers map[string]Answer `json:"answers" bson:"answers"` // answerId -> answer
}

// Answer is a selectable choice within a question
type Answer struct {
	ID          string   `json:"id" bson:"id"`
	Text        string   `json:"text" bson:"text"`
	ClickCount  int      `json:"clickCount,omitempty" bson:"clickCount,omitempty"`
	ResultScore *float64 `json:"resultScore,omitempty" bson:"resultScore,omitempty"`
	NextStepID  string   `json:"nextStepId,omitempty" bson:"nextStepId,omitempty"`
}

// Score returns the answer's score contribution (0 when unset)
func (a Answer) Score() float64 {
	if a.ResultScore == nil {
		return 0
	}
	return *a.ResultScore
}

// Clone returns a copy that shares no maps or pointers with q
func (q Question) Clone() Question {
	out := q
	out.Answers = make(map[string]Answer, len(q.Answers))
	for id, a := range q.Answers {
		if a.ResultScore != nil {
			s := *a.ResultScore
			a.ResultScore = &s
		}
		out.Answers[id] = a
	}
	return out
}

// SortedAnswers returns the answers ordered by id
func (q Question) SortedAnswers() []Answer {
	out := make([]Answer, 0, len(q.Answers))
	for _, a := range q.Answers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ValidAnswerID reports whether id can be used as an answer key. Answers are
// stored as a Mongo sub-document, so the id becomes part of a field path.
func ValidAnswerID(id string) bool {
	return id != "" && !strings.Contains(id, ".") && !strings.HasPrefix(id, "$")
}
