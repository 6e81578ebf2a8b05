package service

import "github.com/junes231/funnel-editor/internal/model"

// publicQuestion strips scoring and branching data before a question is sent
// to a player.
func publicQuestion(q model.Question) *model.Question {
	out := model.Question{
		ID:      q.ID,
		Title:   q.Title,
		Type:    q.Type,
		Answers: make(map[string]model.Answer, len(q.Answers)),
	}
	for id, a := range q.Answers {
		out.Answers[id] = model.Answer{ID: a.ID, Text: a.Text}
	}
	return &out
}
