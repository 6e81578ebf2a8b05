// Package importer validates externally supplied question lists (uploaded JSON
// files, built-in templates) and converts them into the canonical funnel form.
package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/junes231/funnel-editor/internal/model"
)

// Parse decodes raw JSON text and normalizes it.
func Parse(data []byte) ([]model.Question, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, formatErr(-1, "not valid JSON: %v", err)
	}
	return Normalize(raw)
}

// Normalize converts a parsed JSON value into normalized questions. The import
// is all-or-nothing: any structural problem rejects every question.
func Normalize(raw interface{}) ([]model.Question, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, formatErr(-1, "expected an array of questions, got %s", describe(raw))
	}

	inputs := make([]answersInput, len(items))
	for i, item := range items {
		in, err := validate(i, item)
		if err != nil {
			return nil, err
		}
		inputs[i] = in
	}

	questions := make([]model.Question, 0, len(items))
	for i, item := range items {
		obj, _ := asObject(item)
		q := model.Question{
			ID:      fmt.Sprintf("question-%d", i),
			Title:   strings.TrimSpace(obj["title"].(string)),
			Type:    questionType(obj["type"]),
			Answers: normalizeAnswers(i, inputs[i]),
		}
		if len(q.Answers) == 0 {
			return nil, formatErr(i, "%q has no answers with non-empty text", q.Title)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// validate is the strict pass. It only requires a single answer with a
// non-empty text string; whitespace-only text is caught by the final guard.
func validate(i int, item interface{}) (answersInput, error) {
	obj, ok := asObject(item)
	if !ok {
		return nil, formatErr(i, "expected an object, got %s", describe(item))
	}

	title, ok := obj["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return nil, formatErr(i, "title must be a non-empty string")
	}

	in, ok := toAnswersInput(obj["answers"])
	if !ok {
		return nil, formatErr(i, "answers must be an array or an object")
	}
	entries := in.entries()
	if len(entries) == 0 {
		return nil, formatErr(i, "answers must not be empty")
	}
	for _, e := range entries {
		a, ok := asObject(e.value)
		if !ok {
			continue
		}
		if text, ok := a["text"].(string); ok && text != "" {
			return in, nil
		}
	}
	return nil, formatErr(i, "at least one answer needs a text")
}

func normalizeAnswers(questionIndex int, in answersInput) map[string]model.Answer {
	out := make(map[string]model.Answer)
	valid := 0
	for _, e := range in.entries() {
		a, ok := asObject(e.value)
		if !ok {
			continue
		}
		text, _ := a["text"].(string)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		generated := fmt.Sprintf("answer-%d-%d", questionIndex, valid)
		valid++

		id := generated
		if own, _ := a["id"].(string); model.ValidAnswerID(strings.TrimSpace(own)) {
			id = strings.TrimSpace(own)
		} else if model.ValidAnswerID(e.key) {
			id = e.key
		}
		if _, dup := out[id]; dup {
			id = generated
			for n := 1; hasKey(out, id); n++ {
				id = fmt.Sprintf("%s-%d", generated, n)
			}
		}

		ans := model.Answer{ID: id, Text: text}
		if score, ok := number(a["resultScore"]); ok {
			ans.ResultScore = &score
		}
		if next, ok := a["nextStepId"].(string); ok {
			ans.NextStepID = strings.TrimSpace(next)
		}
		if clicks, ok := number(a["clickCount"]); ok && clicks >= 0 {
			ans.ClickCount = int(clicks)
		}
		out[id] = ans
	}
	return out
}

func hasKey(m map[string]model.Answer, k string) bool {
	_, ok := m[k]
	return ok
}

func questionType(v interface{}) model.QuestionType {
	if s, ok := v.(string); ok {
		if t := model.QuestionType(strings.TrimSpace(s)); t.Valid() {
			return t
		}
	}
	return model.QuestionTypeSingleChoice
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func describe(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "array"
	case map[string]interface{}, map[interface{}]interface{}:
		return "object"
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if _, ok := number(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
