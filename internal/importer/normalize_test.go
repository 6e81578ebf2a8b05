package importer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junes231/funnel-editor/internal/model"
)

func mustParse(t *testing.T, src string) []model.Question {
	t.Helper()
	qs, err := Parse([]byte(src))
	require.NoError(t, err)
	return qs
}

func requireFormatError(t *testing.T, err error) *FormatError {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat), "expected ErrFormat, got %v", err)
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	return fe
}

func TestParse_TrimsAndDropsEmptyAnswers(t *testing.T) {
	qs := mustParse(t, `[{"title":"Q1","answers":[{"text":" A "},{"text":""}]}]`)

	want := []model.Question{{
		ID:    "question-0",
		Title: "Q1",
		Type:  model.QuestionTypeSingleChoice,
		Answers: map[string]model.Answer{
			"answer-0-0": {ID: "answer-0-0", Text: "A"},
		},
	}}
	if diff := cmp.Diff(want, qs); diff != "" {
		t.Errorf("normalized questions mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_AllAnswersBlankIsRejected(t *testing.T) {
	_, err := Parse([]byte(`[{"title":"Q1","answers":[{"text":""},{"text":"  "}]}]`))
	fe := requireFormatError(t, err)
	assert.Equal(t, 0, fe.Index)
}

func TestParse_RejectsNonArray(t *testing.T) {
	for _, src := range []string{`{}`, `"questions"`, `42`, `null`} {
		_, err := Parse([]byte(src))
		fe := requireFormatError(t, err)
		assert.Equal(t, -1, fe.Index, src)
	}
}

func TestParse_RejectsInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`[{"title":`))
	requireFormatError(t, err)
}

func TestNormalize_StrictPassRejectsWholeImport(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		index int
	}{
		{"element not object", `[{"title":"ok","answers":[{"text":"a"}]}, "nope"]`, 1},
		{"missing title", `[{"answers":[{"text":"a"}]}]`, 0},
		{"blank title", `[{"title":"   ","answers":[{"text":"a"}]}]`, 0},
		{"title not string", `[{"title":7,"answers":[{"text":"a"}]}]`, 0},
		{"answers missing", `[{"title":"Q"}]`, 0},
		{"answers empty array", `[{"title":"Q","answers":[]}]`, 0},
		{"answers empty object", `[{"title":"Q","answers":{}}]`, 0},
		{"answers scalar", `[{"title":"Q","answers":"a"}]`, 0},
		{"no text anywhere", `[{"title":"Q","answers":[{"id":"x"},{"text":""}]}]`, 0},
		{"second question bad", `[{"title":"Q1","answers":[{"text":"a"}]},{"title":"Q2","answers":[{"text":5}]}]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, err := Parse([]byte(tt.src))
			fe := requireFormatError(t, err)
			assert.Nil(t, qs)
			assert.Equal(t, tt.index, fe.Index)
		})
	}
}

func TestNormalize_KeepsExistingIDsAndFields(t *testing.T) {
	qs := mustParse(t, `[{
		"id": "caller-id",
		"title": "  Pick one ",
		"type": "text-input",
		"answers": [
			{"id": "yes", "text": "Yes", "resultScore": 10, "nextStepId": "question-2", "clickCount": 4},
			{"text": "No", "resultScore": -2.5, "clickCount": -1},
			"garbage",
			{"text": "Maybe"}
		]
	}]`)

	require.Len(t, qs, 1)
	q := qs[0]
	assert.Equal(t, "question-0", q.ID)
	assert.Equal(t, "Pick one", q.Title)
	assert.Equal(t, model.QuestionTypeTextInput, q.Type)
	require.Len(t, q.Answers, 3)

	yes := q.Answers["yes"]
	require.NotNil(t, yes.ResultScore)
	assert.Equal(t, 10.0, *yes.ResultScore)
	assert.Equal(t, "question-2", yes.NextStepID)
	assert.Equal(t, 4, yes.ClickCount)

	no := q.Answers["answer-0-1"]
	assert.Equal(t, "No", no.Text)
	assert.Equal(t, -2.5, no.Score())
	assert.Equal(t, 0, no.ClickCount)

	assert.Equal(t, "Maybe", q.Answers["answer-0-2"].Text)
}

func TestNormalize_MapAnswersUseKeyAsFallbackID(t *testing.T) {
	qs := mustParse(t, `[{"title":"Q","answers":{
		"b": {"text":" second "},
		"a": {"id":"own","text":"first"},
		"c": {"text":"   "}
	}}]`)

	require.Len(t, qs, 1)
	answers := qs[0].Answers
	require.Len(t, answers, 2)
	assert.Equal(t, "first", answers["own"].Text)
	assert.Equal(t, "second", answers["b"].Text)
}

func TestNormalize_ReplacesUnstorableAnswerIDs(t *testing.T) {
	qs := mustParse(t, `[{"title":"Q","answers":[
		{"id":"opt.1","text":"One"},
		{"id":"$x","text":"Two"}
	]}]`)

	answers := qs[0].Answers
	require.Len(t, answers, 2)
	assert.Equal(t, "One", answers["answer-0-0"].Text)
	assert.Equal(t, "Two", answers["answer-0-1"].Text)
	for key := range answers {
		assert.True(t, model.ValidAnswerID(key), key)
	}

	qs = mustParse(t, `[{"title":"Q","answers":{
		"a.b": {"text":"dotted key"},
		"ok": {"id":"$bad","text":"falls back to key"}
	}}]`)
	answers = qs[0].Answers
	require.Len(t, answers, 2)
	assert.Equal(t, "falls back to key", answers["ok"].Text)
	for key, a := range answers {
		assert.True(t, model.ValidAnswerID(key), key)
		assert.Equal(t, key, a.ID)
	}
}

func TestNormalize_DeduplicatesAnswerIDs(t *testing.T) {
	qs := mustParse(t, `[{"title":"Q","answers":[
		{"id":"answer-0-1","text":"one"},
		{"text":"two"},
		{"id":"answer-0-1","text":"three"}
	]}]`)

	answers := qs[0].Answers
	require.Len(t, answers, 3)
	seen := map[string]bool{}
	for key, a := range answers {
		assert.Equal(t, key, a.ID)
		assert.False(t, seen[a.ID])
		seen[a.ID] = true
	}
	texts := []string{}
	for _, a := range answers {
		texts = append(texts, a.Text)
	}
	assert.ElementsMatch(t, []string{"one", "two", "three"}, texts)
}

func TestNormalize_UnknownTypeDefaultsToSingleChoice(t *testing.T) {
	qs := mustParse(t, `[{"title":"Q","type":"slider","answers":[{"text":"a"}]}]`)
	assert.Equal(t, model.QuestionTypeSingleChoice, qs[0].Type)
}

func TestNormalize_PreservesOrderAndAssignsQuestionIDs(t *testing.T) {
	qs := mustParse(t, `[
		{"id":"z","title":"first","answers":[{"text":"a"}]},
		{"id":"y","title":"second","answers":[{"text":"a"}]},
		{"id":"x","title":"third","answers":[{"text":"a"}]}
	]`)

	require.Len(t, qs, 3)
	for i, title := range []string{"first", "second", "third"} {
		assert.Equal(t, title, qs[i].Title)
		assert.True(t, strings.HasPrefix(qs[i].ID, "question-"))
	}
	assert.Equal(t, "question-2", qs[2].ID)
}

func TestNormalize_IsStableOnNormalizedOutput(t *testing.T) {
	first := mustParse(t, `[
		{"title":"Q1","answers":[{"text":"  a "},{"text":"b"}]},
		{"title":"Q2","answers":{"k1":{"text":" c"},"k2":{"text":"d "}}}
	]`)

	data, err := json.Marshal(first)
	require.NoError(t, err)
	second := mustParse(t, string(data))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("re-normalizing changed output (-first +second):\n%s", diff)
	}
	for _, q := range second {
		for _, a := range q.Answers {
			assert.Equal(t, strings.TrimSpace(a.Text), a.Text)
		}
	}
}

func TestNormalize_AcceptsYAMLStyleMaps(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{
			"title": "From YAML",
			"answers": []interface{}{
				map[interface{}]interface{}{"text": "one", "resultScore": 3},
			},
		},
	}

	qs, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	a := qs[0].Answers["answer-0-0"]
	assert.Equal(t, "one", a.Text)
	assert.Equal(t, 3.0, a.Score())
}
