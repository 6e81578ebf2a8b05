package templates

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junes231/funnel-editor/internal/importer"
	"github.com/junes231/funnel-editor/internal/model"
	"github.com/junes231/funnel-editor/internal/quiz"
)

func TestNewLoader_BuiltinTemplates(t *testing.T) {
	loader, err := NewLoader()
	require.NoError(t, err)

	list := loader.List()
	require.Len(t, list, 2)
	assert.Equal(t, "lead-magnet", list[0].Name)
	assert.Equal(t, "product-finder", list[1].Name)

	lm := loader.Get("lead-magnet")
	require.NotNil(t, lm)
	assert.True(t, lm.LeadCapture)
	require.Len(t, lm.Questions, 3)
	assert.Equal(t, "question-0", lm.Questions[0].ID)
	assert.Len(t, lm.Questions[0].Answers, 3)
	assert.Equal(t, 10.0, lm.Questions[0].Answers["answer-0-0"].Score())

	pf := loader.Get("product-finder")
	require.NotNil(t, pf)
	assert.Equal(t, "question-2", pf.Questions[0].Answers["gift"].NextStepID)

	assert.Nil(t, loader.Get("missing"))
}

func TestTemplates_ResolveOutcomesForEveryScore(t *testing.T) {
	loader, err := NewLoader()
	require.NoError(t, err)

	for _, s := range loader.List() {
		tmpl := loader.Get(s.Name)
		for score := 0.0; score <= 200; score += 5 {
			_, err := quiz.ResolveOutcome(score, tmpl.ScoreMappings, tmpl.Outcomes)
			assert.NoError(t, err, "template %s score %v", s.Name, score)
		}
	}
}

func TestLoadFS_RejectsBadQuestions(t *testing.T) {
	fsys := fstest.MapFS{
		"tpl/broken.yaml": {Data: []byte("name: broken\nquestions:\n  - title: Q\n    answers:\n      - text: \"  \"\n")},
	}

	l := &Loader{templates: map[string]*Template{}}
	err := l.LoadFS(fsys, "tpl")
	require.Error(t, err)
	assert.True(t, errors.Is(err, importer.ErrFormat))
}

func TestLoadFS_NameFallsBackToFileName(t *testing.T) {
	fsys := fstest.MapFS{
		"tpl/tiny.yml":  {Data: []byte("questions:\n  - title: Q\n    answers: {yes: {text: Yes}}\n")},
		"tpl/notes.txt": {Data: []byte("ignored")},
	}

	l := &Loader{templates: map[string]*Template{}}
	require.NoError(t, l.LoadFS(fsys, "tpl"))
	tmpl := l.Get("tiny")
	require.NotNil(t, tmpl)
	assert.Equal(t, "Yes", tmpl.Questions[0].Answers["yes"].Text)
}

func TestTemplate_ApplyCopiesBody(t *testing.T) {
	loader, err := NewLoader()
	require.NoError(t, err)
	tmpl := loader.Get("lead-magnet")

	f := &model.Funnel{}
	tmpl.Apply(f)
	assert.Equal(t, tmpl.Title, f.Name)
	assert.True(t, f.Settings.LeadCapture.Enabled)
	require.Len(t, f.Questions, 3)

	a := f.Questions[0].Answers["answer-0-0"]
	a.Text = "changed"
	f.Questions[0].Answers["answer-0-0"] = a
	assert.NotEqual(t, "changed", tmpl.Questions[0].Answers["answer-0-0"].Text)
}
