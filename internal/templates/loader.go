// Package templates holds the built-in funnel templates shipped with the binary.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/junes231/funnel-editor/internal/importer"
	"github.com/junes231/funnel-editor/internal/model"
)

//go:embed data/*.yaml
var builtin embed.FS

// Template is a ready-made funnel body
type Template struct {
	Name          string               `json:"name"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	LeadCapture   bool                 `json:"leadCapture"`
	Questions     []model.Question     `json:"questions"`
	Outcomes      []model.Outcome      `json:"outcomes"`
	ScoreMappings []model.ScoreMapping `json:"scoreMappings"`
}

// Summary is the listing form of a template
type Summary struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	QuestionCount int    `json:"questionCount"`
}

type templateFile struct {
	Name          string             `yaml:"name"`
	Title         string             `yaml:"title"`
	Description   string             `yaml:"description"`
	LeadCapture   bool               `yaml:"leadCapture"`
	Questions     interface{}        `yaml:"questions"`
	Outcomes      []outcomeFile      `yaml:"outcomes"`
	ScoreMappings []scoreMappingFile `yaml:"scoreMappings"`
}

type outcomeFile struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Title    string `yaml:"title"`
	Summary  string `yaml:"summary"`
	CTALink  string `yaml:"ctaLink"`
	ImageURL string `yaml:"imageUrl"`
}

type scoreMappingFile struct {
	MinScore  float64 `yaml:"minScore"`
	MaxScore  float64 `yaml:"maxScore"`
	OutcomeID string  `yaml:"outcomeId"`
}

// Loader manages templates
type Loader struct {
	templates map[string]*Template
}

// NewLoader creates a loader populated with the built-in templates
func NewLoader() (*Loader, error) {
	l := &Loader{templates: make(map[string]*Template)}
	if err := l.LoadFS(builtin, "data"); err != nil {
		return nil, err
	}
	return l, nil
}

// LoadFS loads every .yaml/.yml file in dir. Questions go through the same
// importer as uploaded files.
func (l *Loader) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read templates dir: %w", err)
	}

	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", entry.Name(), err)
		}
		tmpl, err := parse(data)
		if err != nil {
			return fmt.Errorf("template %s: %w", entry.Name(), err)
		}
		if tmpl.Name == "" {
			tmpl.Name = strings.TrimSuffix(entry.Name(), ext)
		}
		l.templates[tmpl.Name] = tmpl
	}
	return nil
}

func parse(data []byte) (*Template, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	questions, err := importer.Normalize(f.Questions)
	if err != nil {
		return nil, err
	}

	t := &Template{
		Name:        f.Name,
		Title:       f.Title,
		Description: f.Description,
		LeadCapture: f.LeadCapture,
		Questions:   questions,
	}
	for _, o := range f.Outcomes {
		t.Outcomes = append(t.Outcomes, model.Outcome{
			ID:       o.ID,
			Name:     o.Name,
			Title:    o.Title,
			Summary:  o.Summary,
			CTALink:  o.CTALink,
			ImageURL: o.ImageURL,
		})
	}
	for _, m := range f.ScoreMappings {
		t.ScoreMappings = append(t.ScoreMappings, model.ScoreMapping{
			MinScore:  m.MinScore,
			MaxScore:  m.MaxScore,
			OutcomeID: m.OutcomeID,
		})
	}
	return t, nil
}

// Get returns a template by name
func (l *Loader) Get(name string) *Template {
	return l.templates[name]
}

// List returns template summaries sorted by name
func (l *Loader) List() []Summary {
	out := make([]Summary, 0, len(l.templates))
	for _, t := range l.templates {
		out = append(out, Summary{
			Name:          t.Name,
			Title:         t.Title,
			Description:   t.Description,
			QuestionCount: len(t.Questions),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Apply copies the template body onto a funnel, replacing questions, outcomes
// and score mappings.
func (t *Template) Apply(f *model.Funnel) {
	f.Questions = make([]model.Question, len(t.Questions))
	for i, q := range t.Questions {
		f.Questions[i] = q.Clone()
	}
	f.Outcomes = append([]model.Outcome(nil), t.Outcomes...)
	f.ScoreMappings = append([]model.ScoreMapping(nil), t.ScoreMappings...)
	f.Settings.LeadCapture.Enabled = t.LeadCapture
	if f.Name == "" {
		f.Name = t.Title
	}
}
