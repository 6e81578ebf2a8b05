package model

import "time"

// LeadCaptureSettings configures the optional name/email form
type LeadCaptureSettings struct {
	Enabled    bool   `json:"enabled" bson:"enabled"`
	WebhookURL string `json:"webhookUrl,omitempty" bson:"webhookUrl,omitempty"`
}

// FunnelSettings configures funnel behavior
type FunnelSettings struct {
	LeadCapture   LeadCaptureSettings `json:"leadCapture" bson:"leadCapture"`
	AffiliateLink string              `json:"affiliateLink,omitempty" bson:"affiliateLink,omitempty"`
	Published     bool                `json:"published" bson:"published"`
}

// Styling holds the player's visual settings
type Styling struct {
	PrimaryColor    string `json:"primaryColor,omitempty" bson:"primaryColor,omitempty"`
	ButtonColor     string `json:"buttonColor,omitempty" bson:"buttonColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty" bson:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty" bson:"textColor,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty" bson:"fontFamily,omitempty"`
}

// Funnel is the persisted quiz document created by an editor
type Funnel struct {
	ID            string         `json:"id" bson:"_id,omitempty"`
	OwnerID       string         `json:"ownerId" bson:"ownerId"`
	Name          string         `json:"name" bson:"name"`
	Questions     []Question     `json:"questions" bson:"questions"`
	Outcomes      []Outcome      `json:"outcomes" bson:"outcomes"`
	ScoreMappings []ScoreMapping `json:"scoreMappings" bson:"scoreMappings"`
	Settings      FunnelSettings `json:"settings" bson:"settings"`
	Styling       Styling        `json:"styling" bson:"styling"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// Outcome is a terminal result page
type Outcome struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	Title    string `json:"title" bson:"title"`
	Summary  string `json:"summary" bson:"summary"`
	CTALink  string `json:"ctaLink" bson:"ctaLink"`
	ImageURL string `json:"imageUrl" bson:"imageUrl"`
}

// ScoreMapping maps an inclusive score range to an outcome
type ScoreMapping struct {
	MinScore  float64 `json:"minScore" bson:"minScore"`
	MaxScore  float64 `json:"maxScore" bson:"maxScore"`
	OutcomeID string  `json:"outcomeId" bson:"outcomeId"`
}

// Contains reports whether score falls inside the mapping's range
func (m ScoreMapping) Contains(score float64) bool {
	return m.MinScore <= score && score <= m.MaxScore
}

// QuestionIndex returns the position of the question with the given id, or -1
func (f *Funnel) QuestionIndex(id string) int {
	for i := range f.Questions {
		if f.Questions[i].ID == id {
			return i
		}
	}
	return -1
}

// Outcome returns the outcome with the given id
func (f *Funnel) Outcome(id string) (*Outcome, bool) {
	for i := range f.Outcomes {
		if f.Outcomes[i].ID == id {
			return &f.Outcomes[i], true
		}
	}
	return nil, false
}

// PublicFunnel is the player-facing summary of a published funnel
type PublicFunnel struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	QuestionCount int     `json:"questionCount"`
	LeadCapture   bool    `json:"leadCapture"`
	AffiliateLink string  `json:"affiliateLink,omitempty"`
	Styling       Styling `json:"styling"`
}

// Public returns the player-facing summary
func (f *Funnel) Public() *PublicFunnel {
	return &PublicFunnel{
		ID:            f.ID,
		Name:          f.Name,
		QuestionCount: len(f.Questions),
		LeadCapture:   f.Settings.LeadCapture.Enabled,
		AffiliateLink: f.Settings.AffiliateLink,
		Styling:       f.Styling,
	}
}
