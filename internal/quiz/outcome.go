package quiz

import (
	"errors"
	"fmt"

	"github.com/junes231/funnel-editor/internal/model"
)

// DefaultOutcomeID names the fallback outcome used when no mapping matches
const DefaultOutcomeID = "default-result"

var (
	// ErrNoOutcome matches every ConfigurationError via errors.Is
	ErrNoOutcome = errors.New("no valid final redirect configured")

	ErrInvalidTransition = errors.New("invalid playback transition")
)

// ConfigurationError means the funnel cannot resolve a result for a score
type ConfigurationError struct {
	Score float64
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s for score %g", ErrNoOutcome, e.Score)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrNoOutcome
}

// ResolveOutcome picks the outcome for a final score. Mappings are checked in
// order and the first range containing the score wins, overlaps included.
// A mapping that points at a missing outcome is skipped.
func ResolveOutcome(score float64, mappings []model.ScoreMapping, outcomes []model.Outcome) (*model.Outcome, error) {
	for _, m := range mappings {
		if !m.Contains(score) {
			continue
		}
		if o := findOutcome(outcomes, m.OutcomeID); o != nil {
			return o, nil
		}
	}

	for i := range outcomes {
		if outcomes[i].ID == DefaultOutcomeID || outcomes[i].Name == DefaultOutcomeID {
			return &outcomes[i], nil
		}
	}
	return nil, &ConfigurationError{Score: score}
}

func findOutcome(outcomes []model.Outcome, id string) *model.Outcome {
	for i := range outcomes {
		if outcomes[i].ID == id {
			return &outcomes[i]
		}
	}
	return nil
}
