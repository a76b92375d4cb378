package risk

import (
	"fmt"
)

// Label is a discrete risk tier derived from a probability.
type Label string

const (
	LabelLow      Label = "Low"
	LabelModerate Label = "Moderate"
	LabelHigh     Label = "High"
)

// Severity returns a numeric level for sorting and display
// (higher = more severe).
func (l Label) Severity() int {
	switch l {
	case LabelHigh:
		return 3
	case LabelModerate:
		return 2
	case LabelLow:
		return 1
	default:
		return 0
	}
}

// Color returns the presentation color code for a tier.
func (l Label) Color() string {
	switch l {
	case LabelHigh:
		return "#dc3545"
	case LabelModerate:
		return "#ffc107"
	case LabelLow:
		return "#28a745"
	default:
		return "#6c757d"
	}
}

// Category is the full categorization result, including the threshold
// that was actually applied for auditability.
type Category struct {
	Label         Label   `json:"label"`
	Color         string  `json:"color"`
	Level         int     `json:"level"`
	ThresholdUsed float64 `json:"threshold_used"`
	Horizon       int     `json:"horizon"`
}

// Categorizer maps probabilities to risk tiers using per-horizon
// threshold pairs. Immutable after construction.
type Categorizer struct {
	thresholds Thresholds
}

func NewCategorizer(t Thresholds) *Categorizer {
	return &Categorizer{thresholds: t}
}

// Categorize maps a probability to a tier for the given horizon.
// Probabilities outside [0,1] are a caller bug and return an error
// rather than being clamped. Boundary values resolve to the higher tier.
func (c *Categorizer) Categorize(probability float64, horizon int) (Category, error) {
	if probability < 0 || probability > 1 {
		return Category{}, fmt.Errorf("probability %v outside [0,1]", probability)
	}

	pair := c.thresholds.forHorizon(horizon)

	var label Label
	var used float64
	switch {
	case probability >= pair.Red:
		label, used = LabelHigh, pair.Red
	case probability >= pair.Yellow:
		label, used = LabelModerate, pair.Yellow
	default:
		label, used = LabelLow, pair.Yellow
	}

	return Category{
		Label:         label,
		Color:         label.Color(),
		Level:         label.Severity(),
		ThresholdUsed: used,
		Horizon:       horizon,
	}, nil
}
