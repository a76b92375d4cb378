package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ThresholdPair is the (red, yellow) cutoff pair for one horizon.
// probability >= red is High, >= yellow is Moderate, below is Low.
type ThresholdPair struct {
	Red    float64 `yaml:"red"`
	Yellow float64 `yaml:"yellow"`
}

// Thresholds holds the cutoff pairs keyed by horizon. Defaults loosen
// slightly as the horizon grows, reflecting higher acceptable
// uncertainty further out.
type Thresholds map[int]ThresholdPair

func DefaultThresholds() Thresholds {
	return Thresholds{
		1: {Red: 0.60, Yellow: 0.35},
		2: {Red: 0.57, Yellow: 0.33},
		3: {Red: 0.55, Yellow: 0.30},
	}
}

// forHorizon returns the pair for a horizon, falling back to horizon 1
// when the horizon is unconfigured.
func (t Thresholds) forHorizon(horizon int) ThresholdPair {
	if pair, ok := t[horizon]; ok {
		return pair
	}
	return t[1]
}

func (t Thresholds) validate() error {
	if _, ok := t[1]; !ok {
		return fmt.Errorf("horizon 1 thresholds are required")
	}
	for h, pair := range t {
		if h < 1 || h > 3 {
			return fmt.Errorf("horizon %d out of range", h)
		}
		if pair.Red < 0 || pair.Red > 1 || pair.Yellow < 0 || pair.Yellow > 1 {
			return fmt.Errorf("horizon %d thresholds outside [0,1]", h)
		}
		if pair.Yellow > pair.Red {
			return fmt.Errorf("horizon %d yellow threshold %v above red %v", h, pair.Yellow, pair.Red)
		}
	}
	return nil
}

// LoadThresholds reads a YAML override file of the form:
//
//	1: {red: 0.60, yellow: 0.35}
//	2: {red: 0.57, yellow: 0.33}
func LoadThresholds(path string) (Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thresholds: %w", err)
	}
	var t Thresholds
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse thresholds: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	return t, nil
}
