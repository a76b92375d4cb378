package predictor

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Bundle is a serialized (classifier, scaler) pair for one forecast
// horizon. The feature list and lag suffix pin the exact vector contract
// the model was trained on, so format never has to be inferred at
// runtime.
type Bundle struct {
	Horizon      int       `json:"horizon"`
	Features     []string  `json:"features"`
	LagSuffix    string    `json:"lag_suffix"`
	Scaler       Scaler    `json:"scaler"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	TrainedAt    string    `json:"trained_at,omitempty"`
	Version      string    `json:"version,omitempty"`
}

// Scaler holds fitted standardization parameters (per-feature mean and
// scale, in feature order).
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform standardizes a vector in place order. Returns an error when
// the fitted parameters do not match the vector, so callers can fall
// back to the unscaled input.
func (sc Scaler) Transform(x []float64) ([]float64, error) {
	if len(sc.Mean) != len(x) || len(sc.Scale) != len(x) {
		return nil, fmt.Errorf("scaler fitted on %d features, got %d", len(sc.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		if sc.Scale[i] == 0 {
			return nil, fmt.Errorf("scaler has zero scale for feature %d", i)
		}
		out[i] = (v - sc.Mean[i]) / sc.Scale[i]
	}
	return out, nil
}

func (b *Bundle) validate() error {
	if b.Horizon < 1 || b.Horizon > 3 {
		return fmt.Errorf("horizon %d out of range", b.Horizon)
	}
	if len(b.Features) == 0 {
		return fmt.Errorf("bundle has no features")
	}
	if len(b.Coefficients) != len(b.Features) {
		return fmt.Errorf("%d coefficients for %d features", len(b.Coefficients), len(b.Features))
	}
	if b.LagSuffix == "" {
		return fmt.Errorf("bundle has no lag suffix")
	}
	return nil
}

// columns returns the feature-row column names this bundle reads, in
// vector order (feature name + the bundle's lag suffix).
func (b *Bundle) columns() []string {
	cols := make([]string, len(b.Features))
	for i, f := range b.Features {
		cols[i] = f + "_" + b.LagSuffix
	}
	return cols
}

// LoadBundle reads and validates a single bundle file.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("invalid bundle %s: %w", filepath.Base(path), err)
	}
	return &b, nil
}

// LoadBundles loads model_h1.json through model_h3.json from dir. A
// missing or corrupt bundle degrades that horizon only; the rest still
// load.
func LoadBundles(dir string) map[int]*Bundle {
	bundles := make(map[int]*Bundle)
	for h := 1; h <= 3; h++ {
		path := filepath.Join(dir, fmt.Sprintf("model_h%d.json", h))
		b, err := LoadBundle(path)
		if err != nil {
			log.Printf("predictor: skipping horizon %d: %v", h, err)
			continue
		}
		if b.Horizon != h {
			log.Printf("predictor: %s declares horizon %d, expected %d, skipping", filepath.Base(path), b.Horizon, h)
			continue
		}
		bundles[h] = b
	}
	return bundles
}
