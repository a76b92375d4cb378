package predictor

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/droughtguard/droughtguard/internal/metrics"
)

// fallbackProbability is returned under the "1_month" label when no
// horizon bundle loaded at all, so callers never see an empty result.
const fallbackProbability = 0.2

// Predictor routes a region's feature row through the loaded horizon
// models. Bundles are read-only after construction, so Predict is safe
// for concurrent use.
type Predictor struct {
	bundles map[int]*Bundle
}

func New(bundles map[int]*Bundle) *Predictor {
	return &Predictor{bundles: bundles}
}

// HorizonLabel formats a horizon as the wire label used in responses
// and cache keys ("1_month", "2_month", "3_month").
func HorizonLabel(horizon int) string {
	return fmt.Sprintf("%d_month", horizon)
}

// Horizons returns the loaded horizons in ascending order.
func (p *Predictor) Horizons() []int {
	hs := make([]int, 0, len(p.bundles))
	for h := range p.bundles {
		hs = append(hs, h)
	}
	sort.Ints(hs)
	return hs
}

// Loaded reports whether any horizon bundle is available.
func (p *Predictor) Loaded() bool {
	return len(p.bundles) > 0
}

// Predict maps a region's latest feature row to one probability per
// loaded horizon, rounded to 3 decimals. A horizon that fails to score
// contributes 0.0 rather than aborting the other horizons.
func (p *Predictor) Predict(features map[string]float64) map[string]float64 {
	results := make(map[string]float64, len(p.bundles))

	for _, h := range p.Horizons() {
		results[HorizonLabel(h)] = p.score(p.bundles[h], features)
	}

	if len(results) == 0 {
		log.Printf("predictor: no horizon bundles loaded, returning fallback")
		results[HorizonLabel(1)] = fallbackProbability
	}
	return results
}

// HorizonProbability scores a single horizon. ok is false when that
// horizon's bundle is not loaded.
func (p *Predictor) HorizonProbability(features map[string]float64, horizon int) (float64, bool) {
	b, ok := p.bundles[horizon]
	if !ok {
		return 0, false
	}
	return p.score(b, features), true
}

func (p *Predictor) score(b *Bundle, features map[string]float64) float64 {
	x := make([]float64, len(b.Features))
	for i, col := range b.columns() {
		v, ok := features[col]
		if !ok {
			// Missing keys default to 0.0 so partially populated regions
			// still score; the counter keeps the gap visible.
			metrics.MissingFeaturesTotal.WithLabelValues(HorizonLabel(b.Horizon), col).Inc()
		}
		x[i] = v
	}

	scaled, err := b.Scaler.Transform(x)
	if err != nil {
		log.Printf("predictor: horizon %d scaling failed, using unscaled vector: %v", b.Horizon, err)
		scaled = x
	}

	prob := logistic(scaled, b.Coefficients, b.Intercept)
	if math.IsNaN(prob) || math.IsInf(prob, 0) {
		log.Printf("predictor: horizon %d produced non-finite probability", b.Horizon)
		return 0.0
	}
	return round3(prob)
}

// logistic is positive-class probability under a fitted logistic
// regression: sigmoid(w·x + b).
func logistic(x, coef []float64, intercept float64) float64 {
	z := intercept
	for i := range x {
		z += coef[i] * x[i]
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
