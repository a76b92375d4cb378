package predictor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBundle(horizon int, suffix string) *Bundle {
	return &Bundle{
		Horizon:   horizon,
		Features:  []string{"ndvi_anomaly", "rainfall_anomaly", "food_price_inflation", "temp_anomaly"},
		LagSuffix: suffix,
		Scaler: Scaler{
			Mean:  []float64{0, 0, 0, 0},
			Scale: []float64{1, 1, 1, 1},
		},
		Coefficients: []float64{-1, -1, 1, 1},
		Intercept:    0,
	}
}

func TestHorizonLabel(t *testing.T) {
	assert.Equal(t, "1_month", HorizonLabel(1))
	assert.Equal(t, "2_month", HorizonLabel(2))
	assert.Equal(t, "3_month", HorizonLabel(3))
}

func TestPredictFallback(t *testing.T) {
	p := New(nil)

	got := p.Predict(map[string]float64{"ndvi_anomaly_lag1": 0.4})
	require.Len(t, got, 1)
	assert.Equal(t, 0.2, got["1_month"])
	assert.False(t, p.Loaded())
}

func TestPredictKnownVector(t *testing.T) {
	p := New(map[int]*Bundle{1: testBundle(1, "lag1")})

	features := map[string]float64{
		"ndvi_anomaly_lag1":         -0.4,
		"rainfall_anomaly_lag1":     -0.3,
		"food_price_inflation_lag1": 0.12,
		"temp_anomaly_lag1":         0.5,
	}

	// z = 0.4 + 0.3 + 0.12 + 0.5 = 1.32; sigmoid(1.32) rounds to 0.789.
	got := p.Predict(features)
	require.Contains(t, got, "1_month")
	assert.InDelta(t, 0.789, got["1_month"], 1e-9)
}

func TestPredictAllHorizons(t *testing.T) {
	p := New(map[int]*Bundle{
		1: testBundle(1, "lag1"),
		2: testBundle(2, "lag2"),
		3: testBundle(3, "lag2"),
	})

	got := p.Predict(map[string]float64{"ndvi_anomaly_lag1": 0.1})
	require.Len(t, got, 3)
	for label, prob := range got {
		assert.GreaterOrEqual(t, prob, 0.0, label)
		assert.LessOrEqual(t, prob, 1.0, label)
		assert.Equal(t, math.Round(prob*1000)/1000, prob, "%s should carry 3 decimals", label)
	}
	assert.Equal(t, []int{1, 2, 3}, p.Horizons())
}

func TestPredictIdempotent(t *testing.T) {
	p := New(map[int]*Bundle{1: testBundle(1, "lag1"), 2: testBundle(2, "lag2")})
	features := map[string]float64{
		"ndvi_anomaly_lag1": 0.4,
		"temp_anomaly_lag2": -0.2,
	}

	first := p.Predict(features)
	second := p.Predict(features)
	assert.Equal(t, first, second)
}

func TestPredictMissingFeaturesDefaultToZero(t *testing.T) {
	p := New(map[int]*Bundle{1: testBundle(1, "lag1")})

	// No inputs at all: every feature contributes 0, so the result is
	// sigmoid(intercept) = 0.5.
	got := p.Predict(map[string]float64{})
	assert.InDelta(t, 0.5, got["1_month"], 1e-9)
}

func TestHorizonProbability(t *testing.T) {
	p := New(map[int]*Bundle{2: testBundle(2, "lag2")})

	_, ok := p.HorizonProbability(map[string]float64{}, 1)
	assert.False(t, ok)

	prob, ok := p.HorizonProbability(map[string]float64{}, 2)
	require.True(t, ok)
	assert.InDelta(t, 0.5, prob, 1e-9)
}

func TestScalerTransform(t *testing.T) {
	sc := Scaler{Mean: []float64{1, 2}, Scale: []float64{2, 4}}

	out, err := sc.Transform([]float64{3, 10})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, out)

	_, err = sc.Transform([]float64{1})
	assert.Error(t, err, "length mismatch")

	zero := Scaler{Mean: []float64{0}, Scale: []float64{0}}
	_, err = zero.Transform([]float64{1})
	assert.Error(t, err, "zero scale")
}

func TestScoreSurvivesBadScaler(t *testing.T) {
	b := testBundle(1, "lag1")
	b.Scaler = Scaler{Mean: []float64{0}, Scale: []float64{1}} // wrong length

	p := New(map[int]*Bundle{1: b})
	got := p.Predict(map[string]float64{})
	assert.InDelta(t, 0.5, got["1_month"], 1e-9, "falls back to the unscaled vector")
}
