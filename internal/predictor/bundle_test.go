package predictor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBundleJSON = `{
	"horizon": 1,
	"features": ["ndvi_anomaly", "rainfall_anomaly", "food_price_inflation", "temp_anomaly"],
	"lag_suffix": "lag1",
	"scaler": {"mean": [0, 0, 0, 0], "scale": [1, 1, 1, 1]},
	"coefficients": [-0.8, -0.6, 1.2, 0.4],
	"intercept": -0.1,
	"version": "2026-08"
}`

func TestLoadBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_h1.json")
	require.NoError(t, os.WriteFile(path, []byte(validBundleJSON), 0644))

	b, err := LoadBundle(path)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Horizon)
	assert.Equal(t, "lag1", b.LagSuffix)
	assert.Equal(t, []string{"ndvi_anomaly_lag1", "rainfall_anomaly_lag1", "food_price_inflation_lag1", "temp_anomaly_lag1"}, b.columns())
}

func TestLoadBundleInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "nope"},
		{"horizon out of range", `{"horizon": 9, "features": ["a"], "lag_suffix": "lag1", "coefficients": [1]}`},
		{"no features", `{"horizon": 1, "features": [], "lag_suffix": "lag1", "coefficients": []}`},
		{"coefficient mismatch", `{"horizon": 1, "features": ["a", "b"], "lag_suffix": "lag1", "coefficients": [1]}`},
		{"missing lag suffix", `{"horizon": 1, "features": ["a"], "coefficients": [1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "model_h1.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := LoadBundle(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadBundlesPartial(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model_h1.json"), []byte(validBundleJSON), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model_h2.json"), []byte("corrupt"), 0644))
	// model_h3.json absent entirely.

	bundles := LoadBundles(dir)
	assert.Len(t, bundles, 1)
	assert.Contains(t, bundles, 1)
}

func TestLoadBundlesHorizonMismatch(t *testing.T) {
	dir := t.TempDir()
	// A horizon-1 bundle saved under the horizon-2 filename must not load.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model_h2.json"), []byte(validBundleJSON), 0644))

	bundles := LoadBundles(dir)
	assert.Empty(t, bundles)
}
