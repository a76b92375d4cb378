// Package facts assembles the per-region context handed to the
// narrative generator: probability, tier, present signal values, and
// first-difference trends.
package facts

import (
	"database/sql"
	"fmt"

	"github.com/droughtguard/droughtguard/internal/predictor"
	"github.com/droughtguard/droughtguard/internal/risk"
	"github.com/droughtguard/droughtguard/internal/store"
)

// Facts is the extracted context for one (region, horizon).
// Trend fields are nil, not zero, when either operand is missing, so
// the generator never presents fabricated stability.
type Facts struct {
	Region      string
	Horizon     int
	Probability float64
	RiskTier    risk.Label

	NDVIAnomaly        *float64
	RainfallAnomaly    *float64
	FoodPriceInflation *float64
	TempAnomaly        *float64

	DeltaNDVI  *float64 // current minus lag1
	DeltaPrice *float64
}

// Collect pulls the region's latest row, scores the one horizon of
// interest, categorizes it, and computes trends. Returns an error when
// the region is unknown or the horizon's model is unavailable.
func Collect(st *store.Store, pred *predictor.Predictor, cat *risk.Categorizer, region string, horizon int) (Facts, error) {
	row, err := st.GetLatestFeatures(region)
	if err != nil {
		return Facts{}, fmt.Errorf("lookup features: %w", err)
	}
	if row == nil {
		return Facts{}, fmt.Errorf("region not found: %s", region)
	}

	prob, ok := pred.HorizonProbability(row.FeatureMap(), horizon)
	if !ok {
		return Facts{}, fmt.Errorf("no model loaded for horizon %d", horizon)
	}

	category, err := cat.Categorize(prob, horizon)
	if err != nil {
		return Facts{}, fmt.Errorf("categorize: %w", err)
	}

	f := Facts{
		Region:      region,
		Horizon:     horizon,
		Probability: prob,
		RiskTier:    category.Label,

		NDVIAnomaly:        nullable(row.NDVIAnomaly),
		RainfallAnomaly:    nullable(row.RainfallAnomaly),
		FoodPriceInflation: nullable(row.FoodPriceInflation),
		TempAnomaly:        nullable(row.TempAnomaly),

		DeltaNDVI:  delta(row.NDVIAnomaly, row.NDVIAnomalyLag1),
		DeltaPrice: delta(row.FoodPriceInflation, row.FoodPriceInflationLag1),
	}
	return f, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func delta(current, lag1 sql.NullFloat64) *float64 {
	if !current.Valid || !lag1.Valid {
		return nil
	}
	d := current.Float64 - lag1.Float64
	return &d
}
