package models

import (
	"database/sql"
	"time"
)

// FeatureRow is one (region, month) record of environmental and market
// signals, with lagged variants used by the horizon models. Rows are
// immutable once ingested.
type FeatureRow struct {
	ID     int64
	Region string
	Month  string // "YYYY/MM"

	NDVIAnomaly        sql.NullFloat64
	RainfallAnomaly    sql.NullFloat64
	FoodPriceInflation sql.NullFloat64
	TempAnomaly        sql.NullFloat64

	NDVIAnomalyLag1        sql.NullFloat64
	RainfallAnomalyLag1    sql.NullFloat64
	FoodPriceInflationLag1 sql.NullFloat64
	TempAnomalyLag1        sql.NullFloat64

	NDVIAnomalyLag2        sql.NullFloat64
	RainfallAnomalyLag2    sql.NullFloat64
	FoodPriceInflationLag2 sql.NullFloat64
	TempAnomalyLag2        sql.NullFloat64

	RiskLabel sql.NullInt64
	CreatedAt time.Time
}

// FeatureMap flattens the row into the column-name keyed mapping the
// predictor consumes. Absent (NULL) signals are omitted, not zeroed, so
// downstream code can distinguish missing from measured-zero.
func (r FeatureRow) FeatureMap() map[string]float64 {
	m := make(map[string]float64, 12)
	put := func(name string, v sql.NullFloat64) {
		if v.Valid {
			m[name] = v.Float64
		}
	}
	put("ndvi_anomaly", r.NDVIAnomaly)
	put("rainfall_anomaly", r.RainfallAnomaly)
	put("food_price_inflation", r.FoodPriceInflation)
	put("temp_anomaly", r.TempAnomaly)
	put("ndvi_anomaly_lag1", r.NDVIAnomalyLag1)
	put("rainfall_anomaly_lag1", r.RainfallAnomalyLag1)
	put("food_price_inflation_lag1", r.FoodPriceInflationLag1)
	put("temp_anomaly_lag1", r.TempAnomalyLag1)
	put("ndvi_anomaly_lag2", r.NDVIAnomalyLag2)
	put("rainfall_anomaly_lag2", r.RainfallAnomalyLag2)
	put("food_price_inflation_lag2", r.FoodPriceInflationLag2)
	put("temp_anomaly_lag2", r.TempAnomalyLag2)
	return m
}

// NarrativePayload is the structured text produced by the narrative
// generator for one (region, month, horizon, mode).
type NarrativePayload struct {
	Explanation string   `json:"explanation"`
	Actions     []string `json:"actions,omitempty"`
	Disclaimers string   `json:"disclaimers,omitempty"`
}
