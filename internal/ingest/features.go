// Package ingest populates the feature store from tabular input at
// startup and loads supporting documents (GeoJSON, published model
// artifacts). Nothing here runs after startup; the store is read-only
// for the life of the process.
package ingest

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/droughtguard/droughtguard/internal/models"
	"github.com/droughtguard/droughtguard/internal/store"
)

// LoadFeaturesCSV reads a regional features CSV into the store and
// returns the number of rows ingested. Headers are matched
// case-insensitively; blank numeric cells become NULL, not zero.
func LoadFeaturesCSV(path string, st *store.Store) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open features: %w", err)
	}
	defer f.Close()
	return loadFeatures(f, st)
}

func loadFeatures(r io.Reader, st *store.Store) (int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"region", "month"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("features CSV missing %q column", required)
		}
	}

	count := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read row %d: %w", count+1, err)
		}

		row, err := parseFeatureRow(record, col)
		if err != nil {
			return count, fmt.Errorf("row %d: %w", count+1, err)
		}
		if err := st.InsertFeatureRow(row); err != nil {
			return count, fmt.Errorf("insert row %d: %w", count+1, err)
		}
		count++
	}
	return count, nil
}

func parseFeatureRow(record []string, col map[string]int) (models.FeatureRow, error) {
	cell := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	region := cell("region")
	if region == "" {
		return models.FeatureRow{}, fmt.Errorf("empty region")
	}

	row := models.FeatureRow{
		Region: region,
		Month:  cell("month"),
	}

	signals := []struct {
		name string
		dst  *sql.NullFloat64
	}{
		{"ndvi_anomaly", &row.NDVIAnomaly},
		{"rainfall_anomaly", &row.RainfallAnomaly},
		{"food_price_inflation", &row.FoodPriceInflation},
		{"temp_anomaly", &row.TempAnomaly},
		{"ndvi_anomaly_lag1", &row.NDVIAnomalyLag1},
		{"rainfall_anomaly_lag1", &row.RainfallAnomalyLag1},
		{"food_price_inflation_lag1", &row.FoodPriceInflationLag1},
		{"temp_anomaly_lag1", &row.TempAnomalyLag1},
		{"ndvi_anomaly_lag2", &row.NDVIAnomalyLag2},
		{"rainfall_anomaly_lag2", &row.RainfallAnomalyLag2},
		{"food_price_inflation_lag2", &row.FoodPriceInflationLag2},
		{"temp_anomaly_lag2", &row.TempAnomalyLag2},
	}
	for _, s := range signals {
		raw := cell(s.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.FeatureRow{}, fmt.Errorf("parse %s %q: %w", s.name, raw, err)
		}
		*s.dst = sql.NullFloat64{Float64: v, Valid: true}
	}

	if raw := cell("risk_label"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return models.FeatureRow{}, fmt.Errorf("parse risk_label %q: %w", raw, err)
		}
		row.RiskLabel = sql.NullInt64{Int64: int64(v), Valid: true}
	}

	return row, nil
}
