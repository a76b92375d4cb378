package store

import (
	"database/sql"

	"github.com/droughtguard/droughtguard/internal/models"
)

// Store is the read-mostly feature table backing prediction requests.
// Rows are written once during startup ingestion and never mutated.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const featureColumns = `id, region, month,
	ndvi_anomaly, rainfall_anomaly, food_price_inflation, temp_anomaly,
	ndvi_anomaly_lag1, rainfall_anomaly_lag1, food_price_inflation_lag1, temp_anomaly_lag1,
	ndvi_anomaly_lag2, rainfall_anomaly_lag2, food_price_inflation_lag2, temp_anomaly_lag2,
	risk_label, created_at`

func (s *Store) InsertFeatureRow(r models.FeatureRow) error {
	_, err := s.db.Exec(`
		INSERT INTO feature_rows (region, month,
			ndvi_anomaly, rainfall_anomaly, food_price_inflation, temp_anomaly,
			ndvi_anomaly_lag1, rainfall_anomaly_lag1, food_price_inflation_lag1, temp_anomaly_lag1,
			ndvi_anomaly_lag2, rainfall_anomaly_lag2, food_price_inflation_lag2, temp_anomaly_lag2,
			risk_label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(region, month) DO NOTHING
	`, r.Region, r.Month,
		r.NDVIAnomaly, r.RainfallAnomaly, r.FoodPriceInflation, r.TempAnomaly,
		r.NDVIAnomalyLag1, r.RainfallAnomalyLag1, r.FoodPriceInflationLag1, r.TempAnomalyLag1,
		r.NDVIAnomalyLag2, r.RainfallAnomalyLag2, r.FoodPriceInflationLag2, r.TempAnomalyLag2,
		r.RiskLabel)
	return err
}

// GetRegions returns the distinct region names in ingest order.
func (s *Store) GetRegions() ([]string, error) {
	rows, err := s.db.Query(`SELECT region FROM feature_rows GROUP BY region ORDER BY MIN(id)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regions []string
	for rows.Next() {
		var region string
		if err := rows.Scan(&region); err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, rows.Err()
}

// GetLatestFeatures returns the most recent row for a region, or nil if
// the region is unknown.
func (s *Store) GetLatestFeatures(region string) (*models.FeatureRow, error) {
	row := s.db.QueryRow(`
		SELECT `+featureColumns+`
		FROM feature_rows
		WHERE region = ?
		ORDER BY month DESC, id DESC
		LIMIT 1
	`, region)

	r, err := scanFeatureRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetFeatureHistory returns up to limit rows for a region, newest first.
func (s *Store) GetFeatureHistory(region string, limit int) ([]models.FeatureRow, error) {
	rows, err := s.db.Query(`
		SELECT `+featureColumns+`
		FROM feature_rows
		WHERE region = ?
		ORDER BY month DESC, id DESC
		LIMIT ?
	`, region, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.FeatureRow
	for rows.Next() {
		r, err := scanFeatureRow(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *r)
	}
	return history, rows.Err()
}

func (s *Store) CountRows() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM feature_rows`).Scan(&n)
	return n, err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFeatureRow(sc scannable) (*models.FeatureRow, error) {
	var r models.FeatureRow
	err := sc.Scan(&r.ID, &r.Region, &r.Month,
		&r.NDVIAnomaly, &r.RainfallAnomaly, &r.FoodPriceInflation, &r.TempAnomaly,
		&r.NDVIAnomalyLag1, &r.RainfallAnomalyLag1, &r.FoodPriceInflationLag1, &r.TempAnomalyLag1,
		&r.NDVIAnomalyLag2, &r.RainfallAnomalyLag2, &r.FoodPriceInflationLag2, &r.TempAnomalyLag2,
		&r.RiskLabel, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
