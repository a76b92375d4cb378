package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/droughtguard/droughtguard/internal/api"
	"github.com/droughtguard/droughtguard/internal/cache"
	"github.com/droughtguard/droughtguard/internal/facts"
	"github.com/droughtguard/droughtguard/internal/ingest"
	"github.com/droughtguard/droughtguard/internal/models"
	"github.com/droughtguard/droughtguard/internal/predictor"
	"github.com/droughtguard/droughtguard/internal/risk"
	"github.com/droughtguard/droughtguard/internal/store"

	_ "modernc.org/sqlite"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	if err := s.Migrate(); err != nil {
		t.Fatal(err)
	}
	return s
}

func nf(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func seedRegions(t *testing.T, s *store.Store) {
	t.Helper()
	rows := []models.FeatureRow{
		{
			Region: "Turkana", Month: "2026/07",
			NDVIAnomaly: nf(-0.5), FoodPriceInflation: nf(0.20),
			NDVIAnomalyLag1: nf(-0.4), RainfallAnomalyLag1: nf(-0.3),
			FoodPriceInflationLag1: nf(0.12), TempAnomalyLag1: nf(0.5),
			NDVIAnomalyLag2: nf(-0.3), RainfallAnomalyLag2: nf(-0.2),
			FoodPriceInflationLag2: nf(0.10), TempAnomalyLag2: nf(0.4),
		},
		{
			Region: "Nairobi", Month: "2026/07",
			NDVIAnomalyLag1: nf(0.1), RainfallAnomalyLag1: nf(0.2),
			FoodPriceInflationLag1: nf(0.02), TempAnomalyLag1: nf(-0.1),
		},
	}
	for _, r := range rows {
		if err := s.InsertFeatureRow(r); err != nil {
			t.Fatal(err)
		}
	}
}

func testEldoretRow() models.FeatureRow {
	return models.FeatureRow{
		Region: "Eldoret", Month: "2026/07",
		NDVIAnomalyLag1: nf(0.05), RainfallAnomalyLag1: nf(0.1),
		FoodPriceInflationLag1: nf(0.03), TempAnomalyLag1: nf(0.2),
	}
}

func testBundles() map[int]*predictor.Bundle {
	mk := func(h int, suffix string) *predictor.Bundle {
		return &predictor.Bundle{
			Horizon:      h,
			Features:     []string{"ndvi_anomaly", "rainfall_anomaly", "food_price_inflation", "temp_anomaly"},
			LagSuffix:    suffix,
			Scaler:       predictor.Scaler{Mean: []float64{0, 0, 0, 0}, Scale: []float64{1, 1, 1, 1}},
			Coefficients: []float64{-1, -1, 1, 1},
			Intercept:    0,
		}
	}
	return map[int]*predictor.Bundle{1: mk(1, "lag1"), 2: mk(2, "lag2"), 3: mk(3, "lag2")}
}

// stubGenerator stands in for the OpenAI-backed generator.
type stubGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *stubGenerator) Ready() (bool, string) { return true, "ok" }

func (g *stubGenerator) Explain(ctx context.Context, f facts.Facts, month string) (models.NarrativePayload, error) {
	return g.respond(f, "explanation for "+f.Region)
}

func (g *stubGenerator) Brief(ctx context.Context, f facts.Facts, month string) (models.NarrativePayload, error) {
	p, err := g.respond(f, "briefing for "+f.Region)
	p.Actions = []string{"Pre-position supplies"}
	return p, err
}

func (g *stubGenerator) respond(f facts.Facts, text string) (models.NarrativePayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return models.NarrativePayload{}, g.err
	}
	return models.NarrativePayload{Explanation: text, Disclaimers: "model output"}, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func newTestServer(t *testing.T, gen api.NarrativeGenerator) (*api.Server, *store.Store) {
	t.Helper()
	s := setupTestStore(t)
	srv := api.NewServer(api.Deps{
		Store:       s,
		Predictor:   predictor.New(testBundles()),
		Categorizer: risk.NewCategorizer(risk.DefaultThresholds()),
		Cache:       cache.New(16),
		GeoJSON:     ingest.GeoJSON{"type": "FeatureCollection", "features": []any{}},
		Advisor:     gen,
		Port:        "8080",
	})
	return srv, s
}

func getJSON(t *testing.T, srv *api.Server, path string, dst any) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if dst != nil {
		if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
			t.Fatalf("decode %s: %v\n%s", path, err, w.Body.String())
		}
	}
	return w.Code
}

func TestHealthDegradedWithoutData(t *testing.T) {
	srv := api.NewServer(api.Deps{
		Store:       setupTestStore(t),
		Predictor:   predictor.New(nil),
		Categorizer: risk.NewCategorizer(risk.DefaultThresholds()),
		Cache:       cache.New(16),
		Port:        "8080",
	})

	var health struct {
		Status      string `json:"status"`
		FeatureRows int    `json:"feature_rows"`
	}
	code := getJSON(t, srv, "/health", &health)
	if code != 503 {
		t.Fatalf("expected 503, got %d", code)
	}
	if health.Status != "degraded" {
		t.Errorf("expected degraded, got %s", health.Status)
	}
}

func TestHealthOK(t *testing.T) {
	srv, s := newTestServer(t, nil)
	seedRegions(t, s)

	var health struct {
		Status        string `json:"status"`
		FeatureRows   int    `json:"feature_rows"`
		HorizonsReady []int  `json:"horizons_ready"`
		AdvisorLoaded bool   `json:"advisor_loaded"`
	}
	code := getJSON(t, srv, "/health", &health)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if health.Status != "ok" {
		t.Errorf("expected ok, got %s", health.Status)
	}
	if health.FeatureRows != 2 {
		t.Errorf("expected 2 feature rows, got %d", health.FeatureRows)
	}
	if len(health.HorizonsReady) != 3 {
		t.Errorf("expected 3 horizons, got %v", health.HorizonsReady)
	}
	if health.AdvisorLoaded {
		t.Error("advisor should not report loaded")
	}
}

func TestRegionsEmpty(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/api/regions", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"regions":[]`) {
		t.Errorf("expected empty regions array, got %s", w.Body.String())
	}
}

func TestRegionsList(t *testing.T) {
	srv, s := newTestServer(t, nil)
	seedRegions(t, s)

	var resp struct {
		Regions []string `json:"regions"`
	}
	code := getJSON(t, srv, "/api/regions", &resp)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(resp.Regions) != 2 || resp.Regions[0] != "Turkana" {
		t.Errorf("unexpected regions: %v", resp.Regions)
	}
}

func TestMapData(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var doc map[string]any
	code := getJSON(t, srv, "/api/map-data", &doc)
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if doc["type"] != "FeatureCollection" {
		t.Errorf("unexpected map data: %v", doc)
	}
}

func TestIndexDashboard(t *testing.T) {
	srv, s := newTestServer(t, nil)
	seedRegions(t, s)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Turkana") {
		t.Error("expected Turkana row in dashboard")
	}
	if !strings.Contains(body, "1_month") {
		t.Error("expected horizon column in dashboard")
	}
}
