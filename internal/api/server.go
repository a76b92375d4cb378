package api

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/droughtguard/droughtguard/internal/cache"
	"github.com/droughtguard/droughtguard/internal/facts"
	"github.com/droughtguard/droughtguard/internal/ingest"
	"github.com/droughtguard/droughtguard/internal/models"
	"github.com/droughtguard/droughtguard/internal/predictor"
	"github.com/droughtguard/droughtguard/internal/risk"
	"github.com/droughtguard/droughtguard/internal/store"
)

//go:embed templates/*
var templateFS embed.FS

// NarrativeGenerator is the advisor surface the server needs; a stub
// implementation stands in for OpenAI in tests.
type NarrativeGenerator interface {
	Ready() (bool, string)
	Explain(ctx context.Context, f facts.Facts, month string) (models.NarrativePayload, error)
	Brief(ctx context.Context, f facts.Facts, month string) (models.NarrativePayload, error)
}

// defaultDisplayNames maps dataset city names to the county names used
// by the GeoJSON boundaries. Regions not listed display as themselves.
var defaultDisplayNames = map[string]string{
	"Eldoret": "Uasin Gishu",
	"Thika":   "Kiambu",
	"Malindi": "Kilifi",
	"Kitale":  "Trans Nzoia",
}

// Deps are the process-scoped collaborators, constructed once at
// startup and injected so tests can build fresh instances.
type Deps struct {
	Store       *store.Store
	Predictor   *predictor.Predictor
	Categorizer *risk.Categorizer
	Cache       *cache.Cache
	GeoJSON     ingest.GeoJSON

	// Advisor is nil when the narrative subsystem failed to initialize;
	// AdvisorReason carries the reason reported by the health endpoint.
	Advisor        NarrativeGenerator
	AdvisorReason  string
	AdvisorTimeout time.Duration

	DisplayNames map[string]string
	Port         string
}

type Server struct {
	store          *store.Store
	predictor      *predictor.Predictor
	categorizer    *risk.Categorizer
	cache          *cache.Cache
	geojson        ingest.GeoJSON
	advisor        NarrativeGenerator
	advisorReason  string
	advisorTimeout time.Duration
	displayNames   map[string]string
	port           string
	tmpl           *template.Template
}

func NewServer(deps Deps) *Server {
	tmpl := template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

	if deps.DisplayNames == nil {
		deps.DisplayNames = defaultDisplayNames
	}
	if deps.AdvisorTimeout == 0 {
		deps.AdvisorTimeout = 30 * time.Second
	}

	return &Server{
		store:          deps.Store,
		predictor:      deps.Predictor,
		categorizer:    deps.Categorizer,
		cache:          deps.Cache,
		geojson:        deps.GeoJSON,
		advisor:        deps.Advisor,
		advisorReason:  deps.AdvisorReason,
		advisorTimeout: deps.AdvisorTimeout,
		displayNames:   deps.DisplayNames,
		port:           deps.Port,
		tmpl:           tmpl,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/regions", s.handleRegions)
	mux.HandleFunc("GET /api/map-data", s.handleMapData)
	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("GET /api/ai/health", s.handleAIHealth)
	mux.HandleFunc("GET /api/explain/{region}", s.handleNarrative("explain"))
	mux.HandleFunc("GET /api/brief/{region}", s.handleNarrative("brief"))
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type healthStatus struct {
	Status        string `json:"status"`
	FeatureRows   int    `json:"feature_rows"`
	HorizonsReady []int  `json:"horizons_ready"`
	AdvisorLoaded bool   `json:"advisor_loaded"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.CountRows()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
		return
	}

	health := healthStatus{
		Status:        "ok",
		FeatureRows:   rows,
		HorizonsReady: s.predictor.Horizons(),
		AdvisorLoaded: s.advisor != nil,
	}
	if rows == 0 || !s.predictor.Loaded() {
		health.Status = "degraded"
	}

	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
