package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/droughtguard/droughtguard/internal/cache"
	"github.com/droughtguard/droughtguard/internal/facts"
	"github.com/droughtguard/droughtguard/internal/metrics"
	"github.com/droughtguard/droughtguard/internal/models"
)

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.store.GetRegions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if regions == nil {
		regions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": regions})
}

func (s *Server) handleMapData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.geojson)
}

type predictRequest struct {
	Region string `json:"region"`
}

// horizonPrediction is one horizon's slice of the predict response.
type horizonPrediction struct {
	Probability float64 `json:"probability"`
	Category    string  `json:"category"`
	Color       string  `json:"color"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := readJSON(r, &req); err != nil || req.Region == "" {
		metrics.PredictionsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "region is required")
		return
	}

	row, err := s.store.GetLatestFeatures(req.Region)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if row == nil {
		metrics.PredictionsTotal.WithLabelValues("not_found").Inc()
		writeError(w, http.StatusNotFound, fmt.Sprintf("region not found: %s", req.Region))
		return
	}

	probabilities := s.predictor.Predict(row.FeatureMap())

	predictions := make(map[string]horizonPrediction, len(probabilities))
	for label, prob := range probabilities {
		horizon := horizonFromLabel(label)
		category, err := s.categorizer.Categorize(prob, horizon)
		if err != nil {
			metrics.PredictionsTotal.WithLabelValues("error").Inc()
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("categorize %s: %v", label, err))
			return
		}
		predictions[label] = horizonPrediction{
			Probability: prob,
			Category:    string(category.Label),
			Color:       category.Color,
		}
	}

	metrics.PredictionsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"region":       req.Region,
		"display_name": s.displayName(req.Region),
		"predictions":  predictions,
	})
}

func (s *Server) handleAIHealth(w http.ResponseWriter, r *http.Request) {
	ready := false
	reason := s.advisorReason
	if s.advisor != nil {
		ready, reason = s.advisor.Ready()
	}
	if reason == "" {
		reason = "narrative generator not configured"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"ready":          ready,
		"reason":         reason,
		"advisor_loaded": s.advisor != nil,
	})
}

// handleNarrative serves both explain and brief; the two differ only in
// mode and the generator method invoked.
func (s *Server) handleNarrative(mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		region := r.PathValue("region")

		horizon, err := parseHorizon(r.URL.Query().Get("h"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		month, err := parseMonth(r.URL.Query().Get("month"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		force := isTruthy(r.URL.Query().Get("force"))

		if s.advisor == nil {
			reason := s.advisorReason
			if reason == "" {
				reason = "narrative generator not configured"
			}
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error":  "AI advisor unavailable",
				"reason": reason,
			})
			return
		}
		if ready, reason := s.advisor.Ready(); !ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error":  "AI advisor unavailable",
				"reason": reason,
			})
			return
		}

		row, err := s.store.GetLatestFeatures(region)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if row == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("region not found: %s", region))
			return
		}

		key := cache.Key{Region: region, Month: month, Horizon: horizon, Mode: mode}
		if !force {
			if payload, ok := s.cache.Get(key); ok {
				metrics.NarrativeCacheTotal.WithLabelValues(mode, "hit").Inc()
				writeJSON(w, http.StatusOK, narrativeResponse(region, horizon, month, true, payload))
				return
			}
		}
		metrics.NarrativeCacheTotal.WithLabelValues(mode, "miss").Inc()

		f, err := facts.Collect(s.store, s.predictor, s.categorizer, region, horizon)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error":  "could not assemble facts",
				"reason": err.Error(),
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.advisorTimeout)
		defer cancel()

		start := time.Now()
		payload, err := s.generate(ctx, mode, f, month)
		metrics.NarrativeLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
		if err != nil {
			// Error payloads are never cached; the client may retry,
			// optionally with force=true.
			metrics.NarrativeCallsTotal.WithLabelValues(mode, "error").Inc()
			log.Printf("api: %s %s h=%d: %v", mode, region, horizon, err)
			writeError(w, http.StatusBadGateway, fmt.Sprintf("narrative generation failed: %v", err))
			return
		}
		metrics.NarrativeCallsTotal.WithLabelValues(mode, "ok").Inc()

		s.cache.Set(key, payload)
		writeJSON(w, http.StatusOK, narrativeResponse(region, horizon, month, false, payload))
	}
}

func (s *Server) generate(ctx context.Context, mode string, f facts.Facts, month string) (models.NarrativePayload, error) {
	if mode == "brief" {
		return s.advisor.Brief(ctx, f, month)
	}
	return s.advisor.Explain(ctx, f, month)
}

func narrativeResponse(region string, horizon int, month string, cached bool, data any) map[string]any {
	return map[string]any{
		"region":  region,
		"horizon": horizon,
		"month":   month,
		"cached":  cached,
		"data":    data,
	}
}

func (s *Server) displayName(region string) string {
	if name, ok := s.displayNames[region]; ok {
		return name
	}
	return region
}

func parseHorizon(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	h, err := strconv.Atoi(raw)
	if err != nil || h < 1 || h > 3 {
		return 0, fmt.Errorf("invalid horizon %q: must be 1, 2, or 3", raw)
	}
	return h, nil
}

// parseMonth validates an explicit month override, defaulting to the
// current UTC month. The month is part of the cache key, so validating
// here keeps garbage out of the key space.
func parseMonth(raw string) (string, error) {
	if raw == "" {
		return time.Now().UTC().Format("2006/01"), nil
	}
	if _, err := time.Parse("2006/01", raw); err != nil {
		return "", fmt.Errorf("invalid month %q: expected YYYY/MM", raw)
	}
	return raw, nil
}

func isTruthy(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func horizonFromLabel(label string) int {
	prefix, _, _ := strings.Cut(label, "_")
	h, err := strconv.Atoi(prefix)
	if err != nil {
		return 1
	}
	return h
}
