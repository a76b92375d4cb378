package api

import (
	"log"
	"net/http"
	"time"

	"github.com/droughtguard/droughtguard/internal/predictor"
)

// RegionRisk is one dashboard row: a region with its per-horizon tiers.
type RegionRisk struct {
	Region      string
	DisplayName string
	Horizons    []HorizonRisk
}

type HorizonRisk struct {
	Label       string
	Probability float64
	Category    string
	Color       string
}

type dashboardData struct {
	Regions     []RegionRisk
	GeneratedAt time.Time
}

func (s *Server) getDashboardData() (*dashboardData, error) {
	regions, err := s.store.GetRegions()
	if err != nil {
		return nil, err
	}

	data := &dashboardData{GeneratedAt: time.Now().UTC()}

	for _, region := range regions {
		row, err := s.store.GetLatestFeatures(region)
		if err != nil {
			log.Printf("api: dashboard %s: %v", region, err)
			continue
		}
		if row == nil {
			continue
		}

		rr := RegionRisk{Region: region, DisplayName: s.displayName(region)}
		for _, h := range s.predictor.Horizons() {
			prob, ok := s.predictor.HorizonProbability(row.FeatureMap(), h)
			if !ok {
				continue
			}
			category, err := s.categorizer.Categorize(prob, h)
			if err != nil {
				log.Printf("api: dashboard categorize %s h=%d: %v", region, h, err)
				continue
			}
			rr.Horizons = append(rr.Horizons, HorizonRisk{
				Label:       predictor.HorizonLabel(h),
				Probability: prob,
				Category:    string(category.Label),
				Color:       category.Color,
			})
		}
		data.Regions = append(data.Regions, rr)
	}

	return data, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := s.getDashboardData()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("api: template error: %v", err)
	}
}
