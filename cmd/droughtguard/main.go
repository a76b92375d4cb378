package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/droughtguard/droughtguard/internal/advisor"
	"github.com/droughtguard/droughtguard/internal/api"
	"github.com/droughtguard/droughtguard/internal/cache"
	"github.com/droughtguard/droughtguard/internal/config"
	"github.com/droughtguard/droughtguard/internal/ingest"
	"github.com/droughtguard/droughtguard/internal/predictor"
	"github.com/droughtguard/droughtguard/internal/risk"
	"github.com/droughtguard/droughtguard/internal/store"
)

func main() {
	cli, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}

	if cli.ArtifactBaseURL != "" {
		log.Printf("fetching published artifacts from %s", cli.ArtifactBaseURL)
		if err := ingest.FetchArtifacts(cli.ArtifactBaseURL, cli.Models, cli.Features); err != nil {
			log.Fatalf("fetch artifacts: %v", err)
		}
	}

	if dir := filepath.Dir(cli.DB); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("create db directory: %v", err)
		}
	}

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	rows, err := ingest.LoadFeaturesCSV(cli.Features, st)
	if err != nil {
		log.Fatalf("load features: %v", err)
	}
	log.Printf("ingested %d feature rows from %s", rows, cli.Features)

	geojson, err := ingest.LoadGeoJSON(cli.GeoJSON)
	if err != nil {
		log.Printf("Warning: map data unavailable: %v", err)
		geojson = ingest.GeoJSON{}
	}

	bundles := predictor.LoadBundles(cli.Models)
	pred := predictor.New(bundles)
	log.Printf("loaded %d horizon model bundles", len(bundles))

	thresholds := risk.DefaultThresholds()
	if cli.Thresholds != "" {
		thresholds, err = risk.LoadThresholds(cli.Thresholds)
		if err != nil {
			log.Fatalf("load thresholds: %v", err)
		}
		log.Printf("loaded risk thresholds from %s", cli.Thresholds)
	}

	// The narrative subsystem is optional: without an API key the
	// service still predicts, and narrative endpoints answer 503.
	var gen api.NarrativeGenerator
	advisorReason := ""
	if g, err := advisor.New(cli.AdvisorModel, advisor.DefaultTemperature, advisor.DefaultMaxTokens); err != nil {
		log.Printf("Narrative generation disabled: %v", err)
		advisorReason = err.Error()
	} else {
		gen = g
		log.Printf("narrative generator ready (model=%s)", cli.AdvisorModel)
	}

	server := api.NewServer(api.Deps{
		Store:          st,
		Predictor:      pred,
		Categorizer:    risk.NewCategorizer(thresholds),
		Cache:          cache.New(cli.CacheMax),
		GeoJSON:        geojson,
		Advisor:        gen,
		AdvisorReason:  advisorReason,
		AdvisorTimeout: cli.AdvisorTimeout,
		Port:           cli.Port,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
