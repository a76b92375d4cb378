// Package config declares the CLI/environment surface. Values resolve
// flag > environment > .env file > default via kong.
package config

import (
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
)

// CLI is the full droughtguard command line.
type CLI struct {
	DB         string `name:"db" default:"data/droughtguard.db" help:"Path to the SQLite feature database."`
	Port       string `name:"port" default:"8080" env:"PORT" help:"HTTP server port."`
	Features   string `name:"features" default:"data/features.csv" help:"Path to the regional features CSV."`
	GeoJSON    string `name:"geojson" default:"data/regions.json" help:"Path to the regions GeoJSON document."`
	Models     string `name:"models" default:"model" help:"Directory holding model_h{1,2,3}.json bundles."`
	Thresholds string `name:"thresholds" optional:"" help:"Optional YAML file overriding risk thresholds."`

	ArtifactBaseURL string `name:"artifact-base-url" optional:"" env:"ARTIFACT_BASE_URL" help:"Base URL to download published model artifacts from at startup."`

	CacheMax       int           `name:"cache-max" default:"512" help:"Maximum narrative cache entries (LRU beyond this)."`
	AdvisorModel   string        `name:"advisor-model" default:"gpt-4o-mini" env:"ADVISOR_MODEL" help:"Chat model used for narrative generation."`
	AdvisorTimeout time.Duration `name:"advisor-timeout" default:"30s" env:"ADVISOR_TIMEOUT" help:"Per-request narrative generation timeout."`
}

// Parse reads the command line, honoring a local .env file the way the
// original deployment did.
func Parse(args []string) (*CLI, error) {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("droughtguard"),
		kong.Description("Multi-horizon food-insecurity risk service."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)
	if err != nil {
		return nil, err
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, err
	}
	return &cli, nil
}
