package ingest

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/droughtguard/droughtguard/internal/httputil"
)

// FetchArtifacts downloads published model bundles into modelDir and
// the features CSV to featuresPath, retrying transient failures with
// exponential backoff. A 404 means the artifact was never published and
// is skipped, so a partial set still serves the horizons it can, but
// fetching nothing at all is an error.
func FetchArtifacts(baseURL, modelDir, featuresPath string) error {
	if err := os.MkdirAll(modelDir, 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if dir := filepath.Dir(featuresPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create features dir: %w", err)
		}
	}

	client := httputil.NewClient()
	base := strings.TrimRight(baseURL, "/")

	targets := []struct {
		name string
		dest string
	}{
		{"model_h1.json", filepath.Join(modelDir, "model_h1.json")},
		{"model_h2.json", filepath.Join(modelDir, "model_h2.json")},
		{"model_h3.json", filepath.Join(modelDir, "model_h3.json")},
		{"features.csv", featuresPath},
	}

	fetched := 0
	for _, t := range targets {
		url := base + "/" + t.name
		if err := fetchArtifact(client, url, t.dest); err != nil {
			log.Printf("ingest: skipping artifact %s: %v", t.name, err)
			continue
		}
		log.Printf("ingest: fetched %s", t.name)
		fetched++
	}
	if fetched == 0 {
		return fmt.Errorf("no artifacts fetched from %s", baseURL)
	}
	return nil
}

func fetchArtifact(client *http.Client, url, dest string) error {
	var body []byte
	operation := func() error {
		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("fetch artifact: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("transient status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("fetch artifact: status %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, bo); err != nil {
		return err
	}

	return os.WriteFile(dest, body, 0644)
}
