package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// GeoJSON is loaded once and served verbatim by the map-data endpoint,
// apart from property-name normalization.
type GeoJSON map[string]any

// LoadGeoJSON reads a regions GeoJSON document and normalizes each
// feature's properties so the frontend can always read
// feature.properties.name, whichever admin-boundary export produced
// the file.
func LoadGeoJSON(path string) (GeoJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}

	var doc GeoJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	features, _ := doc["features"].([]any)
	for _, f := range features {
		feature, ok := f.(map[string]any)
		if !ok {
			continue
		}
		props, ok := feature["properties"].(map[string]any)
		if !ok {
			continue
		}
		if name := pickName(props); name != "" {
			props["name"] = name
		}
	}
	return doc, nil
}

// pickName tries the property keys used by common boundary exports.
func pickName(props map[string]any) string {
	for _, key := range []string{"shapeName", "ADM1_NAME", "COUNTY", "NAME_1"} {
		if v, ok := props[key].(string); ok && v != "" {
			return titleCase(strings.TrimSpace(v))
		}
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
