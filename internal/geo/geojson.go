package geo

import (
	"encoding/json"
	"fmt"
)

// Position is a [lon, lat] pair in degrees.
type Position [2]float64

// Ring is a closed linear ring.
type Ring []Position

type Polygon []Ring

type Geometry struct {
	Type     string
	Polygons []Polygon
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func (g *Geometry) UnmarshalJSON(b []byte) error {
	var raw rawGeometry
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	g.Type = raw.Type
	switch raw.Type {
	case "Polygon":
		var p Polygon
		if err := json.Unmarshal(raw.Coordinates, &p); err != nil {
			return fmt.Errorf("polygon coordinates: %w", err)
		}
		g.Polygons = []Polygon{p}
	case "MultiPolygon":
		if err := json.Unmarshal(raw.Coordinates, &g.Polygons); err != nil {
			return fmt.Errorf("multipolygon coordinates: %w", err)
		}
	default:
		// points and lines carry no fillable area
		g.Polygons = nil
	}
	return nil
}

type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Name is the feature's NAME property, the key that joins boundaries to records.
func (f Feature) Name() string {
	if v, ok := f.Properties["NAME"].(string); ok {
		return v
	}
	return ""
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Find returns the first feature named name.
func (fc *FeatureCollection) Find(name string) (Feature, bool) {
	for _, f := range fc.Features {
		if f.Name() == name {
			return f, true
		}
	}
	return Feature{}, false
}

// Decode parses a GeoJSON FeatureCollection.
func Decode(b []byte) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("decode geojson: expected FeatureCollection, got %q", fc.Type)
	}
	return &fc, nil
}
