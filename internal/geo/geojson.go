// Package geo holds coordinate types, DMS conversion and GeoJSON output structures.
package geo

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type" yaml:"type"`
	Features []Feature `json:"features" yaml:"features"`
}

// Feature is a single GeoJSON feature.
type Feature struct {
	Properties map[string]any `json:"properties" yaml:"properties"`
	Type       string         `json:"type" yaml:"type"`
	Geometry   Geometry       `json:"geometry" yaml:"geometry"`
}

// Geometry is a GeoJSON geometry. Only points are produced here.
type Geometry struct {
	Type        string    `json:"type" yaml:"type"`
	Coordinates []float64 `json:"coordinates" yaml:"coordinates"` // [Lon, Lat]
}

// NewFeatureCollection returns an empty collection with capacity for n features.
func NewFeatureCollection(n int) FeatureCollection {
	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, n),
	}
}

// PointFeature builds a Point feature; GeoJSON order is longitude first.
func PointFeature(p Point, props map[string]any) Feature {
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{p.Lon, p.Lat},
		},
		Properties: props,
	}
}
