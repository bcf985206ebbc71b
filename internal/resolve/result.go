package resolve

import "github.com/woozymasta/geolocate/internal/geo"

// Source names the evidence a result came from.
type Source string

// Evidence sources in priority order.
const (
	SourceEXIF Source = "EXIF"
	SourceOCR  Source = "OCR"
	SourceIP   Source = "IP"
	SourceNone Source = "none"
)

// Confidence grades a result by its source.
type Confidence string

// Confidence levels.
const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// Confidence returns the fixed confidence for results from s.
func (s Source) Confidence() Confidence {
	switch s {
	case SourceEXIF:
		return High
	case SourceOCR:
		return Medium
	default:
		return Low
	}
}

// Result is the single best location answer for an image.
// Absent values serialize as JSON null.
type Result struct {
	Latitude   *float64   `json:"latitude" yaml:"latitude"`
	Longitude  *float64   `json:"longitude" yaml:"longitude"`
	City       *string    `json:"city" yaml:"city"`
	Country    *string    `json:"country" yaml:"country"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
	Source     Source     `json:"source" yaml:"source"`
}

// Fallback is the result when no source produced a location.
func Fallback() Result {
	return Result{Confidence: SourceNone.Confidence(), Source: SourceNone}
}

// fromPlace builds a result for a place found by source s.
func fromPlace(p geo.Place, s Source) Result {
	r := Result{Confidence: s.Confidence(), Source: s}
	if p.Point != nil {
		lat, lon := p.Point.Lat, p.Point.Lon
		r.Latitude, r.Longitude = &lat, &lon
	}
	r.City = optional(p.City)
	r.Country = optional(p.Country)
	return r
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
