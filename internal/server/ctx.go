package server

import (
	"fmt"
	"hash/crc32"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geolocate/assets"
	"github.com/woozymasta/geolocate/internal/config"
	"github.com/woozymasta/geolocate/internal/detect"
	"github.com/woozymasta/geolocate/internal/geocode"
	"github.com/woozymasta/geolocate/internal/places"
	"github.com/woozymasta/geolocate/internal/resolve"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config   *config.Config
	Catalog  *places.Catalog
	Namer    geocode.Namer
	Resolver *resolve.Resolver
	Detector detect.Model

	IndexHTML []byte
	IndexETag string
	Favicon   []byte
}

// NewServerContext wires the resolver from the configured collaborators.
// A nil detector is replaced by detect.Unavailable.
func NewServerContext(cfg *config.Config, catalog *places.Catalog, namer geocode.Namer, detector detect.Model) *ServerContext {
	if detector == nil {
		detector = detect.Unavailable{}
	}

	resolver := resolve.New(
		resolve.WithTextMatcher(catalog),
		resolve.WithNamer(namer),
		resolve.WithNamerTimeout(cfg.Geocoder.Timeout),
	)

	log.Info().
		Int("places", catalog.Len()).
		Str("geocoder", cfg.Geocoder.Provider).
		Int64("upload_limit_mb", cfg.Upload.MaxSizeMB).
		Msg("Server context initialized")

	return &ServerContext{
		Config:    cfg,
		Catalog:   catalog,
		Namer:     namer,
		Resolver:  resolver,
		Detector:  detector,
		IndexHTML: assets.Index,
		IndexETag: fmt.Sprintf(`"%x"`, crc32.ChecksumIEEE(assets.Index)),
		Favicon:   assets.Favicon,
	}
}

// Routes returns the HTTP handler with every route and the request logger applied.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze/location", s.HandleAnalyzeLocation)
	mux.HandleFunc("POST /analyze/human-detection", s.HandleHumanDetection)
	mux.HandleFunc("GET /verify-location", s.HandleVerifyLocation)
	mux.HandleFunc("POST /api/location", s.HandleLocationInfo)
	mux.HandleFunc("GET /api/places", s.HandlePlaces)
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.HandleFunc("GET /favicon.svg", s.HandleFavicon)
	mux.HandleFunc("GET /{$}", s.HandleIndex)

	return RequestLogger(mux)
}
