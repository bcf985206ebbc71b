// Package server handles HTTP requests and middleware.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/woozymasta/geolocate/internal/detect"
	"github.com/woozymasta/geolocate/internal/geo"
	"github.com/woozymasta/geolocate/internal/geocode"
	"github.com/woozymasta/geolocate/internal/imaging"
	"github.com/woozymasta/geolocate/internal/resolve"
)

const (
	multipartMemory = 8 << 20

	accuracyNamed   = "High (±10m)"
	accuracyUnnamed = "Low (±100m)"
)

type locationResponse struct {
	Location resolve.Result `json:"location"`
}

type verifyResponse struct {
	City     string `json:"city"`
	Accuracy string `json:"accuracy"`
}

type coordinatesRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// HandleAnalyzeLocation resolves the location of an uploaded image.
func (s *ServerContext) HandleAnalyzeLocation(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	res, err := s.Resolver.Resolve(r.Context(), resolve.Input{
		Image:     data,
		OCRText:   r.FormValue("ocr_text"),
		IPAddress: r.FormValue("ip_address"),
	})
	if err != nil {
		if errors.Is(err, resolve.ErrUnreadableImage) {
			writeError(w, r, http.StatusBadRequest, "invalid image file")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Location analysis failed")
		writeError(w, r, http.StatusInternalServerError, "location analysis failed")
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Str("source", string(res.Source)).
		Str("confidence", string(res.Confidence)).
		Msg("Location resolved")

	writeJSON(w, r, http.StatusOK, locationResponse{Location: res})
}

// HandleHumanDetection counts people in an uploaded image.
func (s *ServerContext) HandleHumanDetection(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	threshold := s.Config.Detector.Threshold
	if v := strings.TrimSpace(r.FormValue("confidence")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			writeError(w, r, http.StatusBadRequest, "confidence must be a number between 0 and 1")
			return
		}
		threshold = f
	}

	img, _, err := imaging.Decode(data)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid image file")
		return
	}

	summary, err := detect.Analyze(r.Context(), s.Detector, img, threshold)
	if err != nil {
		if errors.Is(err, detect.ErrModelUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, "human detection model not loaded")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Human detection failed")
		writeError(w, r, http.StatusInternalServerError, "human detection failed")
		return
	}

	writeJSON(w, r, http.StatusOK, summary)
}

// HandleVerifyLocation names the coordinates given as lat and lon query parameters.
func (s *ServerContext) HandleVerifyLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "lat must be a number")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "lon must be a number")
		return
	}

	s.verify(w, r, geo.Point{Lat: lat, Lon: lon})
}

// HandleLocationInfo names the coordinates posted as a JSON body.
func (s *ServerContext) HandleLocationInfo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)

	var req coordinatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, r, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	s.verify(w, r, geo.Point{Lat: *req.Latitude, Lon: *req.Longitude})
}

func (s *ServerContext) verify(w http.ResponseWriter, r *http.Request, p geo.Point) {
	if !geo.ValidLatitude(p.Lat) {
		writeError(w, r, http.StatusBadRequest, "Latitude must be between -90 and 90")
		return
	}
	if !geo.ValidLongitude(p.Lon) {
		writeError(w, r, http.StatusBadRequest, "Longitude must be between -180 and 180")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.Config.Geocoder.Timeout)
	defer cancel()

	l := s.Namer.Reverse(ctx, p)
	if l.Err != nil && !errors.Is(l.Err, geocode.ErrDisabled) {
		zerolog.Ctx(r.Context()).Warn().
			Err(l.Err).
			Str("status", l.Status.String()).
			Str("point", p.String()).
			Msg("Reverse geocoding failed")
	}

	resp := verifyResponse{City: l.Label(), Accuracy: accuracyUnnamed}
	if resp.City != geocode.UnknownLocation {
		resp.Accuracy = accuracyNamed
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// HandlePlaces serves the known-place catalog as GeoJSON.
func (s *ServerContext) HandlePlaces(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(s.Catalog.FeatureCollection())
}

// HandleHealth reports that the process is alive.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "osint-location-api",
	})
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the upload page.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if match := r.Header.Get("If-None-Match"); match == s.IndexETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", s.IndexETag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// readUpload reads the "file" part of a multipart request. On failure it
// writes the error response and returns false.
func (s *ServerContext) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	limit := s.Config.UploadLimit()
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB", s.Config.Upload.MaxSizeMB))
			return nil, false
		}
		writeError(w, r, http.StatusBadRequest, "expected multipart form with a file field")
		return nil, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file field is required")
		return nil, false
	}
	defer file.Close()

	if err := imaging.CheckType(header.Header.Get("Content-Type")); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid file type. Allowed types: %s", strings.Join(imaging.AllowedTypes, ", ")))
		return nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "failed to read uploaded file")
		return nil, false
	}

	zerolog.Ctx(r.Context()).Debug().
		Str("filename", header.Filename).
		Int("size", len(data)).
		Msg("Upload received")

	return data, true
}
