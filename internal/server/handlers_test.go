package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/woozymasta/geolocate/internal/config"
	"github.com/woozymasta/geolocate/internal/detect"
	"github.com/woozymasta/geolocate/internal/exifgps/exifgpstest"
	"github.com/woozymasta/geolocate/internal/geo"
	"github.com/woozymasta/geolocate/internal/geocode"
	"github.com/woozymasta/geolocate/internal/places"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNamer struct {
	lookup geocode.Lookup
}

func (n stubNamer) Reverse(context.Context, geo.Point) geocode.Lookup { return n.lookup }

type stubModel struct {
	dets []detect.Detection
}

func (m stubModel) Forward(context.Context, *image.RGBA) ([]detect.Detection, error) {
	return m.dets, nil
}

var paris = geocode.Lookup{Status: geocode.Found, Name: "Paris", Country: "France"}

func newTestServer(t *testing.T, namer geocode.Namer, model detect.Model) (*ServerContext, http.Handler) {
	t.Helper()
	s := NewServerContext(config.Default(), places.Default(), namer, model)
	return s, s.Routes()
}

type upload struct {
	contentType string
	data        []byte
	fields      map[string]string
}

func multipartBody(t *testing.T, u upload) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if u.data != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="photo"`)
		h.Set("Content-Type", u.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(u.data)
		require.NoError(t, err)
	}
	for k, v := range u.fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, h http.Handler, method, target string, u upload) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, u)
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAnalyzeLocationOCR(t *testing.T) {
	_, h := newTestServer(t, geocode.Disabled{}, nil)

	tests := []struct {
		name   string
		target string
		fields map[string]string
	}{
		{"form field", "/analyze/location", map[string]string{"ocr_text": "Greetings from Chennai!"}},
		{"query parameter", "/analyze/location?ocr_text=Greetings+from+Chennai", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tc.target, upload{
				contentType: "image/jpeg",
				data:        exifgpstest.PlainJPEG(),
				fields:      tc.fields,
			})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, `{"location":{
				"latitude":13.0827,"longitude":80.2707,
				"city":"Chennai","country":"India",
				"confidence":"medium","source":"OCR"}}`, rec.Body.String())
		})
	}
}

func TestAnalyzeLocationEXIF(t *testing.T) {
	_, h := newTestServer(t, stubNamer{paris}, nil)

	img := exifgpstest.JPEG(exifgpstest.GPS{
		LatRef: "N", Lat: exifgpstest.DMS(48, 51, 23.76),
		LonRef: "E", Lon: exifgpstest.DMS(2, 21, 7.92),
	})
	rec := do(t, h, http.MethodPost, "/analyze/location", upload{
		contentType: "image/jpeg",
		data:        img,
		fields:      map[string]string{"ocr_text": "tokyo"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	loc := decode(t, rec)["location"].(map[string]any)
	assert.Equal(t, "EXIF", loc["source"])
	assert.Equal(t, "high", loc["confidence"])
	assert.Equal(t, "Paris", loc["city"])
	assert.Equal(t, "France", loc["country"])
	assert.InDelta(t, 48.8566, loc["latitude"], 1e-4)
}

func TestAnalyzeLocationFallback(t *testing.T) {
	_, h := newTestServer(t, geocode.Disabled{}, nil)

	rec := do(t, h, http.MethodPost, "/analyze/location", upload{
		contentType: "image/jpeg",
		data:        exifgpstest.PlainJPEG(),
		fields:      map[string]string{"ocr_text": "no places here", "ip_address": "8.8.8.8"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"location":{
		"latitude":null,"longitude":null,"city":null,"country":null,
		"confidence":"low","source":"none"}}`, rec.Body.String())
}

func TestAnalyzeLocationRejectsBadUploads(t *testing.T) {
	_, h := newTestServer(t, geocode.Disabled{}, nil)

	tests := []struct {
		name string
		u    upload
		msg  string
	}{
		{"wrong type", upload{contentType: "application/pdf", data: []byte("%PDF")}, "Invalid file type"},
		{"missing content type", upload{contentType: "", data: exifgpstest.PlainJPEG()}, "Invalid file type"},
		{"unreadable image", upload{contentType: "image/jpeg", data: []byte("not a jpeg")}, "invalid image"},
		{"no file", upload{fields: map[string]string{"ocr_text": "delhi"}}, "file field is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/analyze/location", tc.u)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode(t, rec)["error"], tc.msg)
		})
	}

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/analyze/location", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAnalyzeLocationTooLarge(t *testing.T) {
	cfg := config.Default()
	cfg.Upload.MaxSizeMB = 1
	h := NewServerContext(cfg, places.Default(), geocode.Disabled{}, nil).Routes()

	rec := do(t, h, http.MethodPost, "/analyze/location", upload{
		contentType: "image/jpeg",
		data:        bytes.Repeat([]byte{0xff}, 2<<20),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyzeLocationMethodNotAllowed(t *testing.T) {
	_, h := newTestServer(t, geocode.Disabled{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze/location", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHumanDetection(t *testing.T) {
	model := stubModel{dets: []detect.Detection{
		{Class: detect.PersonClass, Confidence: 0.92},
		{Class: detect.PersonClass, Confidence: 0.61},
		{Class: 8, Confidence: 0.99},
	}}
	_, h := newTestServer(t, geocode.Disabled{}, model)

	rec := do(t, h, http.MethodPost, "/analyze/human-detection", upload{
		contentType: "image/jpeg",
		data:        exifgpstest.PlainJPEG(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"humanDetected":true,"humanCount":2,"confidence":0.92}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/analyze/human-detection?confidence=0.7", upload{
		contentType: "image/jpeg",
		data:        exifgpstest.PlainJPEG(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"humanDetected":true,"humanCount":1,"confidence":0.92}`, rec.Body.String())
}

func TestHumanDetectionErrors(t *testing.T) {
	t.Run("model unavailable", func(t *testing.T) {
		_, h := newTestServer(t, geocode.Disabled{}, nil)
		rec := do(t, h, http.MethodPost, "/analyze/human-detection", upload{
			contentType: "image/jpeg",
			data:        exifgpstest.PlainJPEG(),
		})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	_, h := newTestServer(t, geocode.Disabled{}, stubModel{})

	t.Run("bad threshold", func(t *testing.T) {
		for _, v := range []string{"1.5", "-0.1", "high"} {
			rec := do(t, h, http.MethodPost, "/analyze/human-detection", upload{
				contentType: "image/jpeg",
				data:        exifgpstest.PlainJPEG(),
				fields:      map[string]string{"confidence": v},
			})
			assert.Equal(t, http.StatusBadRequest, rec.Code, v)
		}
	})

	t.Run("bad image", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/analyze/human-detection", upload{
			contentType: "image/png",
			data:        []byte("garbage"),
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVerifyLocation(t *testing.T) {
	tests := []struct {
		name     string
		namer    geocode.Namer
		query    string
		status   int
		expected string
	}{
		{"named", stubNamer{paris}, "lat=48.8566&lon=2.3522", http.StatusOK, `{"city":"Paris, France","accuracy":"High (±10m)"}`},
		{"no data", stubNamer{geocode.Lookup{Status: geocode.NoData}}, "lat=0&lon=-30", http.StatusOK, `{"city":"Unknown location","accuracy":"Low (±100m)"}`},
		{"disabled", geocode.Disabled{}, "lat=1&lon=1", http.StatusOK, `{"city":"Unknown location","accuracy":"Low (±100m)"}`},
		{"latitude range", stubNamer{paris}, "lat=91&lon=0", http.StatusBadRequest, `{"error":"Latitude must be between -90 and 90"}`},
		{"longitude range", stubNamer{paris}, "lat=0&lon=-180.5", http.StatusBadRequest, `{"error":"Longitude must be between -180 and 180"}`},
		{"missing", stubNamer{paris}, "lat=1", http.StatusBadRequest, `{"error":"lon must be a number"}`},
		{"not a number", stubNamer{paris}, "lat=abc&lon=1", http.StatusBadRequest, `{"error":"lat must be a number"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, h := newTestServer(t, tc.namer, nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verify-location?"+tc.query, nil))
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.expected, rec.Body.String())
		})
	}
}

func TestLocationInfo(t *testing.T) {
	_, h := newTestServer(t, stubNamer{paris}, nil)

	tests := []struct {
		name     string
		body     string
		status   int
		expected string
	}{
		{"ok", `{"latitude":48.8566,"longitude":2.3522}`, http.StatusOK, `{"city":"Paris, France","accuracy":"High (±10m)"}`},
		{"missing longitude", `{"latitude":48.8566}`, http.StatusBadRequest, `{"error":"latitude and longitude are required"}`},
		{"out of range", `{"latitude":-100,"longitude":0}`, http.StatusBadRequest, `{"error":"Latitude must be between -90 and 90"}`},
		{"invalid json", `{"latitude":`, http.StatusBadRequest, `{"error":"invalid JSON body"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/location", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.expected, rec.Body.String())
		})
	}
}

func TestPlaces(t *testing.T) {
	_, h := newTestServer(t, geocode.Disabled{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var fc geo.FeatureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, places.Default().Len())
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t, geocode.Disabled{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"osint-location-api"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	_, h := newTestServer(t, geocode.Disabled{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestIndexAndFavicon(t *testing.T) {
	s, h := newTestServer(t, geocode.Disabled{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.IndexETag, rec.Header().Get("ETag"))
	assert.Contains(t, rec.Body.String(), "/analyze/location")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", s.IndexETag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Zero(t, rec.Body.Len())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.svg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing.js", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
