// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/woozymasta/geolocate/internal/geo"

	"gopkg.in/yaml.v3"
)

// Defaults used when the configuration file omits a value.
const (
	DefaultGeocoderURL       = "https://nominatim.openstreetmap.org"
	DefaultUserAgent         = "osint-geolocate/1.0"
	DefaultGeocoderTimeout   = 5 * time.Second
	DefaultGeocoderRetries   = 2
	DefaultUploadMaxSizeMB   = 20
	DefaultDetectorThreshold = 0.5
)

// Provider names accepted in geocoder.provider.
const (
	ProviderNominatim = "nominatim"
	ProviderNone      = "none"
)

// Config represents the root configuration file structure.
type Config struct {
	Geocoder Geocoder `yaml:"geocoder"`
	Upload   Upload   `yaml:"upload"`
	Detector Detector `yaml:"detector"`
	Places   []Place  `yaml:"places,omitempty"`
}

// Geocoder configures the reverse lookup service used to name EXIF coordinates.
type Geocoder struct {
	Provider  string        `yaml:"provider,omitempty"`
	BaseURL   string        `yaml:"base_url,omitempty"`
	UserAgent string        `yaml:"user_agent,omitempty"`
	Language  string        `yaml:"language,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	Retries   *int          `yaml:"retries,omitempty"`
}

// RetryCount returns how many times a transient failure is retried. An
// explicit retries: 0 disables retrying; an omitted value means the default.
func (g Geocoder) RetryCount() int {
	if g.Retries == nil {
		return DefaultGeocoderRetries
	}

	return *g.Retries
}

// Upload limits accepted image uploads.
type Upload struct {
	MaxSizeMB int64 `yaml:"max_size_mb,omitempty"`
}

// Detector configures the human detection endpoint.
type Detector struct {
	Threshold float64 `yaml:"threshold,omitempty"`
}

// Place is an extra known-place catalog entry defined in the configuration file.
type Place struct {
	Name    string  `yaml:"name" json:"name"`
	City    string  `yaml:"city" json:"city"`
	Country string  `yaml:"country" json:"country"`
	Lat     float64 `yaml:"lat" json:"lat"`
	Lon     float64 `yaml:"lon" json:"lon"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
// An empty path yields the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes a YAML document, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// UploadLimit returns the upload size limit in bytes.
func (c *Config) UploadLimit() int64 {
	return c.Upload.MaxSizeMB << 20
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	var errs []error

	switch c.Geocoder.Provider {
	case ProviderNominatim, ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("geocoder.provider: unknown provider %q", c.Geocoder.Provider))
	}

	if c.Geocoder.RetryCount() < 0 {
		errs = append(errs, errors.New("geocoder.retries must not be negative"))
	}

	if c.Detector.Threshold < 0 || c.Detector.Threshold > 1 {
		errs = append(errs, fmt.Errorf("detector.threshold %v out of range [0, 1]", c.Detector.Threshold))
	}

	for i, p := range c.Places {
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Errorf("places[%d]: name is required", i))
		}
		if !(geo.Point{Lat: p.Lat, Lon: p.Lon}).Valid() {
			errs = append(errs, fmt.Errorf("places[%d] %q: coordinates %v,%v out of range", i, p.Name, p.Lat, p.Lon))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	g := &c.Geocoder
	g.Provider = strings.ToLower(strings.TrimSpace(g.Provider))
	if g.Provider == "" {
		g.Provider = ProviderNominatim
	}
	if g.BaseURL == "" {
		g.BaseURL = DefaultGeocoderURL
	}
	g.BaseURL = strings.TrimRight(g.BaseURL, "/")
	if g.UserAgent == "" {
		g.UserAgent = DefaultUserAgent
	}
	if g.Timeout <= 0 {
		g.Timeout = DefaultGeocoderTimeout
	}
	if g.Retries == nil {
		r := DefaultGeocoderRetries
		g.Retries = &r
	}

	if c.Upload.MaxSizeMB <= 0 {
		c.Upload.MaxSizeMB = DefaultUploadMaxSizeMB
	}

	// a zero threshold is treated as unset
	if c.Detector.Threshold == 0 {
		c.Detector.Threshold = DefaultDetectorThreshold
	}
}
