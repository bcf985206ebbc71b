// Package geocode turns coordinates into human-readable place names.
package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/woozymasta/geolocate/internal/config"
	"github.com/woozymasta/geolocate/internal/geo"
)

// UnknownLocation is the name reported when a lookup yields no usable name.
const UnknownLocation = "Unknown location"

// ErrDisabled is carried by lookups made through the Disabled namer.
var ErrDisabled = errors.New("reverse geocoding disabled")

// Status classifies the outcome of a reverse lookup.
type Status int

const (
	// Found means the service returned a place.
	Found Status = iota
	// NoData means the service answered but knows nothing at the point.
	NoData
	// Unavailable means the service could not be asked or did not answer.
	Unavailable
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NoData:
		return "no_data"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Lookup is the result of a reverse lookup.
type Lookup struct {
	Status      Status
	Name        string
	Country     string
	DisplayName string
	Err         error
}

// Named reports whether the lookup produced a real place name.
func (l Lookup) Named() bool {
	return l.Status == Found && l.Name != "" && l.Name != UnknownLocation
}

// Label formats the lookup as "City, Country", falling back to UnknownLocation.
func (l Lookup) Label() string {
	if l.Status != Found || l.Name == "" {
		return UnknownLocation
	}
	if l.Country != "" {
		return l.Name + ", " + l.Country
	}
	return l.Name
}

// Namer resolves a point to a place name. Implementations never fail the
// caller: problems are reported through Lookup.Status and Lookup.Err.
type Namer interface {
	Reverse(ctx context.Context, p geo.Point) Lookup
}

// Disabled is a Namer that never names anything.
type Disabled struct{}

// Reverse always reports Unavailable with ErrDisabled.
func (Disabled) Reverse(context.Context, geo.Point) Lookup {
	return Lookup{Status: Unavailable, Err: ErrDisabled}
}

// New builds the namer selected by the geocoder configuration.
func New(cfg config.Geocoder) Namer {
	if cfg.Provider == config.ProviderNone {
		return Disabled{}
	}

	return NewNominatim(
		WithBaseURL(cfg.BaseURL),
		WithUserAgent(cfg.UserAgent),
		WithLanguage(cfg.Language),
		WithTimeout(cfg.Timeout),
		WithRetries(cfg.RetryCount()),
	)
}

// Address holds the address parts a reverse lookup may return.
type Address struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	County  string `json:"county"`
	Region  string `json:"region"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// SelectName picks the most specific populated-place name:
// city, town, village, county, region or state, then the first segment of
// the display name, then UnknownLocation.
func SelectName(a Address, displayName string) string {
	for _, s := range []string{a.City, a.Town, a.Village, a.County, a.Region, a.State} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}

	first, _, _ := strings.Cut(displayName, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}

	return UnknownLocation
}
