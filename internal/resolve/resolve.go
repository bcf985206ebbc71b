// Package resolve picks one location for an image from EXIF GPS, OCR text
// and the client address, in that order.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/woozymasta/geolocate/internal/config"
	"github.com/woozymasta/geolocate/internal/exifgps"
	"github.com/woozymasta/geolocate/internal/geo"
	"github.com/woozymasta/geolocate/internal/geocode"
	"github.com/woozymasta/geolocate/internal/imaging"
	"github.com/woozymasta/geolocate/internal/iplocate"
	"github.com/woozymasta/geolocate/internal/places"
)

// ErrUnreadableImage is returned when the input bytes are not a supported image.
var ErrUnreadableImage = errors.New("unreadable image")

// CoordinateReader extracts GPS coordinates from image bytes.
type CoordinateReader interface {
	Coordinates(data []byte) (geo.Point, bool)
}

// TextMatcher finds a known place in free text.
type TextMatcher interface {
	Match(text string) geo.Place
}

// AddressLocator finds the place of a network address.
type AddressLocator interface {
	Locate(ctx context.Context, addr string) geo.Place
}

// Input is one location request.
type Input struct {
	Image     []byte
	OCRText   string
	IPAddress string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCoordinateReader replaces the EXIF GPS reader.
func WithCoordinateReader(c CoordinateReader) Option {
	return func(r *Resolver) { r.coords = c }
}

// WithTextMatcher replaces the OCR text matcher.
func WithTextMatcher(m TextMatcher) Option {
	return func(r *Resolver) { r.matcher = m }
}

// WithAddressLocator replaces the IP locator.
func WithAddressLocator(l AddressLocator) Option {
	return func(r *Resolver) { r.locator = l }
}

// WithNamer replaces the reverse geocoder used for EXIF coordinates.
func WithNamer(n geocode.Namer) Option {
	return func(r *Resolver) { r.namer = n }
}

// WithNamerTimeout bounds each reverse lookup.
func WithNamerTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.namerTimeout = d
		}
	}
}

// Resolver applies the source priority chain. It holds no per-request state
// and is safe for concurrent use.
type Resolver struct {
	coords       CoordinateReader
	matcher      TextMatcher
	locator      AddressLocator
	namer        geocode.Namer
	namerTimeout time.Duration
}

// New returns a resolver using the built-in catalog, the IP stub and no
// reverse geocoding unless options say otherwise.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		coords:       exifgps.Reader{},
		matcher:      places.Default(),
		locator:      iplocate.Locator{},
		namer:        geocode.Disabled{},
		namerTimeout: config.DefaultGeocoderTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type stage struct {
	source Source
	run    func(ctx context.Context, in Input) (Result, bool)
}

func (r *Resolver) stages() []stage {
	return []stage{
		{SourceEXIF, r.fromEXIF},
		{SourceOCR, r.fromOCR},
		{SourceIP, r.fromIP},
	}
}

// Resolve returns the first location found, in order EXIF, OCR, IP.
// When none is found it returns Fallback. The only error is
// ErrUnreadableImage.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Result, error) {
	format, cfg, err := imaging.Probe(in.Image)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnreadableImage, err)
	}

	log := zerolog.Ctx(ctx)
	log.Debug().
		Str("format", format).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Msg("Resolving image location")

	for _, s := range r.stages() {
		if res, ok := s.run(ctx, in); ok {
			log.Debug().Str("source", string(s.source)).Msg("Location resolved")
			return res, nil
		}
	}

	log.Debug().Msg("No location source matched")
	return Fallback(), nil
}

func (r *Resolver) fromEXIF(ctx context.Context, in Input) (Result, bool) {
	pt, ok := r.coords.Coordinates(in.Image)
	if !ok {
		return Result{}, false
	}

	place := geo.Place{Point: &pt}

	lctx, cancel := context.WithTimeout(ctx, r.namerTimeout)
	defer cancel()

	l := r.namer.Reverse(lctx, pt)
	switch {
	case l.Named():
		place.City, place.Country = l.Name, l.Country
	case l.Status == geocode.Found:
		// the placeholder name is not a city
		place.Country = l.Country
	case l.Err != nil && !errors.Is(l.Err, geocode.ErrDisabled):
		zerolog.Ctx(ctx).Warn().
			Err(l.Err).
			Str("status", l.Status.String()).
			Str("point", pt.String()).
			Msg("Reverse geocoding failed, keeping coordinates only")
	}

	return fromPlace(place, SourceEXIF), true
}

func (r *Resolver) fromOCR(_ context.Context, in Input) (Result, bool) {
	if strings.TrimSpace(in.OCRText) == "" {
		return Result{}, false
	}

	p := r.matcher.Match(in.OCRText)
	if !p.Found() {
		return Result{}, false
	}

	return fromPlace(p, SourceOCR), true
}

func (r *Resolver) fromIP(ctx context.Context, in Input) (Result, bool) {
	if strings.TrimSpace(in.IPAddress) == "" {
		return Result{}, false
	}

	p := r.locator.Locate(ctx, in.IPAddress)
	if !p.Found() {
		return Result{}, false
	}

	return fromPlace(p, SourceIP), true
}
