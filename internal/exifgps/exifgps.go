// Package exifgps reads GPS coordinates from image EXIF metadata.
package exifgps

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/woozymasta/geolocate/internal/geo"

	"github.com/rs/zerolog/log"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

var errMalformed = errors.New("malformed gps tag")

// Reader extracts GPS coordinates from raw image bytes.
// The zero value is ready to use.
type Reader struct{}

// Coordinates returns the decimal position recorded in the EXIF GPS tags.
// It reports false for missing, partial or malformed data and never fails.
func (Reader) Coordinates(data []byte) (p geo.Point, ok bool) {
	defer func() {
		// goexif panics on some truncated inputs
		if r := recover(); r != nil {
			log.Debug().Interface("panic", r).Msg("EXIF decoder panicked, treating as no GPS")
			p, ok = geo.Point{}, false
		}
	}()

	p, err := Decode(data)
	if err != nil {
		log.Debug().Err(err).Msg("No usable EXIF GPS coordinates")
		return geo.Point{}, false
	}

	return p, true
}

// Decode parses the EXIF block of a JPEG, TIFF, PNG or WebP image and
// converts both GPS axes. Either both axes are returned or an error.
func Decode(data []byte) (geo.Point, error) {
	payload, err := exifPayload(data)
	if err != nil {
		return geo.Point{}, fmt.Errorf("locate exif: %w", err)
	}

	x, err := exif.Decode(bytes.NewReader(payload))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return geo.Point{}, fmt.Errorf("decode exif: %w", err)
	}

	lat, err := axis(x, exif.GPSLatitude, exif.GPSLatitudeRef, "N", "S")
	if err != nil {
		return geo.Point{}, fmt.Errorf("latitude: %w", err)
	}

	lon, err := axis(x, exif.GPSLongitude, exif.GPSLongitudeRef, "E", "W")
	if err != nil {
		return geo.Point{}, fmt.Errorf("longitude: %w", err)
	}

	p := geo.Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("%w: %s out of range", errMalformed, p)
	}

	return p, nil
}

// axis reads one degrees/minutes/seconds triple and applies its hemisphere reference.
func axis(x *exif.Exif, valueField, refField exif.FieldName, positive, negative string) (float64, error) {
	tag, err := x.Get(valueField)
	if err != nil {
		return 0, err
	}
	if tag.Count != 3 {
		return 0, fmt.Errorf("%w: %s has %d values", errMalformed, valueField, tag.Count)
	}

	var dms [3]float64
	for i := range dms {
		v, err := rational(tag, i)
		if err != nil {
			return 0, fmt.Errorf("%s[%d]: %w", valueField, i, err)
		}
		dms[i] = v
	}

	ref := positive
	if refTag, err := x.Get(refField); err == nil {
		s, err := refTag.StringVal()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", errMalformed, refField, err)
		}
		ref = strings.ToUpper(strings.TrimSpace(s))
	}
	if ref != positive && ref != negative {
		return 0, fmt.Errorf("%w: %s is %q", errMalformed, refField, ref)
	}

	return geo.DMSToDecimal(dms[0], dms[1], dms[2], ref), nil
}

func rational(tag *tiff.Tag, i int) (float64, error) {
	num, den, err := tag.Rat2(i)
	if err != nil {
		return 0, err
	}
	if den == 0 {
		return 0, fmt.Errorf("%w: zero denominator", errMalformed)
	}
	if num < 0 || den < 0 {
		return 0, fmt.Errorf("%w: negative rational %d/%d", errMalformed, num, den)
	}

	return float64(num) / float64(den), nil
}
