package geo

import (
	"fmt"
	"math"
)

// Point is a WGS84 position in signed decimal degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// String returns the point as "lat,lon".
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// Valid reports whether the point lies inside the WGS84 latitude and longitude ranges.
func (p Point) Valid() bool {
	return ValidLatitude(p.Lat) && ValidLongitude(p.Lon)
}

// ValidLatitude reports whether lat is a finite value in [-90, 90].
func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lon is a finite value in [-180, 180].
func ValidLongitude(lon float64) bool {
	return !math.IsNaN(lon) && lon >= -180 && lon <= 180
}

// DMSToDecimal converts degrees, minutes and seconds to decimal degrees.
//
// The hemisphere reference decides the sign: "S" and "W" produce a negative value,
// anything else a positive one. Callers validate the reference themselves.
func DMSToDecimal(degrees, minutes, seconds float64, ref string) float64 {
	decimal := degrees + minutes/60 + seconds/3600
	if ref == "S" || ref == "W" {
		decimal = -decimal
	}

	return decimal
}
