package geo

// Place is what every location extractor returns.
// Point is nil when no coordinates are known, so latitude and longitude
// are always present or absent together.
type Place struct {
	Point   *Point
	City    string
	Country string
}

// Found reports whether the place carries coordinates.
func (p Place) Found() bool {
	return p.Point != nil
}

// NewPlace builds a place with coordinates.
func NewPlace(lat, lon float64, city, country string) Place {
	return Place{
		Point:   &Point{Lat: lat, Lon: lon},
		City:    city,
		Country: country,
	}
}
