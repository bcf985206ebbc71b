// Package places holds the read-only known-place catalog and matches place names in free text.
package places

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/woozymasta/geolocate/internal/config"
	"github.com/woozymasta/geolocate/internal/geo"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Whole-word edges. A trailing apostrophe only ends the word when no letter or
// digit follows it, so "delhi's" is a continuation but "'delhi'" is not.
const (
	leadingEdge  = `(?:^|[^\p{L}\p{N}])`
	trailingEdge = `(?:$|[^\p{L}\p{N}'’]|['’](?:$|[^\p{L}\p{N}]))`
)

type entry struct {
	name    string
	place   geo.Place
	pattern *regexp.Regexp
}

// Catalog maps lowercase place names to places. It is immutable once built
// and safe for concurrent use.
type Catalog struct {
	entries []entry // scan order: longest name first, then alphabetical
	byName  map[string]int
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := New(nil)
	if err != nil {
		panic(fmt.Sprintf("places: built-in catalog: %v", err))
	}
	return c
})

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog()
}

// New builds a catalog from the built-in table plus extra entries.
// Extra entries may not redefine a built-in name.
func New(extra []config.Place) (*Catalog, error) {
	all := make(map[string]geo.Place, len(builtin)+len(extra))
	for name, p := range builtin {
		all[name] = p
	}

	var errs []error
	for _, p := range extra {
		name := Normalize(p.Name)
		switch {
		case name == "":
			errs = append(errs, errors.New("place with empty name"))
			continue
		case p.City == "" || p.Country == "":
			errs = append(errs, fmt.Errorf("place %q: city and country are required", p.Name))
			continue
		case !(geo.Point{Lat: p.Lat, Lon: p.Lon}).Valid():
			errs = append(errs, fmt.Errorf("place %q: coordinates %v,%v out of range", p.Name, p.Lat, p.Lon))
			continue
		}
		if _, dup := all[name]; dup {
			errs = append(errs, fmt.Errorf("place %q: duplicate catalog name", p.Name))
			continue
		}
		all[name] = geo.NewPlace(p.Lat, p.Lon, p.City, p.Country)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	c := &Catalog{
		entries: make([]entry, 0, len(all)),
		byName:  make(map[string]int, len(all)),
	}
	for name, p := range all {
		pattern, err := wholeWord(name)
		if err != nil {
			return nil, fmt.Errorf("place %q: %w", name, err)
		}
		c.entries = append(c.entries, entry{name: name, place: p, pattern: pattern})
	}

	sort.Slice(c.entries, func(i, j int) bool {
		li, lj := len(c.entries[i].name), len(c.entries[j].name)
		if li != lj {
			return li > lj
		}
		return c.entries[i].name < c.entries[j].name
	})
	for i, e := range c.entries {
		c.byName[e.name] = i
	}

	return c, nil
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Names returns the catalog names in scan order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}
	return names
}

// Lookup returns the place stored under name. The name is normalized first.
func (c *Catalog) Lookup(name string) (geo.Place, bool) {
	i, ok := c.byName[Normalize(name)]
	if !ok {
		return geo.Place{}, false
	}
	return c.entries[i].copyPlace(), true
}

// FeatureCollection exports the catalog as GeoJSON points in scan order.
func (c *Catalog) FeatureCollection() geo.FeatureCollection {
	fc := geo.NewFeatureCollection(len(c.entries))
	for _, e := range c.entries {
		fc.Features = append(fc.Features, geo.PointFeature(*e.place.Point, map[string]any{
			"name":    e.name,
			"city":    e.place.City,
			"country": e.place.Country,
		}))
	}
	return fc
}

// copyPlace keeps callers from reaching the catalog's own Point.
func (e entry) copyPlace() geo.Place {
	pt := *e.place.Point
	return geo.Place{Point: &pt, City: e.place.City, Country: e.place.Country}
}

// Normalize lowercases s, strips diacritics and collapses whitespace runs.
func Normalize(s string) string {
	return strings.Join(strings.Fields(fold(s)), " ")
}

func fold(s string) string {
	lower := strings.ToLower(s)
	out, _, err := transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		lower,
	)
	if err != nil {
		return lower
	}
	return out
}

// wholeWord compiles the boundary-aware pattern for a normalized name.
// Words of multi-word names match across any whitespace run.
func wholeWord(name string) (*regexp.Regexp, error) {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.Compile(leadingEdge + strings.Join(words, `\s+`) + trailingEdge)
}
