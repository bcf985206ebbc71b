package places

import (
	"regexp"
	"strings"

	"github.com/woozymasta/geolocate/internal/geo"
)

// Address-shaped fallbacks tried when no catalog name matched as a whole word.
// Group 1 is the candidate city.
var addressPatterns = []*regexp.Regexp{
	// "city: mumbai", "location - new york", "located in delhi,"
	regexp.MustCompile(`\b(?:city|town|village|located at|located in|location)[ \t]*[:\-–]?[ \t]*([a-z][a-z \t]*?)[ \t]*(?:,|\r?\n|$)`),
	// "Surat, GJ 39500"
	regexp.MustCompile(`([a-z]+),\s*([a-z]{2,})\s*\d{5}`),
}

// Match scans free text for a known place and returns its catalog record.
// It returns an all-absent place when nothing matches.
func (c *Catalog) Match(text string) geo.Place {
	if strings.TrimSpace(text) == "" {
		return geo.Place{}
	}

	normalized := fold(text)

	for _, e := range c.entries {
		if e.pattern.MatchString(normalized) {
			return e.copyPlace()
		}
	}

	for _, re := range addressPatterns {
		m := re.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		if p, ok := c.Lookup(m[1]); ok {
			return p
		}
	}

	return geo.Place{}
}
