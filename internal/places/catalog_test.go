package places

import (
	"testing"

	"github.com/woozymasta/geolocate/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Equal(t, len(builtin), c.Len())
	assert.Same(t, c, Default())

	names := c.Names()
	require.NotEmpty(t, names)
	assert.Equal(t, "statue of liberty", names[0])
	for i := 1; i < len(names); i++ {
		prev, cur := names[i-1], names[i]
		if len(prev) == len(cur) {
			assert.Less(t, prev, cur, "equal-length names are ordered alphabetically")
		} else {
			assert.Greater(t, len(prev), len(cur), "names are ordered longest first")
		}
	}
}

func TestLookup(t *testing.T) {
	c := Default()

	p, ok := c.Lookup("  Bangalore ")
	require.True(t, ok)
	assert.Equal(t, "Bengaluru", p.City)
	assert.Equal(t, "India", p.Country)
	assert.InDelta(t, 12.9716, p.Point.Lat, 1e-9)

	p, ok = c.Lookup("NEW   York")
	require.True(t, ok)
	assert.Equal(t, "New York", p.City)

	_, ok = c.Lookup("atlantis")
	assert.False(t, ok)
}

func TestLookupReturnsCopy(t *testing.T) {
	c := Default()

	p, ok := c.Lookup("paris")
	require.True(t, ok)
	p.Point.Lat = 0
	p.City = "changed"

	again, _ := c.Lookup("paris")
	assert.InDelta(t, 48.8566, again.Point.Lat, 1e-9)
	assert.Equal(t, "Paris", again.City)
}

func TestNewWithExtra(t *testing.T) {
	c, err := New([]config.Place{
		{Name: "Agra Fort", City: "Agra", Country: "India", Lat: 27.1795, Lon: 78.0211},
		{Name: "Zürich", City: "Zurich", Country: "Switzerland", Lat: 47.3769, Lon: 8.5417},
	})
	require.NoError(t, err)
	assert.Equal(t, len(builtin)+2, c.Len())

	p, ok := c.Lookup("agra fort")
	require.True(t, ok)
	assert.Equal(t, "Agra", p.City)

	p, ok = c.Lookup("zurich")
	require.True(t, ok)
	assert.Equal(t, "Switzerland", p.Country)

	assert.Equal(t, len(builtin), Default().Len(), "default catalog is not affected")
}

func TestNewRejectsInvalidExtra(t *testing.T) {
	tests := []struct {
		name  string
		place config.Place
		msg   string
	}{
		{"empty name", config.Place{Name: "  ", City: "A", Country: "B"}, "empty name"},
		{"missing city", config.Place{Name: "x", Country: "B"}, "city and country"},
		{"out of range", config.Place{Name: "x", City: "A", Country: "B", Lat: 100}, "out of range"},
		{"duplicate", config.Place{Name: "Delhi", City: "A", Country: "B"}, "duplicate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New([]config.Place{tc.place})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestFeatureCollection(t *testing.T) {
	c := Default()
	fc := c.FeatureCollection()

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, c.Len())

	first := fc.Features[0]
	assert.Equal(t, "statue of liberty", first.Properties["name"])
	assert.Equal(t, "New York", first.Properties["city"])
	assert.Equal(t, []float64{-74.0445, 40.6892}, first.Geometry.Coordinates)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"New York", "new york"},
		{"  São   Paulo\n", "sao paulo"},
		{"BENGALÚRU", "bengaluru"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}
