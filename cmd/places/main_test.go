package main

import (
	"encoding/json"
	"testing"

	"github.com/woozymasta/geolocate/internal/geo"
	"github.com/woozymasta/geolocate/internal/places"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRenderCatalog(t *testing.T) {
	catalog, err := places.New(nil)
	require.NoError(t, err)

	data, count, err := render(catalog, "", "json")
	require.NoError(t, err)
	assert.Equal(t, catalog.Len(), count)

	var fc geo.FeatureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Len(t, fc.Features, count)
}

func TestRenderMatch(t *testing.T) {
	catalog, err := places.New(nil)
	require.NoError(t, err)

	data, count, err := render(catalog, "Sunset at the Taj Mahal", "yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "Agra", got["city"])
	assert.Equal(t, "India", got["country"])

	_, count, err = render(catalog, "nothing known here", "json")
	require.ErrorIs(t, err, errNoPlace)
	assert.Zero(t, count)
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 place", plural(1, "place"))
	assert.Equal(t, "0 places", plural(0, "place"))
	assert.Equal(t, "42 places", plural(42, "place"))
}
