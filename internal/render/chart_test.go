package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostr00000/overwatch/internal/trending"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestChartRenderer_JSONRoundTrip(t *testing.T) {
	series := []trending.Point{
		{Index: 0, Value: 1, Error: 0},
		{Index: 1, Value: 2, Error: 0},
	}
	renderer := NewChartRenderer()
	artifacts, err := renderer.Render(trending.RenderRequest{
		Trend:  "meanADC",
		Title:  "Average ADC value",
		Series: series,
	})
	require.NoError(t, err)

	var doc SeriesDocument
	require.NoError(t, json.Unmarshal(artifacts.JSON, &doc))
	assert.Equal(t, "meanADC", doc.Name)
	assert.Equal(t, "Average ADC value", doc.Title)
	assert.Equal(t, series, doc.Points)
}

func TestChartRenderer_ProducesPNG(t *testing.T) {
	renderer := NewChartRenderer()
	artifacts, err := renderer.Render(trending.RenderRequest{
		Trend: "meanADC",
		Title: "Average ADC value",
		Series: []trending.Point{
			{Index: 0, Value: 1, Error: 0.1},
			{Index: 1, Value: 2, Error: 0.2},
			{Index: 2, Value: 1.5, Error: 0.1},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(artifacts.Image, pngMagic))
}

func TestChartRenderer_SinglePoint(t *testing.T) {
	renderer := NewChartRenderer()
	artifacts, err := renderer.Render(trending.RenderRequest{
		Trend:  "meanADC",
		Title:  "Average ADC value",
		Series: []trending.Point{{Index: 0, Value: 1}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(artifacts.Image, pngMagic))

	// The padding point exists only in the image, never in the JSON series.
	var doc SeriesDocument
	require.NoError(t, json.Unmarshal(artifacts.JSON, &doc))
	assert.Len(t, doc.Points, 1)
}

func TestChartRenderer_EmptySeries(t *testing.T) {
	renderer := NewChartRenderer()
	artifacts, err := renderer.Render(trending.RenderRequest{
		Trend: "meanADC",
		Title: "Average ADC value",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(artifacts.Image, pngMagic))

	var doc SeriesDocument
	require.NoError(t, json.Unmarshal(artifacts.JSON, &doc))
	assert.Empty(t, doc.Points)
}
