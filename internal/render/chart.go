// Package render produces the output artifacts of the trending engine: a
// rasterized chart of each trend's current series and a JSON document
// describing the plotted points.
package render

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ostr00000/overwatch/internal/common/trenderrors"
	"github.com/ostr00000/overwatch/internal/trending"
)

const (
	chartWidth  = 800
	chartHeight = 400
)

// SeriesDocument is the JSON artifact describing one trend's plotted series.
type SeriesDocument struct {
	Name   string           `json:"name"`
	Title  string           `json:"title"`
	Points []trending.Point `json:"points"`
}

// ChartRenderer renders a trend series to a PNG scatter chart and a JSON
// series document. It is stateless and safe for concurrent use.
type ChartRenderer struct{}

func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{}
}

func (r *ChartRenderer) Render(req trending.RenderRequest) (trending.Artifacts, error) {
	doc := SeriesDocument{
		Name:   req.Trend,
		Title:  req.Title,
		Points: req.Series,
	}
	if doc.Points == nil {
		doc.Points = []trending.Point{}
	}
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return trending.Artifacts{}, errors.WithStack(&trenderrors.ErrRender{
			Trend:    req.Trend,
			Artifact: "json",
			Cause:    err,
		})
	}

	imageBytes, err := r.renderImage(req)
	if err != nil {
		return trending.Artifacts{}, errors.WithStack(&trenderrors.ErrRender{
			Trend:    req.Trend,
			Artifact: "image",
			Cause:    err,
		})
	}
	return trending.Artifacts{Image: imageBytes, JSON: jsonBytes}, nil
}

func (r *ChartRenderer) renderImage(req trending.RenderRequest) ([]byte, error) {
	if len(req.Series) == 0 {
		return blankImage(chartWidth, chartHeight)
	}

	xs := make([]float64, len(req.Series))
	ys := make([]float64, len(req.Series))
	upper := make([]float64, len(req.Series))
	lower := make([]float64, len(req.Series))
	for i, point := range req.Series {
		xs[i] = float64(point.Index)
		ys[i] = point.Value
		upper[i] = point.Value + point.Error
		lower[i] = point.Value - point.Error
	}
	// go-chart cannot render a single-point series; pad with a duplicate
	// point one unit to the right.
	if len(xs) == 1 {
		xs = append(xs, xs[0]+1)
		ys = append(ys, ys[0])
		upper = append(upper, upper[0])
		lower = append(lower, lower[0])
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    req.Trend,
			XValues: xs,
			YValues: ys,
			Style:   pointStyle(chart.ColorBlue),
		},
		chart.ContinuousSeries{
			Name:    req.Trend + " +err",
			XValues: xs,
			YValues: upper,
			Style:   errorBandStyle(),
		},
		chart.ContinuousSeries{
			Name:    req.Trend + " -err",
			XValues: xs,
			YValues: lower,
			Style:   errorBandStyle(),
		},
	}

	yMin, yMax := axisBounds(lower, upper)
	graph := chart.Chart{
		Title:      req.Title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 24}},
		XAxis:      chart.XAxis{Name: "entry"},
		YAxis:      chart.YAxis{Name: "value", Range: &chart.ContinuousRange{Min: yMin, Max: yMax}},
		Series:     series,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// axisBounds pads the value range by 5% on both sides. A degenerate range
// (constant series) is widened so the chart library always has a non-zero
// span to work with.
func axisBounds(lower, upper []float64) (float64, float64) {
	min, max := lower[0], upper[0]
	for i := range lower {
		if lower[i] < min {
			min = lower[i]
		}
		if upper[i] > max {
			max = upper[i]
		}
	}
	if max <= min {
		max = min + 1
	}
	pad := (max - min) * 0.05
	return min - pad, max + pad
}

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		DotWidth:    4,
		DotColor:    col,
	}
}

func errorBandStyle() chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		DotWidth:    2,
		DotColor:    chart.ColorAlternateGray,
	}
}

// blankImage produces a placeholder so an empty trend still yields a valid
// image artifact.
func blankImage(w, h int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 250, G: 250, B: 250, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
