// Package plot renders the scatter view of a page to a PNG or SVG image.
package plot

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/oakwood-commons/sweepview/internal/projection"
)

// Image formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

var (
	// ErrUnsupportedFormat is returned for image paths other than .png and .svg.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrNoPoints is returned when no row has a numeric x and y.
	ErrNoPoints = errors.New("no plottable points")
)

// Options configures a scatter image.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
	// Highlight is the "#rrggbb" color of the selected points.
	Highlight string
}

const (
	defaultWidth     = 960
	defaultHeight    = 640
	defaultHighlight = "F39C12"
	backgroundColor  = "AAB7B8"
)

// FormatFromPath picks the image format from the file extension.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return FormatPNG, nil
	case ".svg":
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
}

// pointStyle draws markers only, without connecting lines.
func pointStyle(col drawing.Color, width float64) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    width,
		DotColor:    col,
	}
}

// Scatter draws all points in grey with the highlighted ones on top.
func Scatter(w io.Writer, format string, all, highlighted []projection.Point, opts Options) error {
	if len(all) == 0 {
		return ErrNoPoints
	}
	var render chart.RendererProvider
	switch format {
	case FormatPNG:
		render = chart.PNG
	case FormatSVG:
		render = chart.SVG
	default:
		return fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	hl := strings.TrimPrefix(opts.Highlight, "#")
	if len(hl) != 6 {
		hl = defaultHighlight
	}

	xs, ys := coords(all)
	series := []chart.Series{
		chart.ContinuousSeries{Name: "rows", XValues: xs, YValues: ys, Style: pointStyle(drawing.ColorFromHex(backgroundColor), 3)},
	}
	if len(highlighted) > 0 {
		hx, hy := coords(highlighted)
		series = append(series, chart.ContinuousSeries{Name: "selected", XValues: hx, YValues: hy, Style: pointStyle(drawing.ColorFromHex(hl), 5)})
	}

	ch := chart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: opts.XLabel, Range: paddedRange(xs)},
		YAxis:      chart.YAxis{Name: opts.YLabel, Range: paddedRange(ys)},
		Series:     series,
	}
	if len(highlighted) > 0 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(render, w)
}

func coords(pts []projection.Point) (xs, ys []float64) {
	xs = make([]float64, len(pts))
	ys = make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

// paddedRange widens the data span by 5% per side; a zero span becomes ±1.
func paddedRange(vals []float64) *chart.ContinuousRange {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
