package plot

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/sweepview/internal/projection"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "out.png", want: FormatPNG},
		{path: "dir/OUT.SVG", want: FormatSVG},
		{path: "out.jpg", wantErr: true},
		{path: "out", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScatter(t *testing.T) {
	all := []projection.Point{{Row: 0, X: 1, Y: 2}, {Row: 1, X: 3, Y: 1}, {Row: 2, X: 5, Y: 7}}
	sel := all[1:2]

	var svg bytes.Buffer
	require.NoError(t, Scatter(&svg, FormatSVG, all, sel, Options{Title: "Scatter 1", XLabel: "A", YLabel: "B", Highlight: "#1ABC9C"}))
	assert.Contains(t, svg.String(), "<svg")
	assert.Contains(t, svg.String(), "Scatter 1")

	var img bytes.Buffer
	require.NoError(t, Scatter(&img, FormatPNG, all, nil, Options{Width: 320, Height: 200}))
	decoded, err := png.Decode(&img)
	require.NoError(t, err)
	assert.Equal(t, 320, decoded.Bounds().Dx())
	assert.Equal(t, 200, decoded.Bounds().Dy())
}

func TestScatterSinglePoint(t *testing.T) {
	pt := []projection.Point{{Row: 0, X: 4, Y: 4}}
	var buf bytes.Buffer
	require.NoError(t, Scatter(&buf, FormatSVG, pt, pt, Options{}))

	r := paddedRange([]float64{4})
	assert.InDelta(t, 3, r.Min, 1e-9)
	assert.InDelta(t, 5, r.Max, 1e-9)
}

func TestScatterErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Scatter(&buf, FormatPNG, nil, nil, Options{}), ErrNoPoints)
	assert.ErrorIs(t, Scatter(&buf, "gif", []projection.Point{{X: 1, Y: 1}}, nil, Options{}), ErrUnsupportedFormat)
}
