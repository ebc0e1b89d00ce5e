package projection

import (
	"github.com/oakwood-commons/sweepview/internal/selection"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

// Scatter returns the positions to highlight, in selection order.
func Scatter(state selection.State) []int {
	return state.Clone()
}

// Point is one highlighted scatter marker.
type Point struct {
	Row int     `json:"row" yaml:"row"`
	X   float64 `json:"x" yaml:"x"`
	Y   float64 `json:"y" yaml:"y"`
}

// ScatterPoints resolves the coordinates of the highlighted markers for the
// given axes. Rows whose x or y is not a number are not plotted and are left out.
func ScatterPoints(ds *dataset.Dataset, state selection.State, xField, yField string) ([]Point, error) {
	xc, err := ds.FieldIndex(xField)
	if err != nil {
		return nil, err
	}
	yc, err := ds.FieldIndex(yField)
	if err != nil {
		return nil, err
	}
	pts := make([]Point, 0, len(state))
	for _, row := range Scatter(state) {
		x, okX := ds.Value(row, xc).Float()
		y, okY := ds.Value(row, yc).Float()
		if !okX || !okY {
			continue
		}
		pts = append(pts, Point{Row: row, X: x, Y: y})
	}
	return pts, nil
}

// AllPoints resolves a marker for every plottable row, the scatter
// background the highlighted points are drawn over.
func AllPoints(ds *dataset.Dataset, xField, yField string) ([]Point, error) {
	all := make(selection.State, ds.Len())
	for i := range all {
		all[i] = i
	}
	return ScatterPoints(ds, all, xField, yField)
}
