package selection

import "github.com/oakwood-commons/sweepview/pkg/dataset"

// Axis is one parallel-coordinates dimension and its current constraint.
// Index is the dimension position; Label links back to the field.
type Axis struct {
	Index int    `json:"index" yaml:"index"`
	Label string `json:"label" yaml:"label"`
	Range Range  `json:"range" yaml:"range"`
}

// InitialAxes returns one unconstrained axis per dataset dimension.
func InitialAxes(ds *dataset.Dataset) []Axis {
	dims := ds.Dimensions()
	axes := make([]Axis, len(dims))
	for i, f := range dims {
		axes[i] = Axis{Index: i, Label: f.Label}
	}
	return axes
}

// CloneAxes deep-copies axes so callers never share interval slices.
func CloneAxes(axes []Axis) []Axis {
	if axes == nil {
		return nil
	}
	out := make([]Axis, len(axes))
	for i, a := range axes {
		out[i] = a
		if a.Range.Intervals != nil {
			out[i].Range.Intervals = append([]Interval(nil), a.Range.Intervals...)
		}
	}
	return out
}

// ClearAxes returns a copy of axes with every range removed.
func ClearAxes(axes []Axis) []Axis {
	out := CloneAxes(axes)
	for i := range out {
		out[i].Range = NoRange()
	}
	return out
}
