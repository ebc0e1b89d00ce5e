// Package projection derives every visual output from a selection State.
// All functions are pure and safe to call concurrently on a shared dataset.
package projection

import (
	"math"

	"github.com/oakwood-commons/sweepview/internal/selection"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

// ZeroDelta is the half-width used for a selected value of exactly zero.
const ZeroDelta = 0.00001

// MicroInterval is the narrow band drawn around one selected value:
// v ± |v|/100000, or v ± ZeroDelta when v is zero.
func MicroInterval(v float64) selection.Interval {
	d := math.Abs(v) / 100000
	if v == 0 {
		d = ZeroDelta
	}
	return selection.Interval{Lo: v - d, Hi: v + d}
}

// Constraints narrows every axis to the selected rows. Axes whose label maps
// to no field keep their prior range. The reset axis is always cleared.
//
// Numeric axes get one micro-interval per selected row; null cells add none.
// An axis whose selected cells are all null is left unconstrained.
// When any selected value fails to coerce, the axis gets an exact range on
// the first selected row's value only.
func Constraints(ds *dataset.Dataset, state selection.State, axes []selection.Axis, resetAxis int) []selection.Axis {
	out := selection.CloneAxes(axes)
	for i := range out {
		a := &out[i]
		if a.Index == resetAxis {
			a.Range = selection.NoRange()
			continue
		}
		col, ok := ds.FieldByLabel(a.Label)
		if !ok {
			continue
		}
		a.Range = axisRange(ds, state, col)
	}
	return out
}

func axisRange(ds *dataset.Dataset, state selection.State, col int) selection.Range {
	if len(state) == 0 {
		return selection.NoRange()
	}
	ivs := make([]selection.Interval, 0, len(state))
	for _, row := range state {
		v := ds.Value(row, col)
		if v.Null {
			continue
		}
		f, ok := v.Float()
		if !ok {
			return selection.ExactRange(ds.Value(state[0], col))
		}
		ivs = append(ivs, MicroInterval(f))
	}
	return selection.IntervalRange(ivs...)
}
