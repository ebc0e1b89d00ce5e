package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/oakwood-commons/sweepview/pkg/dataset"
	"github.com/oakwood-commons/sweepview/pkg/logger"
)

var (
	// ErrNoTrigger means no input fired; callers must leave every output untouched.
	ErrNoTrigger = errors.New("no input event fired")
	// ErrNoDataset is returned when Input.Dataset is nil.
	ErrNoDataset = errors.New("no dataset")
)

// Input is everything one reconciliation needs. Axes is the prior axis
// state; an empty slice starts from unconstrained axes. ResetAxis is the
// axis index that brushing elsewhere clears; a negative value disables it.
type Input struct {
	Dataset   *dataset.Dataset
	Prior     State
	Axes      []Axis
	ResetAxis int
	Event     Event
}

// Result is the reconciled selection. When AxesResolved is set the branch
// already decided every axis range and constraint projection must not run.
type Result struct {
	Source       Source
	State        State
	Axes         []Axis
	AxesResolved bool
}

// Reconcile computes the new selection from exactly one event. It never
// mutates its input and returns the same Result for the same Input.
func Reconcile(ctx context.Context, in Input) (Result, error) {
	if in.Event == nil {
		return Result{}, ErrNoTrigger
	}
	if in.Dataset == nil {
		return Result{}, ErrNoDataset
	}
	lgr := logger.FromContext(ctx).WithValues(logger.EventKey, in.Event.Source().String())

	axes := CloneAxes(in.Axes)
	if len(axes) == 0 {
		axes = InitialAxes(in.Dataset)
	}
	res := Result{Source: in.Event.Source(), Axes: axes}
	n := in.Dataset.Len()

	var positions []int
	switch ev := in.Event.(type) {
	case AxisBrushed:
		res.State, res.Axes = brush(in.Dataset, axes, ev.Changes, in.ResetAxis, lgr.V(1).Info)
		res.AxesResolved = true
		lgr.V(1).Info("axis brush reconciled", "selected", len(res.State))
		return res, nil
	case SelectAllToggled:
		if !ev.On {
			res.State = State{}
			res.Axes = ClearAxes(axes)
			res.AxesResolved = true
			lgr.V(1).Info("select all cleared")
			return res, nil
		}
		rows, err := in.Dataset.Filter(ev.Filter)
		if err != nil {
			return Result{}, fmt.Errorf("select all filtered %q: %w", ev.Expr, err)
		}
		positions = rows
	case ScatterSelected:
		positions = ev.Points
	case ParallelSelected:
		positions = ev.Points
	case ScatterClicked:
		positions = firstOnly(ev.Points)
	case ParallelClicked:
		positions = firstOnly(ev.Points)
	case TableRowsSelected:
		positions = ev.Rows
	default:
		return Result{}, fmt.Errorf("unhandled event %T", in.Event)
	}

	state, dropped := NewState(positions, n)
	if dropped > 0 {
		lgr.V(1).Info("dropped invalid positions", "dropped", dropped, "rows", n)
	}
	res.State = state
	lgr.V(1).Info("selection reconciled", "prior", len(in.Prior), "selected", len(state))
	return res, nil
}

func firstOnly(points []int) []int {
	if len(points) == 0 {
		return nil
	}
	return points[:1]
}

// firstInterval narrows a multi-interval range to its first interval. Only
// that interval filters rows; the others stay on the axis for display.
func firstInterval(r Range) Range {
	if r.Kind == RangeIntervals && len(r.Intervals) > 1 {
		return IntervalRange(r.Intervals[0])
	}
	return r
}

// brush applies the changes and recomputes the selection as the AND of
// every constrained axis, each filtering by its first interval. The reset
// axis is cleared afterwards unless a change targeted it.
func brush(ds *dataset.Dataset, axes []Axis, changes []AxisChange, resetAxis int, debug func(string, ...any)) (State, []Axis) {
	touchedReset := false
	for _, ch := range changes {
		pos := axisPosition(axes, ch.Axis)
		if pos < 0 {
			debug("ignoring change for unknown axis", "axis", ch.Axis)
			continue
		}
		axes[pos].Range = ch.Range
		if ch.Axis == resetAxis {
			touchedReset = true
		}
	}

	type active struct {
		col int
		rng Range
	}
	var constraints []active
	found := false
	for _, a := range axes {
		if !a.Range.IsSet() {
			continue
		}
		found = true
		col, ok := ds.FieldByLabel(a.Label)
		if !ok {
			debug("skipping unmapped axis", "label", a.Label)
			continue
		}
		constraints = append(constraints, active{col: col, rng: firstInterval(a.Range)})
	}

	state := State{}
	if found {
	rows:
		for r := 0; r < ds.Len(); r++ {
			for _, c := range constraints {
				if !c.rng.Contains(ds.Value(r, c.col)) {
					continue rows
				}
			}
			state = append(state, r)
		}
	}

	if !touchedReset {
		if pos := axisPosition(axes, resetAxis); pos >= 0 {
			axes[pos].Range = NoRange()
		}
	}
	return state, axes
}

func axisPosition(axes []Axis, index int) int {
	if index < 0 {
		return -1
	}
	if index < len(axes) && axes[index].Index == index {
		return index
	}
	for i, a := range axes {
		if a.Index == index {
			return i
		}
	}
	return -1
}
