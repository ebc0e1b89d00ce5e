package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/oakwood-commons/sweepview/internal/selection"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

// Action names that change page state without being selection events.
const (
	ActionSetFilter     = "set_filter"
	ActionShowSelected  = "show_selected"
	ActionScatterPreset = "scatter_preset"
)

// BrushSpec targets an axis by index or by display label.
type BrushSpec struct {
	Axis  *int            `json:"axis,omitempty" yaml:"axis,omitempty"`
	Label string          `json:"label,omitempty" yaml:"label,omitempty"`
	Range selection.Range `json:"range" yaml:"range"`
}

// EventSpec is the serialisable form of an event or page action, used by
// replay scripts, MCP tools and the --event flag.
type EventSpec struct {
	Source  string      `json:"source" yaml:"source"`
	Points  []int       `json:"points,omitempty" yaml:"points,omitempty"`
	Rows    []int       `json:"rows,omitempty" yaml:"rows,omitempty"`
	On      *bool       `json:"on,omitempty" yaml:"on,omitempty"`
	Filter  string      `json:"filter,omitempty" yaml:"filter,omitempty"`
	Preset  string      `json:"preset,omitempty" yaml:"preset,omitempty"`
	Changes []BrushSpec `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// IsAction reports whether the spec is a page action rather than a selection event.
func (s EventSpec) IsAction() bool {
	switch s.Source {
	case ActionSetFilter, ActionShowSelected, ActionScatterPreset:
		return true
	}
	return false
}

// ParseEvent turns a spec into a selection event, resolving axis labels
// against ds. Select-all filters are compiled by the Engine at dispatch.
func ParseEvent(spec EventSpec, ds *dataset.Dataset) (selection.Event, error) {
	src, ok := selection.ParseSource(spec.Source)
	if !ok {
		return nil, fmt.Errorf("%q: %w", spec.Source, ErrUnknownSource)
	}
	switch src {
	case selection.SourceAxisBrush:
		changes := make([]selection.AxisChange, 0, len(spec.Changes))
		for i, c := range spec.Changes {
			axis, err := resolveAxis(c, ds)
			if err != nil {
				return nil, fmt.Errorf("change %d: %w", i, err)
			}
			changes = append(changes, selection.AxisChange{Axis: axis, Range: c.Range})
		}
		return selection.AxisBrushed{Changes: changes}, nil
	case selection.SourceSelectAll:
		return selection.SelectAllToggled{On: spec.On == nil || *spec.On, Expr: spec.Filter}, nil
	case selection.SourceScatterSelect:
		return selection.ScatterSelected{Points: spec.Points}, nil
	case selection.SourceScatterClick:
		return selection.ScatterClicked{Points: spec.Points}, nil
	case selection.SourceParallelSelect:
		return selection.ParallelSelected{Points: spec.Points}, nil
	case selection.SourceParallelClick:
		return selection.ParallelClicked{Points: spec.Points}, nil
	case selection.SourceTableRows:
		rows := spec.Rows
		if rows == nil {
			rows = spec.Points
		}
		return selection.TableRowsSelected{Rows: rows}, nil
	default:
		return nil, fmt.Errorf("%q: %w", spec.Source, ErrUnknownSource)
	}
}

func resolveAxis(c BrushSpec, ds *dataset.Dataset) (int, error) {
	if c.Axis != nil {
		return *c.Axis, nil
	}
	if c.Label == "" {
		return 0, fmt.Errorf("axis or label required")
	}
	col, ok := ds.FieldByLabel(c.Label)
	if !ok {
		if i, err := ds.FieldIndex(c.Label); err == nil {
			col, ok = i, true
		}
	}
	if !ok || col == 0 {
		return 0, fmt.Errorf("%q is not an axis: %w", c.Label, dataset.ErrFieldNotFound)
	}
	return col - 1, nil
}

// ParseEventString parses the compact form used on the command line and in
// the TUI command prompt:
//
//	scatter_click:7
//	table_rows:1,2,3
//	select_all:on | select_all:off
//	axis_brush:0=1.5..3;Heat=-2..2
//	set_filter:row.q_heat > 10
//	show_selected:on
//	scatter_preset:Scatter 2
func ParseEventString(s string) (EventSpec, error) {
	source, arg, _ := strings.Cut(strings.TrimSpace(s), ":")
	source = strings.TrimSpace(source)
	arg = strings.TrimSpace(arg)
	spec := EventSpec{Source: source}

	switch source {
	case ActionSetFilter:
		spec.Filter = arg
	case ActionScatterPreset:
		spec.Preset = arg
	case ActionShowSelected, selection.SourceSelectAll.String():
		on, err := parseSwitch(arg)
		if err != nil {
			return EventSpec{}, err
		}
		spec.On = &on
	case selection.SourceAxisBrush.String():
		changes, err := parseBrushes(arg)
		if err != nil {
			return EventSpec{}, err
		}
		spec.Changes = changes
	default:
		if _, ok := selection.ParseSource(source); !ok {
			return EventSpec{}, fmt.Errorf("%q: %w", source, ErrUnknownSource)
		}
		pts, err := parseInts(arg)
		if err != nil {
			return EventSpec{}, err
		}
		if source == selection.SourceTableRows.String() {
			spec.Rows = pts
		} else {
			spec.Points = pts
		}
	}
	return spec, nil
}

func parseSwitch(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "", "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", arg)
}

func parseInts(arg string) ([]int, error) {
	if arg == "" {
		return []int{}, nil
	}
	parts := strings.Split(arg, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("position %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// parseBrushes reads "axis=lo..hi" terms separated by ';'. An empty range
// ("axis=") clears the axis.
func parseBrushes(arg string) ([]BrushSpec, error) {
	var out []BrushSpec
	for _, term := range strings.Split(arg, ";") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		target, rng, ok := strings.Cut(term, "=")
		if !ok {
			return nil, fmt.Errorf("brush %q: want axis=lo..hi", term)
		}
		b := BrushSpec{}
		target = strings.TrimSpace(target)
		if n, err := strconv.Atoi(target); err == nil {
			b.Axis = &n
		} else {
			b.Label = target
		}
		rng = strings.TrimSpace(rng)
		if rng != "" {
			loS, hiS, ok := strings.Cut(rng, "..")
			if !ok {
				return nil, fmt.Errorf("brush %q: want lo..hi", term)
			}
			lo, err := strconv.ParseFloat(strings.TrimSpace(loS), 64)
			if err != nil {
				return nil, fmt.Errorf("brush %q: %w", term, err)
			}
			hi, err := strconv.ParseFloat(strings.TrimSpace(hiS), 64)
			if err != nil {
				return nil, fmt.Errorf("brush %q: %w", term, err)
			}
			b.Range, err = selection.RangeFromAny([]any{lo, hi})
			if err != nil {
				return nil, err
			}
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("axis_brush needs at least one axis=lo..hi term")
	}
	return out, nil
}

// Apply runs a spec against a page: actions update page state, everything
// else goes through Dispatch.
func (e *Engine) Apply(ctx context.Context, name string, prior Snapshot, spec EventSpec) (Snapshot, error) {
	switch spec.Source {
	case ActionSetFilter:
		return e.SetFilter(name, prior, spec.Filter)
	case ActionShowSelected:
		return e.SetShowSelectedOnly(prior, spec.On == nil || *spec.On), nil
	case ActionScatterPreset:
		return e.SetScatterPreset(name, prior, spec.Preset)
	}
	p, err := e.Page(name)
	if err != nil {
		return prior, err
	}
	ev, err := ParseEvent(spec, p.Dataset)
	if err != nil {
		return prior, err
	}
	return e.Dispatch(ctx, name, prior, ev)
}
