package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

// ErrInvalidRange is returned when a range payload has the wrong shape.
var ErrInvalidRange = errors.New("invalid constraint range")

// RangeKind tags a Range.
type RangeKind int

const (
	// RangeNone restricts nothing.
	RangeNone RangeKind = iota
	// RangeExact matches one value.
	RangeExact
	// RangeIntervals matches values inside any interval.
	RangeIntervals
)

// Interval is a closed numeric interval.
type Interval struct {
	Lo, Hi float64
}

// Contains reports lo <= f <= hi.
func (iv Interval) Contains(f float64) bool { return f >= iv.Lo && f <= iv.Hi }

// Range is the constraint carried by one parallel-coordinates axis.
// On the wire it is null, [v, v] or [[lo, hi], ...].
type Range struct {
	Kind      RangeKind
	Exact     dataset.Value
	Intervals []Interval
}

// NoRange is the unrestricted range.
func NoRange() Range { return Range{} }

// ExactRange matches v only.
func ExactRange(v dataset.Value) Range { return Range{Kind: RangeExact, Exact: v} }

// IntervalRange matches values inside any of ivs. No intervals means no restriction.
func IntervalRange(ivs ...Interval) Range {
	if len(ivs) == 0 {
		return Range{}
	}
	return Range{Kind: RangeIntervals, Intervals: append([]Interval(nil), ivs...)}
}

// IsSet reports whether the range restricts anything.
func (r Range) IsSet() bool { return r.Kind != RangeNone }

// Contains reports whether v passes the range. A multi-interval range
// passes values inside any of its intervals.
func (r Range) Contains(v dataset.Value) bool {
	switch r.Kind {
	case RangeNone:
		return true
	case RangeExact:
		if v.Equal(r.Exact) {
			return true
		}
		if v.Null || r.Exact.Null {
			return false
		}
		a, okA := v.Float()
		b, okB := r.Exact.Float()
		if okA && okB {
			return a == b
		}
		return v.String() == r.Exact.String()
	case RangeIntervals:
		f, ok := v.Float()
		if !ok {
			return false
		}
		for _, iv := range r.Intervals {
			if iv.Contains(f) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Equal compares two ranges structurally.
func (r Range) Equal(o Range) bool {
	if r.Kind != o.Kind {
		return false
	}
	switch r.Kind {
	case RangeExact:
		return r.Exact.Kind == o.Exact.Kind && r.Exact.Null == o.Exact.Null && r.Exact.Raw == o.Exact.Raw
	case RangeIntervals:
		if len(r.Intervals) != len(o.Intervals) {
			return false
		}
		for i := range r.Intervals {
			if r.Intervals[i] != o.Intervals[i] {
				return false
			}
		}
	}
	return true
}

// Any returns the wire shape: nil, [v, v] or [][lo, hi].
func (r Range) Any() any {
	switch r.Kind {
	case RangeExact:
		return []any{r.Exact.Any(), r.Exact.Any()}
	case RangeIntervals:
		out := make([][]float64, len(r.Intervals))
		for i, iv := range r.Intervals {
			out[i] = []float64{iv.Lo, iv.Hi}
		}
		return out
	default:
		return nil
	}
}

func (r Range) String() string {
	switch r.Kind {
	case RangeExact:
		return fmt.Sprintf("[%s, %s]", r.Exact.String(), r.Exact.String())
	case RangeIntervals:
		if len(r.Intervals) == 1 {
			return fmt.Sprintf("[%g, %g]", r.Intervals[0].Lo, r.Intervals[0].Hi)
		}
		return fmt.Sprintf("%d intervals", len(r.Intervals))
	default:
		return "none"
	}
}

// MarshalJSON implements json.Marshaler.
func (r Range) MarshalJSON() ([]byte, error) { return json.Marshal(r.Any()) }

// UnmarshalJSON implements json.Unmarshaler.
func (r *Range) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := RangeFromAny(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Range) MarshalYAML() (any, error) { return r.Any(), nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Range) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := RangeFromAny(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RangeFromAny decodes the wire shape. A flat numeric pair is one interval
// (reversed bounds are swapped); a pair of equal non-numbers is an exact
// match; a list of pairs is a multi-interval range; nil or [] is no range.
func RangeFromAny(v any) (Range, error) {
	switch t := v.(type) {
	case nil:
		return NoRange(), nil
	case Range:
		return t, nil
	case []float64:
		items := make([]any, len(t))
		for i, f := range t {
			items[i] = f
		}
		return RangeFromAny(items)
	case [][]float64:
		items := make([]any, len(t))
		for i, pair := range t {
			items[i] = pair
		}
		return RangeFromAny(items)
	case []any:
		if len(t) == 0 {
			return NoRange(), nil
		}
		if isList(t[0]) {
			ivs := make([]Interval, 0, len(t))
			for i, item := range t {
				iv, err := intervalFromAny(item)
				if err != nil {
					return Range{}, fmt.Errorf("interval %d: %w", i, err)
				}
				ivs = append(ivs, iv)
			}
			return IntervalRange(ivs...), nil
		}
		if len(t) != 2 {
			return Range{}, fmt.Errorf("want a [lo, hi] pair, got %d items: %w", len(t), ErrInvalidRange)
		}
		lo, okLo := toFloat(t[0])
		hi, okHi := toFloat(t[1])
		if okLo && okHi {
			return IntervalRange(ordered(lo, hi)), nil
		}
		a, b := fmt.Sprint(t[0]), fmt.Sprint(t[1])
		if a != b {
			return Range{}, fmt.Errorf("non-numeric bounds %q and %q differ: %w", a, b, ErrInvalidRange)
		}
		return ExactRange(dataset.TextValue(a)), nil
	default:
		return Range{}, fmt.Errorf("unsupported range payload %T: %w", v, ErrInvalidRange)
	}
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []float64:
		return true
	}
	return false
}

func intervalFromAny(v any) (Interval, error) {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []float64:
		for _, f := range t {
			items = append(items, f)
		}
	default:
		return Interval{}, fmt.Errorf("want a [lo, hi] pair, got %T: %w", v, ErrInvalidRange)
	}
	if len(items) != 2 {
		return Interval{}, fmt.Errorf("want a [lo, hi] pair, got %d items: %w", len(items), ErrInvalidRange)
	}
	lo, okLo := toFloat(items[0])
	hi, okHi := toFloat(items[1])
	if !okLo || !okHi {
		return Interval{}, fmt.Errorf("bounds must be numbers: %w", ErrInvalidRange)
	}
	return ordered(lo, hi), nil
}

func ordered(lo, hi float64) Interval {
	if lo > hi {
		lo, hi = hi, lo
	}
	return Interval{Lo: lo, Hi: hi}
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
