// Package selection owns the canonical selected-row set and the reconciler
// that derives it from exactly one input event.
package selection

import "slices"

// State is an ordered set of row positions. The zero value is the empty
// selection.
type State []int

// NewState keeps the first occurrence of every position in [0,n) and
// reports how many entries it dropped.
func NewState(positions []int, n int) (State, int) {
	if len(positions) == 0 {
		return State{}, 0
	}
	seen := make(map[int]struct{}, len(positions))
	out := make(State, 0, len(positions))
	for _, p := range positions {
		if p < 0 || p >= n {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, len(positions) - len(out)
}

// Empty reports whether nothing is selected.
func (s State) Empty() bool { return len(s) == 0 }

// Contains reports whether position p is selected.
func (s State) Contains(p int) bool { return slices.Contains(s, p) }

// Clone returns an independent copy. A nil State clones to an empty one.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	return slices.Clone(s)
}

// Set returns the positions as a lookup set.
func (s State) Set() map[int]struct{} {
	m := make(map[int]struct{}, len(s))
	for _, p := range s {
		m[p] = struct{}{}
	}
	return m
}
