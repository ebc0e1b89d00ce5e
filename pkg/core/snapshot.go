package core

import (
	"slices"

	"github.com/oakwood-commons/sweepview/internal/projection"
	"github.com/oakwood-commons/sweepview/internal/selection"
)

// Snapshot is the whole visual state of one page. Hosts keep it between
// calls and hand it back to the Engine; the Engine never retains it.
type Snapshot struct {
	Page             string                 `json:"page" yaml:"page"`
	Source           string                 `json:"source,omitempty" yaml:"source,omitempty"`
	Selected         selection.State        `json:"selected" yaml:"selected"`
	TablePage        int                    `json:"table_page" yaml:"table_page"`
	Highlights       []projection.Highlight `json:"highlights" yaml:"highlights"`
	Axes             []selection.Axis       `json:"axes" yaml:"axes"`
	Scatter          []int                  `json:"scatter" yaml:"scatter"`
	ScatterPreset    string                 `json:"scatter_preset" yaml:"scatter_preset"`
	ScatterPoints    []projection.Point     `json:"scatter_points" yaml:"scatter_points"`
	Filter           string                 `json:"filter,omitempty" yaml:"filter,omitempty"`
	ShowSelectedOnly bool                   `json:"show_selected_only" yaml:"show_selected_only"`
}

// Clone deep-copies every slice.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Selected = s.Selected.Clone()
	out.Highlights = slices.Clone(s.Highlights)
	out.Axes = selection.CloneAxes(s.Axes)
	out.Scatter = slices.Clone(s.Scatter)
	out.ScatterPoints = slices.Clone(s.ScatterPoints)
	return out
}

// ConstrainedAxes returns the axes carrying a range.
func (s Snapshot) ConstrainedAxes() []selection.Axis {
	var out []selection.Axis
	for _, a := range s.Axes {
		if a.Range.IsSet() {
			out = append(out, a)
		}
	}
	return out
}
