package selection

import (
	"fmt"

	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

// Source names the widget input that fired.
type Source int

const (
	SourceAxisBrush Source = iota
	SourceSelectAll
	SourceScatterSelect
	SourceScatterClick
	SourceParallelSelect
	SourceParallelClick
	SourceTableRows
)

var sourceNames = [...]string{
	SourceAxisBrush:      "axis_brush",
	SourceSelectAll:      "select_all",
	SourceScatterSelect:  "scatter_select",
	SourceScatterClick:   "scatter_click",
	SourceParallelSelect: "parallel_select",
	SourceParallelClick:  "parallel_click",
	SourceTableRows:      "table_rows",
}

func (s Source) String() string {
	if s < 0 || int(s) >= len(sourceNames) {
		return fmt.Sprintf("Source(%d)", int(s))
	}
	return sourceNames[s]
}

// Sources lists every source in resolution order.
func Sources() []Source {
	return []Source{
		SourceAxisBrush, SourceSelectAll, SourceScatterSelect, SourceScatterClick,
		SourceParallelSelect, SourceParallelClick, SourceTableRows,
	}
}

// ParseSource resolves a source name.
func ParseSource(name string) (Source, bool) {
	for i, n := range sourceNames {
		if n == name {
			return Source(i), true
		}
	}
	return 0, false
}

// Event is the closed set of triggering inputs. Only types in this package
// implement it.
type Event interface {
	Source() Source
	isEvent()
}

// AxisChange sets the range of one parallel-coordinates axis.
type AxisChange struct {
	Axis  int   `json:"axis" yaml:"axis"`
	Range Range `json:"range" yaml:"range"`
}

// AxisBrushed reports range brushing on one or more axes.
type AxisBrushed struct {
	Changes []AxisChange
}

// SelectAllToggled reports the select-all-filtered checkbox. Filter is the
// table's active filter; nil means every row passes. Expr is the filter
// source text, kept for logs.
type SelectAllToggled struct {
	On     bool
	Filter dataset.Predicate
	Expr   string
}

// ScatterSelected reports a lasso or box selection on the scatter plot.
type ScatterSelected struct{ Points []int }

// ScatterClicked reports a click on the scatter plot. Only the first point counts.
type ScatterClicked struct{ Points []int }

// ParallelSelected reports a lasso or box selection on the parallel plot.
type ParallelSelected struct{ Points []int }

// ParallelClicked reports a click on the parallel plot. Only the first point counts.
type ParallelClicked struct{ Points []int }

// TableRowsSelected carries the positions currently checked in the table.
type TableRowsSelected struct{ Rows []int }

func (AxisBrushed) Source() Source       { return SourceAxisBrush }
func (SelectAllToggled) Source() Source  { return SourceSelectAll }
func (ScatterSelected) Source() Source   { return SourceScatterSelect }
func (ScatterClicked) Source() Source    { return SourceScatterClick }
func (ParallelSelected) Source() Source  { return SourceParallelSelect }
func (ParallelClicked) Source() Source   { return SourceParallelClick }
func (TableRowsSelected) Source() Source { return SourceTableRows }

func (AxisBrushed) isEvent()       {}
func (SelectAllToggled) isEvent()  {}
func (ScatterSelected) isEvent()   {}
func (ScatterClicked) isEvent()    {}
func (ParallelSelected) isEvent()  {}
func (ParallelClicked) isEvent()   {}
func (TableRowsSelected) isEvent() {}
