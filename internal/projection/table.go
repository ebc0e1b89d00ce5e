package projection

import (
	"fmt"

	"github.com/oakwood-commons/sweepview/internal/selection"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

// DefaultPageSize is the table page length.
const DefaultPageSize = 10

// Style is the colour pair applied to highlighted rows.
type Style struct {
	Background string `json:"background" yaml:"background"`
	Color      string `json:"color" yaml:"color"`
}

// DefaultStyle is orange with white text.
var DefaultStyle = Style{Background: "#F39C12", Color: "white"}

// Highlight marks one selected row, keyed by its identifier.
type Highlight struct {
	Row         int    `json:"row" yaml:"row"`
	Field       string `json:"field" yaml:"field"`
	Value       string `json:"value" yaml:"value"`
	Quoted      bool   `json:"quoted" yaml:"quoted"`
	FilterQuery string `json:"filter_query" yaml:"filter_query"`
	Background  string `json:"background" yaml:"background"`
	Color       string `json:"color" yaml:"color"`
}

// TableView is the highlight and paging output for the table widget.
type TableView struct {
	Highlights []Highlight `json:"highlights" yaml:"highlights"`
	Page       int         `json:"page" yaml:"page"`
}

// Table projects a selection onto the table: one highlight per selected row
// and the page holding the first selected row.
func Table(ds *dataset.Dataset, state selection.State, pageSize int, style Style) TableView {
	idCol := ds.IDIndex()
	idName := ds.IDField().Name
	hl := make([]Highlight, 0, len(state))
	for _, row := range state {
		v := ds.Value(row, idCol)
		h := Highlight{
			Row:        row,
			Field:      idName,
			Value:      v.String(),
			Quoted:     v.Kind == dataset.KindText,
			Background: style.Background,
			Color:      style.Color,
		}
		if h.Quoted {
			h.FilterQuery = fmt.Sprintf("{%s} = '%s'", idName, h.Value)
		} else {
			h.FilterQuery = fmt.Sprintf("{%s} = %s", idName, h.Value)
		}
		hl = append(hl, h)
	}
	return TableView{Highlights: hl, Page: PageOf(state, pageSize)}
}

// PageOf returns state[0] / pageSize, or 0 for an empty selection. A
// non-positive pageSize falls back to DefaultPageSize.
func PageOf(state selection.State, pageSize int) int {
	if len(state) == 0 {
		return 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return state[0] / pageSize
}

// TableRows lists the rows the table shows. With showSelectedOnly the
// selection (possibly empty) replaces the data; otherwise every row is shown.
func TableRows(ds *dataset.Dataset, state selection.State, showSelectedOnly bool) []int {
	if showSelectedOnly {
		return state.Clone()
	}
	rows := make([]int, ds.Len())
	for i := range rows {
		rows[i] = i
	}
	return rows
}
