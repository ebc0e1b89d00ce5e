package formatter

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/sweepview/internal/projection"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

const (
	sepWidth    = 2
	minColWidth = 3
	maxColWidth = 40
)

// ColumnarOptions configures columnar table rendering.
type ColumnarOptions struct {
	// NoColor disables color output.
	NoColor bool

	// TotalWidth is the total available width. If 0, uses terminal width.
	TotalWidth int

	// RowLabels, when set, adds a leading "#" column with one label per row.
	RowLabels []string

	// Aligns holds per-column alignment, "right" or "left" (default).
	Aligns []string

	// Highlighted marks rows rendered with HighlightStyle.
	Highlighted []bool

	// HighlightStyle is the selected-row style.
	HighlightStyle projection.Style
}

// RenderColumnarTable renders rows under the given column headers.
func RenderColumnarTable(columns []string, rows [][]string, opts ColumnarOptions) string {
	if len(columns) == 0 {
		return ""
	}
	totalWidth := opts.TotalWidth
	if totalWidth <= 0 {
		totalWidth = getTerminalWidth()
	}

	showLabels := len(opts.RowLabels) > 0
	labelWidth := 0
	if showLabels {
		labelWidth = 1
		for _, l := range opts.RowLabels {
			labelWidth = max(labelWidth, runewidth.StringWidth(l))
		}
		totalWidth -= labelWidth + sepWidth
	}
	if opts.NoColor && len(opts.Highlighted) > 0 {
		totalWidth -= 2
	}
	widths := columnWidths(columns, rows, totalWidth)

	hl := highlightStyle(opts.HighlightStyle)
	sep := strings.Repeat(" ", sepWidth)
	var b strings.Builder

	parts := make([]string, 0, len(columns)+1)
	if showLabels {
		parts = append(parts, padRight("#", labelWidth))
	}
	for i, col := range columns {
		parts = append(parts, padRight(col, widths[i]))
	}
	header := strings.Join(parts, sep)
	// Without color, selected rows carry a "* " marker column.
	marker := opts.NoColor && len(opts.Highlighted) > 0
	if marker {
		header = "  " + header
	}
	line := strings.Repeat("─", runewidth.StringWidth(header))
	if !opts.NoColor {
		header = headerStyle.Render(header)
		line = separatorStyle.Render(line)
	}
	b.WriteString(header + "\n" + line + "\n")

	for r, row := range rows {
		highlighted := r < len(opts.Highlighted) && opts.Highlighted[r]
		parts = parts[:0]
		if showLabels {
			label := ""
			if r < len(opts.RowLabels) {
				label = opts.RowLabels[r]
			}
			label = padRight(label, labelWidth)
			if !opts.NoColor && !highlighted {
				label = keyStyle.Render(label)
			}
			parts = append(parts, label)
		}
		for i := range columns {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if i < len(opts.Aligns) && opts.Aligns[i] == "right" {
				val = padLeft(val, widths[i])
			} else {
				val = padRight(val, widths[i])
			}
			if !opts.NoColor && !highlighted {
				val = cellStyle.Render(val)
			}
			parts = append(parts, val)
		}
		rendered := strings.Join(parts, sep)
		switch {
		case highlighted && opts.NoColor:
			rendered = "* " + rendered
		case highlighted:
			rendered = hl.Render(rendered)
		case opts.NoColor && marker:
			rendered = "  " + rendered
		}
		b.WriteString(rendered + "\n")
	}
	return b.String()
}

func highlightStyle(s projection.Style) lipgloss.Style {
	if s == (projection.Style{}) {
		s = projection.DefaultStyle
	}
	st := lipgloss.NewStyle()
	if bg := ParseColor(s.Background); bg != nil {
		st = st.Background(bg)
	}
	if fg := ParseColor(s.Color); fg != nil {
		st = st.Foreground(fg)
	}
	return st
}

// columnWidths fits every column to its content, then caps and shrinks
// proportionally when the table does not fit availableWidth.
func columnWidths(columns []string, rows [][]string, availableWidth int) []int {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = runewidth.StringWidth(col)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(val))
			}
		}
	}

	usable := availableWidth - (len(columns)-1)*sepWidth
	if usable <= 0 || sum(widths) <= usable {
		return widths
	}
	for i := range widths {
		widths[i] = min(widths[i], maxColWidth)
	}
	total := sum(widths)
	if total <= usable {
		return widths
	}
	for i := range widths {
		widths[i] = max(widths[i]*usable/total, minColWidth)
	}
	for sum(widths) > usable {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

func sum(xs []int) int {
	t := 0
	for _, x := range xs {
		t += x
	}
	return t
}

// DatasetTable is a dataset page prepared for RenderColumnarTable.
type DatasetTable struct {
	Columns     []string
	Rows        [][]string
	RowLabels   []string
	Aligns      []string
	Highlighted []bool
}

// NewDatasetTable lays out the given dataset rows with field labels as
// headers. The identifier field becomes the row label column instead of a
// data column.
func NewDatasetTable(ds *dataset.Dataset, rows []int, selected map[int]bool) DatasetTable {
	var t DatasetTable
	var cols []int
	for i, f := range ds.Fields() {
		if i == ds.IDIndex() {
			continue
		}
		cols = append(cols, i)
		t.Columns = append(t.Columns, f.Label)
		align := ""
		if f.Kind == dataset.KindNumeric {
			align = "right"
		}
		t.Aligns = append(t.Aligns, align)
	}
	for _, r := range rows {
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = FormatValue(ds.Value(r, c))
		}
		t.Rows = append(t.Rows, cells)
		t.RowLabels = append(t.RowLabels, ds.ID(r).String())
		t.Highlighted = append(t.Highlighted, selected[r])
	}
	return t
}

// Render draws the table with the given options; layout fields of opts are
// taken from the table.
func (t DatasetTable) Render(opts ColumnarOptions) string {
	opts.RowLabels = t.RowLabels
	opts.Aligns = t.Aligns
	opts.Highlighted = t.Highlighted
	if len(t.Rows) == 0 {
		opts.RowLabels = nil
	}
	return RenderColumnarTable(t.Columns, t.Rows, opts)
}

// Positions formats dataset positions as a compact comma list.
func Positions(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ",")
}
