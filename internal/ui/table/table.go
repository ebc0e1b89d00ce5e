// Package table is the dashboard's row table: a bubbles table over typed rows
// with a marker gutter for selected rows and columns fitted to the panel.
package table

import (
	"image/color"

	bubtable "charm.land/bubbles/v2/table"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

type (
	Column = bubtable.Column
	Row    = bubtable.Row
)

// Marker is drawn in the gutter of marked rows.
const Marker = "●"

// minColumnWidth is the narrowest a data column is shrunk to.
const minColumnWidth = 3

// Model shows rows of type V. cells renders a row; marked reports whether
// it gets the gutter marker.
type Model[V any] struct {
	table  bubtable.Model
	styles bubtable.Styles

	rows    []V
	columns []Column // fitted, gutter excluded
	natural []int

	cells  func(V) []string
	marked func(V) bool

	width   int
	noColor bool
	colors  [4]color.Color // header fg/bg, cursor fg/bg
}

// NewModel builds a table. Column widths passed in are the natural widths
// restored whenever the panel is wide enough.
func NewModel[V any](columns []Column, cells func(V) []string, marked func(V) bool) *Model[V] {
	s := bubtable.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Bold(true).
		Padding(0, 1, 0, 0)
	s.Cell = lipgloss.NewStyle().Padding(0, 1, 0, 0)
	s.Selected = s.Selected.Bold(true)

	m := &Model[V]{
		table:  bubtable.New(bubtable.WithFocused(true), bubtable.WithHeight(5), bubtable.WithStyles(s)),
		styles: s,
		cells:  cells,
		marked: marked,
		width:  80,
	}
	m.SetColumns(columns)
	return m
}

// SetRows replaces the rows, clamping the cursor to the new length.
func (m *Model[V]) SetRows(rows []V) {
	m.rows = rows
	out := make([]Row, len(rows))
	for i, r := range rows {
		gutter := " "
		if m.marked != nil && m.marked(r) {
			gutter = Marker
		}
		out[i] = append(Row{gutter}, m.cells(r)...)
	}
	m.table.SetRows(out)
	if n := len(rows); n > 0 && m.table.Cursor() >= n {
		m.table.SetCursor(n - 1)
	}
}

// SetColumns replaces the data columns.
func (m *Model[V]) SetColumns(columns []Column) {
	m.columns = append([]Column(nil), columns...)
	m.natural = make([]int, len(columns))
	for i, c := range columns {
		m.natural[i] = c.Width
	}
	m.fit()
}

// Columns returns the data columns at their fitted widths.
func (m *Model[V]) Columns() []Column { return append([]Column(nil), m.columns...) }

func (m *Model[V]) Rows() []V { return m.rows }

// Marked counts the marked rows currently shown.
func (m *Model[V]) Marked() int {
	n := 0
	for _, r := range m.rows {
		if m.marked != nil && m.marked(r) {
			n++
		}
	}
	return n
}

func (m *Model[V]) Cursor() int { return m.table.Cursor() }
func (m *Model[V]) SetCursor(pos int) { m.table.SetCursor(pos) }
func (m *Model[V]) MoveUp(n int) { m.table.MoveUp(n) }
func (m *Model[V]) MoveDown(n int) { m.table.MoveDown(n) }
func (m *Model[V]) Focused() bool { return m.table.Focused() }
func (m *Model[V]) View() string { return m.table.View() }
func (m *Model[V]) Height() int { return lipgloss.Height(m.View()) }
func (m *Model[V]) Width() int { return lipgloss.Width(m.View()) }
func (m *Model[V]) Focus() { m.table.Focus() }
func (m *Model[V]) Blur() { m.table.Blur() }
func (m *Model[V]) Update(msg tea.Msg) { m.table, _ = m.table.Update(msg) }

// SelectedRow is the row under the cursor, nil on an empty table.
func (m *Model[V]) SelectedRow() *V {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.rows) {
		return nil
	}
	return &m.rows[c]
}

// SetSize resizes the table; height includes the header.
func (m *Model[V]) SetSize(width, height int) {
	m.width = width
	m.table.SetHeight(height)
	m.table.SetWidth(width)
	m.fit()
}

// fit shrinks the widest data column one cell at a time until the gutter and
// every column, each with one cell of padding, fit the width.
func (m *Model[V]) fit() {
	widths := append([]int(nil), m.natural...)
	total := 2
	for _, w := range widths {
		total += w + 1
	}
	for len(widths) > 0 && total > m.width {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColumnWidth {
			break
		}
		widths[widest]--
		total--
	}
	for i := range m.columns {
		m.columns[i].Width = widths[i]
	}
	m.table.SetColumns(append([]Column{{Title: " ", Width: 1}}, m.columns...))
}

// SetNoColor drops theme colors and shows the cursor row reversed.
func (m *Model[V]) SetNoColor(noColor bool) {
	m.noColor = noColor
	m.restyle()
}

// SetColors sets the header and cursor row colors. Nil keeps the default.
func (m *Model[V]) SetColors(headerFG, headerBG, cursorFG, cursorBG color.Color) {
	m.colors = [4]color.Color{headerFG, headerBG, cursorFG, cursorBG}
	m.restyle()
}

func (m *Model[V]) restyle() {
	s := m.styles
	if m.noColor {
		s.Header = s.Header.UnsetForeground().UnsetBackground()
		s.Cell = s.Cell.UnsetForeground().UnsetBackground()
		s.Selected = s.Selected.UnsetForeground().UnsetBackground().Reverse(true)
	} else {
		set := func(st lipgloss.Style, fg, bg color.Color) lipgloss.Style {
			if fg != nil {
				st = st.Foreground(fg)
			}
			if bg != nil {
				st = st.Background(bg)
			}
			return st
		}
		s.Header = set(s.Header, m.colors[0], m.colors[1])
		s.Selected = set(s.Selected, m.colors[2], m.colors[3])
	}
	m.table.SetStyles(s)
}
