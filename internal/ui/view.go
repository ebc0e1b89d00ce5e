package ui

import (
	"fmt"
	"math"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/sweepview/internal/ui/table"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

const (
	minWidth   = 60
	minHeight  = 16
	barWidth   = 16
	chromeRows = 4 // header, input, status, footer
)

type panelSize struct{ w, h int }

// layout splits the window into the table column and the axes/scatter column.
func (m *Model) layout() {
	w, h := max(m.width, minWidth), max(m.height, minHeight)
	body := h - chromeRows
	tableW := w * 3 / 5
	// border (2) + title (1)
	m.table.SetSize(tableW-2, max(body-3, 3))
}

func (m *Model) sizes() (tbl, axes, scatter panelSize) {
	w, h := max(m.width, minWidth), max(m.height, minHeight)
	body := h - chromeRows
	tableW := w * 3 / 5
	rightW := w - tableW
	axesH := min(len(m.snap.Axes)+3, body/2)
	return panelSize{tableW, body}, panelSize{rightW, axesH}, panelSize{rightW, body - axesH}
}

// Render draws the whole dashboard as a string.
func (m *Model) Render() string {
	tableSize, axesSize, scatterSize := m.sizes()
	var body string
	if m.helpVisible {
		body = m.box(false, tableSize.w+axesSize.w, tableSize.h, "Help", HelpText())
	} else {
		right := lipgloss.JoinVertical(lipgloss.Left,
			m.box(m.focus == panelAxes, axesSize.w, axesSize.h, m.axesTitle(), m.renderAxes(axesSize)),
			m.box(m.focus == panelScatter, scatterSize.w, scatterSize.h, m.scatterTitle(), m.renderScatter(scatterSize)),
		)
		left := m.box(m.focus == panelTable, tableSize.w, tableSize.h, m.tableTitle(), m.table.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatus(),
		m.renderFooter(),
	)
}

// box frames content with a title line inside a rounded border.
func (m *Model) box(focused bool, w, h int, title, content string) string {
	innerW, innerH := max(w-2, 1), max(h-2, 1)
	if focused {
		title = "▸ " + title
	}
	lines := append([]string{title}, strings.Split(strings.TrimRight(content, "\n"), "\n")...)
	if len(lines) > innerH {
		lines = lines[:innerH]
	}
	for i, l := range lines {
		if lipgloss.Width(l) > innerW {
			lines[i] = ansi.Truncate(l, innerW, "…")
		}
	}
	st := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Width(w).Height(h)
	if !m.noColor {
		border := m.theme.Border
		if focused {
			border = m.theme.SelectedBG
		}
		st = st.BorderForeground(border)
	}
	return st.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderHeader() string {
	route := m.page.Config.Route
	if route == "" {
		route = "-"
	}
	text := fmt.Sprintf(" %s · %s (%s)   selected %d/%d", m.appName, m.page.Config.Name, route,
		len(m.snap.Selected), m.page.Dataset.Len())
	if m.snap.Filter != "" {
		text += "   filter: " + m.snap.Filter
	}
	text = padTo(text, max(m.width, minWidth))
	if m.noColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderFG).Background(m.theme.HeaderBG).Render(text)
}

func (m *Model) tableTitle() string {
	title := fmt.Sprintf("Table  page %d/%d", m.tablePage+1, max(m.pageCount, 1))
	if m.snap.ShowSelectedOnly {
		title += "  [selected only]"
	} else if n := m.table.Marked(); n > 0 {
		title += fmt.Sprintf("  %s %d", table.Marker, n)
	}
	if m.selectAll {
		title += "  [all filtered]"
	}
	return title
}

func (m *Model) axesTitle() string {
	reset := m.page.Config.ResetAxis
	if reset >= 0 && reset < len(m.snap.Axes) {
		return fmt.Sprintf("Parallel axes  reset: %s", m.snap.Axes[reset].Label)
	}
	return "Parallel axes"
}

func (m *Model) scatterTitle() string {
	preset, err := m.page.Preset(m.snap.ScatterPreset)
	if err != nil {
		return "Scatter"
	}
	return fmt.Sprintf("%s  x: %s  y: %s", preset.Name,
		dataset.Label(strings.TrimSpace(preset.X)), dataset.Label(strings.TrimSpace(preset.Y)))
}

// renderAxes lists the axes around the cursor with their constraint and a
// bar showing the constrained span of numeric axes.
func (m *Model) renderAxes(size panelSize) string {
	axes := m.snap.Axes
	visible := max(size.h-3, 1)
	start := 0
	if m.axisCursor >= visible {
		start = m.axisCursor - visible + 1
	}
	labelW := 0
	for _, a := range axes {
		labelW = max(labelW, runewidth.StringWidth(a.Label))
	}
	labelW = min(labelW, 18)

	var b strings.Builder
	for i := start; i < len(axes) && i < start+visible; i++ {
		a := axes[i]
		cursor := "  "
		if m.focus == panelAxes && i == m.axisCursor {
			cursor = "› "
		}
		line := cursor + padTo(runewidth.Truncate(a.Label, labelW, "…"), labelW) + " " + m.axisBar(i) + " " + a.Range.String()
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) axisBar(axis int) string {
	if axis >= len(m.axisStats) || !m.axisStats[axis].numeric {
		return strings.Repeat(" ", barWidth)
	}
	st := m.axisStats[axis]
	r := m.snap.Axes[axis].Range
	var b strings.Builder
	for i := 0; i < barWidth; i++ {
		v := st.min
		if st.max > st.min {
			v = st.min + (float64(i)+0.5)/barWidth*(st.max-st.min)
		}
		cell := "─"
		if r.IsSet() && r.Contains(dataset.NumberValue(v)) {
			cell = "━"
			if !m.noColor {
				cell = lipgloss.NewStyle().Foreground(m.theme.Axis).Render(cell)
			}
		}
		b.WriteString(cell)
	}
	return b.String()
}

// renderScatter plots every row of the active preset, drawing the selected
// points over the rest.
func (m *Model) renderScatter(size panelSize) string {
	w, h := max(size.w-4, 8), max(size.h-3, 3)
	if len(m.allPoints) == 0 {
		return "no numeric points"
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range m.allPoints {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	cellOf := func(x, y float64) (int, int) {
		cx, cy := 0, h-1
		if maxX > minX {
			cx = int((x - minX) / (maxX - minX) * float64(w-1))
		}
		if maxY > minY {
			cy = h - 1 - int((y-minY)/(maxY-minY)*float64(h-1))
		}
		return cx, cy
	}

	grid := make([][]rune, h)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", w))
	}
	for _, p := range m.allPoints {
		x, y := cellOf(p.X, p.Y)
		grid[y][x] = '·'
	}
	for _, p := range m.snap.ScatterPoints {
		x, y := cellOf(p.X, p.Y)
		grid[y][x] = '●'
	}

	dot := lipgloss.NewStyle().Foreground(m.theme.Point)
	sel := lipgloss.NewStyle().Foreground(m.theme.SelectedBG).Bold(true)
	var b strings.Builder
	for _, row := range grid {
		line := string(row)
		if !m.noColor {
			var lb strings.Builder
			for _, r := range row {
				switch r {
				case '·':
					lb.WriteString(dot.Render(string(r)))
				case '●':
					lb.WriteString(sel.Render(string(r)))
				default:
					lb.WriteRune(r)
				}
			}
			line = lb.String()
		}
		b.WriteString("│" + line + "\n")
	}
	b.WriteString("└" + strings.Repeat("─", w) + "\n")
	return b.String()
}

func (m *Model) renderInput() string {
	switch m.inputMode {
	case inputFilter:
		return "filter> " + m.input.View()
	case inputBrush:
		label := ""
		if m.axisCursor < len(m.snap.Axes) {
			label = m.snap.Axes[m.axisCursor].Label
		}
		return fmt.Sprintf("brush %s (lo..hi)> %s", label, m.input.View())
	}
	return ""
}

func (m *Model) renderStatus() string {
	status := runewidth.Truncate(m.status, max(m.width, minWidth), "…")
	if status == "" || m.noColor {
		return status
	}
	c := m.theme.Status
	if m.statusErr {
		c = m.theme.StatusErr
	}
	return lipgloss.NewStyle().Foreground(c).Render(status)
}

func (m *Model) renderFooter() string {
	var hints string
	switch {
	case m.inputMode != inputNone:
		hints = "enter apply · esc cancel"
	case m.helpVisible:
		hints = "? close help"
	case m.focus == panelAxes:
		hints = "j/k axis · b brush · x clear · c click · tab panel · ? help · q quit"
	case m.focus == panelScatter:
		hints = "h/l preset · enter select · c click · tab panel · ? help · q quit"
	default:
		hints = "j/k row · h/l page · space toggle · a all · / filter · s selected only · tab panel · ? help · q quit"
	}
	hints = runewidth.Truncate(hints, max(m.width, minWidth), "…")
	if m.noColor {
		return hints
	}
	return lipgloss.NewStyle().Foreground(m.theme.Status).Faint(true).Render(hints)
}

func padTo(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
