// Package formatter renders dataset rows and dashboard state for the terminal
// and for machine-readable outputs.
package formatter

import (
	"image/color"
	"os"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

var (
	defaultHeaderFG  = lipgloss.Color("12")
	defaultHeaderBG  = lipgloss.Color("236")
	defaultKeyColor  = lipgloss.Color("14")
	defaultCellColor = lipgloss.Color("248")
	defaultSeparator = lipgloss.Color("240")

	headerStyle    lipgloss.Style
	keyStyle       lipgloss.Style
	cellStyle      lipgloss.Style
	separatorStyle lipgloss.Style
)

// TableColors controls the rendered colors for the formatter table.
// Nil fields fall back to ANSI 256 defaults.
type TableColors struct {
	HeaderFG       color.Color
	HeaderBG       color.Color
	KeyColor       color.Color
	CellColor      color.Color
	SeparatorColor color.Color
}

func applyTableTheme(tc TableColors) {
	pick := func(c, def color.Color) color.Color {
		if c == nil {
			return def
		}
		return c
	}
	headerStyle = lipgloss.NewStyle().Bold(true).
		Foreground(pick(tc.HeaderFG, defaultHeaderFG)).
		Background(pick(tc.HeaderBG, defaultHeaderBG))
	keyStyle = lipgloss.NewStyle().Foreground(pick(tc.KeyColor, defaultKeyColor))
	cellStyle = lipgloss.NewStyle().Foreground(pick(tc.CellColor, defaultCellColor))
	separatorStyle = lipgloss.NewStyle().Foreground(pick(tc.SeparatorColor, defaultSeparator))
}

// SetTableTheme overrides the global table styles.
func SetTableTheme(tc TableColors) {
	applyTableTheme(tc)
}

//nolint:gochecknoinits // initialize default table theme for package consumers
func init() {
	applyTableTheme(TableColors{})
}

var namedColors = map[string]string{
	"white":  "#FFFFFF",
	"black":  "#000000",
	"red":    "#FF0000",
	"green":  "#008000",
	"blue":   "#0000FF",
	"yellow": "#FFFF00",
	"orange": "#FFA500",
	"gray":   "#808080",
	"grey":   "#808080",
}

// ParseColor accepts hex colors, ANSI codes and a handful of CSS color names.
// An empty string yields nil.
func ParseColor(s string) color.Color {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if hex, ok := namedColors[strings.ToLower(s)]; ok {
		s = hex
	}
	return lipgloss.Color(s)
}

// FormatValue renders a cell for display: numbers with three fixed decimals,
// text verbatim, nulls as empty.
func FormatValue(v dataset.Value) string {
	if v.Null {
		return ""
	}
	if v.Kind == dataset.KindNumeric {
		return strconv.FormatFloat(v.Num, 'f', 3, 64)
	}
	return escapeCell(v.Raw)
}

// escapeCell flattens line breaks so table rows stay single-line.
func escapeCell(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\\n")
}

// truncate shortens s to maxLen display cells, ending with "..." when there is room.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 || runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return truncate(s, width)
	}
	return s + strings.Repeat(" ", width-w)
}

func padLeft(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return truncate(s, width)
	}
	return strings.Repeat(" ", width-w) + s
}

// getTerminalWidth returns the terminal width, or a default if detection fails.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}

// RenderKeyValue renders a two-column KEY/VALUE table sized to its content.
// maxWidth limits the table width; 0 disables truncation.
func RenderKeyValue(rows [][]string, noColor bool, maxWidth int) string {
	const sepWidth = 2
	keyWidth, valWidth := len("KEY"), len("VALUE")
	for _, row := range rows {
		if len(row) > 0 {
			keyWidth = max(keyWidth, runewidth.StringWidth(row[0]))
		}
		if len(row) > 1 {
			valWidth = max(valWidth, runewidth.StringWidth(row[1]))
		}
	}
	if maxWidth > 0 && keyWidth+sepWidth+valWidth > maxWidth {
		available := max(maxWidth-sepWidth, 10)
		keyWidth = min(keyWidth, max(available*30/100, 5))
		valWidth = max(available-keyWidth, 5)
	}

	sep := strings.Repeat(" ", sepWidth)
	var b strings.Builder
	header := padRight("KEY", keyWidth) + sep + padRight("VALUE", valWidth)
	line := strings.Repeat("─", keyWidth+sepWidth+valWidth)
	if !noColor {
		header = headerStyle.Render(header)
		line = separatorStyle.Render(line)
	}
	b.WriteString(header + "\n" + line + "\n")
	for _, row := range rows {
		var k, v string
		if len(row) > 0 {
			k = row[0]
		}
		if len(row) > 1 {
			v = row[1]
		}
		k = padRight(escapeCell(k), keyWidth)
		v = truncate(escapeCell(v), valWidth)
		if !noColor {
			k = keyStyle.Render(k)
			v = cellStyle.Render(v)
		}
		b.WriteString(k + sep + v + "\n")
	}
	return b.String()
}
