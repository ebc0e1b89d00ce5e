package ui

import (
	"image/color"
	"sync"

	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/sweepview/internal/config"
	"github.com/oakwood-commons/sweepview/internal/formatter"
)

// Theme defines the dashboard colors.
type Theme struct {
	HeaderFG   color.Color // Title bar text
	HeaderBG   color.Color // Title bar background
	SelectedFG color.Color // Highlighted rows and points
	SelectedBG color.Color
	Border     color.Color // Panel borders
	Axis       color.Color // Constrained part of an axis bar
	Point      color.Color // Unselected scatter points
	Status     color.Color // Status line text
	StatusErr  color.Color // Status line errors
}

var (
	defaultThemeOnce sync.Once
	defaultTheme     Theme
)

// DefaultTheme returns the palette defined in the embedded default configuration.
func DefaultTheme() Theme {
	defaultThemeOnce.Do(func() {
		cfg, err := config.EmbeddedDefault()
		if err != nil {
			defaultTheme = fallbackTheme()
			return
		}
		defaultTheme = ThemeFromConfig(cfg.UI.Theme)
	})
	return defaultTheme
}

// ThemeFromConfig builds a theme from config colors; unset colors come from
// the fallback palette.
func ThemeFromConfig(tc config.ThemeConfig) Theme {
	base := fallbackTheme()
	pick := func(s string, def color.Color) color.Color {
		if c := formatter.ParseColor(s); c != nil {
			return c
		}
		return def
	}
	return Theme{
		HeaderFG:   pick(tc.HeaderFG, base.HeaderFG),
		HeaderBG:   pick(tc.HeaderBG, base.HeaderBG),
		SelectedFG: pick(tc.SelectedFG, base.SelectedFG),
		SelectedBG: pick(tc.SelectedBG, base.SelectedBG),
		Border:     pick(tc.Border, base.Border),
		Axis:       pick(tc.Axis, base.Axis),
		Point:      pick(tc.Point, base.Point),
		Status:     pick(tc.Status, base.Status),
		StatusErr:  pick(tc.StatusErr, base.StatusErr),
	}
}

func fallbackTheme() Theme {
	return Theme{
		HeaderFG:   lipgloss.Color("15"),
		HeaderBG:   lipgloss.Color("236"),
		SelectedFG: lipgloss.Color("15"),
		SelectedBG: lipgloss.Color("208"),
		Border:     lipgloss.Color("240"),
		Axis:       lipgloss.Color("33"),
		Point:      lipgloss.Color("37"),
		Status:     lipgloss.Color("248"),
		StatusErr:  lipgloss.Color("196"),
	}
}
