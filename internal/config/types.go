// Package config holds the sweepview configuration file schema, the embedded
// defaults, and the merge rules applied to user overrides.
package config

// Config is the merged configuration: application metadata, terminal theme,
// and the dashboard pages.
type Config struct {
	App   AppConfig `yaml:"app" json:"app" toml:"app"`
	UI    UIConfig  `yaml:"ui" json:"ui" toml:"ui"`
	Pages []Page    `yaml:"pages" json:"pages" toml:"pages"`
}

// AppConfig carries metadata shown in the dashboard header and help.
type AppConfig struct {
	Name        string      `yaml:"name" json:"name" toml:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	Debug       DebugConfig `yaml:"debug" json:"debug" toml:"debug"`
}

// DebugConfig bounds the event history kept by the interactive dashboard.
type DebugConfig struct {
	MaxEvents *int `yaml:"max_events,omitempty" json:"max_events,omitempty" toml:"max_events,omitempty"`
}

// UIConfig holds the interactive dashboard settings.
type UIConfig struct {
	Theme ThemeConfig `yaml:"theme" json:"theme" toml:"theme"`
}

// ThemeConfig lists the dashboard colors as lipgloss color strings.
type ThemeConfig struct {
	HeaderFG   string `yaml:"header_fg,omitempty" json:"header_fg,omitempty" toml:"header_fg,omitempty"`
	HeaderBG   string `yaml:"header_bg,omitempty" json:"header_bg,omitempty" toml:"header_bg,omitempty"`
	SelectedFG string `yaml:"selected_fg,omitempty" json:"selected_fg,omitempty" toml:"selected_fg,omitempty"`
	SelectedBG string `yaml:"selected_bg,omitempty" json:"selected_bg,omitempty" toml:"selected_bg,omitempty"`
	Border     string `yaml:"border,omitempty" json:"border,omitempty" toml:"border,omitempty"`
	Axis       string `yaml:"axis,omitempty" json:"axis,omitempty" toml:"axis,omitempty"`
	Point      string `yaml:"point,omitempty" json:"point,omitempty" toml:"point,omitempty"`
	Status     string `yaml:"status,omitempty" json:"status,omitempty" toml:"status,omitempty"`
	StatusErr  string `yaml:"status_error,omitempty" json:"status_error,omitempty" toml:"status_error,omitempty"`
}

// Page describes one dashboard page and the dataset behind it.
type Page struct {
	Name      string    `yaml:"name" json:"name" toml:"name"`
	Route     string    `yaml:"route,omitempty" json:"route,omitempty" toml:"route,omitempty"`
	Dataset   string    `yaml:"dataset" json:"dataset" toml:"dataset"`
	Format    string    `yaml:"format,omitempty" json:"format,omitempty" toml:"format,omitempty"`
	IDField   string    `yaml:"id_field,omitempty" json:"id_field,omitempty" toml:"id_field,omitempty"`
	ResetAxis *int      `yaml:"reset_axis,omitempty" json:"reset_axis,omitempty" toml:"reset_axis,omitempty"`
	PageSize  int       `yaml:"page_size,omitempty" json:"page_size,omitempty" toml:"page_size,omitempty"`
	Highlight Highlight `yaml:"highlight" json:"highlight" toml:"highlight"`
	Scatter   Scatter   `yaml:"scatter" json:"scatter" toml:"scatter"`
}

// Highlight is the style applied to selected table rows.
type Highlight struct {
	Background string `yaml:"background,omitempty" json:"background,omitempty" toml:"background,omitempty"`
	Color      string `yaml:"color,omitempty" json:"color,omitempty" toml:"color,omitempty"`
}

// Scatter lists the scatter presets of a page.
type Scatter struct {
	Default string   `yaml:"default,omitempty" json:"default,omitempty" toml:"default,omitempty"`
	Presets []Preset `yaml:"presets,omitempty" json:"presets,omitempty" toml:"presets,omitempty"`
}

// Preset is a named x/y field pair.
type Preset struct {
	Name string `yaml:"name" json:"name" toml:"name"`
	X    string `yaml:"x" json:"x" toml:"x"`
	Y    string `yaml:"y" json:"y" toml:"y"`
}
