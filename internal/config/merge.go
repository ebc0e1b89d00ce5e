package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// Load returns the embedded defaults merged with the file at path. An empty
// path yields the defaults alone. Relative dataset paths declared in the file
// are resolved against the file's directory.
func Load(path string) (Config, error) {
	cfg, err := EmbeddedDefault()
	if err != nil {
		return Config{}, err
	}
	return LoadOver(cfg, path)
}

// LoadOver merges the file at path over base and validates the result.
func LoadOver(cfg Config, path string) (Config, error) {
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	user, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	user.resolveDatasets(filepath.Dir(path))
	merged := Merge(cfg, user)
	if err := merged.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return merged, nil
}

func (c *Config) resolveDatasets(dir string) {
	for i := range c.Pages {
		ds := c.Pages[i].Dataset
		if ds != "" && !filepath.IsAbs(ds) {
			c.Pages[i].Dataset = filepath.Join(dir, ds)
		}
	}
}

// Merge overlays the non-zero fields of override onto base. Pages are matched
// by name; unknown pages are appended in override order.
func Merge(base, override Config) Config {
	out := base.Clone()
	if override.App.Name != "" {
		out.App.Name = override.App.Name
	}
	if override.App.Description != "" {
		out.App.Description = override.App.Description
	}
	if override.App.Debug.MaxEvents != nil {
		v := *override.App.Debug.MaxEvents
		out.App.Debug.MaxEvents = &v
	}
	out.UI.Theme = mergeTheme(out.UI.Theme, override.UI.Theme)

	for _, p := range override.Pages {
		idx := out.pageIndex(p.Name)
		if idx < 0 {
			out.Pages = append(out.Pages, p.clone())
			continue
		}
		out.Pages[idx] = mergePage(out.Pages[idx], p)
	}
	return out
}

func mergeTheme(base, o ThemeConfig) ThemeConfig {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&base.HeaderFG, o.HeaderFG)
	pick(&base.HeaderBG, o.HeaderBG)
	pick(&base.SelectedFG, o.SelectedFG)
	pick(&base.SelectedBG, o.SelectedBG)
	pick(&base.Border, o.Border)
	pick(&base.Axis, o.Axis)
	pick(&base.Point, o.Point)
	pick(&base.Status, o.Status)
	pick(&base.StatusErr, o.StatusErr)
	return base
}

func mergePage(base, o Page) Page {
	out := base.clone()
	if o.Route != "" {
		out.Route = o.Route
	}
	if o.Dataset != "" {
		out.Dataset = o.Dataset
	}
	if o.Format != "" {
		out.Format = o.Format
	}
	if o.IDField != "" {
		out.IDField = o.IDField
	}
	if o.ResetAxis != nil {
		v := *o.ResetAxis
		out.ResetAxis = &v
	}
	if o.PageSize != 0 {
		out.PageSize = o.PageSize
	}
	if o.Highlight.Background != "" {
		out.Highlight.Background = o.Highlight.Background
	}
	if o.Highlight.Color != "" {
		out.Highlight.Color = o.Highlight.Color
	}
	if o.Scatter.Default != "" {
		out.Scatter.Default = o.Scatter.Default
	}
	if len(o.Scatter.Presets) > 0 {
		out.Scatter.Presets = append([]Preset(nil), o.Scatter.Presets...)
	}
	return out
}

func (c Config) pageIndex(name string) int {
	for i, p := range c.Pages {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// PageByName returns the named page, or the first page when name is empty.
func (c Config) PageByName(name string) (Page, bool) {
	if name == "" {
		if len(c.Pages) == 0 {
			return Page{}, false
		}
		return c.Pages[0], true
	}
	if i := c.pageIndex(name); i >= 0 {
		return c.Pages[i], true
	}
	return Page{}, false
}

// PageNames lists the configured pages in order.
func (c Config) PageNames() []string {
	out := make([]string, 0, len(c.Pages))
	for _, p := range c.Pages {
		out = append(out, p.Name)
	}
	return out
}

// Validate checks page identity and numeric bounds.
func (c Config) Validate() error {
	var errs []error
	names := map[string]bool{}
	routes := map[string]bool{}
	for i, p := range c.Pages {
		name := strings.TrimSpace(p.Name)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("pages[%d]: name is required", i))
		case names[name]:
			errs = append(errs, fmt.Errorf("pages[%d]: duplicate page name %q", i, name))
		}
		names[name] = true
		if p.Route != "" {
			if routes[p.Route] {
				errs = append(errs, fmt.Errorf("page %q: duplicate route %q", name, p.Route))
			}
			routes[p.Route] = true
		}
		if p.ResetAxis != nil && *p.ResetAxis < 0 {
			errs = append(errs, fmt.Errorf("page %q: reset_axis must be >= 0", name))
		}
		if p.PageSize < 0 {
			errs = append(errs, fmt.Errorf("page %q: page_size must be >= 0", name))
		}
		if err := p.Scatter.validate(); err != nil {
			errs = append(errs, fmt.Errorf("page %q: %w", name, err))
		}
	}
	if c.App.Debug.MaxEvents != nil && *c.App.Debug.MaxEvents < 0 {
		errs = append(errs, errors.New("app.debug.max_events must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (s Scatter) validate() error {
	seen := map[string]bool{}
	for _, p := range s.Presets {
		if p.Name == "" {
			return errors.New("scatter preset name is required")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate scatter preset %q", p.Name)
		}
		seen[p.Name] = true
	}
	if s.Default != "" && len(s.Presets) > 0 && !seen[s.Default] {
		return fmt.Errorf("default scatter preset %q is not defined", s.Default)
	}
	return nil
}
