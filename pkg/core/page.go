package core

import (
	"context"
	"fmt"

	"github.com/oakwood-commons/sweepview/internal/projection"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
	"github.com/oakwood-commons/sweepview/pkg/logger"
)

// ScatterPreset names an x/y field pair for the scatter plot.
type ScatterPreset struct {
	Name string `json:"name" yaml:"name"`
	X    string `json:"x" yaml:"x"`
	Y    string `json:"y" yaml:"y"`
}

// PageConfig describes one dashboard page.
type PageConfig struct {
	Name           string
	Route          string
	ResetAxis      int
	PageSize       int
	Style          projection.Style
	ScatterPresets []ScatterPreset
	DefaultScatter string
}

// NumericFields lists the scatter fields that must be coerced to numbers
// when the page dataset is loaded.
func (c PageConfig) NumericFields() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range c.ScatterPresets {
		for _, f := range []string{p.X, p.Y} {
			if f != "" && !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// Page binds a config to its dataset. Pages are read-only once added.
type Page struct {
	Config  PageConfig
	Dataset *dataset.Dataset
	presets []ScatterPreset
}

// Presets returns the usable scatter presets in config order.
func (p *Page) Presets() []ScatterPreset {
	return append([]ScatterPreset(nil), p.presets...)
}

// Preset resolves a preset by name. An empty name means the default.
func (p *Page) Preset(name string) (ScatterPreset, error) {
	if name == "" {
		name = p.Config.DefaultScatter
	}
	for _, sp := range p.presets {
		if sp.Name == name {
			return sp, nil
		}
	}
	if name == p.Config.DefaultScatter && len(p.presets) > 0 {
		return p.presets[0], nil
	}
	return ScatterPreset{}, fmt.Errorf("%q on page %q: %w", name, p.Config.Name, ErrUnknownPreset)
}

func newPage(ctx context.Context, cfg PageConfig, ds *dataset.Dataset) *Page {
	lgr := logger.FromContext(ctx).WithValues(logger.PageKey, cfg.Name)
	if cfg.PageSize <= 0 {
		cfg.PageSize = projection.DefaultPageSize
	}
	if cfg.Style == (projection.Style{}) {
		cfg.Style = projection.DefaultStyle
	}

	p := &Page{Config: cfg, Dataset: ds}
	for _, sp := range cfg.ScatterPresets {
		_, errX := ds.FieldIndex(sp.X)
		_, errY := ds.FieldIndex(sp.Y)
		if errX != nil || errY != nil {
			lgr.Info("dropping scatter preset with missing fields", "preset", sp.Name, "x", sp.X, "y", sp.Y)
			continue
		}
		p.presets = append(p.presets, sp)
	}
	if len(p.presets) == 0 {
		if sp, ok := fallbackPreset(ds); ok {
			p.presets = append(p.presets, sp)
			p.Config.DefaultScatter = sp.Name
		}
	}
	if p.Config.DefaultScatter == "" && len(p.presets) > 0 {
		p.Config.DefaultScatter = p.presets[0].Name
	}
	return p
}

// fallbackPreset plots the first two numeric dimensions.
func fallbackPreset(ds *dataset.Dataset) (ScatterPreset, bool) {
	var picked []string
	for _, f := range ds.Dimensions() {
		if f.Kind == dataset.KindNumeric {
			picked = append(picked, f.Name)
			if len(picked) == 2 {
				return ScatterPreset{Name: "Default", X: picked[0], Y: picked[1]}, true
			}
		}
	}
	return ScatterPreset{}, false
}
