package config

import (
	"github.com/oakwood-commons/sweepview/internal/projection"
	"github.com/oakwood-commons/sweepview/pkg/core"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
	"github.com/oakwood-commons/sweepview/pkg/loader"
)

// DefaultResetAxis is the axis cleared after every non-brush interaction.
const DefaultResetAxis = 3

// PageConfig converts the page into the engine's page description.
func (p Page) PageConfig() core.PageConfig {
	reset := DefaultResetAxis
	if p.ResetAxis != nil {
		reset = *p.ResetAxis
	}
	style := projection.DefaultStyle
	if p.Highlight.Background != "" {
		style.Background = p.Highlight.Background
	}
	if p.Highlight.Color != "" {
		style.Color = p.Highlight.Color
	}
	presets := make([]core.ScatterPreset, 0, len(p.Scatter.Presets))
	for _, sp := range p.Scatter.Presets {
		presets = append(presets, core.ScatterPreset{Name: sp.Name, X: sp.X, Y: sp.Y})
	}
	return core.PageConfig{
		Name:           p.Name,
		Route:          p.Route,
		ResetAxis:      reset,
		PageSize:       p.PageSize,
		Style:          style,
		ScatterPresets: presets,
		DefaultScatter: p.Scatter.Default,
	}
}

// DatasetOptions returns the dataset construction options for the page:
// the identifier field and the one-time numeric coercion of scatter fields.
func (p Page) DatasetOptions() []dataset.Option {
	var opts []dataset.Option
	if p.IDField != "" {
		opts = append(opts, dataset.WithIDField(p.IDField))
	}
	if fields := p.PageConfig().NumericFields(); len(fields) > 0 {
		opts = append(opts, dataset.WithOptionalNumericFields(fields...))
	}
	return opts
}

// LoaderFormat returns the configured dataset format, or auto-detection.
func (p Page) LoaderFormat() loader.Format {
	if p.Format == "" {
		return loader.FormatAuto
	}
	return loader.Format(p.Format)
}
