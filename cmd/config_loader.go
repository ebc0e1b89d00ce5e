package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/oakwood-commons/sweepview/internal/config"
	"github.com/oakwood-commons/sweepview/internal/formatter"
	"github.com/oakwood-commons/sweepview/pkg/settings"
)

// configLoader centralizes config loading so callers avoid duplicating merge logic.
type configLoader struct {
	defaultConfig func() ([]byte, error)
}

var cfgLoader = configLoader{defaultConfig: loadDefaultConfigYAML}

func loadMergedConfig(cfgPath string) (config.Config, error) {
	return cfgLoader.loadMergedConfig(cfgPath)
}

func loadDefaultConfigYAML() ([]byte, error) {
	data := config.DefaultConfigYAML()
	if len(data) == 0 {
		return nil, fmt.Errorf("embedded default config is empty")
	}
	return data, nil
}

// loadMergedConfig parses the defaults and merges the user file at cfgPath
// over them. An empty cfgPath yields the defaults.
func (l configLoader) loadMergedConfig(cfgPath string) (config.Config, error) {
	defaultData, err := l.defaultConfig()
	if err != nil {
		return config.Config{}, fmt.Errorf("load default config: %w", err)
	}
	base, err := config.Parse(defaultData)
	if err != nil {
		return config.Config{}, fmt.Errorf("decode default config: %w", err)
	}
	if len(base.Pages) == 0 {
		return config.Config{}, fmt.Errorf("default config defines no pages: %w", config.ErrInvalidConfig)
	}
	return config.LoadOver(base, cfgPath)
}

// writeConfig prints cfg honoring the output format. Table output lists the
// pages; csv is not supported for a nested document.
func writeConfig(w io.Writer, format settings.OutputFormat, cfg config.Config, noColor bool, width int) error {
	switch format {
	case settings.OutputYAML, settings.OutputJSON, settings.OutputTOML:
		return formatter.Encode(w, format, cfg)
	case settings.OutputCSV:
		return fmt.Errorf("config cannot be written as csv")
	}

	header := [][]string{
		{"app", cfg.App.Name},
	}
	if cfg.App.Description != "" {
		header = append(header, []string{"description", cfg.App.Description})
	}
	if cfg.App.Debug.MaxEvents != nil {
		header = append(header, []string{"debug.max_events", strconv.Itoa(*cfg.App.Debug.MaxEvents)})
	}
	fmt.Fprint(w, formatter.RenderKeyValue(header, noColor, width))
	fmt.Fprintln(w)

	columns := []string{"PAGE", "ROUTE", "DATASET", "ID FIELD", "RESET AXIS", "PAGE SIZE", "SCATTER"}
	rows := make([][]string, 0, len(cfg.Pages))
	for _, p := range cfg.Pages {
		pc := p.PageConfig()
		idField := p.IDField
		if idField == "" {
			idField = "version"
		}
		pageSize := "-"
		if p.PageSize > 0 {
			pageSize = strconv.Itoa(p.PageSize)
		}
		rows = append(rows, []string{
			p.Name, p.Route, p.Dataset, idField,
			strconv.Itoa(pc.ResetAxis), pageSize,
			fmt.Sprintf("%d presets (default %s)", len(p.Scatter.Presets), p.Scatter.Default),
		})
	}
	fmt.Fprint(w, formatter.RenderColumnarTable(columns, rows, formatter.ColumnarOptions{NoColor: noColor, TotalWidth: width}))
	return nil
}
