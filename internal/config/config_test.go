package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/sweepview/internal/projection"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

func intPtr(v int) *int { return &v }

func TestEmbeddedDefault(t *testing.T) {
	cfg, err := EmbeddedDefault()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sweepview", cfg.App.Name)
	require.NotNil(t, cfg.App.Debug.MaxEvents)
	assert.Equal(t, 200, *cfg.App.Debug.MaxEvents)
	assert.Equal(t, []string{"all", "optimized"}, cfg.PageNames())

	opt, ok := cfg.PageByName("optimized")
	require.True(t, ok)
	assert.Equal(t, "/legofit2", opt.Route)
	require.NotNil(t, opt.ResetAxis)
	assert.Equal(t, 3, *opt.ResetAxis)
	require.Len(t, opt.Scatter.Presets, 4)
	assert.Equal(t, " total_idealCooling", opt.Scatter.Presets[0].X)
	assert.Equal(t, "MAPE_heating", opt.Scatter.Presets[3].Y)
}

func TestEmbeddedDefaultReturnsCopy(t *testing.T) {
	a, err := EmbeddedDefault()
	require.NoError(t, err)
	a.Pages[0].Name = "mutated"
	*a.Pages[0].ResetAxis = 9

	b, err := EmbeddedDefault()
	require.NoError(t, err)
	assert.Equal(t, "all", b.Pages[0].Name)
	assert.Equal(t, 3, *b.Pages[0].ResetAxis)

	raw := DefaultConfigYAML()
	raw[0] = '#'
	assert.NotEqual(t, raw[0], DefaultConfigYAML()[0])
}

func TestMerge(t *testing.T) {
	base := Config{
		App: AppConfig{Name: "sweepview"},
		UI:  UIConfig{Theme: ThemeConfig{HeaderFG: "#fff", Border: "#111"}},
		Pages: []Page{
			{Name: "all", Route: "/", Dataset: "a.csv", ResetAxis: intPtr(3), PageSize: 10,
				Scatter: Scatter{Default: "S1", Presets: []Preset{{Name: "S1", X: "x", Y: "y"}}}},
		},
	}
	override := Config{
		UI: UIConfig{Theme: ThemeConfig{Border: "#222"}},
		Pages: []Page{
			{Name: "all", ResetAxis: intPtr(0), Highlight: Highlight{Color: "black"}},
			{Name: "extra", Dataset: "b.parquet"},
		},
	}

	got := Merge(base, override)
	assert.Equal(t, "sweepview", got.App.Name)
	assert.Equal(t, "#fff", got.UI.Theme.HeaderFG)
	assert.Equal(t, "#222", got.UI.Theme.Border)
	require.Len(t, got.Pages, 2)

	all := got.Pages[0]
	assert.Equal(t, "a.csv", all.Dataset)
	assert.Equal(t, 0, *all.ResetAxis)
	assert.Equal(t, 10, all.PageSize)
	assert.Equal(t, "black", all.Highlight.Color)
	assert.Equal(t, "S1", all.Scatter.Default)
	assert.Equal(t, "extra", got.Pages[1].Name)

	assert.Equal(t, 3, *base.Pages[0].ResetAxis, "base must not be modified")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		pages []Page
		ok    bool
	}{
		{"valid", []Page{{Name: "a", Route: "/"}, {Name: "b", Route: "/b"}}, true},
		{"missing name", []Page{{Route: "/"}}, false},
		{"duplicate name", []Page{{Name: "a"}, {Name: "a"}}, false},
		{"duplicate route", []Page{{Name: "a", Route: "/"}, {Name: "b", Route: "/"}}, false},
		{"negative reset axis", []Page{{Name: "a", ResetAxis: intPtr(-1)}}, false},
		{"negative page size", []Page{{Name: "a", PageSize: -1}}, false},
		{"unknown default preset", []Page{{Name: "a", Scatter: Scatter{Default: "S9", Presets: []Preset{{Name: "S1"}}}}}, false},
		{"duplicate preset", []Page{{Name: "a", Scatter: Scatter{Presets: []Preset{{Name: "S1"}, {Name: "S1"}}}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Config{Pages: tt.pages}.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  debug:
    max_events: 5
pages:
  - name: all
    dataset: data/sweep.csv
  - name: custom
    dataset: /abs/runs.parquet
    reset_axis: 1
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, *cfg.App.Debug.MaxEvents)
	assert.Equal(t, []string{"all", "optimized", "custom"}, cfg.PageNames())

	all, _ := cfg.PageByName("all")
	assert.Equal(t, filepath.Join(dir, "data", "sweep.csv"), all.Dataset)
	assert.Equal(t, "/", all.Route)
	custom, _ := cfg.PageByName("custom")
	assert.Equal(t, "/abs/runs.parquet", custom.Dataset)

	first, ok := cfg.PageByName("")
	require.True(t, ok)
	assert.Equal(t, "all", first.Name)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("pages: [\n"), 0o600))
	_, err = Load(bad)
	assert.Error(t, err)

	dup := filepath.Join(t.TempDir(), "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("pages:\n  - {name: extra, route: /}\n"), 0o600))
	_, err = Load(dup)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPageConfig(t *testing.T) {
	p := Page{
		Name:      "optimized",
		Route:     "/legofit2",
		PageSize:  20,
		Highlight: Highlight{Color: "black"},
		Scatter: Scatter{Default: "S2", Presets: []Preset{
			{Name: "S1", X: "a", Y: "b"},
			{Name: "S2", X: "b", Y: "c"},
		}},
	}
	pc := p.PageConfig()
	assert.Equal(t, DefaultResetAxis, pc.ResetAxis)
	assert.Equal(t, 20, pc.PageSize)
	assert.Equal(t, projection.Style{Background: projection.DefaultStyle.Background, Color: "black"}, pc.Style)
	assert.Equal(t, "S2", pc.DefaultScatter)
	assert.Equal(t, []string{"a", "b", "c"}, pc.NumericFields())
	assert.Len(t, p.DatasetOptions(), 1)

	p.IDField = "version"
	p.ResetAxis = intPtr(0)
	assert.Equal(t, 0, p.PageConfig().ResetAxis)
	assert.Len(t, p.DatasetOptions(), 2)
}

func TestDatasetOptionsCoercePresetFieldsOnce(t *testing.T) {
	p := Page{Name: "runs", Scatter: Scatter{Presets: []Preset{
		{Name: "S1", X: "lr", Y: "loss"},
		{Name: "S2", X: "lr", Y: "missing"},
	}}}
	ds, err := dataset.New([]string{"version", "lr", "loss", "note"}, [][]any{
		{"v0", "0.1", "n/a", "ok"},
		{"v1", "0.2", "0.5", "12"},
	}, p.DatasetOptions()...)
	require.NoError(t, err)

	assert.Equal(t, dataset.KindNumeric, ds.Field(2).Kind)
	assert.True(t, ds.Value(0, 2).Null)
	f, ok := ds.Value(1, 2).Float()
	require.True(t, ok)
	assert.InDelta(t, 0.5, f, 1e-12)

	assert.Equal(t, dataset.KindText, ds.Field(3).Kind)
	assert.Equal(t, "ok", ds.Value(0, 3).String())
}
