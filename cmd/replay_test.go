package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/sweepview/pkg/core"
	"github.com/oakwood-commons/sweepview/pkg/loader"
	"github.com/oakwood-commons/sweepview/pkg/settings"
)

type replayResult struct {
	Page          string `json:"page"`
	Source        string `json:"source"`
	Selected      []int  `json:"selected"`
	TablePage     int    `json:"table_page"`
	ScatterPreset string `json:"scatter_preset"`
	Filter        string `json:"filter"`
}

func TestParseEventScript(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		page    string
		sources []string
		wantErr bool
	}{
		{
			name:    "yaml list",
			script:  "- {source: scatter_select, points: [1, 2]}\n- {source: select_all, on: false}\n",
			sources: []string{"scatter_select", "select_all"},
		},
		{
			name:    "json list",
			script:  `[{"source": "table_rows", "rows": [4]}]`,
			sources: []string{"table_rows"},
		},
		{
			name:    "mapping with page",
			script:  "page: runs\nevents:\n  - {source: scatter_click, points: [3]}\n",
			page:    "runs",
			sources: []string{"scatter_click"},
		},
		{
			name:    "line form",
			script:  "# picks\nscatter_click:7\n\n{\"source\": \"show_selected\", \"on\": true}\naxis_brush:0=1..3\n",
			sources: []string{"scatter_click", "show_selected", "axis_brush"},
		},
		{name: "empty", script: "  \n"},
		{name: "comments only", script: "# nothing\n# here\n", wantErr: true},
		{name: "bad line", script: "scatter_click:7\nnot an event\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, events, err := parseEventScript([]byte(tt.script))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.page, page)
			var got []string
			for _, e := range events {
				got = append(got, e.Source)
			}
			assert.Equal(t, tt.sources, got)
		})
	}
}

func TestRunReplay(t *testing.T) {
	cfgPath := writeFixture(t)
	script := filepath.Join(filepath.Dir(cfgPath), "events.yaml")
	require.NoError(t, os.WriteFile(script, []byte(`
- {source: scatter_select, points: [3, 7, 9]}
- {source: scatter_preset, preset: S2}
- {source: table_rows, rows: [7, 9]}
`), 0o600))

	var buf bytes.Buffer
	require.NoError(t, runReplay(runContext("runs", settings.OutputJSON), &buf, replayOptions{
		ConfigPath: cfgPath,
		ScriptPath: script,
		Width:      120,
	}))
	var snap replayResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snap))
	assert.Equal(t, "runs", snap.Page)
	assert.Equal(t, "table_rows", snap.Source)
	assert.Equal(t, []int{7, 9}, snap.Selected)
	assert.Equal(t, 1, snap.TablePage)
	assert.Equal(t, "S2", snap.ScatterPreset)
}

func TestRunReplayCompactEvents(t *testing.T) {
	cfgPath := writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, runReplay(runContext("runs", settings.OutputJSON), &buf, replayOptions{
		ConfigPath: cfgPath,
		Events:     []string{"scatter_click:10,2", "set_filter:row.a > 5"},
		Trace:      true,
	}))
	var trace struct {
		Steps []struct {
			Step     int            `json:"step"`
			Event    core.EventSpec `json:"event"`
			Snapshot replayResult   `json:"snapshot"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &trace))
	require.Len(t, trace.Steps, 2)
	assert.Equal(t, 1, trace.Steps[0].Step)
	assert.Equal(t, []int{10}, trace.Steps[0].Snapshot.Selected)
	assert.Equal(t, 2, trace.Steps[0].Snapshot.TablePage)
	assert.Equal(t, "row.a > 5", trace.Steps[1].Snapshot.Filter)
	assert.Equal(t, []int{10}, trace.Steps[1].Snapshot.Selected)
}

func TestRunReplayPageFromScript(t *testing.T) {
	cfgPath := writeFixture(t)
	stdin := strings.NewReader("page: runs\nevents:\n  - {source: scatter_click, points: [4]}\n")

	var buf bytes.Buffer
	require.NoError(t, runReplay(runContext("", settings.OutputJSON), &buf, replayOptions{
		ConfigPath: cfgPath,
		ScriptPath: "-",
		Stdin:      stdin,
	}))
	var snap replayResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snap))
	assert.Equal(t, "runs", snap.Page)
	assert.Equal(t, []int{4}, snap.Selected)
}

func TestRunReplayErrors(t *testing.T) {
	cfgPath := writeFixture(t)
	ctx := runContext("runs", settings.OutputJSON)
	var buf bytes.Buffer

	err := runReplay(ctx, &buf, replayOptions{ConfigPath: cfgPath, Events: []string{"lasso:1"}})
	require.Error(t, err)

	err = runReplay(ctx, &buf, replayOptions{ConfigPath: cfgPath, Events: []string{"scatter_click:1", "scatter_preset:nope"}})
	require.ErrorIs(t, err, core.ErrUnknownPreset)
	assert.Contains(t, err.Error(), "event 2")

	buf.Reset()
	require.NoError(t, runReplay(ctx, &buf, replayOptions{
		ConfigPath:      cfgPath,
		Events:          []string{"scatter_click:1", "scatter_preset:nope", "table_rows:2,3"},
		ContinueOnError: true,
		Trace:           true,
	}))
	assert.Contains(t, buf.String(), `"error"`)

	err = runReplay(ctx, &buf, replayOptions{ConfigPath: cfgPath, ScriptPath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
}

func TestRunReplayTableOutput(t *testing.T) {
	cfgPath := writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, runReplay(runContext("runs", settings.OutputTable), &buf, replayOptions{
		ConfigPath: cfgPath,
		Events:     []string{"scatter_select:6,8", "axis_brush:0=6..8"},
		Trace:      true,
		Width:      120,
	}))
	out := buf.String()
	assert.Contains(t, out, "#1 scatter_select: 2 selected")
	assert.Contains(t, out, "#2 axis_brush:")
	assert.Contains(t, out, "table page")
	assert.Contains(t, out, "runs · page 2/3")
}

func TestRunReplayExport(t *testing.T) {
	cfgPath := writeFixture(t)
	dir := t.TempDir()

	for _, name := range []string{"picked.csv", "picked.parquet"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			var buf bytes.Buffer
			require.NoError(t, runReplay(runContext("runs", settings.OutputJSON), &buf, replayOptions{
				ConfigPath: cfgPath,
				Events:     []string{"table_rows:1,5,11"},
				ExportPath: path,
			}))
			ds, err := loader.LoadFile(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, 3, ds.Len())
			assert.Equal(t, "version", ds.IDField().Name)
			assert.Equal(t, "v5", ds.ID(1).String())
		})
	}
}

func TestRunReplayExportScatter(t *testing.T) {
	cfgPath := writeFixture(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "scatter.svg")
	var buf bytes.Buffer
	require.NoError(t, runReplay(runContext("runs", settings.OutputJSON), &buf, replayOptions{
		ConfigPath:  cfgPath,
		Events:      []string{"scatter_preset:S2", "table_rows:1,5"},
		ScatterPath: path,
	}))
	img, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(img), "<svg")
	assert.Contains(t, string(img), "S2")

	err = runReplay(runContext("runs", settings.OutputJSON), &buf, replayOptions{
		ConfigPath:  cfgPath,
		ScatterPath: filepath.Join(dir, "scatter.jpg"),
	})
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "scatter.jpg"))
}

func TestRunReplayCSVOutput(t *testing.T) {
	cfgPath := writeFixture(t)
	var buf bytes.Buffer
	require.NoError(t, runReplay(runContext("runs", settings.OutputCSV), &buf, replayOptions{
		ConfigPath: cfgPath,
		Events:     []string{"table_rows:0,2"},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], "v2,"))
}
