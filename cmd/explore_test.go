package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/sweepview/pkg/settings"
)

func TestRunExploreSnapshot(t *testing.T) {
	cfgPath := writeFixture(t)
	record := filepath.Join(t.TempDir(), "session.yaml")

	var buf bytes.Buffer
	require.NoError(t, runExplore(runContext("runs", settings.OutputTable), &buf, exploreOptions{
		ConfigPath: cfgPath,
		RecordPath: record,
		Snapshot:   true,
		Keys:       []string{"<down>", "<enter>"},
		Width:      120,
		Height:     36,
	}))
	out := buf.String()
	assert.Contains(t, out, "sweepview · runs (/runs)")
	assert.Contains(t, out, "selected 1/12")

	data, err := os.ReadFile(record)
	require.NoError(t, err)
	page, events, err := parseEventScript(data)
	require.NoError(t, err)
	assert.Equal(t, "runs", page)
	require.Len(t, events, 1)
	assert.Equal(t, "table_rows", events[0].Source)
	assert.Equal(t, []int{1}, events[0].Rows)
}

func TestRunExploreSnapshotFilter(t *testing.T) {
	cfgPath := writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, runExplore(runContext("runs", settings.OutputTable), &buf, exploreOptions{
		ConfigPath: cfgPath,
		Snapshot:   true,
		Keys:       []string{"/", "row.a > 9", "<enter>"},
		Width:      120,
		Height:     36,
	}))
	out := buf.String()
	assert.Contains(t, out, "v10")
	assert.NotContains(t, out, "v3")
}

func TestRunExploreUnknownPage(t *testing.T) {
	cfgPath := writeFixture(t)
	err := runExplore(runContext("nope", settings.OutputTable), &bytes.Buffer{}, exploreOptions{ConfigPath: cfgPath, Snapshot: true})
	require.Error(t, err)
}

func TestParsePressKeys(t *testing.T) {
	got := parsePressKeys([]string{"<tab>", "b", "1..3", "<Enter>", "a b", "<Escape>", "<s-tab>", "<"})
	want := []string{"tab", "b", "1", ".", ".", "3", "enter", "a", "space", "b", "esc", "shift+tab", "<"}
	assert.Equal(t, want, got)
	assert.Empty(t, parsePressKeys(nil))
}

func TestResolveSnapshotSize(t *testing.T) {
	orig := termGetSize
	t.Cleanup(func() { termGetSize = orig })
	termGetSize = func(int) (int, int, error) { return 0, 0, errors.New("no tty") }
	t.Setenv("COLUMNS", "")

	assert.Equal(t, snapshotSize{Width: 80, Height: 20}, resolveSnapshotSize(80, 20, 0, 0))
	assert.Equal(t, snapshotSize{Width: 100, Height: 40}, resolveSnapshotSize(0, 0, 100, 40))
	assert.Equal(t, snapshotSize{Width: 90, Height: 40}, resolveSnapshotSize(90, 0, 100, 40))
	assert.Equal(t, snapshotSize{Width: defaultFallbackTermWidth, Height: 36}, resolveSnapshotSize(0, 0, 0, 0))
}

func TestGetProgramOptions(t *testing.T) {
	origPiped, origOpen := stdinIsPiped, openTerminalIOFn
	t.Cleanup(func() { stdinIsPiped, openTerminalIOFn = origPiped, origOpen })

	opts, cleanup := getProgramOptions(false)
	assert.Nil(t, opts)
	cleanup()

	stdinIsPiped = func() bool { return true }
	openTerminalIOFn = func() (*os.File, *os.File, error) { return nil, nil, errors.New("no tty") }
	opts, cleanup = getProgramOptions(true)
	assert.Nil(t, opts)
	cleanup()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	openTerminalIOFn = func() (*os.File, *os.File, error) { return r, w, nil }
	opts, cleanup = getProgramOptions(true)
	assert.Len(t, opts, 3)
	cleanup()
}

func TestTerminalDeviceNames(t *testing.T) {
	in, out := terminalDeviceNames("windows")
	assert.Equal(t, "CONIN$", in)
	assert.Equal(t, "CONOUT$", out)
	in, out = terminalDeviceNames("linux")
	assert.Equal(t, "/dev/tty", in)
	assert.Equal(t, "/dev/tty", out)
}
