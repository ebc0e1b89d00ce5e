package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/sweepview/internal/formatter"
	"github.com/oakwood-commons/sweepview/internal/plot"
	"github.com/oakwood-commons/sweepview/internal/projection"
	"github.com/oakwood-commons/sweepview/pkg/core"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
	"github.com/oakwood-commons/sweepview/pkg/loader"
	"github.com/oakwood-commons/sweepview/pkg/logger"
	"github.com/oakwood-commons/sweepview/pkg/settings"
)

var (
	replayEvents   []string
	replayTrace    bool
	replayDataset  string
	replayExport   string
	replayScatter  string
	replayContinue bool
)

var replayCmd = &cobra.Command{
	Use:   "replay [script]",
	Short: "Apply a script of selection events to a page and print the resulting state",
	Long: `Replay feeds selection events through the same engine the dashboard uses and
prints the resulting snapshot: selected rows, table page and highlights, axis
constraints and scatter points.

A script is a YAML or JSON list of events, a mapping {page: ..., events: [...]},
or one event per line as JSON objects or compact strings. "-" reads stdin.

  - {source: scatter_select, points: [3, 9]}
  - {source: axis_brush, changes: [{label: Total Idealcooling, range: [1000, 2000]}]}
  - {source: select_all, on: false}
  - {source: set_filter, filter: "row.MAPE_cooling < 5"}

Compact strings (also accepted by --event):

  scatter_click:7
  table_rows:1,2,3
  axis_brush:0=1.5..3;Total Idealheating=-2..2
  select_all:on
  show_selected:on
  scatter_preset:Scatter 2`,
	Example: "\n  sweepview replay events.yaml\n  sweepview replay -e scatter_click:7 -e 'axis_brush:0=0..10' --trace -o json\n  sweepview replay events.yaml --export-selected picked.parquet\n  sweepview replay -e scatter_select:1,4,9 --export-scatter scatter.svg\n",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script := ""
		if len(args) == 1 {
			script = args[0]
		}
		if script == "" && len(replayEvents) == 0 {
			return fmt.Errorf("replay needs a script or at least one --event")
		}
		return runReplay(cmd.Context(), cmd.OutOrStdout(), replayOptions{
			ConfigPath:      resolveConfigPath(configFile),
			ScriptPath:      script,
			Events:          replayEvents,
			DatasetPath:     replayDataset,
			Trace:           replayTrace,
			ExportPath:      replayExport,
			ScatterPath:     replayScatter,
			ContinueOnError: replayContinue,
			Width:           detectTerminalWidth(),
			Stdin:           cmd.InOrStdin(),
		})
	},
}

func init() { //nolint:gochecknoinits
	replayCmd.Flags().StringArrayVarP(&replayEvents, "event", "e", nil, "compact event applied after the script (repeatable), e.g. scatter_click:7")
	replayCmd.Flags().BoolVar(&replayTrace, "trace", false, "print the snapshot after every event")
	replayCmd.Flags().StringVar(&replayDataset, "dataset", "", "dataset file overriding the page's configured dataset")
	replayCmd.Flags().StringVar(&replayExport, "export-selected", "", "write the final selected rows to a .csv or .parquet file")
	replayCmd.Flags().StringVar(&replayScatter, "export-scatter", "", "render the final scatter view to a .png or .svg image")
	replayCmd.Flags().BoolVar(&replayContinue, "continue-on-error", false, "log rejected events and keep going")
}

type replayOptions struct {
	ConfigPath      string
	ScriptPath      string
	Events          []string
	DatasetPath     string
	Trace           bool
	ExportPath      string
	ScatterPath     string
	ContinueOnError bool
	Width           int
	Stdin           io.Reader
}

// replayScript is the mapping form of a script.
type replayScript struct {
	Page   string           `yaml:"page"`
	Events []core.EventSpec `yaml:"events"`
}

// replayStep is one traced event and the snapshot it produced.
type replayStep struct {
	Step     int            `json:"step" yaml:"step"`
	Event    core.EventSpec `json:"event" yaml:"event"`
	Snapshot core.Snapshot  `json:"snapshot" yaml:"snapshot"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
}

func runReplay(ctx context.Context, w io.Writer, opts replayOptions) error {
	run := settings.FromContextOrDefault(ctx)
	lgr := logger.FromContext(ctx)
	cfg, err := loadMergedConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	var events []core.EventSpec
	page := run.Page
	if opts.ScriptPath != "" {
		data, err := readScript(opts.ScriptPath, opts.Stdin)
		if err != nil {
			return err
		}
		scriptPage, scripted, err := parseEventScript(data)
		if err != nil {
			return fmt.Errorf("%s: %w", opts.ScriptPath, err)
		}
		if page == "" {
			page = scriptPage
		}
		events = append(events, scripted...)
	}
	for _, s := range opts.Events {
		spec, err := core.ParseEventString(s)
		if err != nil {
			return fmt.Errorf("--event %q: %w", s, err)
		}
		events = append(events, spec)
	}

	var stdin io.Reader
	if opts.ScriptPath != "-" {
		stdin = opts.Stdin
	}
	sess, err := openSession(ctx, cfg, page, opts.DatasetPath, stdin)
	if err != nil {
		return err
	}

	snap := sess.Initial
	steps := make([]replayStep, 0, len(events))
	for i, spec := range events {
		next, err := sess.Engine.Apply(ctx, sess.Page.Name, snap, spec)
		step := replayStep{Step: i + 1, Event: spec}
		if err != nil {
			if !opts.ContinueOnError {
				return fmt.Errorf("event %d (%s): %w", i+1, spec.Source, err)
			}
			lgr.Info("event rejected", logger.EventKey, spec.Source, "step", i+1, "error", err.Error())
			step.Error = err.Error()
			next = snap
		}
		snap = next
		step.Snapshot = snap.Clone()
		steps = append(steps, step)
	}
	lgr.V(1).Info("replay finished", logger.PageKey, sess.Page.Name, "events", len(events), "selected", len(snap.Selected))

	if opts.ExportPath != "" {
		if err := exportRows(opts.ExportPath, sess, snap.Selected); err != nil {
			return err
		}
		if !run.IsQuiet {
			fmt.Fprintf(os.Stderr, "wrote %d selected rows to %s\n", len(snap.Selected), opts.ExportPath)
		}
	}

	if opts.ScatterPath != "" {
		if err := exportScatter(opts.ScatterPath, sess, snap); err != nil {
			return err
		}
		if !run.IsQuiet {
			fmt.Fprintf(os.Stderr, "wrote scatter %q to %s\n", snap.ScatterPreset, opts.ScatterPath)
		}
	}

	switch run.Output {
	case settings.OutputYAML, settings.OutputJSON, settings.OutputTOML:
		if opts.Trace {
			return formatter.Encode(w, run.Output, map[string]any{"steps": steps})
		}
		return formatter.Encode(w, run.Output, snap)
	case settings.OutputCSV:
		return writeCSV(w, sess, snap.Selected)
	}

	if opts.Trace {
		for _, st := range steps {
			status := fmt.Sprintf("%d selected", len(st.Snapshot.Selected))
			if st.Error != "" {
				status = "rejected: " + st.Error
			}
			fmt.Fprintf(w, "#%d %s: %s\n", st.Step, st.Event.Source, status)
		}
		fmt.Fprintln(w)
	}
	return printSnapshot(ctx, w, sess, snap, opts.Width)
}

// printSnapshot renders a snapshot summary followed by the table page it points at.
func printSnapshot(ctx context.Context, w io.Writer, sess *session, snap core.Snapshot, width int) error {
	run := settings.FromContextOrDefault(ctx)
	summary := [][]string{
		{"page", sess.Page.Name},
		{"source", snap.Source},
		{"selected", fmt.Sprintf("%d %s", len(snap.Selected), formatter.Positions(snap.Selected))},
		{"table page", strconv.Itoa(snap.TablePage)},
		{"scatter preset", snap.ScatterPreset},
	}
	if snap.Filter != "" {
		summary = append(summary, []string{"filter", snap.Filter})
	}
	if snap.ShowSelectedOnly {
		summary = append(summary, []string{"show selected only", "true"})
	}
	for _, ax := range snap.ConstrainedAxes() {
		summary = append(summary, []string{fmt.Sprintf("axis %d %s", ax.Index, ax.Label), ax.Range.String()})
	}
	fmt.Fprint(w, formatter.RenderKeyValue(summary, run.NoColor, width))
	fmt.Fprintln(w)

	rows, pages, err := sess.Engine.TablePageRows(sess.Page.Name, snap, snap.TablePage)
	if err != nil {
		return err
	}
	selected := make(map[int]bool, len(snap.Selected))
	for _, r := range snap.Selected {
		selected[r] = true
	}
	return printRows(w, run, sess, rows, selected, width, fmt.Sprintf("page %d/%d", snap.TablePage+1, pages))
}

func readScript(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		if stdin == nil {
			return nil, loader.ErrEmptyInput
		}
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// parseEventScript accepts a YAML/JSON list, a {page, events} mapping, or
// one JSON object or compact string per line. Blank lines and # comments
// are skipped in the line form.
func parseEventScript(data []byte) (string, []core.EventSpec, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil, nil
	}
	var list []core.EventSpec
	if err := yaml.Unmarshal(data, &list); err == nil && list != nil {
		return "", list, nil
	}
	var doc replayScript
	if err := yaml.Unmarshal(data, &doc); err == nil && doc.Events != nil {
		return doc.Page, doc.Events, nil
	}

	var out []core.EventSpec
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "{") {
			var spec core.EventSpec
			if err := yaml.Unmarshal([]byte(line), &spec); err != nil {
				return "", nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			out = append(out, spec)
			continue
		}
		spec, err := core.ParseEventString(line)
		if err != nil {
			return "", nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, spec)
	}
	if len(out) == 0 {
		return "", nil, errors.New("no events found")
	}
	return "", out, nil
}

// exportRows writes rows to path as Parquet (.parquet, .pq) or CSV.
func exportRows(path string, sess *session, rows []int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if loader.DetectFormat(path) == loader.FormatParquet {
		return loader.WriteParquet(f, sess.Dataset, rows)
	}
	return loader.WriteCSV(f, sess.Dataset, rows)
}

// exportScatter renders the scatter view of snap, highlighted points over
// every row, to path.
func exportScatter(path string, sess *session, snap core.Snapshot) (err error) {
	format, err := plot.FormatFromPath(path)
	if err != nil {
		return err
	}
	p, err := sess.Engine.Page(sess.Page.Name)
	if err != nil {
		return err
	}
	preset, err := p.Preset(snap.ScatterPreset)
	if err != nil {
		return err
	}
	all, err := projection.AllPoints(sess.Dataset, preset.X, preset.Y)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return plot.Scatter(f, format, all, snap.ScatterPoints, plot.Options{
		Title:     preset.Name,
		XLabel:    dataset.Label(preset.X),
		YLabel:    dataset.Label(preset.Y),
		Highlight: sess.Config.Style.Background,
	})
}
