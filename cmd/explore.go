package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/sweepview/internal/ui"
	"github.com/oakwood-commons/sweepview/pkg/logger"
	"github.com/oakwood-commons/sweepview/pkg/settings"
)

var (
	exploreRecord  string
	renderSnapshot bool
	startKeys      []string
	snapshotWidth  int
	snapshotHeight int
)

var (
	openTerminalIOFn = openTerminalIO
	newResizeTicker  = func(d time.Duration) resizeTicker { return realResizeTicker{Ticker: time.NewTicker(d)} }
	sendWindowSize   = func(p *tea.Program, msg tea.WindowSizeMsg) { p.Send(msg) }
)

type resizeTicker interface {
	C() <-chan time.Time
	Stop()
}

type realResizeTicker struct {
	*time.Ticker
}

func (t realResizeTicker) C() <-chan time.Time { return t.Ticker.C }

var exploreCmd = &cobra.Command{
	Use:   "explore [dataset]",
	Short: "Open the interactive dashboard for a page",
	Long: `Explore opens the dashboard in the terminal: the row table, the parallel
axes and the scatter plot, linked through one selection. Press ? for keys.

With --snapshot a single frame is rendered after replaying --press keys, which
is useful for scripts and tests.`,
	Example: "\n  sweepview explore\n  sweepview explore --page optimized --record session.yaml\n  sweepview explore --snapshot --press '<tab>' --press b --press 1..3 --press '<enter>'\n",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		datasetPath := ""
		if len(args) == 1 {
			datasetPath = args[0]
		}
		return runExplore(cmd.Context(), cmd.OutOrStdout(), exploreOptions{
			ConfigPath:  resolveConfigPath(configFile),
			DatasetPath: datasetPath,
			RecordPath:  exploreRecord,
			Snapshot:    renderSnapshot,
			Keys:        startKeys,
			Width:       snapshotWidth,
			Height:      snapshotHeight,
			Stdin:       cmd.InOrStdin(),
		})
	},
}

func init() { //nolint:gochecknoinits
	exploreCmd.Flags().StringVar(&exploreRecord, "record", "", "write the applied events to a replay script on exit")
	exploreCmd.Flags().BoolVar(&renderSnapshot, "snapshot", false, "render a single dashboard frame and exit; honors --width/--height")
	exploreCmd.Flags().StringArrayVar(&startKeys, "press", nil, "Simulate keys on startup. Use <Key> for special keys (e.g. <tab>, <enter>, <esc>, <space>). Literal text types normally.")
	exploreCmd.Flags().IntVar(&snapshotWidth, "width", 0, "dashboard width in columns (default: terminal width)")
	exploreCmd.Flags().IntVar(&snapshotHeight, "height", 0, "dashboard height in rows (default: terminal height)")
}

type exploreOptions struct {
	ConfigPath  string
	DatasetPath string
	RecordPath  string
	Snapshot    bool
	Keys        []string
	Width       int
	Height      int
	Stdin       io.Reader
}

func runExplore(ctx context.Context, w io.Writer, opts exploreOptions) error {
	run := settings.FromContextOrDefault(ctx)
	cfg, err := loadMergedConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	sess, err := openSession(ctx, cfg, run.Page, opts.DatasetPath, opts.Stdin)
	if err != nil {
		return err
	}
	theme := ui.ThemeFromConfig(cfg.UI.Theme)
	uiOpts := ui.Options{
		Context:   ctx,
		Engine:    sess.Engine,
		Page:      sess.Page.Name,
		AppName:   cfg.App.Name,
		Theme:     &theme,
		NoColor:   run.NoColor,
		MaxEvents: configuredMaxEvents(cfg),
		Width:     opts.Width,
		Height:    opts.Height,
	}

	if opts.Snapshot {
		size := resolveSnapshotSize(opts.Width, opts.Height, 0, 0)
		uiOpts.Width, uiOpts.Height = size.Width, size.Height
		m, err := ui.New(uiOpts)
		if err != nil {
			return err
		}
		m.Press(parsePressKeys(opts.Keys)...)
		fmt.Fprintln(w, m.Render())
		return writeRecording(opts.RecordPath, sess.Page.Name, m)
	}

	progOpts, cleanup := getProgramOptions(opts.DatasetPath == "-")
	defer cleanup()
	m, err := ui.Run(uiOpts, progOpts...)
	if m != nil {
		if rerr := writeRecording(opts.RecordPath, sess.Page.Name, m); rerr != nil && err == nil {
			err = rerr
		}
	}
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	logger.FromContext(ctx).V(1).Info("dashboard closed", logger.PageKey, sess.Page.Name, "events", len(m.History()))
	return nil
}

// writeRecording saves the model's event history as a replay script.
func writeRecording(path, page string, m *ui.Model) error {
	if path == "" {
		return nil
	}
	data, err := yaml.Marshal(replayScript{Page: page, Events: m.History()})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

type snapshotSize struct {
	Width  int
	Height int
}

func resolveSnapshotSize(flagWidth, flagHeight, detectedWidth, detectedHeight int) snapshotSize {
	width, height := flagWidth, flagHeight
	if width <= 0 || height <= 0 {
		if detectedWidth <= 0 || detectedHeight <= 0 {
			if w, h := detectTerminalSize(); w > 0 || h > 0 {
				if detectedWidth <= 0 {
					detectedWidth = w
				}
				if detectedHeight <= 0 {
					detectedHeight = h
				}
			}
		}
		if width <= 0 && detectedWidth > 0 {
			width = detectedWidth
		}
		if height <= 0 && detectedHeight > 0 {
			height = detectedHeight
		}
	}
	if width <= 0 {
		width = 120
	}
	if height <= 0 {
		height = 36
	}
	return snapshotSize{Width: width, Height: height}
}

// parsePressKeys splits --press values into key names. <Key> tokens name a
// special key; other text is typed one character at a time.
func parsePressKeys(values []string) []string {
	var keys []string
	for _, v := range values {
		for v != "" {
			if strings.HasPrefix(v, "<") {
				if end := strings.Index(v, ">"); end > 1 {
					keys = append(keys, normalizeKeyName(v[1:end]))
					v = v[end+1:]
					continue
				}
			}
			r := []rune(v)[0]
			if r == ' ' {
				keys = append(keys, "space")
			} else {
				keys = append(keys, string(r))
			}
			v = v[len(string(r)):]
		}
	}
	return keys
}

func normalizeKeyName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "return", "cr":
		return "enter"
	case "escape":
		return "esc"
	case "bs":
		return "backspace"
	case "s-tab", "backtab":
		return "shift+tab"
	case "pageup":
		return "pgup"
	case "pagedown":
		return "pgdown"
	}
	return strings.ReplaceAll(name, "-", "+")
}

// getProgramOptions opens the real terminal when the dataset came in on
// stdin, so keys and resizes still reach the dashboard.
func getProgramOptions(datasetOnStdin bool) ([]tea.ProgramOption, func()) {
	cleanup := func() {}
	if !datasetOnStdin || !stdinIsPiped() {
		return nil, cleanup
	}

	ttyIn, ttyOut, err := openTerminalIOFn()
	if err != nil {
		// /dev/tty is unavailable (e.g. CI); keys will not reach the dashboard.
		return nil, cleanup
	}
	cleanup = func() {
		_ = ttyIn.Close()
		if ttyOut != nil && ttyOut != ttyIn {
			_ = ttyOut.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	opts := []tea.ProgramOption{tea.WithInput(ttyIn)}
	if ttyOut != nil {
		opts = append(opts, tea.WithOutput(ttyOut), withTTYResizeWatcher(ctx, ttyOut))
	}
	return opts, func() {
		cancel()
		cleanup()
	}
}

func openTerminalIO() (*os.File, *os.File, error) {
	in, out := terminalDeviceNames(runtime.GOOS)

	input, err := os.OpenFile(in, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}
	if out == "" || out == in {
		return input, input, nil
	}
	output, err := os.OpenFile(out, os.O_RDWR, 0)
	if err != nil {
		return input, nil, err
	}
	return input, output, nil
}

func terminalDeviceNames(goos string) (input string, output string) {
	if goos == "windows" {
		return "CONIN$", "CONOUT$"
	}
	return "/dev/tty", "/dev/tty"
}

// withTTYResizeWatcher polls the terminal size and sends resize messages when
// signals are unreliable. It stops when ctx is canceled.
func withTTYResizeWatcher(ctx context.Context, out *os.File) tea.ProgramOption {
	return func(p *tea.Program) {
		if ctx == nil || out == nil {
			return
		}
		go func() {
			t := newResizeTicker(250 * time.Millisecond)
			defer t.Stop()

			lastW, lastH := 0, 0
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C():
					w, h, err := termGetSize(int(out.Fd()))
					if err != nil || (w == lastW && h == lastH) {
						continue
					}
					lastW, lastH = w, h
					sendWindowSize(p, tea.WindowSizeMsg{Width: w, Height: h})
				}
			}
		}()
	}
}
