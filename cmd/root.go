package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oakwood-commons/sweepview/internal/formatter"
	"github.com/oakwood-commons/sweepview/internal/limiter"
	"github.com/oakwood-commons/sweepview/pkg/logger"
	"github.com/oakwood-commons/sweepview/pkg/settings"
)

const defaultFallbackTermWidth = 120

var (
	configFile string
	logLevel   string
	pageName   string
	output     string
	noColor    bool
	quiet      bool

	filterExpr    string
	tablePage     int
	allRows       bool
	limitRecords  int
	offsetRecords int
	tailRecords   int
)

var (
	stdinIsPiped  = func() bool { stat, _ := os.Stdin.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	stdoutIsPiped = func() bool { stat, _ := os.Stdout.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	termGetSize   = term.GetSize
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName + " [dataset]",
	Short: "sweepview - linked table, parallel axes and scatter views over simulation sweeps",
	Long: `sweepview explores building-energy simulation sweeps. A selection made in
the table, on the parallel axes or in the scatter plot is reconciled into one
selected-row set and projected back into all three views.

Without a subcommand the active page's table view is printed. The dataset
argument overrides the page's configured dataset; "-" reads it from stdin.`,
	Example: "\n  sweepview\n  sweepview --page optimized -o yaml\n  sweepview runs.csv --filter 'row.total_idealCooling > 5000' --all\n  sweepview replay events.yaml --trace\n  sweepview explore\n",
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := parseLogLevel(logLevel)
		if err != nil {
			return err
		}
		if !settings.IsValidOutputFormat(output) {
			return fmt.Errorf("invalid --output %q (expected one of %v)", output, settings.ValidOutputFormats)
		}
		run := settings.NewCliParams()
		run.MinLogLevel = level
		run.Page = pageName
		run.Output = settings.OutputFormat(output)
		run.NoColor = noColor || os.Getenv("NO_COLOR") != "" || stdoutIsPiped()
		run.IsQuiet = quiet

		lgr := logger.Get(level)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = logger.WithLogger(ctx, lgr)
		cmd.SetContext(settings.IntoContext(ctx, run))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		lim := limiter.Config{Limit: limitRecords, Offset: offsetRecords, Tail: tailRecords}
		if err := lim.Validate(); err != nil {
			return fmt.Errorf("record limiting: %w", err)
		}
		datasetPath := ""
		if len(args) == 1 {
			datasetPath = args[0]
		}
		return runTable(cmd.Context(), cmd.OutOrStdout(), tableOptions{
			ConfigPath:  resolveConfigPath(configFile),
			DatasetPath: datasetPath,
			Filter:      filterExpr,
			TablePage:   tablePage,
			All:         allRows,
			Limit:       lim,
			Width:       detectTerminalWidth(),
			Stdin:       cmd.InOrStdin(),
		})
	},
	SilenceUsage: true,
}

// tableOptions drives the default command.
type tableOptions struct {
	ConfigPath  string
	DatasetPath string
	Filter      string
	TablePage   int
	All         bool
	Limit       limiter.Config
	Width       int
	Stdin       io.Reader
}

// runTable prints the rows the dashboard table shows for the active page.
func runTable(ctx context.Context, w io.Writer, opts tableOptions) error {
	run := settings.FromContextOrDefault(ctx)
	cfg, err := loadMergedConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	sess, err := openSession(ctx, cfg, run.Page, opts.DatasetPath, opts.Stdin)
	if err != nil {
		return err
	}
	snap := sess.Initial
	if strings.TrimSpace(opts.Filter) != "" {
		if snap, err = sess.Engine.SetFilter(sess.Page.Name, snap, opts.Filter); err != nil {
			return err
		}
	}

	var rows []int
	pageInfo := ""
	switch {
	case opts.Limit.IsActive():
		all, err := sess.Engine.TableRows(sess.Page.Name, snap)
		if err != nil {
			return err
		}
		rows = limiter.Apply(opts.Limit, all)
		pageInfo = fmt.Sprintf("%d of %d rows", len(rows), len(all))
	case opts.All:
		if rows, err = sess.Engine.TableRows(sess.Page.Name, snap); err != nil {
			return err
		}
		pageInfo = fmt.Sprintf("%d rows", len(rows))
	default:
		all, err := sess.Engine.TableRows(sess.Page.Name, snap)
		if err != nil {
			return err
		}
		size := sess.Config.PageSize
		page := limiter.ClampPage(opts.TablePage, len(all), size)
		rows = limiter.Apply(limiter.ForPage(page, size), all)
		pageInfo = fmt.Sprintf("page %d/%d", page+1, limiter.PageCount(len(all), size))
	}
	logger.FromContext(ctx).V(1).Info("table view", logger.PageKey, sess.Page.Name, "rows", len(rows), "filter", snap.Filter)

	return printRows(w, run, sess, rows, nil, opts.Width, pageInfo)
}

// printRows writes rows in the run's output format. selected marks
// highlighted rows in table output.
func printRows(w io.Writer, run *settings.Run, sess *session, rows []int, selected map[int]bool, width int, caption string) error {
	switch run.Output {
	case settings.OutputCSV:
		return writeCSV(w, sess, rows)
	case settings.OutputYAML, settings.OutputJSON, settings.OutputTOML:
		return formatter.Encode(w, run.Output, formatter.Records(sess.Dataset, rows))
	}
	table := formatter.NewDatasetTable(sess.Dataset, rows, selected)
	fmt.Fprint(w, table.Render(formatter.ColumnarOptions{
		NoColor:        run.NoColor,
		TotalWidth:     width,
		HighlightStyle: sess.Config.Style,
	}))
	if caption != "" && !run.IsQuiet {
		fmt.Fprintf(w, "%s · %s (%s)\n", sess.Page.Name, caption, formatter.Positions(rows))
	}
	return nil
}

func init() { //nolint:gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "path to a YAML config file (pages, theme)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error or a zap level number")
	rootCmd.PersistentFlags().StringVarP(&pageName, "page", "p", "", "dashboard page (default: first configured page)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", string(settings.OutputTable), "output format: table|yaml|json|toml|csv")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress captions and progress lines")

	rootCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "CEL table filter over 'row', e.g. 'row.total_idealCooling > 5000'")
	rootCmd.Flags().IntVar(&tablePage, "table-page", 0, "zero-based table page to print")
	rootCmd.Flags().BoolVar(&allRows, "all", false, "print every row instead of one table page")
	rootCmd.Flags().IntVar(&limitRecords, "limit", 0, "Limit total number of rows displayed")
	rootCmd.Flags().IntVar(&offsetRecords, "offset", 0, "Skip the first N rows")
	rootCmd.Flags().IntVar(&tailRecords, "tail", 0, "Show the last N rows (mutually exclusive with --limit; ignores --offset)")

	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd, configCmd, replayCmd, exploreCmd, serveCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// parseLogLevel maps a level name or number to a zap level.
func parseLogLevel(s string) (int8, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return 0, nil
	case "debug":
		return -1, nil
	case "warn", "warning":
		return 1, nil
	case "error":
		return 2, nil
	}
	n, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid --log-level %q", s)
	}
	return int8(n), nil
}

// resolveConfigPath returns the explicit configFile if set, otherwise the XDG path
// ($XDG_CONFIG_HOME/sweepview/config.yaml) or ~/.config/sweepview/config.yaml if present.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	candidate := ""
	if xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

func detectTerminalSize() (int, int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := termGetSize(int(fd)); err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			return w, 0
		}
	}
	return defaultFallbackTermWidth, 0
}

func detectTerminalWidth() int {
	w, _ := detectTerminalSize()
	return w
}
