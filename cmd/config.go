package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/sweepview/internal/config"
	"github.com/oakwood-commons/sweepview/pkg/settings"
)

var configDefaults bool

// configCmd prints the merged configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the merged sweepview configuration",
	Long: `Show the configuration in effect: the embedded defaults merged with the
user config file (--config-file, else $XDG_CONFIG_HOME/sweepview/config.yaml or
~/.config/sweepview/config.yaml when present).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		run := settings.FromContextOrDefault(cmd.Context())
		path := resolveConfigPath(configFile)
		if configDefaults {
			path = ""
		}
		cfg, err := loadMergedConfig(path)
		if err != nil {
			return err
		}
		return writeConfig(cmd.OutOrStdout(), run.Output, cfg, run.NoColor, detectTerminalWidth())
	},
}

func init() { //nolint:gochecknoinits
	configCmd.Flags().BoolVar(&configDefaults, "defaults", false, "ignore the user config file and show the embedded defaults")
}

// configuredMaxEvents returns the event history bound from config, or 0 for
// the dashboard default.
func configuredMaxEvents(cfg config.Config) int {
	if cfg.App.Debug.MaxEvents == nil {
		return 0
	}
	return *cfg.App.Debug.MaxEvents
}
