package cmd

import (
	"fmt"
	"runtime"
	rdebug "runtime/debug"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/sweepview/internal/formatter"
	"github.com/oakwood-commons/sweepview/pkg/settings"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print sweepview version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		run := settings.FromContextOrDefault(cmd.Context())
		switch run.Output {
		case settings.OutputYAML, settings.OutputJSON, settings.OutputTOML:
			return formatter.Encode(cmd.OutOrStdout(), run.Output, buildVersionData())
		}
		fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
		return nil
	},
}

// versionData is the build metadata printed by `sweepview version`.
type versionData struct {
	Name      string `json:"name" yaml:"name" toml:"name"`
	Version   string `json:"version" yaml:"version" toml:"version"`
	Commit    string `json:"commit" yaml:"commit" toml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time" toml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version" toml:"go_version"`
	BuildOS   string `json:"build_os" yaml:"build_os" toml:"build_os"`
	BuildArch string `json:"build_arch" yaml:"build_arch" toml:"build_arch"`
}

// buildVersionData merges the ldflags metadata with what the Go runtime
// recorded at build time.
func buildVersionData() versionData {
	v := versionData{
		Name:      settings.CliBinaryName,
		Version:   settings.VersionInformation.BuildVersion,
		Commit:    settings.VersionInformation.Commit,
		BuildTime: settings.VersionInformation.BuildTime,
		GoVersion: runtime.Version(),
		BuildOS:   runtime.GOOS,
		BuildArch: runtime.GOARCH,
	}
	info, ok := rdebug.ReadBuildInfo()
	if !ok {
		return v
	}
	if info.GoVersion != "" {
		v.GoVersion = info.GoVersion
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.Commit == "unknown" && len(s.Value) >= 7 {
				v.Commit = s.Value[:7]
			}
		case "vcs.time":
			if v.BuildTime == "unknown" {
				v.BuildTime = s.Value
			}
		}
	}
	return v
}

// cliVersionString builds a human-readable version string for CLI output and Cobra's --version flag.
func cliVersionString() string {
	v := buildVersionData()
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", v.Name, v.Version, v.Commit, v.BuildTime, v.GoVersion)
}
