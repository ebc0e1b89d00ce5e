// Package settings provides build metadata, runtime configuration, and
// context helpers used across the sweepview CLI and library packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "sweepview"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// OutputFormat names an encoding for command output.
type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputYAML  OutputFormat = "yaml"
	OutputJSON  OutputFormat = "json"
	OutputTOML  OutputFormat = "toml"
	OutputCSV   OutputFormat = "csv"
)

// ValidOutputFormats lists the formats accepted by --output.
var ValidOutputFormats = []OutputFormat{OutputTable, OutputYAML, OutputJSON, OutputTOML, OutputCSV}

// IsValidOutputFormat reports whether s names a supported output format.
func IsValidOutputFormat(s string) bool {
	for _, f := range ValidOutputFormats {
		if string(f) == s {
			return true
		}
	}
	return false
}

// Run holds configuration settings for a single execution of the application:
// logging, which dashboard page is active, output formatting, and error handling.
type Run struct {
	MinLogLevel int8
	Page        string
	Output      OutputFormat
	IsQuiet     bool
	NoColor     bool
	ExitOnError bool
}

// NewCliParams returns the Run defaults used by the command line.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Output:      OutputTable,
		IsQuiet:     false,
		NoColor:     false,
		ExitOnError: true,
	}
}
