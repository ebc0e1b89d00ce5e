package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/sweepview/pkg/settings"
)

const fixtureConfig = `pages:
  - name: runs
    route: /runs
    dataset: runs.csv
    id_field: version
    reset_axis: 3
    page_size: 5
    scatter:
      default: S1
      presets:
        - {name: S1, x: a, y: b}
        - {name: S2, x: a, y: color}
`

// writeFixture writes a 12-row sweep and a config whose "runs" page points at
// it. Returns the config path.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("version,a,b,kind,color\n")
	for i := range 12 {
		kind := "even"
		if i%2 == 1 {
			kind = "odd"
		}
		fmt.Fprintf(&b, "v%d,%d,%d,%s,%.4f\n", i, i, 100-i, kind, float64(i)/12)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "runs.csv"), []byte(b.String()), 0o600))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fixtureConfig), 0o600))
	return cfgPath
}

func runContext(page string, output settings.OutputFormat) context.Context {
	return settings.IntoContext(context.Background(), &settings.Run{
		Page:    page,
		Output:  output,
		NoColor: true,
		IsQuiet: false,
	})
}
