package loader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

func names(ds *dataset.Dataset) []string {
	var out []string
	for _, f := range ds.Fields() {
		out = append(out, f.Name)
	}
	return out
}

func TestDetectSeparator(t *testing.T) {
	tests := []struct {
		header string
		want   rune
	}{
		{"a,b,c", ','},
		{"a;b;c", ';'},
		{"a\tb\tc", '\t'},
		{"a|b|c", '|'},
		{"a;b,c;d", ';'},
		{"single", ','},
		{"", ','},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSeparator(tt.header))
		})
	}
}

func TestLoadCSV(t *testing.T) {
	src := "\ufeffversion; total_idealCooling;glazing;q_heat\nv1;12.5;double;3\nv2;n/a;triple;4\n"
	ds, err := LoadCSV(strings.NewReader(src), dataset.WithNumericFields("total_idealCooling"))
	require.NoError(t, err)

	assert.Equal(t, []string{"version", " total_idealCooling", "glazing", "q_heat"}, names(ds))
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, "version", ds.IDField().Name)
	assert.Equal(t, dataset.KindNumeric, ds.Field(1).Kind)
	assert.True(t, ds.Value(1, 1).Null)
	assert.Equal(t, dataset.KindText, ds.Field(2).Kind)
	assert.Equal(t, 4.0, ds.Value(1, 3).Num)
}

func TestLoadCSVErrors(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("  \n"))
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = LoadCSV(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)
}

func TestLoadStructured(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cols  []string
		rows  int
	}{
		{"json array", `[{"b": 1, "a": "x"}, {"a": "y", "b": 2, "c": true}]`, []string{"ID", "b", "a", "c"}, 2},
		{"ndjson", "{\"b\": 1, \"a\": 2}\n{\"a\": 3, \"b\": 4}\n", []string{"ID", "b", "a"}, 2},
		{"yaml list", "- z: 1\n  y: 2\n- z: 3\n  y: 4\n", []string{"ID", "z", "y"}, 2},
		{"multi doc yaml", "z: 1\n---\nz: 2\n---\nz: 3\n", []string{"ID", "z"}, 3},
		{"wrapped list", "rows:\n  - version: a\n    q: 1\n", []string{"version", "q"}, 1},
		{"columnar", `{"columns": ["q", "version"], "rows": [[1, "a"], [2, "b"]]}`, []string{"q", "version"}, 2},
		{"toml tables", "[[rows]]\nb = 1\na = 2\n\n[[rows]]\nb = 3\na = 4\n", []string{"ID", "a", "b"}, 2},
		{"single record", "a: 1\nb: 2\n", []string{"ID", "a", "b"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := LoadStructured(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.cols, names(ds))
			assert.Equal(t, tt.rows, ds.Len())
		})
	}
}

func TestLoadStructuredErrors(t *testing.T) {
	_, err := LoadStructured("   ")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = LoadStructured(`[1, 2, 3]`)
	assert.ErrorIs(t, err, ErrUnsupportedShape)

	_, err = LoadStructured(`[{"a": {"nested": 1}}]`)
	assert.ErrorIs(t, err, ErrUnsupportedShape)

	_, err = LoadStructured(`"just a string"`)
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestParquetRoundTrip(t *testing.T) {
	src, err := dataset.New(
		[]string{"wall_u", "glazing", "q_heat"},
		[][]any{{0.2, "double", 10.5}, {0.35, nil, nil}, {0.5, "triple", 7.25}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, src, []int{0, 1, 2}))

	ds, err := LoadParquet(context.Background(), bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "wall_u", "glazing", "q_heat"}, names(ds))
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, 0.35, ds.Value(1, 1).Num)
	assert.True(t, ds.Value(1, 2).Null)
	assert.True(t, ds.Value(1, 3).Null)
	assert.Equal(t, "triple", ds.Value(2, 2).String())
	assert.Equal(t, "2", ds.ID(2).String())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	src, err := dataset.New([]string{"version", "x"}, [][]any{{"a", 1.5}, {"b", 2.5}})
	require.NoError(t, err)

	csvPath := filepath.Join(dir, "sweep.csv")
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, src, []int{1}))
	require.NoError(t, os.WriteFile(csvPath, buf.Bytes(), 0o600))

	ds, err := LoadFile(context.Background(), csvPath)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
	assert.Equal(t, "b", ds.ID(0).String())

	pqPath := filepath.Join(dir, "sweep.parquet")
	f, err := os.Create(pqPath)
	require.NoError(t, err)
	require.NoError(t, WriteParquet(f, src, []int{0, 1}))
	require.NoError(t, f.Close())

	ds, err = LoadFile(context.Background(), pqPath)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	ymlPath := filepath.Join(dir, "sweep.yaml")
	require.NoError(t, os.WriteFile(ymlPath, []byte("- version: a\n  x: 1\n"), 0o600))
	ds, err = LoadFile(context.Background(), ymlPath)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())

	_, err = LoadFile(context.Background(), filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFormat("a/b.CSV"))
	assert.Equal(t, FormatParquet, DetectFormat("x.parquet"))
	assert.Equal(t, FormatStructured, DetectFormat("x.json"))
	assert.Equal(t, FormatStructured, DetectFormat("x"))
}
