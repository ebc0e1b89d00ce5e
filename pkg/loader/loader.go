// Package loader reads sweep result files into a dataset.Dataset. CSV,
// Parquet and record-shaped JSON, NDJSON, YAML and TOML are supported.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oakwood-commons/sweepview/pkg/dataset"
	"github.com/oakwood-commons/sweepview/pkg/logger"
)

// Format is an input file format.
type Format string

const (
	FormatAuto    Format = ""
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	// FormatStructured covers JSON, NDJSON, YAML and TOML, told apart by content.
	FormatStructured Format = "structured"
)

// Sentinel errors.
var (
	ErrEmptyInput       = errors.New("empty input")
	ErrUnsupportedShape = errors.New("data is not a table of records")
)

// DetectFormat picks a format from the file extension, falling back to
// structured text sniffing for anything unknown.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	case ".parquet", ".pq":
		return FormatParquet
	default:
		return FormatStructured
	}
}

// LoadFile reads a dataset from disk.
func LoadFile(ctx context.Context, path string, opts ...dataset.Option) (*dataset.Dataset, error) {
	return LoadFileAs(ctx, path, FormatAuto, opts...)
}

// LoadFileAs reads a dataset from disk in the given format.
func LoadFileAs(ctx context.Context, path string, format Format, opts ...dataset.Option) (*dataset.Dataset, error) {
	lgr := logger.FromContext(ctx)
	if format == FormatAuto {
		format = DetectFormat(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ds *dataset.Dataset
	switch format {
	case FormatParquet:
		ds, err = LoadParquet(ctx, f, opts...)
	case FormatCSV:
		ds, err = LoadCSV(f, opts...)
	case FormatStructured:
		var data []byte
		data, err = io.ReadAll(f)
		if err == nil {
			ds, err = LoadStructured(string(data), opts...)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	lgr.V(1).Info("dataset loaded", "path", path, "format", string(format), "rows", ds.Len(), "fields", len(ds.Fields()))
	return ds, nil
}
