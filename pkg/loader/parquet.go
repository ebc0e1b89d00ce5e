package loader

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

// LoadParquet reads every row group of a Parquet file through Arrow.
func LoadParquet(ctx context.Context, r parquet.ReaderAtSeeker, opts ...dataset.Option) (*dataset.Dataset, error) {
	pf, err := file.NewParquetReader(r, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}
	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	defer table.Release()

	nCols := int(table.NumCols())
	nRows := int(table.NumRows())
	columns := make([]string, nCols)
	records := make([][]any, nRows)
	for i := range records {
		records[i] = make([]any, nCols)
	}
	for c := 0; c < nCols; c++ {
		columns[c] = table.Schema().Field(c).Name
		row := 0
		for _, chunk := range table.Column(c).Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				records[row][c] = arrowValue(chunk, i)
				row++
			}
		}
	}
	return dataset.New(columns, records, opts...)
}

// arrowValue returns a Go value for one cell: float64, int64, uint64,
// string, bool or nil. Other types fall back to their string form.
func arrowValue(col arrow.Array, pos int) any {
	if col.IsNull(pos) {
		return nil
	}
	switch a := col.(type) {
	case *array.Float64:
		return a.Value(pos)
	case *array.Float32:
		return float64(a.Value(pos))
	case *array.Float16:
		return float64(a.Value(pos).Float32())
	case *array.Int64:
		return a.Value(pos)
	case *array.Int32:
		return int64(a.Value(pos))
	case *array.Int16:
		return int64(a.Value(pos))
	case *array.Int8:
		return int64(a.Value(pos))
	case *array.Uint64:
		return a.Value(pos)
	case *array.Uint32:
		return uint64(a.Value(pos))
	case *array.Uint16:
		return uint64(a.Value(pos))
	case *array.Uint8:
		return uint64(a.Value(pos))
	case *array.String:
		return a.Value(pos)
	case *array.LargeString:
		return a.Value(pos)
	case *array.Binary:
		return string(a.Value(pos))
	case *array.Boolean:
		return a.Value(pos)
	default:
		return col.ValueStr(pos)
	}
}

// WriteParquet writes the given rows of ds as a Snappy-compressed Parquet
// file. Numeric fields become nullable float64 columns, text fields
// nullable strings.
func WriteParquet(w io.Writer, ds *dataset.Dataset, rows []int) error {
	fields := ds.Fields()
	arrowFields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		typ := arrow.DataType(arrow.BinaryTypes.String)
		if f.Kind == dataset.KindNumeric {
			typ = arrow.PrimitiveTypes.Float64
		}
		arrowFields[i] = arrow.Field{Name: f.Name, Type: typ, Nullable: true}
	}
	schema := arrow.NewSchema(arrowFields, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	for _, r := range rows {
		for c, f := range fields {
			v := ds.Value(r, c)
			if f.Kind == dataset.KindNumeric {
				fb := b.Field(c).(*array.Float64Builder)
				if v.Null {
					fb.AppendNull()
				} else {
					fb.Append(v.Num)
				}
				continue
			}
			sb := b.Field(c).(*array.StringBuilder)
			if v.Null {
				sb.AppendNull()
			} else {
				sb.Append(v.String())
			}
		}
	}
	rec := b.NewRecord()
	defer rec.Release()
	table := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer table.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	writer, err := pqarrow.NewFileWriter(schema, w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.WriteTable(table, max(table.NumRows(), 1)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write table to parquet: %w", err)
	}
	return writer.Close()
}
