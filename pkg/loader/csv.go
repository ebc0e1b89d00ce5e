package loader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

// DetectSeparator picks the most frequent of , ; tab and | in the header
// line. Comma wins ties and empty input.
func DetectSeparator(header string) rune {
	best, bestCount := ',', 0
	for _, sep := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(header, string(sep)); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

// LoadCSV reads a delimited file whose first record is the header. Header
// names are kept verbatim, including surrounding spaces.
func LoadCSV(r io.Reader, opts ...dataset.Option) (*dataset.Dataset, error) {
	br := bufio.NewReader(r)
	peek, _ := br.Peek(64 * 1024)
	if len(bytes.TrimSpace(peek)) == 0 {
		return nil, ErrEmptyInput
	}
	first := string(peek)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}

	cr := csv.NewReader(br)
	cr.Comma = DetectSeparator(first)
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var records [][]any
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", len(records)+1, err)
		}
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = cell
		}
		records = append(records, row)
	}
	return dataset.New(header, records, opts...)
}

// WriteCSV writes the header and the given rows of ds with a comma separator.
func WriteCSV(w io.Writer, ds *dataset.Dataset, rows []int) error {
	cw := csv.NewWriter(w)
	fields := ds.Fields()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(fields))
	for _, r := range rows {
		for c := range fields {
			rec[c] = ds.Value(r, c).String()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
