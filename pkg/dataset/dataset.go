// Package dataset holds the immutable, position-indexed table every page
// explores. A Dataset is never mutated after New returns and can be shared
// between goroutines without locking.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinel errors.
var (
	ErrEmptyDataset    = errors.New("dataset has no fields")
	ErrFieldNotFound   = errors.New("field not found")
	ErrLabelCollision  = errors.New("display label collision")
	ErrDuplicateField  = errors.New("duplicate field name")
	ErrDuplicateID     = errors.New("duplicate identifier value")
	ErrRaggedRow       = errors.New("row width does not match header")
	ErrInvalidPosition = errors.New("row position out of range")
)

const (
	// DefaultIDField is matched case-insensitively against trimmed field names.
	DefaultIDField = "version"
	// InjectedIDField names the synthetic identifier added when none is found.
	InjectedIDField = "ID"
)

// Field describes one column.
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
	Kind  Kind   `json:"kind" yaml:"kind"`
}

// Dataset is an ordered table of rows. Positions 0..Len()-1 are stable.
type Dataset struct {
	fields  []Field
	cells   [][]Value
	byName  map[string]int
	byLabel map[string]int
	idIndex int
}

// Option configures New.
type Option func(*options)

type options struct {
	idField  string
	injectID string
	numeric  []string
	optional []string
}

// WithIDField sets the field name searched for as identifier.
func WithIDField(name string) Option {
	return func(o *options) { o.idField = name }
}

// WithInjectedIDField sets the name of the synthetic identifier.
func WithInjectedIDField(name string) Option {
	return func(o *options) { o.injectID = name }
}

// WithNumericFields coerces the named fields to numbers once, at construction.
// Cells that do not parse become null (NaN).
func WithNumericFields(names ...string) Option {
	return func(o *options) { o.numeric = append(o.numeric, names...) }
}

// WithOptionalNumericFields is WithNumericFields for fields that may be
// absent; missing names are ignored.
func WithOptionalNumericFields(names ...string) Option {
	return func(o *options) { o.optional = append(o.optional, names...) }
}

// New builds a Dataset from a header and row-major cells. Cells may be nil,
// strings, bools or any Go number. A field whose non-null cells are all
// numbers (or numeric strings) is numeric; everything else is text.
func New(columns []string, records [][]any, opts ...Option) (*Dataset, error) {
	o := options{idField: DefaultIDField, injectID: InjectedIDField}
	for _, opt := range opts {
		opt(&o)
	}
	if len(columns) == 0 {
		return nil, ErrEmptyDataset
	}
	for i, rec := range records {
		if len(rec) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", i, len(rec), len(columns), ErrRaggedRow)
		}
	}

	names := append([]string(nil), columns...)
	idIndex := -1
	for i, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), o.idField) {
			idIndex = i
			break
		}
	}
	if idIndex < 0 {
		// A previously injected identifier, e.g. from an export, is reused.
		for i, name := range names {
			if name == o.injectID {
				idIndex = i
				break
			}
		}
	}
	if idIndex < 0 {
		names = append([]string{o.injectID}, names...)
		idIndex = 0
	}

	ds := &Dataset{
		fields:  make([]Field, len(names)),
		cells:   make([][]Value, len(records)),
		byName:  make(map[string]int, len(names)),
		byLabel: make(map[string]int, len(names)),
		idIndex: idIndex,
	}
	for i, name := range names {
		if _, dup := ds.byName[name]; dup {
			return nil, fmt.Errorf("%q: %w", name, ErrDuplicateField)
		}
		label := Label(name)
		if prev, dup := ds.byLabel[label]; dup {
			return nil, fmt.Errorf("%q and %q both map to %q: %w", names[prev], name, label, ErrLabelCollision)
		}
		ds.byName[name] = i
		ds.byLabel[label] = i
		ds.fields[i] = Field{Name: name, Label: label}
	}

	injected := len(names) != len(columns)
	offset := 0
	if injected {
		offset = 1
	}
	for r := range records {
		ds.cells[r] = make([]Value, len(names))
		if injected {
			ds.cells[r][0] = NumberValue(float64(r))
		}
	}

	for c := range columns {
		col := c + offset
		ds.fields[col].Kind = inferKind(records, c)
		for r, rec := range records {
			ds.cells[r][col] = makeValue(rec[c], ds.fields[col].Kind)
		}
	}
	if injected {
		ds.fields[0].Kind = KindNumeric
	}

	for _, name := range o.numeric {
		col, err := ds.FieldIndex(name)
		if err != nil {
			return nil, err
		}
		ds.coerce(col)
	}
	for _, name := range o.optional {
		if col, err := ds.FieldIndex(name); err == nil {
			ds.coerce(col)
		}
	}

	if err := ds.checkUniqueID(); err != nil {
		return nil, err
	}
	return ds, nil
}

func inferKind(records [][]any, c int) Kind {
	seen := false
	for _, rec := range records {
		raw, _, numeric, null := cellText(rec[c])
		if null {
			continue
		}
		seen = true
		if numeric {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
			return KindText
		}
	}
	if !seen {
		return KindText
	}
	return KindNumeric
}

func makeValue(cell any, kind Kind) Value {
	raw, num, numeric, null := cellText(cell)
	if null {
		return NullValue(kind)
	}
	if kind == KindText {
		return TextValue(raw)
	}
	if !numeric {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return NullValue(KindNumeric)
		}
		num = f
	}
	return NumberValue(num)
}

func (ds *Dataset) coerce(col int) {
	if ds.fields[col].Kind == KindNumeric {
		return
	}
	ds.fields[col].Kind = KindNumeric
	for r := range ds.cells {
		v := ds.cells[r][col]
		f, ok := v.Float()
		if !ok {
			ds.cells[r][col] = NullValue(KindNumeric)
			continue
		}
		ds.cells[r][col] = NumberValue(f)
	}
}

func (ds *Dataset) checkUniqueID() error {
	seen := make(map[string]int, len(ds.cells))
	for r := range ds.cells {
		v := ds.cells[r][ds.idIndex]
		if v.Null {
			continue
		}
		key := v.String()
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("rows %d and %d share %s=%q: %w", prev, r, ds.fields[ds.idIndex].Name, key, ErrDuplicateID)
		}
		seen[key] = r
	}
	return nil
}

// Len returns the row count.
func (ds *Dataset) Len() int { return len(ds.cells) }

// Fields returns a copy of the schema in column order.
func (ds *Dataset) Fields() []Field {
	return append([]Field(nil), ds.fields...)
}

// Field returns the field at column i.
func (ds *Dataset) Field(i int) Field { return ds.fields[i] }

// FieldIndex resolves a field name. An exact match wins; otherwise a unique
// whitespace-trimmed match is accepted, since CSV headers often carry
// leading spaces.
func (ds *Dataset) FieldIndex(name string) (int, error) {
	if i, ok := ds.byName[name]; ok {
		return i, nil
	}
	want := strings.TrimSpace(name)
	found := -1
	for i, f := range ds.fields {
		if strings.TrimSpace(f.Name) == want {
			if found >= 0 {
				return -1, fmt.Errorf("%q is ambiguous: %w", name, ErrFieldNotFound)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, fmt.Errorf("%q: %w", name, ErrFieldNotFound)
	}
	return found, nil
}

// FieldByLabel is the reverse of the label map.
func (ds *Dataset) FieldByLabel(label string) (int, bool) {
	i, ok := ds.byLabel[label]
	return i, ok
}

// IDIndex is the column of the identifier field.
func (ds *Dataset) IDIndex() int { return ds.idIndex }

// IDField is the identifier field.
func (ds *Dataset) IDField() Field { return ds.fields[ds.idIndex] }

// ColorIndex is the column of the colour field, always the last one.
func (ds *Dataset) ColorIndex() int { return len(ds.fields) - 1 }

// ColorField is the colour field.
func (ds *Dataset) ColorField() Field { return ds.fields[len(ds.fields)-1] }

// Dimensions are the parallel-coordinates axes: every field but the first.
// Axis i maps to column i+1.
func (ds *Dataset) Dimensions() []Field {
	return append([]Field(nil), ds.fields[1:]...)
}

// DimensionColumn maps an axis index to its column.
func (ds *Dataset) DimensionColumn(axis int) (int, bool) {
	col := axis + 1
	if axis < 0 || col >= len(ds.fields) {
		return -1, false
	}
	return col, true
}

// Value returns the cell at (row, col). It panics on out-of-range input like
// slice indexing does.
func (ds *Dataset) Value(row, col int) Value { return ds.cells[row][col] }

// ID returns the identifier cell of a row.
func (ds *Dataset) ID(row int) Value { return ds.cells[row][ds.idIndex] }

// Row returns a view of the row at position i.
func (ds *Dataset) Row(i int) (Row, error) {
	if i < 0 || i >= len(ds.cells) {
		return Row{}, fmt.Errorf("%d not in [0,%d): %w", i, len(ds.cells), ErrInvalidPosition)
	}
	return Row{ds: ds, pos: i}, nil
}

// Column returns a copy of every value of a field in row order.
func (ds *Dataset) Column(col int) []Value {
	out := make([]Value, len(ds.cells))
	for r := range ds.cells {
		out[r] = ds.cells[r][col]
	}
	return out
}

// Predicate decides whether a row passes a filter.
type Predicate func(Row) (bool, error)

// Filter returns the positions passing pred in dataset order. A nil
// predicate passes every row.
func (ds *Dataset) Filter(pred Predicate) ([]int, error) {
	out := make([]int, 0, len(ds.cells))
	for i := range ds.cells {
		if pred == nil {
			out = append(out, i)
			continue
		}
		ok, err := pred(Row{ds: ds, pos: i})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if ok {
			out = append(out, i)
		}
	}
	return out, nil
}

// Row is a read-only view of one dataset row.
type Row struct {
	ds  *Dataset
	pos int
}

// Position is the row's index in the dataset.
func (r Row) Position() int { return r.pos }

// Get returns the value of a field by name.
func (r Row) Get(name string) (Value, bool) {
	col, err := r.ds.FieldIndex(name)
	if err != nil {
		return Value{}, false
	}
	return r.ds.cells[r.pos][col], true
}

// Values returns a copy of the cells in column order.
func (r Row) Values() []Value {
	return append([]Value(nil), r.ds.cells[r.pos]...)
}

// Map returns field name to float64/string/nil, the shape CEL and the
// encoders consume.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.ds.fields))
	for i, f := range r.ds.fields {
		v := r.ds.cells[r.pos][i]
		if v.Kind == KindNumeric && !v.Null && math.IsInf(v.Num, 0) {
			m[f.Name] = v.String()
			continue
		}
		m[f.Name] = v.Any()
	}
	return m
}
