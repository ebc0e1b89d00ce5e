package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/sweepview/internal/cel"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

func sweep(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(
		[]string{"version", "loss", "lr", " total cooling"},
		[][]any{
			{"run-1", 0.5, 0.01, 12.0},
			{"run-2", 0.4, 0.1, 9.5},
		},
	)
	require.NoError(t, err)
	return ds
}

var testSigs = []cel.Signature{
	{Name: "contains", Usage: "string.contains(string) -> bool", Member: true},
	{Name: "double", Usage: "double(int) -> double"},
	{Name: "double", Usage: "double(string) -> double"},
	{Name: "exists", Usage: "list.exists(...)", Member: true},
	{Name: "has", Usage: "has(...)"},
	{Name: "math.greatest", Usage: "math.greatest(double, double) -> double"},
	{Name: "math.least", Usage: "math.least(double, double) -> double"},
	{Name: "size", Usage: "size(string) -> int"},
	{Name: "size", Usage: "string.size() -> int", Member: true},
	{Name: "startsWith", Usage: "string.startsWith(string) -> bool", Member: true},
}

func texts(cands []Completion) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Text)
	}
	return out
}

func TestFilterCompletions(t *testing.T) {
	p := NewFilterProvider(sweep(t), testSigs)

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty input", input: "", want: []string{}},
		{name: "bare word matches fields first", input: "l", want: []string{"row.loss", "row.lr"}},
		{name: "bare word matches functions", input: "d", want: []string{"double("}},
		{name: "keyword", input: "nu", want: []string{"null"}},
		{name: "row variable", input: "ro", want: []string{"row"}},
		{name: "namespace first", input: "ma", want: []string{"math."}},
		{name: "namespaced function", input: "math.g", want: []string{"greatest("}},
		{name: "member field", input: "row.lo", want: []string{"loss"}},
		{name: "member field after expression", input: "row.loss > 1 && row.l", want: []string{"loss", "lr"}},
		{name: "underscore variable", input: "_.v", want: []string{"version"}},
		{name: "trailing space", input: "row. ", want: nil},
		{name: "index syntax for odd names", input: "row.", want: []string{"version", "loss", "lr", `[" total cooling"]`}},
		{name: "quoted key", input: `row[" to`, want: []string{` total cooling"]`}},
		{name: "method after value", input: `row.version.st`, want: []string{"startsWith("}},
		{name: "method after call", input: `string(row.lr).si`, want: []string{"size("}},
		{name: "number literal", input: "row.lr > 0", want: []string{}},
		{name: "nothing matches", input: "zz", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := texts(p.FilterCompletions(tt.input))
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComplete(t *testing.T) {
	e := NewEngine(NewFilterProvider(sweep(t), testSigs))

	tests := []struct {
		name      string
		input     string
		want      string
		wantCands int
	}{
		{name: "single candidate applied", input: "row.ver", want: "row.version", wantCands: 1},
		{name: "shared prefix extended", input: "row.l", want: "row.l", wantCands: 2},
		{name: "shared prefix of bare word", input: "s", want: "size(", wantCands: 1},
		{name: "keyword", input: "row.lr > 1 || tr", want: "row.lr > 1 || true", wantCands: 1},
		{name: "quoted key closed", input: `row["ver`, want: `row["version"]`, wantCands: 1},
		{name: "no candidates", input: "zz", want: "zz", wantCands: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cands := e.Complete(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Len(t, cands, tt.wantCands)
		})
	}

	got, cands := e.Complete("row.")
	assert.Equal(t, "row.", got, "candidates replacing different spans are not merged")
	assert.Len(t, cands, 4)
	assert.Equal(t, `row[" total cooling"]`, Apply("row.", cands[3]))
}

func TestCompleteWithoutProvider(t *testing.T) {
	var e *Engine
	got, cands := e.Complete("row.")
	assert.Equal(t, "row.", got)
	assert.Nil(t, cands)
	assert.Nil(t, NewEngine(nil).Functions())
}

func TestDisplays(t *testing.T) {
	cands := []Completion{{Display: "a"}, {Display: "b"}, {Display: "c"}}
	assert.Equal(t, "a  b  c", Displays(cands, 0))
	assert.Equal(t, "a  b  …", Displays(cands, 2))
	assert.Equal(t, "", Displays(nil, 3))
}

func TestCurrentFunction(t *testing.T) {
	p := NewFilterProvider(sweep(t), testSigs)

	tests := []struct {
		input  string
		want   string
		method bool
	}{
		{input: "double(row.lr", want: "double"},
		{input: `row.version.startsWith("r`, want: "startsWith", method: true},
		{input: "math.greatest(row.lr, ", want: "math.greatest"},
		{input: "size(row.version) > 1 && has(row.", want: "has"},
		{input: "row.version.size(", want: "size", method: true},
		{input: "double(row.lr) > 1", want: ""},
		{input: "(row.lr", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			fn := p.CurrentFunction(tt.input)
			if tt.want == "" {
				assert.Nil(t, fn)
				return
			}
			require.NotNil(t, fn)
			assert.Equal(t, tt.want, fn.Name)
			assert.Equal(t, tt.method, fn.IsMethod)
		})
	}
}

func TestFieldRefs(t *testing.T) {
	assert.Equal(t, []string{"row.version", "row.loss", "row.lr", `row[" total cooling"]`}, FieldRefs(sweep(t)))
	assert.Equal(t, "row.a_b", FieldRef("a_b"))
	assert.Equal(t, `row["1x"]`, FieldRef("1x"))
}

func TestRegistry(t *testing.T) {
	p := NewFilterProvider(nil, testSigs)
	r := p.Registry()

	assert.Equal(t, 9, r.Size(), "size counts once as a global and once as a method")
	assert.Equal(t, []string{"conversion", "string", "list", "math", "general"}, r.GetCategories())

	d := r.GetFunction("double")
	require.NotNil(t, d)
	assert.Equal(t, "double(int) -> double | double(string) -> double", d.Signature)
	assert.Equal(t, "conversion", d.Category)

	s := r.GetFunction("size")
	require.NotNil(t, s)
	assert.False(t, s.IsMethod)
	assert.Len(t, r.WithPrefix("si", true), 1)
	assert.Nil(t, r.GetFunction("nope"))

	var names []string
	for _, fn := range r.GetByCategory("math") {
		names = append(names, fn.Name)
	}
	assert.Equal(t, []string{"math.greatest", "math.least"}, names)
	assert.Len(t, p.DiscoverFunctions(), 9)
}

func TestRegistryDuplicatesKeepRicherEntry(t *testing.T) {
	r := NewFunctionRegistry([]FunctionMetadata{
		{Name: "f", Description: "short"},
		{Name: "f", Description: "longer text"},
		{Name: "f", Description: "x", Examples: []string{"f(1)"}},
		{Name: "g", Category: "custom"},
	})
	assert.Equal(t, 2, r.Size())
	assert.Equal(t, "x", r.GetFunction("f").Description)
	assert.Equal(t, []string{"general", "custom"}, r.GetCategories())
}

func TestFormatFunction(t *testing.T) {
	fn := FunctionMetadata{
		Name:        "contains",
		Signature:   "string.contains(string) -> bool",
		Description: "Reports whether the string contains a substring",
		Examples:    []string{`row.a.contains("x")`, "  ", `row.b.contains("y")`},
	}
	assert.Equal(t, "string.contains(string) -> bool : Reports whether the string contains a substring", FormatFunctionOneLiner(fn))
	assert.Equal(t, "f(...)", FormatFunctionOneLiner(FunctionMetadata{Name: "f"}))
	assert.Equal(t, "value.m(...) : First", FormatFunctionOneLiner(FunctionMetadata{Name: "m", IsMethod: true, Description: "First. Second."}))
	assert.Equal(t, []string{fn.Signature, fn.Description, `e.g. row.a.contains("x")`, `e.g. row.b.contains("y")`}, FormatFunctionLines(fn, 2))
	assert.Equal(t, []string{fn.Signature, fn.Description, `e.g. row.a.contains("x")`, `e.g. row.b.contains("y")`}, FormatFunctionLines(fn, 0))
	assert.Equal(t, []string{fn.Signature, fn.Description, `e.g. row.a.contains("x")`}, FormatFunctionLines(fn, 1))
}

func TestEvaluatorProvider(t *testing.T) {
	ev, err := cel.NewEvaluator()
	require.NoError(t, err)
	p := NewEvaluatorProvider(sweep(t), ev)

	c := p.Registry().GetFunction("contains")
	require.NotNil(t, c)
	assert.True(t, c.IsMethod)
	assert.Equal(t, "string", c.Category)
	assert.NotEmpty(t, c.Examples)

	assert.Contains(t, texts(p.FilterCompletions("row.version.upper")), "upperAscii(")

	bare := NewEvaluatorProvider(sweep(t), nil)
	assert.Zero(t, bare.Registry().Size())
	assert.Equal(t, []string{"row.loss", "row.lr"}, texts(bare.FilterCompletions("l")))
}
