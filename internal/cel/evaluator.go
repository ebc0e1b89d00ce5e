// Package cel compiles CEL expressions into row predicates and evaluators.
// Inside an expression the current row is bound to both `row` and `_`, as a
// map from field name to double, string or null.
package cel

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/decls"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

// ErrNotBoolean is returned when a filter does not evaluate to a bool.
var ErrNotBoolean = errors.New("filter expression must evaluate to a bool")

// Evaluator compiles and evaluates CEL expressions over dataset rows.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator with the common extension libraries.
func NewEvaluator() (*Evaluator, error) {
	env, err := newRowEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Environment returns the CEL environment for introspection.
func (e *Evaluator) Environment() *cel.Env {
	return e.env
}

func newRowEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 7+len(opts))
	allOpts = append(allOpts,
		cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("_", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

func (e *Evaluator) compile(expr string) (cel.Program, *cel.Ast, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, nil, fmt.Errorf("program error: %w", err)
	}
	return prg, ast, nil
}

// CompilePredicate compiles expr once and returns a dataset.Predicate. An
// empty expression yields a nil predicate, which passes every row.
func (e *Evaluator) CompilePredicate(expr string) (dataset.Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	prg, ast, err := e.compile(expr)
	if err != nil {
		return nil, err
	}
	out := ast.OutputType()
	if !out.IsExactType(types.BoolType) && !out.IsExactType(types.DynType) {
		return nil, fmt.Errorf("%q has type %s: %w", expr, out, ErrNotBoolean)
	}
	return func(r dataset.Row) (bool, error) {
		m := r.Map()
		val, _, err := prg.Eval(map[string]any{"row": m, "_": m})
		if err != nil {
			return false, fmt.Errorf("eval error: %w", err)
		}
		b, ok := val.(types.Bool)
		if !ok {
			return false, fmt.Errorf("%q returned %s: %w", expr, val.Type().TypeName(), ErrNotBoolean)
		}
		return bool(b), nil
	}, nil
}

// Evaluate evaluates expr against one row and converts the result to Go types.
func (e *Evaluator) Evaluate(expr string, r dataset.Row) (any, error) {
	prg, _, err := e.compile(expr)
	if err != nil {
		return nil, err
	}
	m := r.Map()
	val, _, err := prg.Eval(map[string]any{"row": m, "_": m})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return ToGo(val), nil
}

// ToGo converts CEL values to Go values, recursing into lists and maps.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}
	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}

	valuer, ok := val.(interface{ Value() any })
	if !ok {
		return val
	}
	switch inner := valuer.Value().(type) {
	case []ref.Val:
		out := make([]any, len(inner))
		for i, elem := range inner {
			out[i] = ToGo(elem)
		}
		return out
	case []any:
		out := make([]any, len(inner))
		for i, elem := range inner {
			if rv, ok := elem.(ref.Val); ok {
				out[i] = ToGo(rv)
			} else {
				out[i] = elem
			}
		}
		return out
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(inner))
		for k, v := range inner {
			out[fmt.Sprint(ToGo(k))] = ToGo(v)
		}
		return out
	default:
		return inner
	}
}

// Functions lists the callable function names of the environment, sorted,
// without operator internals.
func (e *Evaluator) Functions() []string {
	seen := make(map[string]bool)
	for _, fn := range e.env.Functions() {
		if !isOperator(fn.Name()) {
			seen[fn.Name()] = true
		}
	}
	for _, m := range e.env.Macros() {
		if !isOperator(m.Function()) {
			seen[m.Function()] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signature is one callable form of an environment function.
type Signature struct {
	Name   string
	Usage  string // e.g. "string.contains(string) -> bool"
	Member bool   // called on a receiver with dot notation
}

// Signatures lists every overload of the environment functions plus the
// macros, sorted by name then usage.
func (e *Evaluator) Signatures() []Signature {
	seen := make(map[Signature]bool)
	var out []Signature
	add := func(s Signature) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, fn := range e.env.Functions() {
		if isOperator(fn.Name()) {
			continue
		}
		for _, o := range fn.OverloadDecls() {
			add(Signature{Name: fn.Name(), Usage: usageFromOverload(fn.Name(), o), Member: o.IsMemberFunction()})
		}
	}
	for _, m := range e.env.Macros() {
		if isOperator(m.Function()) {
			continue
		}
		usage := m.Function() + "(...)"
		if m.IsReceiverStyle() {
			usage = "list." + usage
		}
		add(Signature{Name: m.Function(), Usage: usage, Member: m.IsReceiverStyle()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Usage < out[j].Usage
	})
	return out
}

func typeLabel(t *types.Type) string {
	if t == nil {
		return "any"
	}
	if name := t.DeclaredTypeName(); name != "" {
		return name
	}
	return "any"
}

func usageFromOverload(name string, o *decls.OverloadDecl) string {
	params := o.ArgTypes()
	var call string
	switch {
	case len(params) == 0:
		call = name + "()"
	case o.IsMemberFunction():
		args := make([]string, 0, len(params)-1)
		for _, p := range params[1:] {
			args = append(args, typeLabel(p))
		}
		call = typeLabel(params[0]) + "." + name + "(" + strings.Join(args, ", ") + ")"
	default:
		args := make([]string, 0, len(params))
		for _, p := range params {
			args = append(args, typeLabel(p))
		}
		call = name + "(" + strings.Join(args, ", ") + ")"
	}
	if r := o.ResultType(); r != nil {
		call += " -> " + typeLabel(r)
	}
	return call
}

func isOperator(name string) bool {
	if strings.HasPrefix(name, "@") {
		return true
	}
	if strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
		return true
	}
	return strings.HasPrefix(name, "!_") || strings.HasPrefix(name, "-_") || name == "_[_]"
}
