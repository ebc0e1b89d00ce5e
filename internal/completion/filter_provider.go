package completion

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/oakwood-commons/sweepview/internal/cel"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

var (
	identPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	trailingIdent = regexp.MustCompile(`[A-Za-z0-9_]*$`)
	quotedField   = regexp.MustCompile(`(?:^|[^A-Za-z0-9_.])(?:row|_)\["([^"]*)$`)
)

var rowVariables = []string{"row", "_"}

var keywords = []string{"false", "in", "null", "true"}

// functionHelp documents the functions filters use most. Functions of the
// environment that are missing here are still offered, without help.
var functionHelp = map[string]FunctionMetadata{
	"contains":   {Category: "string", IsMethod: true, Description: "Reports whether the string contains a substring", Examples: []string{`row.optimizer.contains("lego")`}},
	"startsWith": {Category: "string", IsMethod: true, Description: "Reports whether the string starts with a prefix", Examples: []string{`row.version.startsWith("v2")`}},
	"endsWith":   {Category: "string", IsMethod: true, Description: "Reports whether the string ends with a suffix"},
	"matches":    {Category: "string", IsMethod: true, Description: "Reports whether the string matches an RE2 pattern", Examples: []string{`row.version.matches("^run-[0-9]+$")`}},
	"lowerAscii": {Category: "string", IsMethod: true, Description: "Lower-cases ASCII letters"},
	"upperAscii": {Category: "string", IsMethod: true, Description: "Upper-cases ASCII letters"},
	"trim":       {Category: "string", IsMethod: true, Description: "Removes leading and trailing whitespace"},
	"replace":    {Category: "string", IsMethod: true, Description: "Replaces occurrences of a substring"},
	"split":      {Category: "string", IsMethod: true, Description: "Splits the string on a separator"},
	"substring":  {Category: "string", IsMethod: true, Description: "Returns the runes between two offsets"},
	"indexOf":    {Category: "string", IsMethod: true, Description: "Returns the offset of a substring, or -1"},
	"size":       {Category: "string", Description: "Length of a string, list or map", Examples: []string{`size(row.version) > 4`}},
	"double":     {Category: "conversion", Description: "Converts a value to a double", Examples: []string{`double(row.seed) > 3.0`}},
	"int":        {Category: "conversion", Description: "Converts a value to an int, truncating"},
	"string":     {Category: "conversion", Description: "Converts a value to a string", Examples: []string{`string(row.seed) == "3"`}},
	"has":        {Category: "general", Description: "Reports whether a field is present", Examples: []string{`has(row.loss)`}},
	"exists":     {Category: "list", IsMethod: true, Description: "True when any element satisfies the predicate"},
	"all":        {Category: "list", IsMethod: true, Description: "True when every element satisfies the predicate"},
	"exists_one": {Category: "list", IsMethod: true, Description: "True when exactly one element satisfies the predicate"},
	"filter":     {Category: "list", IsMethod: true, Description: "Keeps the elements satisfying the predicate"},
	"map":        {Category: "list", IsMethod: true, Description: "Transforms every element"},
	"join":       {Category: "list", IsMethod: true, Description: "Concatenates a list of strings"},
}

// FilterProvider completes CEL filter expressions over the fields of one
// dataset.
type FilterProvider struct {
	fields   []dataset.Field
	registry *FunctionRegistry
}

// NewFilterProvider builds a provider for ds. sigs are the callable forms
// of the filter environment, as the CEL evaluator reports them.
func NewFilterProvider(ds *dataset.Dataset, sigs []cel.Signature) *FilterProvider {
	p := &FilterProvider{registry: NewFunctionRegistry(functionsFromSignatures(sigs))}
	if ds != nil {
		p.fields = ds.Fields()
	}
	return p
}

// NewEvaluatorProvider builds a provider whose functions come from ev. A
// nil evaluator leaves only field completion.
func NewEvaluatorProvider(ds *dataset.Dataset, ev *cel.Evaluator) *FilterProvider {
	var sigs []cel.Signature
	if ev != nil {
		sigs = ev.Signatures()
	}
	return NewFilterProvider(ds, sigs)
}

func functionsFromSignatures(sigs []cel.Signature) []FunctionMetadata {
	out := make([]FunctionMetadata, 0, len(sigs))
	seen := make(map[funcKey]int)
	for _, s := range sigs {
		key := funcKey{name: s.Name, method: s.Member}
		if i, ok := seen[key]; ok {
			out[i].Signature += " | " + s.Usage
			continue
		}
		fn := FunctionMetadata{Name: s.Name, Signature: s.Usage, IsMethod: s.Member}
		if help, ok := functionHelp[s.Name]; ok && help.IsMethod == s.Member {
			fn.Description = help.Description
			fn.Category = help.Category
			fn.Examples = help.Examples
		}
		if fn.Category == "" {
			fn.Category = categoryOf(s.Name)
		}
		seen[key] = len(out)
		out = append(out, fn)
	}
	return out
}

func categoryOf(name string) string {
	switch {
	case strings.HasPrefix(name, "math."):
		return "math"
	case strings.HasPrefix(name, "base64."):
		return "encoding"
	case strings.HasPrefix(name, "strings."):
		return "string"
	case strings.HasPrefix(name, "lists."):
		return "list"
	}
	return "general"
}

// DiscoverFunctions implements Provider.
func (p *FilterProvider) DiscoverFunctions() []FunctionMetadata {
	return p.registry.GetAll()
}

// Registry exposes the function metadata.
func (p *FilterProvider) Registry() *FunctionRegistry { return p.registry }

// FilterCompletions implements Provider. It looks at the token at the end of
// input: a `row.` member, a quoted `row["` key, a method after a dot, or a
// bare word.
func (p *FilterProvider) FilterCompletions(input string) []Completion {
	if m := quotedField.FindStringSubmatch(input); m != nil {
		return p.quotedFields(m[1])
	}

	word := trailingIdent.FindString(input)
	before := input[:len(input)-len(word)]
	if strings.HasSuffix(before, ".") {
		head := strings.TrimSuffix(before, ".")
		recv := trailingIdent.FindString(head)
		if isRowVariable(recv) && !strings.HasSuffix(strings.TrimSuffix(head, recv), ".") {
			return p.memberFields(word)
		}
		if ns := p.namespaced(recv, word); len(ns) > 0 {
			return ns
		}
		return p.functions(word, true)
	}
	if word == "" || startsWithDigit(word) {
		return nil
	}

	var out []Completion
	for _, f := range p.fields {
		if strings.HasPrefix(f.Name, word) {
			ref := FieldRef(f.Name)
			out = append(out, Completion{Text: ref, Display: ref, Kind: CompletionField, Replace: len(word)})
		}
	}
	for _, v := range rowVariables {
		if strings.HasPrefix(v, word) && v != word {
			out = append(out, Completion{Text: v, Display: v, Kind: CompletionVariable, Replace: len(word)})
		}
	}
	out = append(out, p.functions(word, false)...)
	for _, kw := range keywords {
		if strings.HasPrefix(kw, word) && kw != word {
			out = append(out, Completion{Text: kw, Display: kw, Kind: CompletionKeyword, Replace: len(word)})
		}
	}
	return out
}

func (p *FilterProvider) memberFields(word string) []Completion {
	var out []Completion
	for _, f := range p.fields {
		if !strings.HasPrefix(f.Name, word) {
			continue
		}
		if identPattern.MatchString(f.Name) {
			out = append(out, Completion{Text: f.Name, Display: f.Name, Kind: CompletionField, Replace: len(word)})
			continue
		}
		// Names CEL cannot select with a dot switch to index syntax.
		ref := "[" + strconv.Quote(f.Name) + "]"
		out = append(out, Completion{Text: ref, Display: f.Name, Kind: CompletionField, Replace: len(word) + 1})
	}
	return out
}

func (p *FilterProvider) quotedFields(partial string) []Completion {
	var out []Completion
	for _, f := range p.fields {
		if strings.HasPrefix(f.Name, partial) {
			out = append(out, Completion{Text: f.Name + `"]`, Display: f.Name, Kind: CompletionField, Replace: len(partial)})
		}
	}
	return out
}

// namespaced completes dotted globals such as math.greatest once the
// namespace is typed.
func (p *FilterProvider) namespaced(recv, word string) []Completion {
	if recv == "" {
		return nil
	}
	var out []Completion
	for _, fn := range p.registry.WithPrefix(recv+"."+word, false) {
		rest := strings.TrimPrefix(fn.Name, recv+".")
		out = append(out, Completion{Text: rest + "(", Display: fn.Name, Kind: CompletionFunction, Replace: len(word), Function: &fn})
	}
	return out
}

func (p *FilterProvider) functions(word string, methods bool) []Completion {
	var out []Completion
	namespaces := make(map[string]bool)
	for _, fn := range p.registry.WithPrefix(word, methods) {
		// Namespaced globals complete to their namespace first.
		if ns, _, ok := strings.Cut(fn.Name, "."); ok && !methods {
			if !namespaces[ns] {
				namespaces[ns] = true
				out = append(out, Completion{Text: ns + ".", Display: ns + ".", Kind: CompletionFunction, Replace: len(word)})
			}
			continue
		}
		out = append(out, Completion{Text: fn.Name + "(", Display: fn.Name + "()", Kind: CompletionFunction, Replace: len(word), Function: &fn})
	}
	return out
}

// FieldRef returns the CEL expression referencing a field of the current row.
func FieldRef(name string) string {
	if identPattern.MatchString(name) {
		return "row." + name
	}
	return "row[" + strconv.Quote(name) + "]"
}

// FieldRefs lists FieldRef for every field of ds, in field order.
func FieldRefs(ds *dataset.Dataset) []string {
	fields := ds.Fields()
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldRef(f.Name))
	}
	return out
}

// CurrentFunction returns the function whose argument list encloses the end
// of input, if any.
func (p *FilterProvider) CurrentFunction(input string) *FunctionMetadata {
	depth := 0
	for i := len(input) - 1; i >= 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth > 0 {
				depth--
				continue
			}
			name := trailingIdent.FindString(input[:i])
			if name == "" {
				return nil
			}
			head := input[:i-len(name)]
			method := strings.HasSuffix(head, ".")
			if method {
				ns := trailingIdent.FindString(strings.TrimSuffix(head, "."))
				if fn := p.registry.GetFunction(ns + "." + name); ns != "" && fn != nil {
					return fn
				}
			}
			for _, fn := range p.registry.WithPrefix(name, method) {
				if fn.Name == name {
					return &fn
				}
			}
			return p.registry.GetFunction(name)
		}
	}
	return nil
}

func isRowVariable(s string) bool {
	return slices.Contains(rowVariables, s)
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
