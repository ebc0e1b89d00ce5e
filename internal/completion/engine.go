// Package completion suggests field references and CEL functions while a
// table filter is typed.
//
//revive:disable:exported
package completion

import "strings"

// Provider produces completions for the text typed so far.
type Provider interface {
	// DiscoverFunctions returns every function the filter language offers.
	DiscoverFunctions() []FunctionMetadata

	// FilterCompletions returns the candidates for the token at the end of input.
	FilterCompletions(input string) []Completion
}

// FunctionMetadata describes a function available in filter expressions.
type FunctionMetadata struct {
	Name        string   // Function name (e.g., "contains", "double")
	Signature   string   // Display signature (e.g., "string.contains(substring) -> bool")
	Description string   // Human-readable description
	Category    string   // Category for grouping (e.g., "string", "list", "math")
	IsMethod    bool     // True if called on a value with dot notation
	Examples    []string // Usage examples over `row`
}

// Completion is one candidate. Applying it replaces the last Replace bytes of
// the input with Text.
type Completion struct {
	Text     string            // The text to insert
	Display  string            // Short form for candidate lists
	Kind     CompletionKind    // Type of completion
	Replace  int               // Bytes at the end of the input the Text replaces
	Function *FunctionMetadata // Set when Kind == CompletionFunction
}

// CompletionKind indicates the type of completion.
type CompletionKind int

const (
	CompletionField    CompletionKind = iota // Dataset field
	CompletionFunction                       // Function or method
	CompletionKeyword                        // Language keyword
	CompletionVariable                       // Bound variable (row)
)

func (k CompletionKind) String() string {
	switch k {
	case CompletionFunction:
		return "function"
	case CompletionKeyword:
		return "keyword"
	case CompletionVariable:
		return "variable"
	default:
		return "field"
	}
}

//revive:enable:exported

// Engine wraps a Provider with shell-style completion.
type Engine struct {
	provider Provider
}

// NewEngine creates a completion engine with the given provider.
func NewEngine(provider Provider) *Engine {
	return &Engine{provider: provider}
}

// Candidates returns every completion for the end of input.
func (e *Engine) Candidates(input string) []Completion {
	if e == nil || e.provider == nil {
		return nil
	}
	return e.provider.FilterCompletions(input)
}

// Functions returns all available functions.
func (e *Engine) Functions() []FunctionMetadata {
	if e == nil || e.provider == nil {
		return nil
	}
	return e.provider.DiscoverFunctions()
}

// Complete applies the single candidate, or extends the input by the prefix
// all candidates share. It returns the new input and the candidates.
func (e *Engine) Complete(input string) (string, []Completion) {
	cands := e.Candidates(input)
	switch len(cands) {
	case 0:
		return input, nil
	case 1:
		return Apply(input, cands[0]), cands
	}
	// Only candidates replacing the same span can share a prefix.
	replace := cands[0].Replace
	prefix := cands[0].Text
	for _, c := range cands[1:] {
		if c.Replace != replace {
			return input, cands
		}
		prefix = commonPrefix(prefix, c.Text)
	}
	if replace > len(input) || len(prefix) <= replace {
		return input, cands
	}
	return input[:len(input)-replace] + prefix, cands
}

// Apply replaces the span c covers at the end of input with c.Text.
func Apply(input string, c Completion) string {
	n := min(c.Replace, len(input))
	return input[:len(input)-n] + c.Text
}

// Displays lists the short forms of up to limit candidates, with an ellipsis
// when more remain.
func Displays(cands []Completion, limit int) string {
	parts := make([]string, 0, len(cands))
	for i, c := range cands {
		if limit > 0 && i >= limit {
			parts = append(parts, "…")
			break
		}
		parts = append(parts, c.Display)
	}
	return strings.Join(parts, "  ")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
