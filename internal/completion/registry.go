package completion

import (
	"sort"
	"strings"
)

// FunctionRegistry is the single source of truth for function metadata.
// It deduplicates functions by name and call style and keeps them sorted.
type FunctionRegistry struct {
	functions  map[funcKey]FunctionMetadata
	byCategory map[string][]funcKey
	allNames   []funcKey
}

// funcKey tells apart a global function from a method of the same name,
// like size(x) and x.size().
type funcKey struct {
	name   string
	method bool
}

func (k funcKey) less(o funcKey) bool {
	if k.name != o.name {
		return k.name < o.name
	}
	return !k.method && o.method
}

func sortKeys(keys []funcKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
}

// categoryOrder defines the display order for function categories.
var categoryOrder = []string{
	"conversion",
	"string",
	"list",
	"math",
	"encoding",
	"general",
}

// NewFunctionRegistry creates a registry from funcs.
func NewFunctionRegistry(funcs []FunctionMetadata) *FunctionRegistry {
	r := &FunctionRegistry{}
	r.LoadFunctions(funcs)
	return r
}

// LoadFunctions replaces the registry content. Duplicate names keep the entry
// with more examples, then the longer description.
func (r *FunctionRegistry) LoadFunctions(funcs []FunctionMetadata) {
	r.functions = make(map[funcKey]FunctionMetadata)
	r.byCategory = make(map[string][]funcKey)
	r.allNames = nil

	for i := range funcs {
		fn := funcs[i]
		key := funcKey{name: fn.Name, method: fn.IsMethod}
		existing, ok := r.functions[key]
		if !ok {
			r.functions[key] = fn
			continue
		}
		if len(fn.Examples) > len(existing.Examples) ||
			(len(fn.Examples) == len(existing.Examples) && len(fn.Description) > len(existing.Description)) {
			r.functions[key] = fn
		}
	}

	for key, fn := range r.functions {
		cat := fn.Category
		if cat == "" {
			cat = "general"
		}
		r.byCategory[cat] = append(r.byCategory[cat], key)
		r.allNames = append(r.allNames, key)
	}
	for cat := range r.byCategory {
		sortKeys(r.byCategory[cat])
	}
	sortKeys(r.allNames)
}

// GetFunction returns metadata for a function by name, preferring the global
// form, or nil if not found.
func (r *FunctionRegistry) GetFunction(name string) *FunctionMetadata {
	if fn, ok := r.functions[funcKey{name: name}]; ok {
		return &fn
	}
	if fn, ok := r.functions[funcKey{name: name, method: true}]; ok {
		return &fn
	}
	return nil
}

// GetAll returns all functions sorted by name.
func (r *FunctionRegistry) GetAll() []FunctionMetadata {
	result := make([]FunctionMetadata, 0, len(r.allNames))
	for _, key := range r.allNames {
		result = append(result, r.functions[key])
	}
	return result
}

// GetCategories returns the non-empty categories in display order, followed
// by any others alphabetically.
func (r *FunctionRegistry) GetCategories() []string {
	result := make([]string, 0, len(r.byCategory))
	seen := make(map[string]bool, len(categoryOrder))
	for _, cat := range categoryOrder {
		seen[cat] = true
		if len(r.byCategory[cat]) > 0 {
			result = append(result, cat)
		}
	}
	var extra []string
	for cat := range r.byCategory {
		if !seen[cat] {
			extra = append(extra, cat)
		}
	}
	sort.Strings(extra)
	return append(result, extra...)
}

// GetByCategory returns the functions of one category, sorted by name.
func (r *FunctionRegistry) GetByCategory(category string) []FunctionMetadata {
	keys := r.byCategory[category]
	result := make([]FunctionMetadata, 0, len(keys))
	for _, key := range keys {
		result = append(result, r.functions[key])
	}
	return result
}

// WithPrefix returns the methods (or globals) whose name starts with prefix.
func (r *FunctionRegistry) WithPrefix(prefix string, methods bool) []FunctionMetadata {
	var result []FunctionMetadata
	for _, key := range r.allNames {
		if key.method == methods && strings.HasPrefix(key.name, prefix) {
			result = append(result, r.functions[key])
		}
	}
	return result
}

// Size returns the number of unique functions, counting a method and a global
// of the same name apart.
func (r *FunctionRegistry) Size() int {
	return len(r.functions)
}
