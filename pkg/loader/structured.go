package loader

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

// LoadStructured parses JSON, NDJSON, YAML (single or multi-document) or
// TOML, auto-detected. Two shapes are accepted:
//
//   - a list of records, e.g. [{"a": 1}, {"a": 2}], one document per record,
//     or a mapping with one key holding such a list (TOML [[rows]]);
//   - a columnar mapping {"columns": [...], "rows": [[...], ...]}.
//
// Record field order is the order keys are first seen. TOML tables are
// unordered, so their fields come out sorted unless "columns" is given.
func LoadStructured(input string, opts ...dataset.Option) (*dataset.Dataset, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	docs, err := parseNodes(input)
	if err != nil {
		return nil, err
	}

	var columns []string
	var rows [][]any
	if len(docs) == 1 {
		columns, rows, err = tableFromNode(docs[0])
	} else {
		columns, rows, err = tableFromRecords(docs)
	}
	if err != nil {
		return nil, err
	}
	return dataset.New(columns, rows, opts...)
}

func parseNodes(input string) ([]*yaml.Node, error) {
	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return parseYAMLDocs(input)
	}
	lines := strings.Split(input, "\n")
	if len(lines) > 1 && isLikelyNDJSON(lines) {
		return parseNDJSON(lines)
	}
	// TOML [section] headers look like JSON arrays, so check TOML first.
	if isLikelyTOML(input) {
		return parseTOML(input)
	}
	return parseYAMLDocs(input)
}

func parseYAMLDocs(input string) ([]*yaml.Node, error) {
	dec := yaml.NewDecoder(strings.NewReader(input))
	var docs []*yaml.Node
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid YAML/JSON: %w", err)
		}
		if len(doc.Content) > 0 && doc.Content[0].Tag != "!!null" {
			docs = append(docs, unwrapDocument(&doc))
		}
	}
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}
	return docs, nil
}

func parseNDJSON(lines []string) ([]*yaml.Node, error) {
	docs := make([]*yaml.Node, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var doc yaml.Node
		if err := yaml.Unmarshal([]byte(line), &doc); err != nil {
			return nil, fmt.Errorf("invalid NDJSON line %d: %w", i+1, err)
		}
		docs = append(docs, unwrapDocument(&doc))
	}
	return docs, nil
}

func parseTOML(input string) ([]*yaml.Node, error) {
	var data map[string]any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	var node yaml.Node
	if err := node.Encode(data); err != nil {
		return nil, fmt.Errorf("convert TOML: %w", err)
	}
	return []*yaml.Node{unwrapDocument(&node)}, nil
}

func unwrapDocument(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return n.Content[0]
	}
	return n
}

func tableFromNode(n *yaml.Node) ([]string, [][]any, error) {
	switch n.Kind {
	case yaml.SequenceNode:
		return tableFromRecords(n.Content)
	case yaml.MappingNode:
		values := map[string]*yaml.Node{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			values[n.Content[i].Value] = n.Content[i+1]
		}
		if cols, ok := values["columns"]; ok {
			if rows, ok := values["rows"]; ok {
				return tableFromColumnar(cols, rows)
			}
		}
		if len(values) == 1 {
			for _, v := range values {
				if v.Kind == yaml.SequenceNode {
					return tableFromRecords(v.Content)
				}
			}
		}
		// A lone mapping is a single record.
		return tableFromRecords([]*yaml.Node{n})
	default:
		return nil, nil, fmt.Errorf("top-level %s: %w", kindName(n.Kind), ErrUnsupportedShape)
	}
}

func tableFromRecords(records []*yaml.Node) ([]string, [][]any, error) {
	index := map[string]int{}
	var columns []string
	maps := make([]map[string]any, 0, len(records))
	for i, rec := range records {
		if rec.Kind != yaml.MappingNode {
			return nil, nil, fmt.Errorf("record %d is a %s: %w", i, kindName(rec.Kind), ErrUnsupportedShape)
		}
		m := make(map[string]any, len(rec.Content)/2)
		for j := 0; j+1 < len(rec.Content); j += 2 {
			key := rec.Content[j].Value
			if _, seen := index[key]; !seen {
				index[key] = len(columns)
				columns = append(columns, key)
			}
			var v any
			if err := rec.Content[j+1].Decode(&v); err != nil {
				return nil, nil, fmt.Errorf("record %d field %q: %w", i, key, err)
			}
			if isContainer(v) {
				return nil, nil, fmt.Errorf("record %d field %q is nested: %w", i, key, ErrUnsupportedShape)
			}
			m[key] = v
		}
		maps = append(maps, m)
	}
	rows := make([][]any, len(maps))
	for i, m := range maps {
		row := make([]any, len(columns))
		for k, v := range m {
			row[index[k]] = v
		}
		rows[i] = row
	}
	return columns, rows, nil
}

func tableFromColumnar(colsNode, rowsNode *yaml.Node) ([]string, [][]any, error) {
	var columns []string
	if err := colsNode.Decode(&columns); err != nil {
		return nil, nil, fmt.Errorf("columns: %w", err)
	}
	var rows [][]any
	if err := rowsNode.Decode(&rows); err != nil {
		return nil, nil, fmt.Errorf("rows: %w", err)
	}
	for i, row := range rows {
		for j, v := range row {
			if isContainer(v) {
				return nil, nil, fmt.Errorf("row %d cell %d is nested: %w", i, j, ErrUnsupportedShape)
			}
		}
	}
	return columns, rows, nil
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

// isLikelyNDJSON reports whether most non-empty lines start with '{' or '['.
// Positive matching keeps YAML lists of bare items from being misread.
func isLikelyNDJSON(lines []string) bool {
	jsonCount, nonEmpty := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}
	return nonEmpty > 1 && jsonCount > nonEmpty/2 && jsonCount == nonEmpty
}

var (
	tomlSection  = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	tomlKeyValue = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// isLikelyTOML looks for [section] headers or a majority of key = value lines.
func isLikelyTOML(input string) bool {
	sections, kv, nonEmpty := 0, 0, 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSection.MatchString(line) {
			sections++
		}
		if tomlKeyValue.MatchString(line) {
			kv++
		}
	}
	return sections > 0 || (nonEmpty > 0 && kv > nonEmpty/2)
}
