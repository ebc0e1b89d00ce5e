package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/sweepview/pkg/dataset"
	"github.com/oakwood-commons/sweepview/pkg/settings"
)

// Encode writes v in one of the machine-readable formats (yaml, json, toml).
func Encode(w io.Writer, format settings.OutputFormat, v any) error {
	switch format {
	case settings.OutputYAML:
		s, err := FormatYAML(v, 2)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = io.WriteString(w, s)
		return err
	case settings.OutputJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		_, err = w.Write(append(b, '\n'))
		return err
	case settings.OutputTOML:
		generic, err := toGeneric(v)
		if err != nil {
			return err
		}
		if _, ok := generic.(map[string]any); !ok {
			generic = map[string]any{"value": generic}
		}
		b, err := toml.Marshal(generic)
		if err != nil {
			return fmt.Errorf("marshal toml: %w", err)
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("format %q is not a document encoding", format)
	}
}

// FormatYAML renders v to YAML with the given indent. Multi-line strings are
// emitted as literal blocks.
func FormatYAML(v any, indent int) (string, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return "", err
	}
	applyLiteralStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if indent <= 0 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(&node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func applyLiteralStyle(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		applyLiteralStyle(c)
	}
}

// toGeneric converts tagged structs into plain maps and slices through YAML,
// dropping nulls, which TOML cannot carry.
func toGeneric(v any) (any, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	var out any
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	return dropNulls(out), nil
}

func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			if e == nil {
				delete(t, k)
				continue
			}
			t[k] = dropNulls(e)
		}
		return t
	case []any:
		out := t[:0]
		for _, e := range t {
			if e != nil {
				out = append(out, dropNulls(e))
			}
		}
		return out
	default:
		return v
	}
}

// Record is one dataset row keyed by field name, in dataset column order.
type Record struct {
	keys   []string
	values []any
}

// Records builds ordered records for the given dataset positions.
func Records(ds *dataset.Dataset, rows []int) []Record {
	fields := ds.Fields()
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		rec := Record{keys: make([]string, len(fields)), values: make([]any, len(fields))}
		for i, f := range fields {
			rec.keys[i] = f.Name
			v := ds.Value(r, i).Any()
			if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
				v = ds.Value(r, i).String()
			}
			rec.values[i] = v
		}
		out = append(out, rec)
	}
	return out
}

// Get returns the value of a field.
func (r Record) Get(name string) (any, bool) {
	for i, k := range r.keys {
		if k == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// MarshalJSON keeps the dataset column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML keeps the dataset column order.
func (r Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i, k := range r.keys {
		var kn, vn yaml.Node
		if err := kn.Encode(k); err != nil {
			return nil, err
		}
		if err := vn.Encode(r.values[i]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &kn, &vn)
	}
	return node, nil
}
