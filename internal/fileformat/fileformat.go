// Package fileformat reads and writes keymap, superkey and macro files as
// JSON, YAML or TOML.
//
// All formats share the JSON shape of the value. TOML documents need a table
// at the top, so the value is stored under a root key there.
package fileformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// Parse normalizes a format name.
func Parse(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Detect picks the format for path. A non-empty override wins; otherwise
// the extension decides and anything unknown is JSON.
func Detect(path, override string) (Format, error) {
	if override != "" {
		return Parse(override)
	}
	if f, err := Parse(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f, nil
	}
	return JSON, nil
}

// Marshal encodes v. root names the TOML table holding the value.
func Marshal(v any, f Format, root string) ([]byte, error) {
	switch f {
	case JSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case YAML:
		return yaml.Marshal(v)
	case TOML:
		generic, err := toGeneric(v)
		if err != nil {
			return nil, err
		}
		tree, err := toml.TreeFromMap(map[string]any{root: dropNulls(generic)})
		if err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		s, err := tree.ToTomlString()
		if err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return []byte(s), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", f)
	}
}

// Decode parses data into the generic shape encoding/json produces, with
// integers kept as json.Number. For TOML the value under root is returned.
func Decode(data []byte, f Format, root string) (any, error) {
	var raw any
	switch f {
	case JSON:
		raw = json.RawMessage(data)
	case YAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case TOML:
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		v := tree.Get(root)
		if v == nil {
			return nil, fmt.Errorf("decode toml: missing %q", root)
		}
		if sub, ok := v.(*toml.Tree); ok {
			raw = sub.ToMap()
		} else if tables, ok := v.([]*toml.Tree); ok {
			items := make([]any, len(tables))
			for i, t := range tables {
				items[i] = t.ToMap()
			}
			raw = items
		} else {
			raw = v
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", f)
	}
	return toGeneric(raw)
}

// Convert stores a generic value into v through its JSON encoding.
func Convert(generic any, v any) error {
	b, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, f Format, root string, v any) error {
	generic, err := Decode(data, f, root)
	if err != nil {
		return err
	}
	return Convert(generic, v)
}

func toGeneric(v any) (any, error) {
	b, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if b, err = json.Marshal(v); err != nil {
			return nil, err
		}
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// dropNulls removes null members, which TOML cannot express, and turns
// json.Number into the int64 or float64 go-toml expects.
func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if e != nil {
				out[k] = dropNulls(e)
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			if e != nil {
				out = append(out, dropNulls(e))
			}
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}
