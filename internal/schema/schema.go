// Package schema validates user-edited keymap, superkey and macro files
// before they are converted and sent to the keyboard.
package schema

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var files embed.FS

// Kind selects a schema.
type Kind string

const (
	Keymap    Kind = "keymap"
	Superkeys Kind = "superkeys"
	Macros    Kind = "macros"
)

const baseURL = "https://keebtools.github.io/dygma/"

var (
	compileOnce sync.Once
	compiled    map[Kind]*jsonschema.Schema
	compileErr  error
)

func compileAll() (map[Kind]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		kinds := []Kind{Keymap, Superkeys, Macros}
		for _, k := range kinds {
			data, err := files.ReadFile("schemas/" + string(k) + ".schema.json")
			if err != nil {
				compileErr = err
				return
			}
			if err := compiler.AddResource(url(k), bytes.NewReader(data)); err != nil {
				compileErr = fmt.Errorf("add schema %s: %w", k, err)
				return
			}
		}
		out := make(map[Kind]*jsonschema.Schema, len(kinds))
		for _, k := range kinds {
			s, err := compiler.Compile(url(k))
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", k, err)
				return
			}
			out[k] = s
		}
		compiled = out
	})
	return compiled, compileErr
}

func url(k Kind) string { return baseURL + string(k) + ".schema.json" }

// Validate checks a generic value, as produced by encoding/json, against
// the schema of kind.
func Validate(k Kind, v any) error {
	all, err := compileAll()
	if err != nil {
		return err
	}
	s, ok := all[k]
	if !ok {
		return fmt.Errorf("no schema for %q", k)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("invalid %s file: %w", k, err)
	}
	return nil
}

// Source returns the raw schema document, for users who want to wire it
// into an editor.
func Source(k Kind) ([]byte, error) {
	return files.ReadFile("schemas/" + string(k) + ".schema.json")
}
