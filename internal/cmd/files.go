package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/keebtools/dygma/internal/configpaths"
	"github.com/keebtools/dygma/internal/fileformat"
	"github.com/keebtools/dygma/internal/schema"
)

// document describes one kind of user-edited file.
type document struct {
	schema schema.Kind
	root   string
}

var (
	keymapDoc    = document{schema: schema.Keymap, root: "layers"}
	superkeysDoc = document{schema: schema.Superkeys, root: "superkeys"}
	macrosDoc    = document{schema: schema.Macros, root: "macros"}
)

func documentFor(kind string) (document, error) {
	switch kind {
	case "keymap":
		return keymapDoc, nil
	case "superkeys":
		return superkeysDoc, nil
	case "macros":
		return macrosDoc, nil
	default:
		return document{}, fmt.Errorf("unknown document kind %q", kind)
	}
}

func toStdout(path string) bool { return path == "" || path == "-" }

// writeDocument encodes v and writes it to path, or to out when path is
// empty or "-". Stdout defaults to JSON.
func writeDocument(out io.Writer, path, format string, doc document, v any) error {
	f, err := fileformat.Detect(path, format)
	if err != nil {
		return err
	}
	data, err := fileformat.Marshal(v, f, doc.root)
	if err != nil {
		return err
	}
	if toStdout(path) {
		_, err = out.Write(data)
		return err
	}
	if err := configpaths.EnsureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// readDocument decodes the file at path into v. Unless validation is
// skipped the decoded document is checked against its schema first.
func readDocument(path, format string, doc document, validate bool, v any) error {
	f, err := fileformat.Detect(path, format)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	generic, err := fileformat.Decode(data, f, doc.root)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if validate {
		if err := schema.Validate(doc.schema, generic); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := fileformat.Convert(generic, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
