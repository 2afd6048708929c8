package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/keebtools/dygma/keycode"
	"github.com/keebtools/dygma/keymap"
	"github.com/keebtools/dygma/macro"
	"github.com/keebtools/dygma/superkey"
)

// RawCommand groups offline decoding of raw Focus values.
type RawCommand struct {
	Keymap        RawKeymap        `cmd:"" help:"Decode raw keymap data"`
	Keycode       RawKeycode       `cmd:"" help:"Get a human-readable name for a key code"`
	KeycodeString RawKeycodeString `cmd:"" name:"keycode-string" help:"Describe a string of space separated key codes"`
	Symbol        RawSymbol        `cmd:"" help:"Get the key code for a key name"`
	Superkeys     RawSuperkeys     `cmd:"" help:"Decode raw superkey data"`
	Macros        RawMacros        `cmd:"" help:"Decode raw macro data"`
}

type RawKeymap struct {
	Data   string `arg:"" help:"Raw keymap data"`
	Format string `short:"f" help:"Output format (json, yaml, toml)" default:"json"`
}

// Run is called by Kong when the raw keymap command is executed.
func (c *RawKeymap) Run(out io.Writer) error {
	km, err := keymap.Parse(c.Data)
	if err != nil {
		return err
	}
	return writeDocument(out, "", c.Format, keymapDoc, km.Renumber())
}

type RawKeycode struct {
	Code uint16 `arg:"" help:"Key code"`
}

// Run is called by Kong when the raw keycode command is executed.
func (c *RawKeycode) Run(out io.Writer) error {
	_, err := fmt.Fprintln(out, keycode.Decode(c.Code))
	return err
}

type RawKeycodeString struct {
	Keys string `arg:"" help:"Space separated key codes"`
}

// Run is called by Kong when the raw keycode-string command is executed.
func (c *RawKeycodeString) Run(out io.Writer) error {
	fields := strings.Fields(c.Keys)
	names := make([]string, 0, len(fields))
	for i, f := range fields {
		code, err := strconv.ParseUint(f, 10, 16)
		if err != nil {
			return fmt.Errorf("key %d: %q is not a key code: %w", i, f, err)
		}
		names = append(names, keycode.Decode(uint16(code)).String())
	}
	_, err := fmt.Fprintln(out, strings.Join(names, " "))
	return err
}

type RawSymbol struct {
	Name string `arg:"" help:"Key name or display form, e.g. CtrlShiftA or Ctrl+Shift+A"`
}

// Run is called by Kong when the raw symbol command is executed.
func (c *RawSymbol) Run(out io.Writer) error {
	k, err := keycode.Parse(c.Name)
	if err != nil {
		return fmt.Errorf("%q: %w", c.Name, err)
	}
	_, err = fmt.Fprintf(out, "%d\t%s\t%s\n", keycode.Encode(k), k.Name(), k.Table)
	return err
}

type RawSuperkeys struct {
	Data   string `arg:"" help:"Raw superkey data"`
	Format string `short:"f" help:"Output format (json, yaml, toml)" default:"json"`
}

// Run is called by Kong when the raw superkeys command is executed.
func (c *RawSuperkeys) Run(out io.Writer) error {
	m, err := superkey.Parse(c.Data)
	if err != nil {
		return err
	}
	return writeDocument(out, "", c.Format, superkeysDoc, m.Renumber())
}

type RawMacros struct {
	Data    string `arg:"" help:"Raw macro data"`
	Format  string `short:"f" help:"Output format (json, yaml, toml)" default:"json"`
	Variant string `help:"How action kinds 1 to 5 are decoded" enum:"extended,raw" default:"extended"`
}

// Run is called by Kong when the raw macros command is executed.
func (c *RawMacros) Run(out io.Writer) error {
	v := macro.Extended
	if c.Variant == "raw" {
		v = macro.Raw
	}
	l, _, err := macro.ParseVariant(c.Data, v)
	if err != nil {
		return err
	}
	return writeDocument(out, "", c.Format, macrosDoc, l.Renumber())
}
