package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/keebtools/dygma/bazecore"
	"github.com/keebtools/dygma/device/defy"
	"github.com/keebtools/dygma/keycode"
	"github.com/keebtools/dygma/keymap"
	"github.com/keebtools/dygma/macro"
	"github.com/keebtools/dygma/superkey"
)

// OutputFlags choose where a downloaded document goes.
type OutputFlags struct {
	Output string `short:"o" help:"Destination file; stdout when empty or -" default:"-"`
	Format string `short:"f" help:"File format (json, yaml, toml); detected from the extension when empty"`
}

// InputFlags describe a document to upload.
type InputFlags struct {
	File       string `arg:"" type:"existingfile" help:"File to upload"`
	Format     string `short:"f" help:"File format (json, yaml, toml); detected from the extension when empty"`
	NoValidate bool   `help:"Skip schema validation of the file"`
}

// KeymapCommand groups the custom keymap subcommands.
type KeymapCommand struct {
	Get        KeymapGet        `cmd:"" help:"Download the custom keymap"`
	Apply      KeymapApply      `cmd:"" help:"Upload a keymap file to the custom layers"`
	ClearLayer KeymapClearLayer `cmd:"" name:"clear-layer" help:"Fill one custom layer with a single key"`
	Show       KeymapShow       `cmd:"" help:"Print the custom keymap as a table"`
}

type KeymapGet struct {
	OutputFlags
}

// Run is called by Kong when the keymap get command is executed.
func (c *KeymapGet) Run(dev *Device, out io.Writer) error {
	ctx, stop := signalContext()
	defer stop()

	return dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
		km, err := kb.GetCustomKeymap(ctx)
		if err != nil {
			return err
		}
		return writeDocument(out, c.Output, c.Format, keymapDoc, km.Renumber())
	})
}

type KeymapApply struct {
	InputFlags
}

// Run is called by Kong when the keymap apply command is executed.
func (c *KeymapApply) Run(dev *Device, logger *slog.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	return dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
		return applyFile(ctx, kb, logger, "keymap", c.InputFlags)
	})
}

type KeymapClearLayer struct {
	Layer int    `arg:"" help:"Layer number, starting at 1"`
	Key   string `help:"Key to fill the layer with" default:"Transparent"`
}

// Run is called by Kong when the keymap clear-layer command is executed.
func (c *KeymapClearLayer) Run(dev *Device, logger *slog.Logger) error {
	key, err := keycode.Parse(c.Key)
	if err != nil {
		return fmt.Errorf("--key %q: %w", c.Key, err)
	}

	ctx, stop := signalContext()
	defer stop()

	return dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
		km, err := kb.GetCustomKeymap(ctx)
		if err != nil {
			return err
		}
		if err := km.ClearLayer(c.Layer, key); err != nil {
			return err
		}
		if err := kb.ApplyCustomKeymap(ctx, km); err != nil {
			return err
		}
		logger.Info("Cleared layer", "layer", c.Layer, "key", key)
		return nil
	})
}

type KeymapShow struct {
	Layer int    `help:"Only show this layer (1-based)"`
	From  string `type:"existingfile" help:"Read a Bazecore backup file instead of the keyboard"`
}

// Run is called by Kong when the keymap show command is executed.
func (c *KeymapShow) Run(dev *Device, out io.Writer) error {
	if c.From != "" {
		cfg, err := bazecore.Load(c.From)
		if err != nil {
			return err
		}
		km, err := cfg.Keymap()
		if err != nil {
			return err
		}
		return renderKeymap(out, km, c.Layer, cfg.LayerName)
	}

	ctx, stop := signalContext()
	defer stop()

	return dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
		km, err := kb.GetCustomKeymap(ctx)
		if err != nil {
			return err
		}
		return renderKeymap(out, km, c.Layer, nil)
	})
}

// renderKeymap prints each layer with both halves side by side. name, when
// set, supplies titles for 1-based layer numbers.
func renderKeymap(out io.Writer, km keymap.Keymap, only int, name func(int) string) error {
	if only < 0 || only > len(km) {
		return fmt.Errorf("layer %d out of range 1..%d", only, len(km))
	}
	tw := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
	for i, layer := range km {
		if only != 0 && i != only-1 {
			continue
		}
		title := fmt.Sprintf("Layer %d", i+1)
		if name != nil {
			if n := name(i + 1); n != "" && n != title {
				title += " (" + n + ")"
			}
		}
		fmt.Fprintln(tw, title)
		l, r := layer.Left, layer.Right
		rows := [][2][]keycode.Key{
			{l.Row1[:], r.Row1[:]},
			{l.Row2[:], r.Row2[:]},
			{l.Row3[:], r.Row3[:]},
			{l.Row4[:], r.Row4[:]},
			{l.ThumbCluster.Top[:], r.ThumbCluster.Top[:]},
			{l.ThumbCluster.Bottom[:], r.ThumbCluster.Bottom[:]},
		}
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t|\t%s\t\n", keyCells(row[0]), keyCells(row[1]))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func keyCells(keys []keycode.Key) string {
	cells := make([]string, len(keys))
	for i, k := range keys {
		cells[i] = k.String()
	}
	return strings.Join(cells, "\t")
}

// SuperkeysCommand groups the superkey subcommands.
type SuperkeysCommand struct {
	Get   SuperkeysGet   `cmd:"" help:"Download the superkey map"`
	Apply SuperkeysApply `cmd:"" help:"Upload a superkey file"`
}

type SuperkeysGet struct {
	OutputFlags
}

// Run is called by Kong when the superkeys get command is executed.
func (c *SuperkeysGet) Run(dev *Device, out io.Writer) error {
	ctx, stop := signalContext()
	defer stop()

	return dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
		m, err := kb.GetSuperkeys(ctx)
		if err != nil {
			return err
		}
		return writeDocument(out, c.Output, c.Format, superkeysDoc, m.Renumber())
	})
}

type SuperkeysApply struct {
	InputFlags
}

// Run is called by Kong when the superkeys apply command is executed.
func (c *SuperkeysApply) Run(dev *Device, logger *slog.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	return dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
		return applyFile(ctx, kb, logger, "superkeys", c.InputFlags)
	})
}

// MacrosCommand groups the macro subcommands.
type MacrosCommand struct {
	Get   MacrosGet   `cmd:"" help:"Download the macros"`
	Apply MacrosApply `cmd:"" help:"Upload a macro file"`
}

type MacrosGet struct {
	OutputFlags
}

// Run is called by Kong when the macros get command is executed.
func (c *MacrosGet) Run(dev *Device, out io.Writer) error {
	ctx, stop := signalContext()
	defer stop()

	return dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
		l, err := kb.GetMacros(ctx)
		if err != nil {
			return err
		}
		return writeDocument(out, c.Output, c.Format, macrosDoc, l.Renumber())
	})
}

type MacrosApply struct {
	InputFlags
}

// Run is called by Kong when the macros apply command is executed.
func (c *MacrosApply) Run(dev *Device, logger *slog.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	return dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
		return applyFile(ctx, kb, logger, "macros", c.InputFlags)
	})
}

// applyFile reads a document of the given kind and uploads it.
func applyFile(ctx context.Context, kb *defy.Keyboard, logger *slog.Logger, kind string, in InputFlags) error {
	doc, err := documentFor(kind)
	if err != nil {
		return err
	}
	validate := !in.NoValidate

	switch kind {
	case "keymap":
		var km keymap.Keymap
		if err := readDocument(in.File, in.Format, doc, validate, &km); err != nil {
			return err
		}
		if err := kb.ApplyCustomKeymap(ctx, km); err != nil {
			return err
		}
		logger.Info("Applied keymap", "file", in.File, "layers", len(km))
	case "superkeys":
		var m superkey.Map
		if err := readDocument(in.File, in.Format, doc, validate, &m); err != nil {
			return err
		}
		if err := kb.ApplySuperkeys(ctx, m); err != nil {
			return err
		}
		logger.Info("Applied superkeys", "file", in.File, "count", len(m))
	case "macros":
		var l macro.List
		if err := readDocument(in.File, in.Format, doc, validate, &l); err != nil {
			return err
		}
		if err := kb.ApplyMacros(ctx, l); err != nil {
			return err
		}
		logger.Info("Applied macros", "file", in.File, "count", len(l))
	}
	return nil
}
