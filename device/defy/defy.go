// Package defy is a handle to a Dygma Defy keyboard.
package defy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/keebtools/dygma/bazecore"
	"github.com/keebtools/dygma/focus"
	"github.com/keebtools/dygma/keymap"
	"github.com/keebtools/dygma/macro"
	"github.com/keebtools/dygma/superkey"
)

const (
	Manufacturer = "DYGMA"
	ProductName  = "DEFY"
	BaudRate     = 115200
	HIDVendorID  = 0x35EF
	HIDProductID = 18
)

// Focus commands used by the typed operations.
const (
	CmdKeymapCustom = "keymap.custom"
	CmdSuperkeys    = "superkeys.map"
	CmdMacros       = "macros.map"
)

// BackupCommands are read by Backup when no explicit list is given. Commands
// the firmware does not list in help are skipped.
var BackupCommands = []string{
	"keymap.custom",
	"keymap.onlyCustom",
	"settings.defaultLayer",
	"superkeys.map",
	"superkeys.waittime",
	"superkeys.timeout",
	"superkeys.repeat",
	"superkeys.holdstart",
	"superkeys.overlap",
	"macros.map",
	"palette",
	"colormap.map",
	"led.brightness",
	"idleleds.time_limit",
}

// Transport selects the link Open uses.
type Transport string

const (
	TransportAuto   Transport = "auto"
	TransportSerial Transport = "serial"
	TransportHID    Transport = "hid"
)

// Options configures Open. The zero value discovers the keyboard over
// serial first and HID second.
type Options struct {
	Transport Transport
	// Port is an explicit serial device or hidraw node.
	Port     string
	BaudRate int
	// Placeholder fills keymap slots without a physical key.
	Placeholder uint16
	Logger      *slog.Logger
	Raw         focus.RawLogger
}

// Keyboard runs typed operations against a Defy.
type Keyboard struct {
	conn        *focus.Conn
	logger      *slog.Logger
	placeholder uint16
}

// New wraps an established connection.
func New(conn *focus.Conn, opts Options) *Keyboard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Keyboard{conn: conn, logger: logger, placeholder: opts.Placeholder}
}

// Open connects to the keyboard.
func Open(ctx context.Context, opts Options) (*Keyboard, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BaudRate == 0 {
		opts.BaudRate = BaudRate
	}
	t, err := openTransport(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create handle to the Dygma Defy keyboard: %w", err)
	}
	opts.Logger.Info("Connected to keyboard", "transport", t.Kind())
	if t.Kind() == focus.KindHID {
		opts.Logger.Warn("Connected over HID. Bluetooth links may stall on large payloads; " +
			"reconnect wired or over RF and restart the keyboard if it stops responding")
	}
	conn := focus.NewConn(t, focus.WithLogger(opts.Logger), focus.WithRawLogger(opts.Raw))
	return New(conn, opts), nil
}

func openTransport(opts Options) (focus.Transport, error) {
	serial := func() (focus.Transport, error) {
		port := opts.Port
		if port == "" {
			var err error
			if port, err = focus.FindSerialPort(Manufacturer, ProductName); err != nil {
				return nil, err
			}
		}
		opts.Logger.Debug("Opening serial port", "port", port, "baud", opts.BaudRate)
		return focus.OpenSerial(port, opts.BaudRate)
	}
	hid := func() (focus.Transport, error) {
		node := opts.Port
		if node == "" {
			var err error
			if node, err = focus.FindHIDDevice(HIDVendorID, HIDProductID); err != nil {
				return nil, err
			}
		}
		opts.Logger.Debug("Opening HID device", "node", node)
		return focus.OpenHID(node)
	}

	switch opts.Transport {
	case TransportSerial:
		return serial()
	case TransportHID:
		return hid()
	case TransportAuto, "":
		t, serr := serial()
		if serr == nil {
			return t, nil
		}
		opts.Logger.Debug("Serial connection failed, trying HID", "error", serr)
		t, herr := hid()
		if herr == nil {
			return t, nil
		}
		return nil, errors.Join(fmt.Errorf("serial: %w", serr), fmt.Errorf("hid: %w", herr))
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Transport)
	}
}

// Close releases the connection.
func (k *Keyboard) Close() error { return k.conn.Close() }

// Kind reports the transport in use.
func (k *Keyboard) Kind() focus.Kind { return k.conn.Kind() }

// RunCommand runs a raw Focus command.
func (k *Keyboard) RunCommand(ctx context.Context, cmd, data string) (string, error) {
	return k.conn.RunCommand(ctx, cmd, data)
}

// AvailableCommands lists the commands the firmware supports.
func (k *Keyboard) AvailableCommands(ctx context.Context) ([]string, error) {
	return k.conn.AvailableCommands(ctx)
}

// GetCustomKeymap reads the custom layers.
func (k *Keyboard) GetCustomKeymap(ctx context.Context) (keymap.Keymap, error) {
	resp, err := k.conn.RunCommand(ctx, CmdKeymapCustom, "")
	if err != nil {
		return nil, err
	}
	return keymap.Parse(resp)
}

// ApplyCustomKeymap writes all custom layers. The keymap must have exactly
// keymap.CustomLayers layers.
func (k *Keyboard) ApplyCustomKeymap(ctx context.Context, km keymap.Keymap) error {
	data, err := km.CommandData(k.placeholder)
	if err != nil {
		return err
	}
	_, err = k.conn.RunCommand(ctx, CmdKeymapCustom, data)
	return err
}

// GetSuperkeys reads the superkey map.
func (k *Keyboard) GetSuperkeys(ctx context.Context) (superkey.Map, error) {
	resp, err := k.conn.RunCommand(ctx, CmdSuperkeys, "")
	if err != nil {
		return nil, err
	}
	return superkey.Parse(resp)
}

// ApplySuperkeys writes the superkey map.
func (k *Keyboard) ApplySuperkeys(ctx context.Context, m superkey.Map) error {
	data, err := m.CommandData(superkey.MemorySize)
	if err != nil {
		return err
	}
	_, err = k.conn.RunCommand(ctx, CmdSuperkeys, data)
	return err
}

// GetMacros reads the macro list.
func (k *Keyboard) GetMacros(ctx context.Context) (macro.List, error) {
	resp, err := k.conn.RunCommand(ctx, CmdMacros, "")
	if err != nil {
		return nil, err
	}
	return macro.Parse(resp)
}

// ApplyMacros writes the macro list.
func (k *Keyboard) ApplyMacros(ctx context.Context, l macro.List) error {
	data, err := l.CommandData(macro.MemorySize)
	if err != nil {
		return err
	}
	_, err = k.conn.RunCommand(ctx, CmdMacros, data)
	return err
}

// Backup reads each command and returns its data. A nil list backs up
// BackupCommands that the firmware supports.
func (k *Keyboard) Backup(ctx context.Context, commands []string) ([]bazecore.Command, error) {
	if commands == nil {
		avail, err := k.conn.AvailableCommands(ctx)
		if err != nil {
			return nil, err
		}
		supported := make(map[string]bool, len(avail))
		for _, c := range avail {
			supported[c] = true
		}
		for _, c := range BackupCommands {
			if supported[c] {
				commands = append(commands, c)
			} else {
				k.logger.Debug("Skipping unsupported command", "command", c)
			}
		}
	}

	out := make([]bazecore.Command, 0, len(commands))
	for _, c := range commands {
		data, err := k.conn.RunCommand(ctx, c, "")
		if err != nil {
			return nil, fmt.Errorf("backup: %w", err)
		}
		out = append(out, bazecore.Command{Command: c, Data: data})
	}
	return out, nil
}

// Restore writes backed up entries back to the keyboard in order. Entries
// without data are skipped, since sending them would only read.
func (k *Keyboard) Restore(ctx context.Context, entries []bazecore.Command) error {
	for _, e := range entries {
		if e.Data == "" {
			k.logger.Debug("Skipping empty backup entry", "command", e.Command)
			continue
		}
		if _, err := k.conn.RunCommand(ctx, e.Command, e.Data); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		k.logger.Info("Restored", "command", e.Command)
	}
	return nil
}
