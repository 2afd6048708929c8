package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keebtools/dygma/device/defy"
	"github.com/keebtools/dygma/internal/log"
)

// LogOptions are the global logging flags.
type LogOptions struct {
	Level   string `help:"Log level (trace, debug, info, warn, error)" default:"info" enum:"trace,debug,info,warn,error" env:"DYGMA_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" env:"DYGMA_LOG_FILE"`
	RawFile string `help:"Write a hex dump of Focus traffic to this file" env:"DYGMA_LOG_RAW_FILE"`
}

// DeviceOptions select and configure the keyboard connection.
type DeviceOptions struct {
	Transport   string        `help:"Link to the keyboard (auto, serial, hid)" default:"auto" enum:"auto,serial,hid" env:"DYGMA_TRANSPORT"`
	Port        string        `help:"Serial port or hidraw node; discovered when empty" env:"DYGMA_PORT"`
	Baud        int           `help:"Serial baud rate" default:"115200" env:"DYGMA_BAUD"`
	Timeout     time.Duration `help:"Timeout for one keyboard operation" default:"30s" env:"DYGMA_TIMEOUT"`
	Placeholder uint16        `help:"Value written to keymap slots without a physical key" default:"0" env:"DYGMA_PLACEHOLDER"`
}

// StoreOptions locate the backup history.
type StoreOptions struct {
	DB string `help:"Backup database path (defaults to the user data directory)" env:"DYGMA_BACKUP_DB"`
}

// Settings are the options shared by all commands. They can be set from a
// configuration file.
type Settings struct {
	Log    LogOptions    `embed:"" prefix:"log."`
	Device DeviceOptions `embed:"" prefix:"device."`
	Store  StoreOptions  `embed:"" prefix:"backup."`
}

// Device opens the keyboard for commands that talk to it.
type Device struct {
	Options DeviceOptions
	Logger  *slog.Logger
	Raw     log.RawLogger

	// Dial replaces defy.Open when set.
	Dial func(ctx context.Context) (*defy.Keyboard, error)
}

// Open connects to the keyboard.
func (d *Device) Open(ctx context.Context) (*defy.Keyboard, error) {
	if d.Dial != nil {
		return d.Dial(ctx)
	}
	return defy.Open(ctx, defy.Options{
		Transport:   defy.Transport(d.Options.Transport),
		Port:        d.Options.Port,
		BaudRate:    d.Options.Baud,
		Placeholder: d.Options.Placeholder,
		Logger:      d.Logger,
		Raw:         d.Raw,
	})
}

// Do opens the keyboard, runs fn within the operation timeout and closes
// the keyboard again.
func (d *Device) Do(ctx context.Context, fn func(ctx context.Context, kb *defy.Keyboard) error) error {
	kb, err := d.Open(ctx)
	if err != nil {
		return err
	}
	defer kb.Close()

	ctx, cancel := d.operation(ctx)
	defer cancel()
	return fn(ctx, kb)
}

func (d *Device) operation(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.Options.Timeout > 0 {
		return context.WithTimeout(ctx, d.Options.Timeout)
	}
	return context.WithCancel(ctx)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
