package cmd

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/keebtools/dygma/device/defy"
	"github.com/keebtools/dygma/internal/watcher"
)

// Watch uploads a file every time it is saved.
type Watch struct {
	InputFlags
	Kind     string        `short:"k" help:"Document kind (keymap, superkeys, macros); guessed from the file name when empty"`
	Debounce time.Duration `help:"Quiet period after the last write before uploading" default:"500ms" env:"DYGMA_WATCH_DEBOUNCE"`
}

// guessKind picks the document kind from a file name.
func guessKind(path string) string {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(base, "superkey"):
		return "superkeys"
	case strings.Contains(base, "macro"):
		return "macros"
	default:
		return "keymap"
	}
}

// Run is called by Kong when the watch command is executed.
func (w *Watch) Run(dev *Device, logger *slog.Logger) error {
	ctx, stop := signalContext()
	defer stop()
	return w.watch(ctx, dev, logger)
}

func (w *Watch) watch(ctx context.Context, dev *Device, logger *slog.Logger) error {
	kind := w.Kind
	if kind == "" {
		kind = guessKind(w.File)
	}
	if _, err := documentFor(kind); err != nil {
		return err
	}

	fw, err := watcher.New(w.File, w.Debounce)
	if err != nil {
		return err
	}
	if err := fw.Start(); err != nil {
		return err
	}
	defer fw.Stop()

	logger.Info("Watching file", "file", fw.Path(), "kind", kind)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopped watching", "file", fw.Path())
			return nil
		case err := <-fw.Errors():
			logger.Warn("Watch error", "error", err)
		case <-fw.Changes():
			err := dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
				return applyFile(ctx, kb, logger, kind, w.InputFlags)
			})
			if err != nil {
				// Keep watching so the next save can fix the file.
				logger.Error("Failed to apply file", "file", fw.Path(), "error", err)
			}
		}
	}
}
