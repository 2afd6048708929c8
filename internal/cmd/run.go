package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/keebtools/dygma/device/defy"
	"github.com/keebtools/dygma/internal/suggest"
)

// UnknownCommandError is returned for a Focus command the keyboard does not
// list in help.
type UnknownCommandError struct {
	Command     string
	Suggestions []string
}

func (e *UnknownCommandError) Error() string {
	msg := fmt.Sprintf("`%s` is not a valid command", e.Command)
	if len(e.Suggestions) > 0 {
		msg += "; did you mean one of these? " + strings.Join(e.Suggestions, ", ")
	}
	return msg
}

// checkCommand verifies that cmd is known to the keyboard.
func checkCommand(ctx context.Context, kb *defy.Keyboard, cmd string) error {
	available, err := kb.AvailableCommands(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(available, cmd) {
		return nil
	}
	return &UnknownCommandError{
		Command:     cmd,
		Suggestions: suggest.Commands(available, cmd, suggest.Limit),
	}
}

// RunCommand executes one low level Focus command.
type RunCommand struct {
	Command string `short:"c" required:"" help:"The command to be executed"`
	Data    string `short:"d" help:"The data to be submitted along with this command"`
}

// Run is called by Kong when the run command is executed.
func (r *RunCommand) Run(dev *Device, out io.Writer, logger *slog.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	return dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
		if err := checkCommand(ctx, kb, r.Command); err != nil {
			return err
		}
		logger.Debug("Running command", "command", r.Command, "dataLen", len(r.Data))
		resp, err := kb.RunCommand(ctx, r.Command, r.Data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, resp)
		return err
	})
}

// Commands lists the Focus commands the keyboard supports.
type Commands struct{}

// Run is called by Kong when the commands command is executed.
func (c *Commands) Run(dev *Device, out io.Writer) error {
	ctx, stop := signalContext()
	defer stop()

	return dev.Do(ctx, func(ctx context.Context, kb *defy.Keyboard) error {
		available, err := kb.AvailableCommands(ctx)
		if err != nil {
			return err
		}
		for _, name := range available {
			if _, err := fmt.Fprintln(out, name); err != nil {
				return err
			}
		}
		return nil
	})
}
