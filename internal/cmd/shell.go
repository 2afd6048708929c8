package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/keebtools/dygma/device/defy"
	"github.com/keebtools/dygma/focus"
	"github.com/keebtools/dygma/internal/suggest"
	"golang.org/x/term"
)

const shellPrompt = "focus> "

// Shell is an interactive Focus prompt. Each line is a command followed by
// its data. When stdin is not a terminal, lines are read as a script.
type Shell struct {
	NoCheck bool `help:"Send commands the keyboard does not list in help"`
}

type lineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct{ s *bufio.Scanner }

func (r scannerReader) ReadLine() (string, error) {
	if r.s.Scan() {
		return r.s.Text(), nil
	}
	if err := r.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Run is called by Kong when the shell command is executed.
func (s *Shell) Run(dev *Device, out io.Writer, logger *slog.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	kb, err := dev.Open(ctx)
	if err != nil {
		return err
	}
	defer kb.Close()

	setup, cancel := dev.operation(ctx)
	available, err := kb.AvailableCommands(setup)
	cancel()
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		in := scannerReader{bufio.NewScanner(os.Stdin)}
		return s.session(ctx, dev, kb, available, in, out, logger)
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enable raw mode: %w", err)
	}
	defer func() {
		if err := term.Restore(fd, state); err != nil {
			logger.Warn("Failed to restore terminal", "error", err)
		}
	}()

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, shellPrompt)
	t.AutoCompleteCallback = completer(available)
	if w, h, err := term.GetSize(fd); err == nil {
		_ = t.SetSize(w, h)
	}
	fmt.Fprintf(t, "Connected over %s. Tab completes commands, Ctrl-D exits.\n", kb.Kind())
	return s.session(ctx, dev, kb, available, t, t, logger)
}

// session runs lines from in until EOF, "exit" or "quit".
func (s *Shell) session(ctx context.Context, dev *Device, kb *defy.Keyboard, available []string,
	in lineReader, out io.Writer, logger *slog.Logger) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := in.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		cmd, data, _ := strings.Cut(strings.TrimSpace(line), " ")
		data = strings.TrimSpace(data)
		switch cmd {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if !s.NoCheck && !slices.Contains(available, cmd) {
			unknown := &UnknownCommandError{Command: cmd, Suggestions: suggest.Commands(available, cmd, suggest.Limit)}
			fmt.Fprintln(out, unknown)
			continue
		}

		opCtx, cancel := dev.operation(ctx)
		resp, err := kb.RunCommand(opCtx, cmd, data)
		cancel()
		if errors.Is(err, focus.ErrStreamTerminated) {
			return err
		}
		if err != nil {
			logger.Debug("Command failed", "command", cmd, "error", err)
			fmt.Fprintln(out, "error:", err)
			continue
		}
		if resp != "" {
			fmt.Fprintln(out, resp)
		}
	}
}

// completer completes the first word of the line from the command list.
func completer(available []string) func(line string, pos int, key rune) (string, int, bool) {
	sorted := append([]string(nil), available...)
	sort.Strings(sorted)
	return func(line string, pos int, key rune) (string, int, bool) {
		if key != '\t' || strings.Contains(line[:pos], " ") {
			return "", 0, false
		}
		prefix := line[:pos]
		var matches []string
		for _, c := range sorted {
			if strings.HasPrefix(c, prefix) {
				matches = append(matches, c)
			}
		}
		if len(matches) == 0 {
			return "", 0, false
		}
		common := matches[0]
		for _, m := range matches[1:] {
			for !strings.HasPrefix(m, common) {
				common = common[:len(common)-1]
			}
		}
		return common + line[pos:], len(common), true
	}
}
