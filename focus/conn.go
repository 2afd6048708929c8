package focus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrStreamTerminated is returned when the device stops sending before a
// response is complete.
var ErrStreamTerminated = errors.New("response stream terminated while waiting for the response to complete")

// Stage names the step of a command exchange that failed.
type Stage string

const (
	StageSend    Stage = "send"
	StageReceive Stage = "receive"
	StageParse   Stage = "parse"
)

// CommandError wraps a failure of RunCommand.
type CommandError struct {
	Command string
	Stage   Stage
	Err     error
}

func (e *CommandError) Error() string {
	switch e.Stage {
	case StageSend:
		return fmt.Sprintf("focus %q: failed to send command: %v", e.Command, e.Err)
	case StageReceive:
		return fmt.Sprintf("focus %q: failed to receive response: %v", e.Command, e.Err)
	default:
		return fmt.Sprintf("focus %q: unexpected response: %v", e.Command, e.Err)
	}
}

func (e *CommandError) Unwrap() error { return e.Err }

// RawLogger receives every chunk written to (out=true) or read from the device.
type RawLogger interface {
	Log(out bool, data []byte)
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets the logger used for protocol diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Conn) { c.logger = l }
}

// WithRawLogger sets a sink for raw traffic.
func WithRawLogger(r RawLogger) Option {
	return func(c *Conn) { c.raw = r }
}

// WithDrainQuiet sets how long the device must stay silent before a command
// that follows a failed one is sent.
func WithDrainQuiet(d time.Duration) Option {
	return func(c *Conn) { c.drainQuiet = d }
}

// DefaultDrainQuiet is the silence required after a failed command.
const DefaultDrainQuiet = 100 * time.Millisecond

// Conn runs Focus commands over a Transport. Commands are serialized; a Conn
// is safe for concurrent use.
//
// A command that fails or is abandoned leaves the link in an unknown state.
// The next command first discards everything the device still sends, so a
// late reply never leaks into a newer response.
type Conn struct {
	mu     sync.Mutex
	t      Transport
	framer Framer
	logger *slog.Logger
	raw    RawLogger

	stale      bool
	drainQuiet time.Duration
}

// NewConn returns a Conn driving t.
func NewConn(t Transport, opts ...Option) *Conn {
	c := &Conn{t: t, logger: slog.Default(), drainQuiet: DefaultDrainQuiet}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Kind reports the kind of the underlying transport.
func (c *Conn) Kind() Kind { return c.t.Kind() }

// Close closes the underlying transport.
func (c *Conn) Close() error { return c.t.Close() }

// RunCommand sends cmd with optional data and waits for the response.
func (c *Conn) RunCommand(ctx context.Context, cmd, data string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stale || c.framer.Buffered() > 0 {
		c.drain(ctx, cmd)
	}

	resp, err := c.exchange(ctx, cmd, data)
	if err != nil {
		c.framer.Reset()
		c.stale = true
		return "", err
	}
	return resp, nil
}

func (c *Conn) exchange(ctx context.Context, cmd, data string) (string, error) {
	line := []byte(SerializeCommand(cmd, data))
	c.logRaw(true, line)
	c.logger.Debug("focus send", "command", cmd, "payloadBytes", len(data))
	if err := c.t.Send(ctx, line); err != nil {
		return "", &CommandError{Command: cmd, Stage: StageSend, Err: err}
	}

	for {
		chunk, err := c.t.Receive(ctx)
		if len(chunk) > 0 {
			c.logRaw(false, chunk)
			resp, done, perr := c.framer.Feed(chunk)
			if perr != nil {
				return "", &CommandError{Command: cmd, Stage: StageParse, Err: perr}
			}
			if done {
				c.logger.Debug("focus response", "command", cmd, "bytes", len(resp))
				return resp, nil
			}
		}
		if errors.Is(err, io.EOF) {
			return "", &CommandError{Command: cmd, Stage: StageReceive, Err: ErrStreamTerminated}
		}
		if err != nil {
			return "", &CommandError{Command: cmd, Stage: StageReceive, Err: err}
		}
	}
}

// drain throws away buffered bytes. After a failed command it also reads and
// drops whatever the device sends until it has been quiet for drainQuiet.
func (c *Conn) drain(ctx context.Context, cmd string) {
	dropped := c.framer.Buffered()
	c.framer.Reset()
	if c.stale {
		for ctx.Err() == nil {
			rctx, cancel := context.WithTimeout(ctx, c.drainQuiet)
			chunk, err := c.t.Receive(rctx)
			cancel()
			if len(chunk) > 0 {
				c.logRaw(false, chunk)
				dropped += len(chunk)
			}
			if err != nil {
				break
			}
		}
	}
	c.stale = false
	if dropped > 0 {
		c.logger.Debug("discarded unread response bytes before command", "command", cmd, "bytes", dropped)
	}
}

// AvailableCommands returns the commands listed by the device's help command.
func (c *Conn) AvailableCommands(ctx context.Context) ([]string, error) {
	resp, err := c.RunCommand(ctx, "help", "")
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve available commands with the `help` command: %w", err)
	}
	if resp == "" {
		return []string{}, nil
	}
	return strings.Split(resp, "\n"), nil
}

func (c *Conn) logRaw(out bool, data []byte) {
	if c.raw != nil {
		c.raw.Log(out, data)
	}
}
