package focus

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"
)

// ErrDeviceNotFound is returned when no matching device is attached.
var ErrDeviceNotFound = errors.New("focus: device not found")

// Kind identifies the link a Transport talks over.
type Kind uint8

const (
	KindStream Kind = iota
	KindSerial
	KindHID
)

func (k Kind) String() string {
	switch k {
	case KindSerial:
		return "serial"
	case KindHID:
		return "hid"
	default:
		return "stream"
	}
}

// Transport moves raw bytes to and from a device. Receive returns io.EOF
// once the device side is gone.
type Transport interface {
	Send(ctx context.Context, data []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
	Kind() Kind
}

const readChunk = 4096

type deadliner interface {
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
}

// StreamTransport is a Transport over a byte stream such as a serial port
// or a net.Conn. Context cancellation is honored when the stream supports
// deadlines.
type StreamTransport struct {
	rwc  io.ReadWriteCloser
	kind Kind
	buf  []byte

	closeOnce sync.Once
	closeErr  error
}

// NewStreamTransport wraps rwc.
func NewStreamTransport(rwc io.ReadWriteCloser, kind Kind) *StreamTransport {
	return &StreamTransport{rwc: rwc, kind: kind, buf: make([]byte, readChunk)}
}

func (t *StreamTransport) Kind() Kind { return t.kind }

func (t *StreamTransport) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d, ok := t.rwc.(deadliner); ok {
		stop := watchDeadline(ctx, d.SetWriteDeadline)
		defer stop()
	}
	_, err := t.rwc.Write(data)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (t *StreamTransport) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d, ok := t.rwc.(deadliner); ok {
		stop := watchDeadline(ctx, d.SetReadDeadline)
		defer stop()
	}
	n, err := t.rwc.Read(t.buf)
	if n > 0 {
		out := make([]byte, n)
		copy(out, t.buf[:n])
		return out, nil
	}
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, os.ErrClosed) {
		err = io.EOF
	}
	return nil, err
}

func (t *StreamTransport) Close() error {
	t.closeOnce.Do(func() { t.closeErr = t.rwc.Close() })
	return t.closeErr
}

// watchDeadline interrupts pending I/O once ctx is done. The returned func
// clears the deadline again.
func watchDeadline(ctx context.Context, set func(time.Time) error) func() {
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = set(time.Now())
		close(fired)
	})
	return func() {
		if !stop() {
			<-fired
		}
		_ = set(time.Time{})
	}
}
