package log

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"
)

// RawLogger records raw Focus traffic.
type RawLogger interface {
	Log(out bool, data []byte)
}

// rawLogger implements RawLogger with thread-safe log.
type rawLogger struct {
	w   io.Writer
	mu  sync.Mutex
	now func() time.Time
}

// NewRaw creates a new RawLogger. If writer is nil, returns a no-op logger.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w, now: time.Now}
}

// Log emits a single-line raw traffic log with timestamp, hex dump and the
// quoted text, since Focus traffic is mostly ASCII.
// out=true means host->device, out=false means device->host.
func (r *rawLogger) Log(out bool, data []byte) {
	if len(data) == 0 {
		return
	}
	if r.w == nil {
		return
	}

	dir := "D->H"
	if out {
		dir = "H->D"
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s chunk: %d bytes, hex: %s, text: %s\n",
		r.now().Format("2006/01/02 15:04:05"),
		dir,
		len(data),
		hexbuf.String(),
		strconv.Quote(string(data)))

	r.mu.Lock()
	_, _ = r.w.Write([]byte(line))
	r.mu.Unlock()
}
