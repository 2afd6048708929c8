// Package focus implements the Focus protocol spoken by Dygma keyboards.
//
// A command is a single line: the command name, optionally followed by a
// space and its payload. The device answers with zero or more lines and ends
// the answer with a line holding a single ".".
package focus

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrIncomplete is returned by ParseResponse when the data does not yet hold
// a terminated response.
var ErrIncomplete = errors.New("focus: response incomplete")

// MalformedResponseError is returned for data that can never become a valid
// response, such as a carriage return in the middle of a line.
type MalformedResponseError struct {
	Line   int
	Offset int
	Text   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("focus: malformed response at line %d (byte %d): %q", e.Line, e.Offset, e.Text)
}

const terminator = "."

// ParseResponse extracts the first response from data. On success it returns
// the response lines joined with "\n" and the number of bytes consumed,
// including the terminator and its line ending.
//
// Lines may end in "\r\n" or "\n". A terminator at the very end of data
// completes the response even without a line ending.
func ParseResponse(data string) (string, int, error) {
	var lines []string
	pos := 0
	for {
		rest := data[pos:]
		switch {
		case rest == terminator:
			return strings.Join(lines, "\n"), pos + 1, nil
		case strings.HasPrefix(rest, terminator+"\n"):
			return strings.Join(lines, "\n"), pos + 2, nil
		case strings.HasPrefix(rest, terminator+"\r\n"):
			return strings.Join(lines, "\n"), pos + 3, nil
		}

		i := strings.IndexByte(rest, '\n')
		if i < 0 {
			// A trailing CR may still be followed by LF.
			if j := strings.IndexByte(rest, '\r'); j >= 0 && j < len(rest)-1 {
				return "", 0, &MalformedResponseError{Line: len(lines) + 1, Offset: pos + j, Text: rest}
			}
			return "", 0, ErrIncomplete
		}
		line := strings.TrimSuffix(rest[:i], "\r")
		if j := strings.IndexByte(line, '\r'); j >= 0 {
			return "", 0, &MalformedResponseError{Line: len(lines) + 1, Offset: pos + j, Text: line}
		}
		lines = append(lines, line)
		pos += i + 1
	}
}

// Framer accumulates received chunks until they hold a complete response.
// The zero value is ready to use.
type Framer struct {
	buf []byte
	// bareDot is set when the last response ended at a "." without its line
	// ending, which may still arrive with the next chunk.
	bareDot bool
}

// Feed appends chunk to the buffer and tries to extract a response. Bytes
// past the end of the response stay buffered for the next call. After a
// MalformedResponseError the buffer is empty.
//
// A buffer that is not valid UTF-8 is treated as incomplete, since chunk
// boundaries may split a multi-byte sequence.
func (f *Framer) Feed(chunk []byte) (string, bool, error) {
	f.buf = append(f.buf, chunk...)
	if f.bareDot {
		if !f.skipLineEnding() {
			return "", false, nil
		}
	}
	if !utf8.Valid(f.buf) {
		return "", false, nil
	}
	resp, n, err := ParseResponse(string(f.buf))
	if errors.Is(err, ErrIncomplete) {
		return "", false, nil
	}
	if err != nil {
		// A malformed buffer never recovers; start over with the next chunk.
		f.Reset()
		return "", false, err
	}
	f.bareDot = f.buf[n-1] == '.'
	f.buf = append([]byte(nil), f.buf[n:]...)
	return resp, true, nil
}

// skipLineEnding drops the line ending of a terminator seen earlier. It
// returns false while the buffer is too short to decide.
func (f *Framer) skipLineEnding() bool {
	switch {
	case len(f.buf) == 0:
		return false
	case f.buf[0] == '\n':
		f.buf = f.buf[1:]
	case f.buf[0] == '\r':
		if len(f.buf) == 1 {
			return false
		}
		if f.buf[1] == '\n' {
			f.buf = f.buf[2:]
		} else {
			f.buf = f.buf[1:]
		}
	}
	f.bareDot = false
	return true
}

// Buffered returns the number of bytes held but not yet consumed.
func (f *Framer) Buffered() int { return len(f.buf) }

// Reset drops all buffered bytes.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
	f.bareDot = false
}

// SerializeCommand renders a command line. An empty data sends the command
// without payload.
func SerializeCommand(cmd, data string) string {
	if data == "" {
		return cmd + "\n"
	}
	return cmd + " " + data + "\n"
}
