// Package wire reads and writes the space-separated decimal payloads carried
// by Focus commands.
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Fields splits raw on any whitespace.
func Fields(raw string) []string {
	return strings.Fields(raw)
}

// ParseUint16s converts every token to a uint16.
func ParseUint16s(tokens []string) ([]uint16, error) {
	out := make([]uint16, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseUint(tok, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("token %d %q: not a 16-bit value", i, tok)
		}
		out[i] = uint16(v)
	}
	return out, nil
}

// Uint16s parses a whitespace-separated payload into 16-bit values.
func Uint16s(raw string) ([]uint16, error) {
	return ParseUint16s(Fields(raw))
}

// Bytes parses a whitespace-separated payload into byte values.
func Bytes(raw string) ([]byte, error) {
	tokens := Fields(raw)
	out := make([]byte, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseUint(tok, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("token %d %q: not a byte value", i, tok)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// Join renders values separated by single spaces.
func Join[T ~uint8 | ~uint16](values []T) string {
	var b strings.Builder
	b.Grow(len(values) * 4)
	for i, v := range values {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	return b.String()
}
