// Package superkey parses and serializes the superkeys.map memory region.
//
// Each superkey is five action codes followed by a 0. The map ends at a 0
// where the next superkey would start, or where only 65535 filler remains.
// A superkey may itself start with 65535 (Transparent).
package superkey

import (
	"errors"
	"fmt"

	"github.com/keebtools/dygma/internal/wire"
	"github.com/keebtools/dygma/keycode"
)

const (
	// MemorySize is the number of values in the superkey region of the Defy.
	MemorySize = 512

	// valuesPerKey is five actions plus the group terminator.
	valuesPerKey = 6

	noAction   uint16 = 1
	terminator uint16 = 0
	filler     uint16 = 0xFFFF
)

// ErrTooManySuperkeys is returned when a map does not fit in the memory region.
var ErrTooManySuperkeys = errors.New("too many superkeys")

// CapacityError carries the sizes behind ErrTooManySuperkeys.
type CapacityError struct {
	Needed   int
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: need %d values, capacity is %d", ErrTooManySuperkeys, e.Needed, e.Capacity)
}

func (e *CapacityError) Unwrap() error { return ErrTooManySuperkeys }

// ParseError reports superkey data that does not follow the grammar.
type ParseError struct {
	Index  int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse superkeys at value %d: %s", e.Index, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Superkey holds up to five actions. A nil action does nothing.
type Superkey struct {
	// Number is the 1-based slot, matching the "Super Key N" keycode. It is
	// set by Map.Renumber and ignored otherwise.
	Number        int          `json:"superkey_number" yaml:"superkey_number"`
	Tap           *keycode.Key `json:"tap" yaml:"tap"`
	Hold          *keycode.Key `json:"hold" yaml:"hold"`
	TapHold       *keycode.Key `json:"tap_hold" yaml:"tap_hold"`
	DoubleTap     *keycode.Key `json:"double_tap" yaml:"double_tap"`
	DoubleTapHold *keycode.Key `json:"double_tap_hold" yaml:"double_tap_hold"`
}

func (s *Superkey) actions() [5]**keycode.Key {
	return [5]**keycode.Key{&s.Tap, &s.Hold, &s.TapHold, &s.DoubleTap, &s.DoubleTapHold}
}

// Data encodes the superkey as five actions and the group terminator.
func (s Superkey) Data() [valuesPerKey]uint16 {
	var out [valuesPerKey]uint16
	for i, a := range s.actions() {
		out[i] = encodeAction(*a)
	}
	out[5] = terminator
	return out
}

func decodeAction(code uint16) *keycode.Key {
	if code == noAction {
		return nil
	}
	k := keycode.Decode(code)
	if k == (keycode.Key{Table: keycode.Blank, Code: 0}) {
		return nil
	}
	return &k
}

func encodeAction(k *keycode.Key) uint16 {
	if k == nil || keycode.Encode(*k) == 0 {
		return noAction
	}
	return keycode.Encode(*k)
}

// Map is an ordered list of superkeys.
type Map []Superkey

// Parse decodes superkey data.
func Parse(raw string) (Map, error) {
	values, err := wire.Uint16s(raw)
	if err != nil {
		return nil, &ParseError{Reason: "invalid value", Err: err}
	}
	return Decode(values)
}

// Decode decodes superkey values.
func Decode(values []uint16) (Map, error) {
	var m Map
	i := 0
	for i < len(values) && values[i] != terminator && !onlyFiller(values[i:]) {
		if len(values)-i < valuesPerKey {
			return nil, &ParseError{Index: i, Reason: fmt.Sprintf("superkey %d is truncated", len(m)+1)}
		}
		if values[i+5] != terminator {
			return nil, &ParseError{Index: i + 5, Reason: fmt.Sprintf("superkey %d: expected terminator 0, got %d", len(m)+1, values[i+5])}
		}
		var s Superkey
		for j, a := range s.actions() {
			*a = decodeAction(values[i+j])
		}
		m = append(m, s)
		i += valuesPerKey
	}
	return m.Renumber(), nil
}

func onlyFiller(values []uint16) bool {
	for _, v := range values {
		if v != filler {
			return false
		}
	}
	return true
}

// Renumber sets the 1-based superkey numbers and returns m.
func (m Map) Renumber() Map {
	for i := range m {
		m[i].Number = i + 1
	}
	return m
}

// Serialize encodes the map followed by a terminating 0 and pads it with
// 65535 to capacity. A map that does not fit is an error, it is never
// truncated.
func (m Map) Serialize(capacity int) ([]uint16, error) {
	needed := len(m)*valuesPerKey + 1
	if needed > capacity {
		return nil, &CapacityError{Needed: needed, Capacity: capacity}
	}
	out := make([]uint16, 0, capacity)
	for _, s := range m {
		d := s.Data()
		out = append(out, d[:]...)
	}
	out = append(out, terminator)
	for len(out) < capacity {
		out = append(out, filler)
	}
	return out, nil
}

// CommandData is Serialize rendered as a command payload.
func (m Map) CommandData(capacity int) (string, error) {
	values, err := m.Serialize(capacity)
	if err != nil {
		return "", err
	}
	return wire.Join(values), nil
}

// Capacity returns how many superkeys fit in a region of the given size.
func Capacity(size int) int {
	if size < 1 {
		return 0
	}
	return (size - 1) / valuesPerKey
}
