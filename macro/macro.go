// Package macro parses and serializes the macros.map memory region.
//
// The region is a list of macros, each a run of actions ended by a 0. The
// list ends at a 255 where the next macro would start, or at the end of the
// data. What follows is memory filler and is not interpreted.
package macro

import (
	"errors"
	"fmt"

	"github.com/keebtools/dygma/internal/wire"
)

// MemorySize is the number of bytes in the macro region of the Defy.
const MemorySize = 2048

const (
	macroEnd byte = 0
	filler   byte = 255
)

// Variant selects how action kinds 1 to 5 are interpreted.
type Variant uint8

const (
	// Extended decodes delays, random delays and 16-bit special keys.
	Extended Variant = iota
	// Raw keeps kinds 1 to 5 as Unknown actions with their raw payload.
	Raw
)

// ErrTooManyMacroBytes is returned when macros do not fit in the region.
var ErrTooManyMacroBytes = errors.New("macros exceed macro memory")

// CapacityError carries the sizes behind ErrTooManyMacroBytes.
type CapacityError struct {
	Needed   int
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: need %d bytes, capacity is %d", ErrTooManyMacroBytes, e.Needed, e.Capacity)
}

func (e *CapacityError) Unwrap() error { return ErrTooManyMacroBytes }

// ParseError reports macro data that does not follow the grammar.
type ParseError struct {
	Offset int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse macros at byte %d: %s", e.Offset, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Macro is an ordered list of actions.
type Macro struct {
	// Number is the 1-based slot, matching the "Macro N" keycode. It is set
	// by List.Renumber and ignored otherwise.
	Number  int      `json:"macro_number" yaml:"macro_number"`
	Actions []Action `json:"actions" yaml:"actions"`
}

// List is the ordered set of macros stored on the device.
type List []Macro

// Renumber sets the 1-based macro numbers and returns l.
func (l List) Renumber() List {
	for i := range l {
		l[i].Number = i + 1
	}
	return l
}

// Parse decodes macro data using the Extended variant.
func Parse(raw string) (List, error) {
	l, _, err := ParseVariant(raw, Extended)
	return l, err
}

// ParseVariant decodes macro data and returns the trailing bytes that were
// not interpreted.
func ParseVariant(raw string, v Variant) (List, []byte, error) {
	data, err := wire.Bytes(raw)
	if err != nil {
		return nil, nil, &ParseError{Reason: "invalid byte", Err: err}
	}
	l, n, err := Decode(data, v)
	if err != nil {
		return nil, nil, err
	}
	return l, data[n:], nil
}

// Decode decodes macro bytes and returns how many bytes belong to the list.
func Decode(data []byte, v Variant) (List, int, error) {
	d := decoder{data: data, variant: v}
	var l List
	for d.pos < len(d.data) && d.data[d.pos] != filler {
		m, err := d.macro()
		if err != nil {
			return nil, 0, err
		}
		l = append(l, m)
	}
	return l.Renumber(), d.pos, nil
}

type decoder struct {
	data    []byte
	pos     int
	variant Variant
}

func (d *decoder) fail(reason string) error {
	return &ParseError{Offset: d.pos, Reason: reason}
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, d.fail("unexpected end of macro data")
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) u16() (uint16, error) {
	hi, err := d.readByte()
	if err != nil {
		return 0, err
	}
	lo, err := d.readByte()
	if err != nil {
		return 0, err
	}
	return composeU16(hi, lo), nil
}

func (d *decoder) macro() (Macro, error) {
	m := Macro{Actions: []Action{}}
	for {
		b, err := d.readByte()
		if err != nil {
			return Macro{}, err
		}
		if b == macroEnd {
			return m, nil
		}
		a, err := d.action(b)
		if err != nil {
			return Macro{}, err
		}
		m.Actions = append(m.Actions, a)
	}
}

func validOp(b byte) bool {
	return b >= opRandomDelay && b <= opPress
}

func (d *decoder) action(op byte) (Action, error) {
	// Device dumps occasionally carry one stray byte before an action.
	// Skip exactly one.
	if !validOp(op) {
		retry, err := d.readByte()
		if err != nil {
			return Action{}, err
		}
		if !validOp(retry) {
			d.pos--
			return Action{}, d.fail(fmt.Sprintf("action type out of range: %d after stray byte %d", retry, op))
		}
		op = retry
	}

	switch op {
	case opKeyDown, opKeyUp, opPress:
		c, err := d.readByte()
		if err != nil {
			return Action{}, err
		}
		t := Press
		if op == opKeyDown {
			t = KeyDown
		} else if op == opKeyUp {
			t = KeyUp
		}
		return keyAction(t, uint16(c)), nil
	case opRandomDelay:
		first, err := d.u16()
		if err != nil {
			return Action{}, err
		}
		second, err := d.u16()
		if err != nil {
			return Action{}, err
		}
		if d.variant == Raw {
			return Action{Type: Unknown, Op: op, Data: []uint16{first, second}}, nil
		}
		return Action{Type: RandomDelay, Min: first, Max: second}, nil
	default:
		v, err := d.u16()
		if err != nil {
			return Action{}, err
		}
		if d.variant == Raw {
			return Action{Type: Unknown, Op: op, Data: []uint16{v}}, nil
		}
		switch op {
		case opDelay:
			return Action{Type: Delay, Millis: v}, nil
		case opSpecialDown:
			return keyAction(SpecialDown, v), nil
		case opSpecialUp:
			return keyAction(SpecialUp, v), nil
		default:
			return keyAction(SpecialPress, v), nil
		}
	}
}

// Encode renders the macros without padding.
func (l List) Encode() ([]byte, error) {
	var out []byte
	for i, m := range l {
		for j, a := range m.Actions {
			var err error
			out, err = a.encode(out)
			if err != nil {
				return nil, fmt.Errorf("macro %d action %d: %w", i+1, j+1, err)
			}
		}
		out = append(out, macroEnd)
	}
	return out, nil
}

// Serialize encodes the macros and pads them with 255 to capacity. Macros
// that do not fit are an error, they are never truncated.
func (l List) Serialize(capacity int) ([]byte, error) {
	out, err := l.Encode()
	if err != nil {
		return nil, err
	}
	if len(out) > capacity {
		return nil, &CapacityError{Needed: len(out), Capacity: capacity}
	}
	for len(out) < capacity {
		out = append(out, filler)
	}
	return out, nil
}

// CommandData is Serialize rendered as a command payload.
func (l List) CommandData(capacity int) (string, error) {
	b, err := l.Serialize(capacity)
	if err != nil {
		return "", err
	}
	return wire.Join(b), nil
}
