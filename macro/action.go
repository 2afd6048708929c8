package macro

import (
	"fmt"

	"github.com/keebtools/dygma/keycode"
)

// Type tags the kind of a macro Action.
type Type uint8

const (
	Press Type = iota + 1
	KeyDown
	KeyUp
	Delay
	RandomDelay
	SpecialDown
	SpecialUp
	SpecialPress
	Unknown
)

var typeNames = map[Type]string{
	Press:        "press",
	KeyDown:      "key_down",
	KeyUp:        "key_up",
	Delay:        "delay",
	RandomDelay:  "random_delay",
	SpecialDown:  "special_down",
	SpecialUp:    "special_up",
	SpecialPress: "special_press",
	Unknown:      "unknown",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

func (t Type) MarshalText() ([]byte, error) {
	if _, ok := typeNames[t]; !ok {
		return nil, fmt.Errorf("invalid macro action type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	for k, n := range typeNames {
		if n == string(text) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown macro action type %q", text)
}

// Wire discriminants of macro actions.
const (
	opRandomDelay  byte = 1
	opDelay        byte = 2
	opSpecialDown  byte = 3
	opSpecialUp    byte = 4
	opSpecialPress byte = 5
	opKeyDown      byte = 6
	opKeyUp        byte = 7
	opPress        byte = 8
)

// Action is one step of a macro. Which fields are meaningful depends on Type:
// Key for the press and special kinds, Millis for Delay, Min and Max for
// RandomDelay, Op and Data for Unknown.
type Action struct {
	Type   Type         `json:"type" yaml:"type"`
	Key    *keycode.Key `json:"key,omitempty" yaml:"key,omitempty"`
	Millis uint16       `json:"ms,omitempty" yaml:"ms,omitempty"`
	Min    uint16       `json:"min,omitempty" yaml:"min,omitempty"`
	Max    uint16       `json:"max,omitempty" yaml:"max,omitempty"`
	Op     byte         `json:"op,omitempty" yaml:"op,omitempty"`
	Data   []uint16     `json:"data,omitempty" yaml:"data,omitempty"`
}

func keyAction(t Type, code uint16) Action {
	k := keycode.Decode(code)
	return Action{Type: t, Key: &k}
}

// PressAction returns a Press of k.
func PressAction(k keycode.Key) Action { return Action{Type: Press, Key: &k} }

// DelayAction returns a fixed delay.
func DelayAction(ms uint16) Action { return Action{Type: Delay, Millis: ms} }

func (a Action) String() string {
	switch a.Type {
	case Press, KeyDown, KeyUp, SpecialDown, SpecialUp, SpecialPress:
		if a.Key == nil {
			return a.Type.String() + "(?)"
		}
		return fmt.Sprintf("%s(%s)", a.Type, a.Key)
	case Delay:
		return fmt.Sprintf("delay(%dms)", a.Millis)
	case RandomDelay:
		return fmt.Sprintf("random_delay(%d-%dms)", a.Min, a.Max)
	case Unknown:
		return fmt.Sprintf("unknown(op=%d, data=%v)", a.Op, a.Data)
	}
	return a.Type.String()
}

// encode appends the wire form of a.
func (a Action) encode(out []byte) ([]byte, error) {
	keyCode := func() (uint16, error) {
		if a.Key == nil {
			return 0, fmt.Errorf("%s action without a key", a.Type)
		}
		return keycode.Encode(*a.Key), nil
	}
	byteKey := func(op byte) ([]byte, error) {
		c, err := keyCode()
		if err != nil {
			return nil, err
		}
		if c > 0xFF {
			return nil, fmt.Errorf("%s: key %s does not fit in a byte, use a special action", a.Type, a.Key)
		}
		return append(out, op, byte(c)), nil
	}
	wordKey := func(op byte) ([]byte, error) {
		c, err := keyCode()
		if err != nil {
			return nil, err
		}
		return appendU16(append(out, op), c), nil
	}

	switch a.Type {
	case Press:
		return byteKey(opPress)
	case KeyDown:
		return byteKey(opKeyDown)
	case KeyUp:
		return byteKey(opKeyUp)
	case SpecialDown:
		return wordKey(opSpecialDown)
	case SpecialUp:
		return wordKey(opSpecialUp)
	case SpecialPress:
		return wordKey(opSpecialPress)
	case Delay:
		return appendU16(append(out, opDelay), a.Millis), nil
	case RandomDelay:
		return appendU16(appendU16(append(out, opRandomDelay), a.Min), a.Max), nil
	case Unknown:
		if a.Op < opRandomDelay || a.Op > opPress {
			return nil, fmt.Errorf("unknown action op %d out of range 1..8", a.Op)
		}
		out = append(out, a.Op)
		for _, v := range a.Data {
			out = appendU16(out, v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("invalid macro action type %d", uint8(a.Type))
}

// Two-byte values are sent high byte first: "2 0 200" is a 200 ms delay.
func appendU16(out []byte, v uint16) []byte {
	return append(out, byte(v>>8), byte(v))
}

func composeU16(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}
