// Package keycode maps the 16-bit key codes used by Dygma firmware to
// symbolic keys and back.
//
// Every code decodes to some Key: codes that no table claims decode to a key
// of the Unknown table carrying the raw code, so Encode(Decode(c)) == c for
// all c. Tables are searched in declaration order and the first table that
// claims a code wins.
package keycode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotAKey is returned by Parse when no key matches the given name.
var ErrNotAKey = errors.New("not a valid key")

// Table identifies a key category. It is the tag of the Key union.
type Table uint8

const (
	Blank Table = iota
	Spacing
	Alpha
	Digits
	Numpad
	Fx
	Symbols
	ShiftSymbols
	Modifiers
	Media
	Navigation
	MouseMovement
	MouseWheel
	MouseButtons
	MouseWarp
	LEDEffects
	Battery
	Bluetooth
	Energy
	RF
	LayerLock
	LayerShift
	LayerMove
	Miscellaneous
	Oneshot
	Macros
	Superkeys
	Unknown
)

func (t Table) String() string {
	if t == Unknown {
		return "unknown"
	}
	if int(t) < len(tableDefs) {
		return tableDefs[t].name
	}
	return fmt.Sprintf("table(%d)", uint8(t))
}

// Key is a decoded key code. The zero value is Blank "No Key".
type Key struct {
	Table Table
	Code  uint16
}

type entry struct {
	key     Key
	name    string
	display string
	base    uint16
	mods    Modifier
	dual    DualFunction
}

var (
	byKey     = map[Key]*entry{}
	byCode    = map[uint16]*entry{}
	byDisplay = map[string]Key{}
	// byText resolves display names and identifiers. Tables are searched in
	// order; within a table display names come before identifiers.
	byText  = map[string]Key{}
	ordered []*entry
)

func init() {
	for i, td := range tableDefs {
		if td.table != Table(i) {
			panic(fmt.Sprintf("keycode: table %s declared out of order", td.name))
		}
		entries := expand(td)
		for _, e := range entries {
			if _, dup := byKey[e.key]; dup {
				panic(fmt.Sprintf("keycode: duplicate code %d in table %s", e.key.Code, td.name))
			}
			byKey[e.key] = e
			ordered = append(ordered, e)
			if _, ok := byCode[e.key.Code]; !ok {
				byCode[e.key.Code] = e
			}
			d := normalize(e.display)
			if other, dup := byDisplay[d]; dup {
				panic(fmt.Sprintf("keycode: display name %q used by %s and %s", e.display, other.Table, td.name))
			}
			byDisplay[d] = e.key
			if _, ok := byText[d]; !ok {
				byText[d] = e.key
			}
		}
		for _, e := range entries {
			if n := normalize(e.name); n != "" {
				if _, ok := byText[n]; !ok {
					byText[n] = e.key
				}
			}
		}
	}
}

// expand resolves sequential codes and adds the modifier and dual-function
// variants. Derived codes that do not fit in 16 bits are dropped.
func expand(td tableDef) []*entry {
	base := make([]*entry, 0, len(td.keys))
	code := -1
	for _, kd := range td.keys {
		if kd.code == next {
			code++
		} else {
			code = kd.code
		}
		display := kd.display
		if display == "" {
			display = kd.name
		}
		base = append(base, &entry{
			key:     Key{Table: td.table, Code: uint16(code)},
			name:    kd.name,
			display: display,
			base:    uint16(code),
		})
	}

	out := append([]*entry(nil), base...)
	if td.expand&withModifiers != 0 {
		for _, m := range modifierSets() {
			for _, b := range base {
				c := uint32(b.base) + uint32(m)
				if c > 0xFFFF {
					continue
				}
				out = append(out, &entry{
					key:     Key{Table: td.table, Code: uint16(c)},
					name:    strings.Join(m.parts(), "") + b.name,
					display: m.String() + "+" + b.display,
					base:    b.base,
					mods:    m,
				})
			}
		}
	}
	if td.expand&withDualFunctions != 0 {
		for _, df := range dualFunctions {
			for _, b := range base {
				c := uint32(b.base) + uint32(df.offset)
				if c > 0xFFFF {
					continue
				}
				out = append(out, &entry{
					key:     Key{Table: td.table, Code: uint16(c)},
					name:    "Dual" + df.name + b.name,
					display: "Dual " + df.display + " " + b.display,
					base:    b.base,
					dual:    df.dual,
				})
			}
		}
	}
	return out
}

// normalize drops spaces and lower-cases ASCII letters.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ' ' {
			continue
		}
		if 'A' <= r && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Decode returns the key for code. It never fails.
func Decode(code uint16) Key {
	if e, ok := byCode[code]; ok {
		return e.key
	}
	return Key{Table: Unknown, Code: code}
}

// Encode returns the wire code of k.
func Encode(k Key) uint16 {
	return k.Code
}

// Parse resolves a display name ("Ctrl+A", "Page Up") or identifier
// ("CtrlA", "PageUp"). Matching ignores case and spaces. Tables are tried
// in decode order, each one by display name and then by identifier. The form
// "<unknown N>" produced for unknown codes decodes N.
func Parse(s string) (Key, error) {
	n := normalize(s)
	if k, ok := byText[n]; ok {
		return k, nil
	}
	if rest, ok := strings.CutPrefix(n, "<unknown"); ok {
		if digits, ok := strings.CutSuffix(rest, ">"); ok {
			if c, err := strconv.ParseUint(digits, 10, 16); err == nil {
				return Decode(uint16(c)), nil
			}
		}
	}
	return Key{}, fmt.Errorf("%q: %w", s, ErrNotAKey)
}

// MustParse is like Parse but panics on error. Intended for tests and tables.
func MustParse(s string) Key {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

// All returns every known key in table order.
func All() []Key {
	keys := make([]Key, len(ordered))
	for i, e := range ordered {
		keys[i] = e.key
	}
	return keys
}

// Known reports whether k is a key of one of the tables.
func (k Key) Known() bool {
	_, ok := byKey[k]
	return ok
}

// String returns the display name of k.
func (k Key) String() string {
	if e, ok := byKey[k]; ok {
		return e.display
	}
	return fmt.Sprintf("<unknown %d>", k.Code)
}

// Name returns the identifier form of k, e.g. "CtrlShiftA".
func (k Key) Name() string {
	if e, ok := byKey[k]; ok {
		return e.name
	}
	return fmt.Sprintf("Unknown%d", k.Code)
}

// Modifiers returns the modifiers applied to the base key.
func (k Key) Modifiers() Modifier {
	if e, ok := byKey[k]; ok {
		return e.mods
	}
	return 0
}

// DualFunction returns the hold action of a dual-function key.
func (k Key) DualFunction() DualFunction {
	if e, ok := byKey[k]; ok {
		return e.dual
	}
	return NoDual
}

// Base strips modifiers and dual functions.
func (k Key) Base() Key {
	if e, ok := byKey[k]; ok {
		return Key{Table: k.Table, Code: e.base}
	}
	return k
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
