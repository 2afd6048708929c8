package keycode

import "strings"

// Modifier is a set of modifier bits added to a base key code.
type Modifier uint16

// Modifier masks. They occupy disjoint bits above the base code range.
const (
	Ctrl  Modifier = 0x0100
	Alt   Modifier = 0x0200
	AltGr Modifier = 0x0400
	Shift Modifier = 0x0800
	Os    Modifier = 0x1000
)

// modifierOrder is the order modifiers appear in key names.
var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{Ctrl, "Ctrl"},
	{Alt, "Alt"},
	{AltGr, "AltGr"},
	{Shift, "Shift"},
	{Os, "Os"},
}

// modifierSets returns the 31 non-empty subsets of the modifiers.
func modifierSets() []Modifier {
	sets := make([]Modifier, 0, 1<<len(modifierOrder)-1)
	for bits := 1; bits < 1<<len(modifierOrder); bits++ {
		var m Modifier
		for i, mo := range modifierOrder {
			if bits&(1<<i) != 0 {
				m |= mo.mod
			}
		}
		sets = append(sets, m)
	}
	return sets
}

// Has reports whether every modifier in o is set in m.
func (m Modifier) Has(o Modifier) bool {
	return m&o == o
}

func (m Modifier) parts() []string {
	var parts []string
	for _, mo := range modifierOrder {
		if m.Has(mo.mod) {
			parts = append(parts, mo.name)
		}
	}
	return parts
}

// String joins the set modifiers with "+", e.g. "Ctrl+Shift".
func (m Modifier) String() string {
	return strings.Join(m.parts(), "+")
}

// DualFunction is the hold action of a dual-function key.
type DualFunction uint8

const (
	NoDual DualFunction = iota
	DualCtrl
	DualShift
	DualAlt
	DualAltGr
	DualOs
	DualLayer1
	DualLayer2
	DualLayer3
	DualLayer4
	DualLayer5
	DualLayer6
	DualLayer7
	DualLayer8
)

var dualFunctions = []struct {
	dual    DualFunction
	name    string
	display string
	offset  uint16
}{
	{DualCtrl, "Ctrl", "Ctrl", 49169},
	{DualShift, "Shift", "Shift", 49425},
	{DualAlt, "Alt", "Alt", 49681},
	{DualAltGr, "AltGr", "AltGr", 50705},
	{DualOs, "Os", "Os", 49937},
	{DualLayer1, "Layer1", "Layer 1", 51218},
	{DualLayer2, "Layer2", "Layer 2", 51474},
	{DualLayer3, "Layer3", "Layer 3", 51730},
	{DualLayer4, "Layer4", "Layer 4", 51986},
	{DualLayer5, "Layer5", "Layer 5", 52242},
	{DualLayer6, "Layer6", "Layer 6", 52498},
	{DualLayer7, "Layer7", "Layer 7", 52754},
	{DualLayer8, "Layer8", "Layer 8", 53010},
}

// Offset is the value added to a base code to form the dual-function code.
func (d DualFunction) Offset() uint16 {
	for _, df := range dualFunctions {
		if df.dual == d {
			return df.offset
		}
	}
	return 0
}

func (d DualFunction) String() string {
	for _, df := range dualFunctions {
		if df.dual == d {
			return df.display
		}
	}
	return ""
}
