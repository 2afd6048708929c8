// Package keymap converts between the flat keymap data of the Defy and a
// layered, per-hand representation of it.
package keymap

import (
	"fmt"

	"github.com/keebtools/dygma/internal/wire"
	"github.com/keebtools/dygma/keycode"
)

// DefaultPlaceholder fills layer slots that no physical key maps to.
const DefaultPlaceholder uint16 = 0

// ParseError reports keymap data that does not have the expected shape.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "parse keymap: " + e.Reason + ": " + e.Err.Error()
	}
	return "parse keymap: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// LayerCountError is returned when serializing a keymap that does not have
// exactly CustomLayers layers.
type LayerCountError struct {
	Got  int
	Want int
}

func (e *LayerCountError) Error() string {
	return fmt.Sprintf("keymap has %d layers, expected exactly %d", e.Got, e.Want)
}

// Layer is one keymap layer.
type Layer struct {
	// LayerNumber is a 1-based label for people editing keymap files. It is
	// set by Keymap.Renumber and otherwise ignored.
	LayerNumber int `json:"layer_number" yaml:"layer_number"`
	Board[keycode.Key] `yaml:",inline"`
}

// LayerFromData decodes one layer of raw codes. Slots outside the Layout are
// ignored.
func LayerFromData(data [KeysPerLayer]uint16) Layer {
	var l Layer
	for i, p := range l.slots() {
		*p = keycode.Decode(data[layoutOffsets[i]])
	}
	return l
}

// Data encodes the layer, filling unmapped slots with placeholder.
func (l Layer) Data(placeholder uint16) [KeysPerLayer]uint16 {
	var data [KeysPerLayer]uint16
	for i := range data {
		data[i] = placeholder
	}
	for i, p := range l.slots() {
		data[layoutOffsets[i]] = keycode.Encode(*p)
	}
	return data
}

// KeyAt returns the key at a layer offset. The second result is false for
// offsets that no physical key maps to.
func (l Layer) KeyAt(offset int) (keycode.Key, bool) {
	for i, p := range l.slots() {
		if int(layoutOffsets[i]) == offset {
			return *p, true
		}
	}
	return keycode.Key{}, false
}

// Fill sets every position of the layer to k.
func (l *Layer) Fill(k keycode.Key) {
	for _, p := range l.slots() {
		*p = k
	}
}

// Keymap is an ordered list of layers.
type Keymap []Layer

// Parse decodes whitespace-separated keymap data. The number of values must
// be a non-zero multiple of KeysPerLayer.
func Parse(raw string) (Keymap, error) {
	tokens := wire.Fields(raw)
	if len(tokens) == 0 {
		return nil, &ParseError{Reason: "no keymap data"}
	}
	if len(tokens)%KeysPerLayer != 0 {
		return nil, &ParseError{Reason: fmt.Sprintf("%d values is not a multiple of %d keys per layer", len(tokens), KeysPerLayer)}
	}
	values, err := wire.ParseUint16s(tokens)
	if err != nil {
		return nil, &ParseError{Reason: "invalid key code", Err: err}
	}

	km := make(Keymap, 0, len(values)/KeysPerLayer)
	for start := 0; start < len(values); start += KeysPerLayer {
		km = append(km, LayerFromData([KeysPerLayer]uint16(values[start:start+KeysPerLayer])))
	}
	return km.Renumber(), nil
}

// Renumber sets the 1-based layer numbers and returns km.
func (km Keymap) Renumber() Keymap {
	for i := range km {
		km[i].LayerNumber = i + 1
	}
	return km
}

// Serialize flattens the keymap into the data of the keymap.custom command.
func (km Keymap) Serialize(placeholder uint16) ([]uint16, error) {
	if len(km) != CustomLayers {
		return nil, &LayerCountError{Got: len(km), Want: CustomLayers}
	}
	out := make([]uint16, 0, CustomLayers*KeysPerLayer)
	for _, l := range km {
		data := l.Data(placeholder)
		out = append(out, data[:]...)
	}
	return out, nil
}

// CommandData is Serialize rendered as a command payload.
func (km Keymap) CommandData(placeholder uint16) (string, error) {
	values, err := km.Serialize(placeholder)
	if err != nil {
		return "", err
	}
	return wire.Join(values), nil
}

// ClearLayer sets every key of the 1-based layer n to k.
func (km Keymap) ClearLayer(n int, k keycode.Key) error {
	if n < 1 || n > len(km) {
		return fmt.Errorf("layer %d out of range 1..%d", n, len(km))
	}
	km[n-1].Fill(k)
	return nil
}
