package keymap

import "fmt"

// KeysPerLayer is the number of slots in one layer of keymap data. The Defy
// has 70 keys; the remaining slots are padding.
const KeysPerLayer = 80

// CustomLayers is the number of layers carried by the keymap.custom command.
const CustomLayers = 10

// ThumbCluster holds the two rows of a thumb cluster, left to right.
type ThumbCluster[T any] struct {
	Top    [4]T `json:"top" yaml:"top"`
	Bottom [4]T `json:"bottom" yaml:"bottom"`
}

// Half is one half of the keyboard.
type Half[T any] struct {
	Row1         [7]T            `json:"row_1" yaml:"row_1"`
	Row2         [7]T            `json:"row_2" yaml:"row_2"`
	Row3         [7]T            `json:"row_3" yaml:"row_3"`
	Row4         [6]T            `json:"row_4" yaml:"row_4"`
	ThumbCluster ThumbCluster[T] `json:"thumb_cluster" yaml:"thumb_cluster"`
}

// slots returns pointers to every position, rows first, then thumb cluster
// top and bottom.
func (h *Half[T]) slots() []*T {
	out := make([]*T, 0, 35)
	for _, row := range [][]T{h.Row1[:], h.Row2[:], h.Row3[:], h.Row4[:], h.ThumbCluster.Top[:], h.ThumbCluster.Bottom[:]} {
		for i := range row {
			out = append(out, &row[i])
		}
	}
	return out
}

// Board is a value per physical key position.
type Board[T any] struct {
	Left  Half[T] `json:"left" yaml:"left"`
	Right Half[T] `json:"right" yaml:"right"`
}

func (b *Board[T]) slots() []*T {
	return append(b.Left.slots(), b.Right.slots()...)
}

// Layout maps each physical position of the Defy to its offset in a layer.
var Layout = Board[uint8]{
	Left: Half[uint8]{
		Row1: [7]uint8{0, 1, 2, 3, 4, 5, 6},
		Row2: [7]uint8{16, 17, 18, 19, 20, 21, 22},
		Row3: [7]uint8{32, 33, 34, 35, 36, 37, 38},
		Row4: [6]uint8{48, 49, 50, 51, 52, 53},
		ThumbCluster: ThumbCluster[uint8]{
			Top:    [4]uint8{64, 65, 66, 67},
			Bottom: [4]uint8{71, 70, 69, 68},
		},
	},
	Right: Half[uint8]{
		Row1: [7]uint8{9, 10, 11, 12, 13, 14, 15},
		Row2: [7]uint8{25, 26, 27, 28, 29, 30, 31},
		Row3: [7]uint8{41, 42, 43, 44, 45, 46, 47},
		Row4: [6]uint8{58, 59, 60, 61, 62, 63},
		ThumbCluster: ThumbCluster[uint8]{
			Top:    [4]uint8{76, 77, 78, 79},
			Bottom: [4]uint8{75, 74, 73, 72},
		},
	},
}

// layoutOffsets lists the offsets in slot order.
var layoutOffsets = mustOffsets(Layout)

// Offsets returns the layer offset of every physical position, in the order
// left rows, left thumb cluster, right rows, right thumb cluster.
func Offsets() []uint8 {
	return append([]uint8(nil), layoutOffsets...)
}

// ValidateLayout checks that every offset is in range and used once.
func ValidateLayout(l Board[uint8]) error {
	seen := make(map[uint8]int)
	for i, p := range l.slots() {
		if int(*p) >= KeysPerLayer {
			return fmt.Errorf("position %d: offset %d outside layer of %d keys", i, *p, KeysPerLayer)
		}
		if prev, dup := seen[*p]; dup {
			return fmt.Errorf("positions %d and %d share offset %d", prev, i, *p)
		}
		seen[*p] = i
	}
	return nil
}

func mustOffsets(l Board[uint8]) []uint8 {
	if err := ValidateLayout(l); err != nil {
		panic("keymap: invalid layout: " + err.Error())
	}
	var out []uint8
	for _, p := range l.slots() {
		out = append(out, *p)
	}
	return out
}
