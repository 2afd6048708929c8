// Package bazecore reads and writes the JSON backup files produced by
// Bazecore, Dygma's configurator.
package bazecore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/keebtools/dygma/keymap"
)

// KeymapCustom is the command whose backup entry holds the custom keymap.
const KeymapCustom = "keymap.custom"

// ErrNoEntry is returned when a backup lacks a requested command.
var ErrNoEntry = errors.New("bazecore: no backup entry")

// Config is a Bazecore backup file.
type Config struct {
	Neuron Neuron    `json:"neuron"`
	Backup []Command `json:"backup"`
}

// Neuron describes the keyboard the backup was taken from.
type Neuron struct {
	Layers []Layer `json:"layers"`
	Device Device  `json:"device"`
}

type Layer struct {
	Name string `json:"name"`
}

type Device struct {
	Keyboard Keyboard `json:"keyboard"`
}

// Keyboard holds the key positions of each half, row by row.
type Keyboard struct {
	Left  []Row `json:"left"`
	Right []Row `json:"right"`
}

// Row is a list of key positions. It encodes as a JSON array of numbers
// rather than the base64 string encoding/json uses for byte slices.
type Row []uint8

func (r Row) MarshalJSON() ([]byte, error) {
	nums := make([]int, len(r))
	for i, v := range r {
		nums[i] = int(v)
	}
	return json.Marshal(nums)
}

func (r *Row) UnmarshalJSON(b []byte) error {
	var nums []int
	if err := json.Unmarshal(b, &nums); err != nil {
		return err
	}
	out := make(Row, len(nums))
	for i, v := range nums {
		if v < 0 || v > 0xFF {
			return fmt.Errorf("key position %d out of range", v)
		}
		out[i] = uint8(v)
	}
	*r = out
	return nil
}

// Command is one backed up Focus command and the data it returned.
type Command struct {
	Command string `json:"command"`
	Data    string `json:"data"`
}

// Read decodes a backup from r.
func Read(r io.Reader) (*Config, error) {
	var c Config
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode bazecore config: %w", err)
	}
	return &c, nil
}

// Load reads the backup file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Write encodes c as indented JSON.
func Write(w io.Writer, c *Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// CommandData returns the data of the first entry for command.
func (c *Config) CommandData(command string) (string, error) {
	for _, e := range c.Backup {
		if e.Command == command {
			return e.Data, nil
		}
	}
	return "", fmt.Errorf("%w for %q", ErrNoEntry, command)
}

// Keymap parses the custom keymap entry.
func (c *Config) Keymap() (keymap.Keymap, error) {
	data, err := c.CommandData(KeymapCustom)
	if err != nil {
		return nil, err
	}
	return keymap.Parse(data)
}

// LayerName returns the configured name of the 1-based layer n, or "" when
// it has none.
func (c *Config) LayerName(n int) string {
	if n < 1 || n > len(c.Neuron.Layers) {
		return ""
	}
	return c.Neuron.Layers[n-1].Name
}

// FromEntries builds a backup holding entries and the Defy layout.
func FromEntries(entries []Command) *Config {
	c := &Config{Backup: entries}
	c.Neuron.Device.Keyboard = LayoutRows(keymap.Layout)
	for i := 0; i < keymap.CustomLayers; i++ {
		c.Neuron.Layers = append(c.Neuron.Layers, Layer{Name: fmt.Sprintf("Layer %d", i+1)})
	}
	return c
}

// LayoutRows renders a layout as the per-half rows Bazecore stores.
func LayoutRows(l keymap.Board[uint8]) Keyboard {
	half := func(h keymap.Half[uint8]) []Row {
		return []Row{
			h.Row1[:], h.Row2[:], h.Row3[:], h.Row4[:],
			h.ThumbCluster.Top[:], h.ThumbCluster.Bottom[:],
		}
	}
	return Keyboard{Left: half(l.Left), Right: half(l.Right)}
}
