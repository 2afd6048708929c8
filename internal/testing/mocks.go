package testing

import (
	"bufio"
	"net"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/keebtools/dygma/device/defy"
	"github.com/keebtools/dygma/focus"
)

// FakeDevice emulates the Focus firmware: commands without data return the
// stored value, commands with data replace it. help lists the stored
// commands.
type FakeDevice struct {
	mu     sync.Mutex
	values map[string]string
	writes []string
}

func (d *FakeDevice) serve(c net.Conn) {
	r := bufio.NewReader(c)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd, data, hasData := strings.Cut(strings.TrimSuffix(line, "\n"), " ")
		d.mu.Lock()
		var reply string
		switch {
		case cmd == "help":
			names := []string{"help"}
			for k := range d.values {
				names = append(names, k)
			}
			sort.Strings(names[1:])
			reply = strings.Join(names, "\r\n") + "\r\n"
		case hasData:
			d.values[cmd] = data
			d.writes = append(d.writes, cmd)
		default:
			if v, ok := d.values[cmd]; ok && v != "" {
				reply = v + "\r\n"
			}
		}
		d.mu.Unlock()
		if _, err := c.Write([]byte(reply + ".\r\n")); err != nil {
			return
		}
	}
}

// Value returns the stored value of cmd.
func (d *FakeDevice) Value(cmd string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.values[cmd]
}

// Writes lists the commands that received data, in order.
func (d *FakeDevice) Writes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.writes...)
}

// Dial connects a new keyboard handle to the device. Every handle gets its
// own pipe, so the device can be reopened like a real one.
func (d *FakeDevice) Dial(t *testing.T) *defy.Keyboard {
	t.Helper()
	host, dev := net.Pipe()
	go d.serve(dev)
	t.Cleanup(func() { _ = dev.Close() })
	return defy.New(focus.NewConn(focus.NewStreamTransport(host, focus.KindSerial)), defy.Options{})
}

// NewFakeDevice creates a device holding values.
func NewFakeDevice(values map[string]string) *FakeDevice {
	if values == nil {
		values = map[string]string{}
	}
	return &FakeDevice{values: values}
}

// NewFakeKeyboard returns a keyboard handle backed by a fake device.
func NewFakeKeyboard(t *testing.T, values map[string]string) (*defy.Keyboard, *FakeDevice) {
	t.Helper()
	d := NewFakeDevice(values)
	kb := d.Dial(t)
	t.Cleanup(func() { _ = kb.Close() })
	return kb, d
}
