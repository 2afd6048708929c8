//go:build linux

package focus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// HIDTransport talks to the keyboard through a Linux hidraw node.
type HIDTransport struct {
	f   *os.File
	buf []byte

	closeOnce sync.Once
	closeErr  error
}

// FindHIDDevice returns the hidraw node of the first device with the given
// vendor and product ids that exposes the Focus usage page.
func FindHIDDevice(vendor, product uint16) (string, error) {
	return findHIDDevice(sysfsRoot, vendor, product)
}

func findHIDDevice(root string, vendor, product uint16) (string, error) {
	nodes, err := filepath.Glob(filepath.Join(root, "class", "hidraw", "hidraw*"))
	if err != nil {
		return "", err
	}
	sort.Strings(nodes)
	want := fmt.Sprintf(":%08X:%08X", vendor, product)
	for _, n := range nodes {
		uevent, err := os.ReadFile(filepath.Join(n, "device", "uevent"))
		if err != nil || !hidIDMatches(string(uevent), want) {
			continue
		}
		desc, err := os.ReadFile(filepath.Join(n, "device", "report_descriptor"))
		if err != nil || !hasUsagePage(desc, HIDUsagePage) {
			continue
		}
		return "/dev/" + filepath.Base(n), nil
	}
	return "", fmt.Errorf("%w: no hidraw device %04x:%04x", ErrDeviceNotFound, vendor, product)
}

func hidIDMatches(uevent, suffix string) bool {
	for _, line := range strings.Split(uevent, "\n") {
		if id, ok := strings.CutPrefix(line, "HID_ID="); ok {
			return strings.HasSuffix(strings.ToUpper(id), suffix)
		}
	}
	return false
}

// OpenHID opens a hidraw node.
func OpenHID(path string) (*HIDTransport, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &HIDTransport{f: os.NewFile(uintptr(fd), path), buf: make([]byte, HIDMaxSendSize+1)}, nil
}

func (t *HIDTransport) Kind() Kind { return KindHID }

func (t *HIDTransport) Send(ctx context.Context, data []byte) error {
	stop := watchDeadline(ctx, t.f.SetWriteDeadline)
	defer stop()
	for _, report := range hidChunks(data) {
		if _, err := t.f.Write(report); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
	return nil
}

// Receive reads one input report and strips its report id.
func (t *HIDTransport) Receive(ctx context.Context) ([]byte, error) {
	stop := watchDeadline(ctx, t.f.SetReadDeadline)
	defer stop()
	n, err := t.f.Read(t.buf)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if n <= 1 {
		return []byte{}, nil
	}
	out := make([]byte, n-1)
	copy(out, t.buf[1:n])
	return out, nil
}

func (t *HIDTransport) Close() error {
	t.closeOnce.Do(func() { t.closeErr = t.f.Close() })
	return t.closeErr
}
