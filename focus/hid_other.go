//go:build !linux

package focus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sstallion/go-hid"
)

// HIDTransport talks to the keyboard through hidapi.
type HIDTransport struct {
	dev *hid.Device
	buf []byte

	closeOnce sync.Once
	closeErr  error
}

// FindHIDDevice returns the hidapi path of the first device with the given
// vendor and product ids that exposes the Focus usage page.
func FindHIDDevice(vendor, product uint16) (string, error) {
	if err := hid.Init(); err != nil {
		return "", fmt.Errorf("hid init: %w", err)
	}
	var infos []hid.DeviceInfo
	err := hid.Enumerate(vendor, product, func(info *hid.DeviceInfo) error {
		infos = append(infos, *info)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("enumerate hid devices: %w", err)
	}
	return matchHIDDevice(infos, vendor, product)
}

func matchHIDDevice(infos []hid.DeviceInfo, vendor, product uint16) (string, error) {
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	for _, info := range infos {
		if info.VendorID == vendor && info.ProductID == product && info.UsagePage == HIDUsagePage {
			return info.Path, nil
		}
	}
	return "", fmt.Errorf("%w: no hid device %04x:%04x", ErrDeviceNotFound, vendor, product)
}

// OpenHID opens a hidapi device path.
func OpenHID(path string) (*HIDTransport, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("hid init: %w", err)
	}
	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &HIDTransport{dev: dev, buf: make([]byte, HIDMaxSendSize+1)}, nil
}

func (t *HIDTransport) Kind() Kind { return KindHID }

func (t *HIDTransport) Send(ctx context.Context, data []byte) error {
	for _, report := range hidChunks(data) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.dev.Write(report); err != nil {
			return err
		}
	}
	return nil
}

// Receive reads one input report and strips its report id.
func (t *HIDTransport) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := t.dev.ReadWithTimeout(t.buf, pollInterval)
		if errors.Is(err, hid.ErrTimeout) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if n <= 1 {
			return []byte{}, nil
		}
		out := make([]byte, n-1)
		copy(out, t.buf[1:n])
		return out, nil
	}
}

func (t *HIDTransport) Close() error {
	t.closeOnce.Do(func() { t.closeErr = t.dev.Close() })
	return t.closeErr
}
