//go:build !linux

package focus

import (
	"testing"

	"github.com/sstallion/go-hid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func TestMatchSerialPort(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "COM9", IsUSB: true, Product: "DEFY"},
		{Name: "COM1", IsUSB: false, Product: "DEFY"},
		{Name: "COM4", IsUSB: true, Product: "RAISE"},
		{Name: "COM7", IsUSB: true, Product: "Dygma Defy"},
	}

	port, err := matchSerialPort(ports, "DYGMA", "DEFY")
	require.NoError(t, err)
	assert.Equal(t, "COM7", port)

	_, err = matchSerialPort(ports, "DYGMA", "RAISE2")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestMatchHIDDevice(t *testing.T) {
	infos := []hid.DeviceInfo{
		{Path: "b", VendorID: 0x35EF, ProductID: 18, UsagePage: 0x01},
		{Path: "c", VendorID: 0x35EF, ProductID: 18, UsagePage: HIDUsagePage},
		{Path: "a", VendorID: 0x35EF, ProductID: 19, UsagePage: HIDUsagePage},
	}

	path, err := matchHIDDevice(infos, 0x35EF, 18)
	require.NoError(t, err)
	assert.Equal(t, "c", path)

	_, err = matchHIDDevice(infos, 0x35EF, 20)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}
