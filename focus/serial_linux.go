//go:build linux

package focus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sys/unix"
)

const sysfsRoot = "/sys"

var baudRates = map[int]uint32{
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

// FindSerialPort returns the device node of the first USB serial port whose
// manufacturer and product strings match.
func FindSerialPort(manufacturer, product string) (string, error) {
	return findSerialPort(sysfsRoot, manufacturer, product)
}

func findSerialPort(root, manufacturer, product string) (string, error) {
	var ports []string
	for _, pattern := range []string{"ttyACM*", "ttyUSB*"} {
		m, err := filepath.Glob(filepath.Join(root, "class", "tty", pattern))
		if err != nil {
			return "", err
		}
		ports = append(ports, m...)
	}
	sort.Strings(ports)
	for _, p := range ports {
		dir, err := usbDeviceDir(root, filepath.Join(p, "device"))
		if err != nil {
			continue
		}
		if readAttr(dir, "manufacturer") == manufacturer && readAttr(dir, "product") == product {
			return "/dev/" + filepath.Base(p), nil
		}
	}
	return "", fmt.Errorf("%w: no serial port with manufacturer %q and product %q", ErrDeviceNotFound, manufacturer, product)
}

// usbDeviceDir walks up from an interface node to the USB device that owns
// the string descriptors.
func usbDeviceDir(root, link string) (string, error) {
	dir, err := filepath.EvalSymlinks(link)
	if err != nil {
		return "", err
	}
	for strings.HasPrefix(dir, root) && dir != root {
		if _, err := os.Stat(filepath.Join(dir, "manufacturer")); err == nil {
			return dir, nil
		}
		dir = filepath.Dir(dir)
	}
	return "", os.ErrNotExist
}

func readAttr(dir, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// OpenSerial opens path as a raw 8N1 serial port at the given baud rate.
func OpenSerial(path string, baud int) (*StreamTransport, error) {
	speed, ok := baudRates[baud]
	if !ok {
		return nil, fmt.Errorf("unsupported baud rate %d", baud)
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := makeRaw(fd, speed); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}
	// A non-blocking descriptor is registered with the runtime poller, which
	// makes read and write deadlines work.
	f := os.NewFile(uintptr(fd), path)
	return NewStreamTransport(f, KindSerial), nil
}

func makeRaw(fd int, speed uint32) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | speed
	t.Ispeed = speed
	t.Ospeed = speed
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}
