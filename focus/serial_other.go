//go:build !linux

package focus

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// pollInterval bounds how long a blocking read waits before it checks the
// deadline again.
const pollInterval = 100 * time.Millisecond

// FindSerialPort returns the name of the first USB serial port whose product
// string matches. The enumerator does not report the manufacturer, so it is
// only matched as a prefix of the product string.
func FindSerialPort(manufacturer, product string) (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerate serial ports: %w", err)
	}
	return matchSerialPort(ports, manufacturer, product)
}

func matchSerialPort(ports []*enumerator.PortDetails, manufacturer, product string) (string, error) {
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		name := strings.ToUpper(p.Product)
		if name == strings.ToUpper(product) || name == strings.ToUpper(manufacturer+" "+product) {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("%w: no serial port with manufacturer %q and product %q", ErrDeviceNotFound, manufacturer, product)
}

// OpenSerial opens path as an 8N1 serial port at the given baud rate.
func OpenSerial(path string, baud int) (*StreamTransport, error) {
	p, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := p.SetReadTimeout(pollInterval); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}
	return NewStreamTransport(&serialPort{port: p}, KindSerial), nil
}

// serialPort adds read deadlines to a serial.Port by polling with its read
// timeout. Writes ignore their deadline.
type serialPort struct {
	port serial.Port

	mu       sync.Mutex
	deadline time.Time
}

func (s *serialPort) Read(b []byte) (int, error) {
	for {
		n, err := s.port.Read(b)
		if n > 0 || err != nil {
			return n, err
		}
		s.mu.Lock()
		d := s.deadline
		s.mu.Unlock()
		if !d.IsZero() && !time.Now().Before(d) {
			return 0, os.ErrDeadlineExceeded
		}
	}
}

func (s *serialPort) Write(b []byte) (int, error) { return s.port.Write(b) }

func (s *serialPort) Close() error { return s.port.Close() }

func (s *serialPort) SetReadDeadline(t time.Time) error {
	s.mu.Lock()
	s.deadline = t
	s.mu.Unlock()
	return nil
}

func (s *serialPort) SetWriteDeadline(time.Time) error { return nil }
