// Package transport connects to serial devices.
//
// The rest of the program only sees the Port interface, so sessions can be
// driven by a real device, a test double, or any other byte stream.
package transport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// Port is a bidirectional byte stream to a device.
//
// Read returns n == 0 with a nil error when no data arrived within the
// read timeout. Callers treat that as a pause in the input.
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
}

// Default line settings.
const (
	DefaultBaud        = 115200
	DefaultReadTimeout = 50 * time.Millisecond
	DefaultDataBits    = 8
)

// Config describes how to open a serial device.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration

	// DataBits is 5 through 8.
	DataBits int

	// Parity is one of "none", "odd", "even", "mark", "space" or its
	// first letter. Empty means none.
	Parity string

	// StopBits is 1 or 2.
	StopBits int
}

// DefaultConfig returns 115200 8N1 with a short read timeout.
func DefaultConfig() Config {
	return Config{
		Baud:        DefaultBaud,
		ReadTimeout: DefaultReadTimeout,
		DataBits:    DefaultDataBits,
		Parity:      "none",
		StopBits:    1,
	}
}

// serialConfig converts the configuration for the serial driver.
func (c Config) serialConfig() (*serial.Config, error) {
	if c.Device == "" {
		return nil, ErrNoDevice
	}
	if c.Baud <= 0 {
		return nil, fmt.Errorf("%w: baud %d", ErrInvalidSettings, c.Baud)
	}

	parity, err := ParseParity(c.Parity)
	if err != nil {
		return nil, err
	}

	var stop serial.StopBits
	switch c.StopBits {
	case 0, 1:
		stop = serial.Stop1
	case 2:
		stop = serial.Stop2
	default:
		return nil, fmt.Errorf("%w: stop bits %d", ErrInvalidSettings, c.StopBits)
	}

	size := c.DataBits
	if size == 0 {
		size = DefaultDataBits
	}
	if size < 5 || size > 8 {
		return nil, fmt.Errorf("%w: data bits %d", ErrInvalidSettings, c.DataBits)
	}

	return &serial.Config{
		Name:        c.Device,
		Baud:        c.Baud,
		ReadTimeout: c.ReadTimeout,
		Size:        byte(size),
		Parity:      parity,
		StopBits:    stop,
	}, nil
}

// ParseParity converts a parity name to the driver's parity mode. Names are
// case-insensitive.
func ParseParity(s string) (serial.Parity, error) {
	switch strings.ToLower(s) {
	case "", "n", "none":
		return serial.ParityNone, nil
	case "o", "odd":
		return serial.ParityOdd, nil
	case "e", "even":
		return serial.ParityEven, nil
	case "m", "mark":
		return serial.ParityMark, nil
	case "s", "space":
		return serial.ParitySpace, nil
	default:
		return 0, fmt.Errorf("%w: parity %q", ErrInvalidSettings, s)
	}
}

// Serial is a Port backed by a serial device.
type Serial struct {
	mu     sync.Mutex
	port   io.ReadWriteCloser
	device string
	closed bool
}

// Open opens the configured serial device.
func Open(cfg Config) (*Serial, error) {
	sc, err := cfg.serialConfig()
	if err != nil {
		return nil, err
	}

	p, err := serial.OpenPort(sc)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	return newSerial(p, cfg.Device), nil
}

func newSerial(p io.ReadWriteCloser, device string) *Serial {
	return &Serial{port: p, device: device}
}

// Device returns the device path.
func (s *Serial) Device() string {
	return s.device
}

// Read reads available bytes. A read timeout yields 0, nil.
func (s *Serial) Read(p []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrPortClosed
	}

	n, err := s.port.Read(p)
	if err != nil {
		if s.isClosed() {
			return n, ErrPortClosed
		}
		// The driver reports an expired read timeout as end of file.
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		return n, fmt.Errorf("read %s: %w", s.device, err)
	}
	return n, nil
}

// Write sends p to the device.
func (s *Serial) Write(p []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrPortClosed
	}

	n, err := s.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", s.device, err)
	}
	return n, nil
}

// Close closes the device. Closing twice returns ErrPortClosed.
func (s *Serial) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrPortClosed
	}
	s.closed = true
	s.mu.Unlock()

	return s.port.Close()
}

func (s *Serial) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var _ Port = (*Serial)(nil)
