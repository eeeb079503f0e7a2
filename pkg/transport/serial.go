package transport

import (
	"io"
	"time"

	"github.com/tarm/serial"
)

// Serial defaults, 8N1.
const (
	DefaultBaud = 9600
	// SerialReadTimeout is the timeout of a single port read. The driver
	// rounds it up to 100ms on POSIX systems.
	SerialReadTimeout = 10 * time.Millisecond
)

// SerialConfig configures a serial port.
type SerialConfig struct {
	Name     string
	Baud     int
	Size     byte
	Parity   serial.Parity
	StopBits serial.StopBits
}

// Serial is a serial port transport.
type Serial struct {
	port *serial.Port
	name string
}

// OpenSerial opens a serial port.
func OpenSerial(conf SerialConfig) (*Serial, error) {
	if conf.Baud <= 0 {
		conf.Baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        conf.Name,
		Baud:        conf.Baud,
		ReadTimeout: SerialReadTimeout,
		Size:        conf.Size,
		Parity:      conf.Parity,
		StopBits:    conf.StopBits,
	})
	if err != nil {
		return nil, err
	}
	return &Serial{port: port, name: conf.Name}, nil
}

// Name returns the port name.
func (s *Serial) Name() string {
	return s.name
}

// Write implements link.Transport.
func (s *Serial) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// ReadAvailable implements link.Transport.
func (s *Serial) ReadAvailable(max int, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, max)
	for {
		n, err := s.port.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}
		// a read timeout shows up as io.EOF on POSIX and (0, nil) on Windows
		if err != nil && err != io.EOF {
			return nil, err
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
	}
}

// Flush discards unread input and unsent output.
func (s *Serial) Flush() error {
	return s.port.Flush()
}

// Close implements io.Closer.
func (s *Serial) Close() error {
	return s.port.Close()
}
