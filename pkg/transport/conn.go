package transport

import (
	"net"
	"time"
)

// Conn adapts a net.Conn using read deadlines.
type Conn struct {
	net.Conn
}

// NewConn wraps conn.
func NewConn(conn net.Conn) *Conn {
	return &Conn{Conn: conn}
}

// DialTCP connects to a TCP serial server.
func DialTCP(addr string, timeout time.Duration) (*Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}

// ReadAvailable implements link.Transport.
func (c *Conn) ReadAvailable(max int, timeout time.Duration) ([]byte, error) {
	if err := c.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	buf := make([]byte, max)
	n, err := c.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return nil, nil
	}
	return nil, err
}

// Flush drains input already received.
func (c *Conn) Flush() error {
	for {
		data, err := c.ReadAvailable(256, time.Millisecond)
		if err != nil || len(data) == 0 {
			return err
		}
	}
}
