package transport

import (
	"errors"
	"io"

	"github.com/robotalks/mbascii/pkg/link"
)

// ErrClosed indicates the transport is closed.
var ErrClosed = errors.New("transport closed")

// Transport is a closable link.Transport.
type Transport interface {
	link.Transport
	io.Closer
}
