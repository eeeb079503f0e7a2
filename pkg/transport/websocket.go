package transport

import (
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// WebSocket carries serial bytes in binary websocket messages.
type WebSocket struct {
	conn *websocket.Conn

	rx      chan []byte
	done    chan struct{}
	pending []byte
	err     error
	once    sync.Once
}

// DialWebSocket connects to a websocket serial server.
func DialWebSocket(url, origin string) (*WebSocket, error) {
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	return NewWebSocket(conn), nil
}

// NewWebSocket wraps an established connection.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	conn.PayloadType = websocket.BinaryFrame
	w := &WebSocket{
		conn: conn,
		rx:   make(chan []byte, 16),
		done: make(chan struct{}),
	}
	go w.receive()
	return w
}

func (w *WebSocket) receive() {
	defer close(w.rx)
	for {
		var msg []byte
		if err := websocket.Message.Receive(w.conn, &msg); err != nil {
			w.err = err
			return
		}
		if len(msg) == 0 {
			continue
		}
		select {
		case w.rx <- msg:
		case <-w.done:
			return
		}
	}
}

// Write implements link.Transport.
func (w *WebSocket) Write(p []byte) (int, error) {
	if err := websocket.Message.Send(w.conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ReadAvailable implements link.Transport.
func (w *WebSocket) ReadAvailable(max int, timeout time.Duration) ([]byte, error) {
	if len(w.pending) == 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case msg, ok := <-w.rx:
			if !ok {
				return nil, w.closedErr()
			}
			w.pending = msg
		case <-timer.C:
			return nil, nil
		}
	}
	n := len(w.pending)
	if n > max {
		n = max
	}
	data := w.pending[:n]
	w.pending = w.pending[n:]
	return data, nil
}

func (w *WebSocket) closedErr() error {
	if w.err != nil {
		return w.err
	}
	return ErrClosed
}

// Flush drops received messages not read yet.
func (w *WebSocket) Flush() error {
	w.pending = nil
	for {
		select {
		case _, ok := <-w.rx:
			if !ok {
				return w.closedErr()
			}
		default:
			return nil
		}
	}
}

// Close implements io.Closer.
func (w *WebSocket) Close() error {
	w.once.Do(func() { close(w.done) })
	return w.conn.Close()
}
