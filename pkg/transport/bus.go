package transport

import (
	"sync"
	"time"
)

// Bus is an in-memory multidrop line. Bytes written by one port are
// received by all other attached ports.
type Bus struct {
	lock  sync.Mutex
	ports []*BusPort
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Attach connects a new port to the bus.
func (b *Bus) Attach(name string) *BusPort {
	p := &BusPort{bus: b, name: name, notify: make(chan struct{}, 1)}
	b.lock.Lock()
	b.ports = append(b.ports, p)
	b.lock.Unlock()
	return p
}

// Ports returns the number of attached ports.
func (b *Bus) Ports() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.ports)
}

func (b *Bus) detach(p *BusPort) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for i, port := range b.ports {
		if port == p {
			b.ports = append(b.ports[:i], b.ports[i+1:]...)
			return
		}
	}
}

func (b *Bus) send(from *BusPort, data []byte) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, p := range b.ports {
		if p != from {
			p.deliver(data)
		}
	}
}

// BusPort is a station's connection to a Bus.
type BusPort struct {
	bus    *Bus
	name   string
	notify chan struct{}

	lock   sync.Mutex
	buf    []byte
	closed bool
}

// Name returns the port name.
func (p *BusPort) Name() string {
	return p.name
}

func (p *BusPort) deliver(data []byte) {
	p.lock.Lock()
	p.buf = append(p.buf, data...)
	p.lock.Unlock()
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Write implements link.Transport.
func (p *BusPort) Write(data []byte) (int, error) {
	p.lock.Lock()
	closed := p.closed
	p.lock.Unlock()
	if closed {
		return 0, ErrClosed
	}
	p.bus.send(p, data)
	return len(data), nil
}

// ReadAvailable implements link.Transport.
func (p *BusPort) ReadAvailable(max int, timeout time.Duration) ([]byte, error) {
	var timer *time.Timer
	for {
		p.lock.Lock()
		if p.closed {
			p.lock.Unlock()
			return nil, ErrClosed
		}
		if n := len(p.buf); n > 0 {
			if n > max {
				n = max
			}
			data := make([]byte, n)
			copy(data, p.buf)
			p.buf = p.buf[n:]
			p.lock.Unlock()
			return data, nil
		}
		p.lock.Unlock()
		if timer == nil {
			timer = time.NewTimer(timeout)
			defer timer.Stop()
		}
		select {
		case <-p.notify:
		case <-timer.C:
			return nil, nil
		}
	}
}

// Flush drops received bytes.
func (p *BusPort) Flush() error {
	p.lock.Lock()
	p.buf = nil
	p.lock.Unlock()
	return nil
}

// Close detaches the port.
func (p *BusPort) Close() error {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return nil
	}
	p.closed = true
	p.lock.Unlock()
	p.bus.detach(p)
	select {
	case p.notify <- struct{}{}:
	default:
	}
	return nil
}
