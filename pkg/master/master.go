package master

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mbascii/pkg/frame"
	"github.com/robotalks/mbascii/pkg/link"
)

// Limits and defaults.
const (
	DefaultTimeout = time.Second
	MaxTimeout     = 10 * time.Second
	MaxRetries     = 5
)

// Response is the result of Execute.
type Response struct {
	// Frame is the parsed reply, nil for a broadcast without reply.
	Frame *frame.Frame
	// Raw is the reply as received.
	Raw []byte
	// Attempts is the number of transmissions.
	Attempts int
}

// Master issues requests over a Link. Execute calls are serialized.
type Master struct {
	Link *link.Link
	// Timeout is the response deadline of each attempt.
	Timeout time.Duration
	// Retries is the number of retransmissions after the first attempt.
	Retries int
	// CharGap is applied to the link before each transaction.
	CharGap time.Duration
	// Observer is optional.
	Observer Observer

	lock sync.Mutex
}

// New creates a Master with the default timeout and no retries.
func New(l *link.Link) *Master {
	m := &Master{Link: l, Timeout: DefaultTimeout, CharGap: link.DefaultCharGap}
	if l != nil {
		m.CharGap = l.CharGap()
	}
	return m
}

// Params are the timing parameters of a Master.
type Params struct {
	Timeout time.Duration
	Retries int
	CharGap time.Duration
}

// Params returns a snapshot of the timing parameters. It waits for a
// running transaction to complete.
func (m *Master) Params() Params {
	m.lock.Lock()
	defer m.lock.Unlock()
	return Params{Timeout: m.Timeout, Retries: m.Retries, CharGap: m.CharGap}
}

// SetParams validates and applies timing parameters between transactions.
func (m *Master) SetParams(p Params) error {
	if err := ValidateParams(p.Timeout, p.Retries, p.CharGap); err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.Timeout, m.Retries, m.CharGap = p.Timeout, p.Retries, p.CharGap
	return nil
}

// Validate checks the timing parameters.
func (m *Master) Validate() error {
	return ValidateParams(m.Timeout, m.Retries, m.CharGap)
}

// ValidateParams checks timeout, retries and char gap ranges.
func ValidateParams(timeout time.Duration, retries int, charGap time.Duration) error {
	if timeout < 0 || timeout > MaxTimeout {
		return fmt.Errorf("%w: timeout %v not in 0-%v", ErrInvalidConfig, timeout, MaxTimeout)
	}
	if retries < 0 || retries > MaxRetries {
		return fmt.Errorf("%w: retries %d not in 0-%d", ErrInvalidConfig, retries, MaxRetries)
	}
	if charGap < 0 || charGap > link.MaxCharGap {
		return fmt.Errorf("%w: char gap %v not in 0-%v", ErrInvalidConfig, charGap, link.MaxCharGap)
	}
	return nil
}

// Execute sends a request and waits for the reply. A parse failure of
// the reply is returned as is without retransmission.
func (m *Master) Execute(ctx context.Context, addr int, fn frame.FnCode, data []byte) (*Response, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := frame.ValidAddress(addr); err != nil {
		return nil, err
	}
	if len(data) > frame.MaxDataLen {
		return nil, fmt.Errorf("%w: %d data bytes exceeds %d", ErrInvalidRequest, len(data), frame.MaxDataLen)
	}
	req, err := frame.Build(addr, fn, data)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{Address: addr, Function: fn, Request: req, StartedAt: m.Link.Now()}
	resp, err := m.transact(ctx, tx)
	tx.Duration = m.Link.Now().Sub(tx.StartedAt)
	tx.Err = err
	if m.Observer != nil {
		m.Observer.Transaction(tx)
	}
	return resp, err
}

func (m *Master) transact(ctx context.Context, tx *Transaction) (*Response, error) {
	l := m.Link
	l.SetCharGap(m.CharGap)
	for tx.Attempts < m.Retries+1 {
		if err := l.Flush(); err != nil {
			glog.Errorf("master: flush: %v", err)
			return nil, err
		}
		tx.Attempts++
		if err := l.Send(tx.Request); err != nil {
			glog.Errorf("master: send: %v", err)
			return nil, err
		}
		raw, err := l.Receive(ctx, l.Now().Add(m.Timeout))
		if err == nil {
			tx.Response = raw
			f, err := frame.Parse(raw)
			if err != nil {
				glog.Warningf("master: bad reply from %d: %v [%s]", tx.Address, err, frame.HexDump(raw))
				return nil, err
			}
			return &Response{Frame: &f, Raw: raw, Attempts: tx.Attempts}, nil
		}
		if err != link.ErrNoFrame {
			return nil, err
		}
		if tx.Address == frame.Broadcast {
			return &Response{Attempts: tx.Attempts}, nil
		}
		glog.Warningf("master: no reply from %d, attempt %d/%d", tx.Address, tx.Attempts, m.Retries+1)
	}
	return nil, fmt.Errorf("%w: station %d after %d attempts", ErrTransactionTimeout, tx.Address, tx.Attempts)
}

// WriteText stores text in station addr. Broadcast is allowed.
func (m *Master) WriteText(ctx context.Context, addr int, text []byte) error {
	resp, err := m.Execute(ctx, addr, frame.WriteText, text)
	if err != nil {
		return err
	}
	if addr == frame.Broadcast && resp.Frame == nil {
		return nil
	}
	f, err := checkReply(resp, addr, frame.WriteText)
	if err != nil {
		return err
	}
	if string(f.Data) != string(frame.Ack) {
		return fmt.Errorf("%w: ack %q", ErrUnexpectedResponse, f.Data)
	}
	return nil
}

// ReadText reads the stored text of station addr.
func (m *Master) ReadText(ctx context.Context, addr int) ([]byte, error) {
	if addr == frame.Broadcast {
		return nil, fmt.Errorf("%w: read needs a station address", frame.ErrInvalidAddress)
	}
	resp, err := m.Execute(ctx, addr, frame.ReadText, nil)
	if err != nil {
		return nil, err
	}
	f, err := checkReply(resp, addr, frame.ReadText)
	if err != nil {
		return nil, err
	}
	return f.Data, nil
}

func checkReply(resp *Response, addr int, fn frame.FnCode) (*frame.Frame, error) {
	f := resp.Frame
	if f == nil {
		return nil, fmt.Errorf("%w: no reply", ErrUnexpectedResponse)
	}
	if int(f.Address) != addr {
		return nil, fmt.Errorf("%w: reply from %d", ErrUnexpectedResponse, f.Address)
	}
	switch f.Function {
	case fn:
		return f, nil
	case fn.Exc():
		return nil, &ExceptionError{Function: fn, Code: string(f.Data)}
	}
	return nil, fmt.Errorf("%w: function %s", ErrUnexpectedResponse, f.Function)
}
