package link

import (
	"context"
	"time"
)

// Defaults.
const (
	DefaultPollInterval = 10 * time.Millisecond
	DefaultCharGap      = 50 * time.Millisecond
	DefaultReadSize     = 64
	MaxCharGap          = time.Second
)

// Link sends frames and receives candidate frames over a Transport.
// A Link is owned by a single role (a master or a station) and is not
// safe for concurrent use.
type Link struct {
	Transport Transport
	Clock     Clock
	Tap       Tap
	// PollInterval bounds a single transport read.
	PollInterval time.Duration
	// ReadSize is the max bytes requested per read.
	ReadSize int

	assembler Assembler
	pending   []byte
}

// New creates a Link.
func New(t Transport, charGap time.Duration) *Link {
	l := &Link{
		Transport:    t,
		Clock:        SystemClock,
		PollInterval: DefaultPollInterval,
		ReadSize:     DefaultReadSize,
	}
	l.assembler.CharGap = charGap
	return l
}

// CharGap gets the inter-character gap.
func (l *Link) CharGap() time.Duration {
	return l.assembler.CharGap
}

// SetCharGap sets the inter-character gap.
func (l *Link) SetCharGap(d time.Duration) {
	l.assembler.CharGap = d
}

// State gets the assembler state.
func (l *Link) State() State {
	return l.assembler.State()
}

// Reset drops partially assembled and pending bytes.
func (l *Link) Reset() {
	l.assembler.Reset()
	l.pending = nil
}

// Flush resets the link and discards input buffered by the transport.
func (l *Link) Flush() error {
	l.Reset()
	if f, ok := l.Transport.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Now returns the link clock time.
func (l *Link) Now() time.Time {
	if l.Clock == nil {
		return time.Now()
	}
	return l.Clock.Now()
}

// Send writes a raw frame.
func (l *Link) Send(raw []byte) error {
	if tap := l.Tap; tap != nil {
		tap.Frame(TX, raw)
	}
	_, err := l.Transport.Write(raw)
	return err
}

// Receive polls the transport until a candidate frame is assembled. It
// returns ErrNoFrame once deadline passes; a zero deadline waits forever.
// The returned bytes are not validated.
func (l *Link) Receive(ctx context.Context, deadline time.Time) ([]byte, error) {
	for {
		for len(l.pending) > 0 {
			b := l.pending[0]
			l.pending = l.pending[1:]
			if r := l.assembler.Push(b, l.Now()); r.State == StateFrameReady {
				return l.handOff(r.Frame), nil
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		now := l.Now()
		poll := l.pollInterval()
		if !deadline.IsZero() {
			remain := deadline.Sub(now)
			if remain <= 0 {
				return nil, ErrNoFrame
			}
			if remain < poll {
				poll = remain
			}
		}
		data, err := l.Transport.ReadAvailable(l.readSize(), poll)
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			l.pending = append(l.pending, data...)
			continue
		}
		if r := l.assembler.Timeout(l.Now()); r.State == StateFrameReady {
			return l.handOff(r.Frame), nil
		}
	}
}

func (l *Link) handOff(raw []byte) []byte {
	if tap := l.Tap; tap != nil {
		tap.Frame(RX, raw)
	}
	return raw
}

func (l *Link) pollInterval() time.Duration {
	if l.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return l.PollInterval
}

func (l *Link) readSize() int {
	if l.ReadSize <= 0 {
		return DefaultReadSize
	}
	return l.ReadSize
}
