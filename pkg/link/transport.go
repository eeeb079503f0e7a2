package link

import "time"

// Transport is the byte channel of a link. The link assumes exclusive
// ownership of the transport.
type Transport interface {
	// Write sends all bytes of p.
	Write(p []byte) (int, error)
	// ReadAvailable returns up to max bytes, waiting at most timeout
	// for the first one. An empty result without error means nothing
	// arrived in time.
	ReadAvailable(max int, timeout time.Duration) ([]byte, error)
}

// Clock provides the current time. Values must carry a monotonic reading
// when deadlines are computed from them.
type Clock interface {
	Now() time.Time
}

// ClockFunc is func form of Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock uses time.Now.
var SystemClock Clock = ClockFunc(time.Now)

// Flusher is implemented by transports able to discard buffered input.
type Flusher interface {
	Flush() error
}
