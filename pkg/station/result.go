package station

import (
	"errors"

	"github.com/robotalks/mbascii/pkg/frame"
)

// ErrIllegalFunction indicates a request with an unsupported function code.
var ErrIllegalFunction = errors.New("illegal function")

// Outcome tells what the station did with a candidate frame.
type Outcome int

// Outcomes.
const (
	// Ignored means the frame was valid but not for this station, or not
	// allowed as a broadcast.
	Ignored Outcome = iota
	// Accepted means the request was executed.
	Accepted
	// Rejected means the frame was discarded. Result.Err holds the kind.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Result is the outcome of handling one candidate frame.
type Result struct {
	Outcome Outcome
	// Err is frame.ErrFraming, frame.ErrChecksum or ErrIllegalFunction
	// (possibly wrapped) when Outcome is Rejected.
	Err error
	// Request is the parsed frame, valid unless framing or LRC failed.
	Request frame.Frame
	// Reply is the encoded reply, nil when nothing is sent.
	Reply []byte
}

// Is checks whether the result was rejected for the given kind.
func (r Result) Is(kind error) bool {
	return r.Outcome == Rejected && errors.Is(r.Err, kind)
}
