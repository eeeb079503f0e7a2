package link

import (
	"time"

	"github.com/robotalks/mbascii/pkg/frame"
)

// State is the state of the Assembler.
type State int

const (
	// StateIdle means the receive buffer is empty.
	StateIdle State = iota
	// StateAccumulating means at least one byte is buffered.
	StateAccumulating
	// StateFrameReady means a frame boundary was detected in this step.
	// The buffered bytes are handed off in the same step, so the
	// assembler itself is back to StateIdle afterwards.
	StateFrameReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateFrameReady:
		return "frame-ready"
	}
	return "unknown"
}

// Boundary tells how a frame boundary was detected.
type Boundary int

// Boundaries.
const (
	BoundaryNone Boundary = iota
	BoundaryTerminator
	BoundaryGap
	BoundaryOverflow
)

// AssembleResult is the result of one assembler step.
type AssembleResult struct {
	State    State
	Boundary Boundary
	// Frame holds the candidate frame when State is StateFrameReady.
	Frame []byte
}

// Assembler accumulates bytes into candidate frames. A stream of bytes
// which neither terminates nor pauses is cut at frame.MaxFrameLen.
type Assembler struct {
	// CharGap is the silence after the last byte which ends a frame.
	CharGap time.Duration

	buf  []byte
	last time.Time
}

// State gets the current state.
func (a *Assembler) State() State {
	if len(a.buf) == 0 {
		return StateIdle
	}
	return StateAccumulating
}

// Len returns the number of buffered bytes.
func (a *Assembler) Len() int {
	return len(a.buf)
}

// LastByteAt returns the arrival time of the last buffered byte.
func (a *Assembler) LastByteAt() time.Time {
	return a.last
}

// Reset drops buffered bytes.
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
	a.last = time.Time{}
}

// Push consumes one byte received at now.
func (a *Assembler) Push(b byte, now time.Time) (r AssembleResult) {
	a.buf = append(a.buf, b)
	a.last = now
	if n := len(a.buf); n >= 2 && a.buf[n-2] == frame.CR && a.buf[n-1] == frame.LF {
		return a.ready(BoundaryTerminator)
	}
	if len(a.buf) >= frame.MaxFrameLen {
		return a.ready(BoundaryOverflow)
	}
	r.State = StateAccumulating
	return
}

// Timeout notifies the assembler a poll returned no byte at now.
func (a *Assembler) Timeout(now time.Time) (r AssembleResult) {
	if len(a.buf) > 0 && now.Sub(a.last) >= a.CharGap {
		return a.ready(BoundaryGap)
	}
	r.State = a.State()
	return
}

func (a *Assembler) ready(boundary Boundary) AssembleResult {
	out := make([]byte, len(a.buf))
	copy(out, a.buf)
	a.Reset()
	return AssembleResult{State: StateFrameReady, Boundary: boundary, Frame: out}
}
