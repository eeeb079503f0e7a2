package link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mbascii/pkg/frame"
)

type assembleStep struct {
	in       []byte // nil means a poll timeout
	after    time.Duration
	state    State
	boundary Boundary
	frame    string
}

type assembleStepsBuilder struct {
	steps []assembleStep
}

func assembleSteps() *assembleStepsBuilder {
	return &assembleStepsBuilder{}
}

func (b *assembleStepsBuilder) push(after time.Duration, in string) *assembleStepsBuilder {
	b.steps = append(b.steps, assembleStep{in: []byte(in), after: after, state: StateAccumulating})
	return b
}

func (b *assembleStepsBuilder) timeout(after time.Duration) *assembleStepsBuilder {
	b.steps = append(b.steps, assembleStep{after: after, state: StateAccumulating})
	return b
}

func (b *assembleStepsBuilder) idle() *assembleStepsBuilder {
	b.steps[len(b.steps)-1].state = StateIdle
	return b
}

func (b *assembleStepsBuilder) ready(boundary Boundary, fr string) *assembleStepsBuilder {
	s := &b.steps[len(b.steps)-1]
	s.state, s.boundary, s.frame = StateFrameReady, boundary, fr
	return b
}

func (b *assembleStepsBuilder) run(t *testing.T) {
	a := &Assembler{CharGap: 50 * time.Millisecond}
	now := time.Now()
	for n, step := range b.steps {
		now = now.Add(step.after)
		var r AssembleResult
		if step.in == nil {
			r = a.Timeout(now)
		} else {
			for i, c := range step.in {
				r = a.Push(c, now)
				if i+1 < len(step.in) {
					require.Equalf(t, StateAccumulating, r.State, "step[%d].in[%d] state", n, i)
				}
			}
		}
		require.Equalf(t, step.state, r.State, "step[%d] state", n)
		require.Equalf(t, step.boundary, r.Boundary, "step[%d] boundary", n)
		if step.state == StateFrameReady {
			require.Equalf(t, step.frame, string(r.Frame), "step[%d] frame", n)
			require.Equalf(t, StateIdle, a.State(), "step[%d] buffer not cleared", n)
			require.Zero(t, a.Len())
		} else {
			require.Nilf(t, r.Frame, "step[%d] unexpected frame", n)
		}
	}
}

func TestAssembler(t *testing.T) {
	testCases := []struct {
		name  string
		steps *assembleStepsBuilder
	}{
		{
			name: "terminator",
			steps: assembleSteps().
				push(0, ":0501484969\r\n").ready(BoundaryTerminator, ":0501484969\r\n"),
		},
		{
			name: "idle timeout",
			steps: assembleSteps().
				timeout(time.Second).idle().
				push(0, ":0902F5\r\n").ready(BoundaryTerminator, ":0902F5\r\n").
				timeout(time.Second).idle(),
		},
		{
			name: "split by terminator",
			steps: assembleSteps().
				push(0, ":0902").
				timeout(10*time.Millisecond).
				push(10*time.Millisecond, "F5\r").
				push(10*time.Millisecond, "\n").ready(BoundaryTerminator, ":0902F5\r\n"),
		},
		{
			name: "gap ends truncated frame",
			steps: assembleSteps().
				push(0, ":0501484").
				timeout(20*time.Millisecond).
				timeout(20*time.Millisecond).
				timeout(10*time.Millisecond).ready(BoundaryGap, ":0501484").
				timeout(time.Second).idle(),
		},
		{
			name: "gap measured from last byte",
			steps: assembleSteps().
				push(0, ":05").
				timeout(40*time.Millisecond).
				push(0, "01").
				timeout(40*time.Millisecond).
				timeout(10*time.Millisecond).ready(BoundaryGap, ":0501"),
		},
		{
			name: "cr inside garbage",
			steps: assembleSteps().
				push(0, "\r\r:09").
				push(0, "02F5\n\r\n").ready(BoundaryTerminator, "\r\r:0902F5\n\r\n"),
		},
		{
			name: "lf alone",
			steps: assembleSteps().
				push(0, "\n").
				timeout(time.Second).ready(BoundaryGap, "\n"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, tc.steps.run)
	}
}

func TestAssemblerOverflow(t *testing.T) {
	a := &Assembler{CharGap: time.Second}
	now := time.Now()
	var r AssembleResult
	for i := 0; i < frame.MaxFrameLen; i++ {
		r = a.Push('0', now)
		if i+1 < frame.MaxFrameLen {
			require.Equal(t, StateAccumulating, r.State)
		}
	}
	require.Equal(t, StateFrameReady, r.State)
	require.Equal(t, BoundaryOverflow, r.Boundary)
	require.Len(t, r.Frame, frame.MaxFrameLen)
	require.Equal(t, StateIdle, a.State())
}

func TestAssemblerReset(t *testing.T) {
	a := &Assembler{CharGap: time.Millisecond}
	now := time.Now()
	a.Push(':', now)
	require.Equal(t, StateAccumulating, a.State())
	require.Equal(t, now, a.LastByteAt())
	a.Reset()
	require.Equal(t, StateIdle, a.State())
	r := a.Timeout(now.Add(time.Second))
	require.Equal(t, StateIdle, r.State)
	require.Nil(t, r.Frame)
}

func TestAssemblerZeroGap(t *testing.T) {
	a := &Assembler{}
	now := time.Now()
	a.Push(':', now)
	r := a.Timeout(now)
	require.Equal(t, StateFrameReady, r.State)
	require.Equal(t, ":", string(r.Frame))
}
