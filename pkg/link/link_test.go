package link

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

type chunk struct {
	after time.Duration
	data  []byte
	err   error
}

// scriptTransport replays chunks against a fake clock. A read advances
// the clock either to the arrival of the next chunk or by the full poll
// timeout.
type scriptTransport struct {
	clock   *fakeClock
	chunks  []chunk
	written [][]byte
	reads   int
}

func (s *scriptTransport) Write(p []byte) (int, error) {
	s.written = append(s.written, append([]byte{}, p...))
	return len(p), nil
}

func (s *scriptTransport) ReadAvailable(max int, timeout time.Duration) ([]byte, error) {
	s.reads++
	if len(s.chunks) == 0 {
		s.clock.now = s.clock.now.Add(timeout)
		return nil, nil
	}
	c := &s.chunks[0]
	if c.after > timeout {
		c.after -= timeout
		s.clock.now = s.clock.now.Add(timeout)
		return nil, nil
	}
	s.clock.now = s.clock.now.Add(c.after)
	c.after = 0
	if c.err != nil {
		s.chunks = s.chunks[1:]
		return nil, c.err
	}
	if len(c.data) > max {
		data := c.data[:max]
		c.data = c.data[max:]
		return data, nil
	}
	data := c.data
	s.chunks = s.chunks[1:]
	return data, nil
}

func newScriptLink(charGap time.Duration, chunks ...chunk) (*Link, *scriptTransport) {
	clock := &fakeClock{now: time.Now()}
	tr := &scriptTransport{clock: clock, chunks: chunks}
	l := New(tr, charGap)
	l.Clock = clock
	return l, tr
}

func TestLinkReceive(t *testing.T) {
	testCases := []struct {
		name   string
		chunks []chunk
		expect []string
	}{
		{
			name:   "single frame",
			chunks: []chunk{{data: []byte(":0501484969\r\n")}},
			expect: []string{":0501484969\r\n"},
		},
		{
			name:   "two frames in one read",
			chunks: []chunk{{data: []byte(":0902F5\r\n:0501484969\r\n")}},
			expect: []string{":0902F5\r\n", ":0501484969\r\n"},
		},
		{
			name: "frame in pieces",
			chunks: []chunk{
				{data: []byte(":09")},
				{after: 20 * time.Millisecond, data: []byte("02")},
				{after: 20 * time.Millisecond, data: []byte("F5\r\n")},
			},
			expect: []string{":0902F5\r\n"},
		},
		{
			name: "truncated frame then good frame",
			chunks: []chunk{
				{data: []byte(":05014849")},
				{after: 200 * time.Millisecond, data: []byte(":0902F5\r\n")},
			},
			expect: []string{":05014849", ":0902F5\r\n"},
		},
		{
			name: "pause shorter than gap",
			chunks: []chunk{
				{after: time.Second, data: []byte(":0902")},
				{after: 45 * time.Millisecond, data: []byte("F5\r\n")},
			},
			expect: []string{":0902F5\r\n"},
		},
		{
			name: "large read split",
			chunks: []chunk{
				{data: []byte(":01" + "01" + "414243444546474849404142434445464748494041424344454647484940414243444546474849404142434445464748494041424344454647484940414243444546474849" + "00\r\n")},
			},
			expect: []string{":0101414243444546474849404142434445464748494041424344454647484940414243444546474849404142434445464748494041424344454647484940414243444546474849" + "00\r\n"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, _ := newScriptLink(50*time.Millisecond, tc.chunks...)
			for i, expect := range tc.expect {
				raw, err := l.Receive(context.Background(), time.Time{})
				require.NoErrorf(t, err, "frame[%d]", i)
				require.Equalf(t, expect, string(raw), "frame[%d]", i)
				require.Equal(t, StateIdle, l.State())
			}
		})
	}
}

func TestLinkReceiveDeadline(t *testing.T) {
	l, tr := newScriptLink(50*time.Millisecond, chunk{after: time.Second, data: []byte(":0902F5\r\n")})
	start := l.Now()
	_, err := l.Receive(context.Background(), start.Add(200*time.Millisecond))
	require.Equal(t, ErrNoFrame, err)
	require.Equal(t, start.Add(200*time.Millisecond), tr.clock.now)
	require.Equal(t, 20, tr.reads)

	raw, err := l.Receive(context.Background(), l.Now().Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, ":0902F5\r\n", string(raw))
}

func TestLinkReceivePartialAtDeadline(t *testing.T) {
	l, _ := newScriptLink(50*time.Millisecond,
		chunk{after: 90 * time.Millisecond, data: []byte(":0902")},
	)
	_, err := l.Receive(context.Background(), l.Now().Add(100*time.Millisecond))
	require.Equal(t, ErrNoFrame, err)
	require.Equal(t, StateAccumulating, l.State())
	l.Reset()
	require.Equal(t, StateIdle, l.State())
}

func TestLinkReceiveError(t *testing.T) {
	ioErr := errors.New("port closed")
	l, _ := newScriptLink(50*time.Millisecond, chunk{after: 30 * time.Millisecond, err: ioErr})
	_, err := l.Receive(context.Background(), time.Time{})
	require.Equal(t, ioErr, err)
}

func TestLinkReceiveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l, tr := newScriptLink(50 * time.Millisecond)
	_, err := l.Receive(ctx, time.Time{})
	require.Equal(t, context.Canceled, err)
	require.Zero(t, tr.reads)
}

func TestLinkTap(t *testing.T) {
	var seen []string
	l, tr := newScriptLink(50*time.Millisecond, chunk{data: []byte(":0902F5\r\n")})
	l.Tap = Taps{nil, TapFunc(func(dir Direction, raw []byte) {
		seen = append(seen, dir.String()+" "+string(raw))
	}), &LogTap{Name: "test"}}
	require.NoError(t, l.Send([]byte(":0902F5\r\n")))
	_, err := l.Receive(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Equal(t, []string{"tx :0902F5\r\n", "rx :0902F5\r\n"}, seen)
	require.Equal(t, [][]byte{[]byte(":0902F5\r\n")}, tr.written)
}

func TestLinkCharGap(t *testing.T) {
	l := New(nil, 10*time.Millisecond)
	require.Equal(t, 10*time.Millisecond, l.CharGap())
	l.SetCharGap(time.Second)
	require.Equal(t, time.Second, l.CharGap())
}

type flushTransport struct {
	scriptTransport
	flushed int
}

func (f *flushTransport) Flush() error {
	f.flushed++
	f.chunks = nil
	return nil
}

func TestLinkFlush(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tr := &flushTransport{scriptTransport: scriptTransport{
		clock:  clock,
		chunks: []chunk{{data: []byte(":0902F5\r\n:09")}},
	}}
	l := New(tr, 50*time.Millisecond)
	l.Clock = clock
	_, err := l.Receive(context.Background(), time.Time{})
	require.NoError(t, err)
	require.NoError(t, l.Flush())
	require.Equal(t, 1, tr.flushed)
	_, err = l.Receive(context.Background(), l.Now().Add(100*time.Millisecond))
	require.Equal(t, ErrNoFrame, err)
	require.Equal(t, StateIdle, l.State())

	l = New(&scriptTransport{clock: clock}, 0)
	require.NoError(t, l.Flush())
}
