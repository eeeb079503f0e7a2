package station

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mbascii/pkg/frame"
	"github.com/robotalks/mbascii/pkg/link"
)

func mustBuild(t *testing.T, addr int, fn frame.FnCode, data string) []byte {
	raw, err := frame.Build(addr, fn, []byte(data))
	require.NoError(t, err)
	return raw
}

func TestNew(t *testing.T) {
	for _, addr := range []int{-1, 0, 248} {
		_, err := New(addr, nil)
		require.Truef(t, errors.Is(err, frame.ErrInvalidAddress), "addr %d", addr)
	}
	s, err := New(247, nil)
	require.NoError(t, err)
	require.Equal(t, byte(247), s.Address())
	require.Empty(t, s.Text())
}

func TestStationDispatch(t *testing.T) {
	testCases := []struct {
		name    string
		text    string
		req     string
		outcome Outcome
		kind    error
		reply   string
		after   string
	}{
		{
			name:    "unicast write",
			req:     ":0501484969\r\n",
			outcome: Accepted,
			reply:   ":05014F4B60\r\n",
			after:   "HI",
		},
		{
			name:    "broadcast write",
			text:    "old",
			req:     ":000141BE\r\n",
			outcome: Accepted,
			after:   "A",
		},
		{
			name:    "empty write",
			text:    "old",
			req:     ":0501FA\r\n",
			outcome: Accepted,
			reply:   ":05014F4B60\r\n",
			after:   "",
		},
		{
			name:    "unicast read",
			text:    "HI",
			req:     ":0502F9\r\n",
			outcome: Accepted,
			reply:   ":0502484968\r\n",
			after:   "HI",
		},
		{
			name:    "read empty text",
			req:     ":0502F9\r\n",
			outcome: Accepted,
			reply:   ":0502F9\r\n",
		},
		{
			name:    "broadcast read",
			text:    "HI",
			req:     ":0002FE\r\n",
			outcome: Ignored,
			after:   "HI",
		},
		{
			name:    "other address",
			text:    "HI",
			req:     ":0901414273\r\n",
			outcome: Ignored,
			after:   "HI",
		},
		{
			name:    "unsupported function",
			req:     ":0507F4\r\n",
			outcome: Rejected,
			kind:    ErrIllegalFunction,
			reply:   ":0587303113\r\n",
		},
		{
			name:    "unsupported broadcast",
			req:     ":0007F9\r\n",
			outcome: Rejected,
			kind:    ErrIllegalFunction,
		},
		{
			name:    "bad checksum",
			text:    "HI",
			req:     ":0501414200\r\n",
			outcome: Rejected,
			kind:    frame.ErrChecksum,
			after:   "HI",
		},
		{
			name:    "bad framing",
			req:     ":050141",
			outcome: Rejected,
			kind:    frame.ErrFraming,
		},
		{
			name:    "garbage",
			req:     "\x00\xff\r\n",
			outcome: Rejected,
			kind:    frame.ErrFraming,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(5, nil)
			require.NoError(t, err)
			s.text = []byte(tc.text)
			r := s.HandleRaw([]byte(tc.req))
			require.Equal(t, tc.outcome, r.Outcome)
			if tc.kind != nil {
				require.True(t, r.Is(tc.kind), "%v", r.Err)
			} else {
				require.NoError(t, r.Err)
			}
			if tc.reply == "" {
				require.Nil(t, r.Reply)
			} else {
				require.Equal(t, tc.reply, string(r.Reply))
			}
			require.Equal(t, tc.after, string(s.Text()))
		})
	}
}

func TestStationWriteIdempotent(t *testing.T) {
	s, err := New(5, nil)
	require.NoError(t, err)
	req := mustBuild(t, 5, frame.WriteText, "Hello")
	first := s.HandleRaw(req)
	second := s.HandleRaw(req)
	require.Equal(t, first.Reply, second.Reply)
	require.Equal(t, "Hello", string(s.Text()))
}

func TestStationBroadcastThenRead(t *testing.T) {
	s, err := New(7, nil)
	require.NoError(t, err)
	r := s.HandleRaw(mustBuild(t, frame.Broadcast, frame.WriteText, "all"))
	require.Equal(t, Accepted, r.Outcome)
	require.Nil(t, r.Reply)
	r = s.HandleRaw(mustBuild(t, 7, frame.ReadText, ""))
	require.Equal(t, Accepted, r.Outcome)
	f, err := frame.Parse(r.Reply)
	require.NoError(t, err)
	require.Equal(t, byte(7), f.Address)
	require.Equal(t, frame.ReadText, f.Function)
	require.Equal(t, "all", string(f.Data))
}

func TestStationCounters(t *testing.T) {
	s, err := New(5, nil)
	require.NoError(t, err)
	for _, req := range []string{
		":0501484969\r\n", // reply
		":000141BE\r\n",   // broadcast, no reply
		":0002FE\r\n",     // broadcast read
		":0901414273\r\n", // other station
		":0507F4\r\n",     // exception
		":0501414200\r\n", // checksum
		":05",             // framing
	} {
		s.HandleRaw([]byte(req))
	}
	expect := map[Counter]uint64{
		CntBusMsg:      7,
		CntFramingErr:  1,
		CntChecksumErr: 1,
		CntStationMsg:  4,
		CntIgnored:     2,
		CntNoReply:     1,
		CntException:   1,
		CntReply:       2,
	}
	for c, v := range expect {
		require.Equalf(t, v, s.Counter(c), "counter %s", c)
	}
	require.Len(t, s.Counters(), CntNum)
	s.ResetCounters()
	require.Zero(t, s.Counter(CntBusMsg))
	require.Equal(t, "unknown", Counter(CntNum).String())
}

type memStore struct {
	texts map[byte][]byte
	saves int
}

func (m *memStore) LoadText(addr byte) ([]byte, error) {
	return m.texts[addr], nil
}

func (m *memStore) SaveText(addr byte, text []byte) error {
	m.texts[addr] = text
	m.saves++
	return nil
}

func TestStationStoreAndObserver(t *testing.T) {
	store := &memStore{texts: map[byte][]byte{5: []byte("saved")}}
	s, err := New(5, nil)
	require.NoError(t, err)
	s.Store = store
	var changed []string
	s.Observer = ObserverFunc(func(addr byte, text []byte) {
		require.Equal(t, byte(5), addr)
		changed = append(changed, string(text))
	})
	require.NoError(t, s.Restore())
	require.Equal(t, "saved", string(s.Text()))

	s.HandleRaw(mustBuild(t, 5, frame.WriteText, "new"))
	s.HandleRaw(mustBuild(t, 5, frame.ReadText, ""))
	s.HandleRaw(mustBuild(t, 0, frame.WriteText, "all"))
	require.Equal(t, 2, store.saves)
	require.Equal(t, "all", string(store.texts[5]))
	require.Equal(t, []string{"new", "all"}, changed)
}

// queueTransport hands out queued input and records written frames.
type queueTransport struct {
	lock    sync.Mutex
	input   [][]byte
	written chan []byte
}

func (q *queueTransport) Write(p []byte) (int, error) {
	q.written <- append([]byte{}, p...)
	return len(p), nil
}

func (q *queueTransport) ReadAvailable(max int, timeout time.Duration) ([]byte, error) {
	q.lock.Lock()
	if len(q.input) > 0 {
		data := q.input[0]
		q.input = q.input[1:]
		q.lock.Unlock()
		return data, nil
	}
	q.lock.Unlock()
	time.Sleep(timeout)
	return nil, nil
}

func TestStationRun(t *testing.T) {
	tr := &queueTransport{
		input: [][]byte{
			[]byte(":0002FE\r\n"),
			[]byte(":0501414200\r\n"),
			[]byte(":05014849"),
			[]byte("69\r\n"),
			[]byte(":0502F9\r\n"),
		},
		written: make(chan []byte, 4),
	}
	l := link.New(tr, 50*time.Millisecond)
	l.PollInterval = time.Millisecond
	s, err := New(5, l)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Equal(t, ":05014F4B60\r\n", string(<-tr.written))
	require.Equal(t, ":0502484968\r\n", string(<-tr.written))
	cancel()
	require.Equal(t, context.Canceled, <-done)
	require.Equal(t, uint64(4), s.Counter(CntBusMsg))
	require.Equal(t, uint64(1), s.Counter(CntChecksumErr))
}
