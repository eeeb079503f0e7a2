package station

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mbascii/pkg/frame"
	"github.com/robotalks/mbascii/pkg/link"
)

// TextStore persists the stored text of a station.
type TextStore interface {
	LoadText(addr byte) ([]byte, error)
	SaveText(addr byte, text []byte) error
}

// Observer is notified after a WriteText request is accepted.
type Observer interface {
	TextChanged(addr byte, text []byte)
}

// ObserverFunc is func form of Observer.
type ObserverFunc func(addr byte, text []byte)

// TextChanged implements Observer.
func (f ObserverFunc) TextChanged(addr byte, text []byte) {
	f(addr, text)
}

// Station is a slave holding one text buffer at a fixed address.
type Station struct {
	Link     *link.Link
	Store    TextStore
	Observer Observer

	addr  byte
	lock  sync.RWMutex
	text  []byte
	stats counters
}

// New creates a Station at addr (1-247) listening on l.
func New(addr int, l *link.Link) (*Station, error) {
	if addr < frame.MinUnicast || addr > frame.MaxAddress {
		return nil, fmt.Errorf("%w: station %d", frame.ErrInvalidAddress, addr)
	}
	return &Station{Link: l, addr: byte(addr)}, nil
}

// Address returns the station address.
func (s *Station) Address() byte {
	return s.addr
}

// Text returns a copy of the stored text.
func (s *Station) Text() []byte {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]byte{}, s.text...)
}

// Restore loads the stored text from Store.
func (s *Station) Restore() error {
	if s.Store == nil {
		return nil
	}
	text, err := s.Store.LoadText(s.addr)
	if err != nil {
		return err
	}
	s.lock.Lock()
	s.text = append([]byte{}, text...)
	s.lock.Unlock()
	return nil
}

// Counter gets the value of a diagnostic counter.
func (s *Station) Counter(c Counter) uint64 {
	return s.stats.get(c)
}

// Counters returns a snapshot of all counters, indexed by Counter.
func (s *Station) Counters() []uint64 {
	return s.stats.all()
}

// ResetCounters zeroes all counters.
func (s *Station) ResetCounters() {
	s.stats.reset()
}

// Run listens on the link and answers requests until ctx is done or the
// transport fails.
func (s *Station) Run(ctx context.Context) error {
	glog.Infof("station %d: listening", s.addr)
	defer glog.Infof("station %d: stopped", s.addr)
	for {
		raw, err := s.Link.Receive(ctx, time.Time{})
		if err != nil {
			return err
		}
		r := s.HandleRaw(raw)
		if r.Reply == nil {
			continue
		}
		if err := s.Link.Send(r.Reply); err != nil {
			glog.Errorf("station %d: send reply: %v", s.addr, err)
			return err
		}
	}
}

// HandleRaw parses a candidate frame and dispatches it.
func (s *Station) HandleRaw(raw []byte) Result {
	s.stats.inc(CntBusMsg)
	f, err := frame.Parse(raw)
	if err != nil {
		if errors.Is(err, frame.ErrChecksum) {
			s.stats.inc(CntChecksumErr)
		} else {
			s.stats.inc(CntFramingErr)
		}
		glog.Warningf("station %d: discard frame: %v [%s]", s.addr, err, frame.HexDump(raw))
		return Result{Outcome: Rejected, Err: err}
	}
	return s.Handle(f)
}

// Handle dispatches a decoded frame.
func (s *Station) Handle(f frame.Frame) (r Result) {
	r.Request = f
	if f.Address != frame.Broadcast && f.Address != s.addr {
		s.stats.inc(CntIgnored)
		return
	}
	s.stats.inc(CntStationMsg)
	broadcast := f.IsBroadcast()
	switch f.Function {
	case frame.WriteText:
		s.store(f.Data)
		r.Outcome = Accepted
		if !broadcast {
			r.Reply = s.reply(f.Function, frame.Ack)
		}
	case frame.ReadText:
		if broadcast {
			s.stats.inc(CntIgnored)
			return
		}
		r.Outcome = Accepted
		r.Reply = s.reply(f.Function, s.Text())
	default:
		r.Outcome = Rejected
		r.Err = fmt.Errorf("%w: %s", ErrIllegalFunction, f.Function)
		if !broadcast {
			s.stats.inc(CntException)
			r.Reply = s.reply(f.Function.Exc(), frame.ExIllegalFunction)
		}
	}
	if r.Reply == nil {
		s.stats.inc(CntNoReply)
	}
	return
}

func (s *Station) store(data []byte) {
	text := append([]byte{}, data...)
	s.lock.Lock()
	s.text = text
	s.lock.Unlock()
	glog.Infof("station %d: text updated (%d bytes)", s.addr, len(text))
	if s.Store != nil {
		if err := s.Store.SaveText(s.addr, text); err != nil {
			glog.Errorf("station %d: save text: %v", s.addr, err)
		}
	}
	if s.Observer != nil {
		s.Observer.TextChanged(s.addr, append([]byte{}, text...))
	}
}

func (s *Station) reply(fn frame.FnCode, data []byte) []byte {
	// own address is validated in New
	raw, _ := frame.Build(int(s.addr), fn, data)
	s.stats.inc(CntReply)
	return raw
}
