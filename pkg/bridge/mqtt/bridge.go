package mqtt

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/mbascii/pkg/frame"
	"github.com/robotalks/mbascii/pkg/link"
	"github.com/robotalks/mbascii/pkg/station"
)

// Topics relative to the queue prefix.
const (
	TopicFramesFmt    = "%s/%s"           // role, direction
	TopicStationText  = "station/%d/text" // address
	TopicMasterCmd    = "master/cmd/+/+"  // address, write|read
	TopicMasterResFmt = "master/res/%d"   // address
	CmdWrite          = "write"
	CmdRead           = "read"
)

// Commander runs application commands, *master.Master satisfies it.
type Commander interface {
	WriteText(ctx context.Context, addr int, text []byte) error
	ReadText(ctx context.Context, addr int) ([]byte, error)
}

// Bridge publishes link and station activity to MQTT and runs remote
// master commands.
type Bridge struct {
	Publisher Publisher
	// Clock stamps events, defaults to time.Now.
	Clock link.Clock
}

// New creates a Bridge.
func New(pub Publisher) *Bridge {
	return &Bridge{Publisher: pub, Clock: link.SystemClock}
}

func (b *Bridge) now() time.Time {
	if b.Clock == nil {
		return time.Now()
	}
	return b.Clock.Now()
}

func (b *Bridge) publish(topic string, msg proto.Message, retain bool) {
	payload, err := Encode(msg)
	if err != nil {
		glog.Errorf("bridge: encode %s: %v", topic, err)
		return
	}
	// token not awaited
	b.Publisher.PubWith(topic, payload, 0, retain)
}

// Tap returns a link.Tap publishing frames of role.
func (b *Bridge) Tap(role string) link.Tap {
	return link.TapFunc(func(dir link.Direction, raw []byte) {
		ev := &FrameEvent{
			Role:      role,
			Direction: dir.String(),
			Raw:       append([]byte{}, raw...),
			Timestamp: b.now().UnixNano(),
		}
		if f, err := frame.Parse(raw); err != nil {
			ev.Error = err.Error()
		} else {
			ev.Address, ev.Function, ev.Data = uint32(f.Address), uint32(f.Function), f.Data
		}
		b.publish(fmt.Sprintf(TopicFramesFmt, role, dir), ev, false)
	})
}

// TextChanged implements station.Observer and publishes the retained text.
func (b *Bridge) TextChanged(addr byte, text []byte) {
	b.publish(fmt.Sprintf(TopicStationText, addr), &TextUpdate{
		Address:   uint32(addr),
		Text:      text,
		Timestamp: b.now().UnixNano(),
	}, true)
}

var _ station.Observer = (*Bridge)(nil)

// ParseCommandTopic extracts address and command from master/cmd/ADDR/CMD.
func ParseCommandTopic(topic string) (int, string, error) {
	tokens := strings.Split(topic, "/")
	if len(tokens) != 4 || tokens[0] != "master" || tokens[1] != "cmd" {
		return 0, "", fmt.Errorf("invalid command topic %q", topic)
	}
	addr, err := strconv.Atoi(tokens[2])
	if err != nil {
		return 0, "", fmt.Errorf("invalid address in %q", topic)
	}
	switch tokens[3] {
	case CmdWrite, CmdRead:
		return addr, tokens[3], nil
	}
	return 0, "", fmt.Errorf("unknown command %q", tokens[3])
}

// HandleCommand runs one remote command and publishes the result. The
// write payload is the raw text.
func (b *Bridge) HandleCommand(ctx context.Context, cmdr Commander, topic string, payload []byte) {
	addr, cmd, err := ParseCommandTopic(topic)
	if err != nil {
		glog.Warningf("bridge: %v", err)
		return
	}
	res := &CommandResult{Address: uint32(addr), Command: cmd}
	switch cmd {
	case CmdWrite:
		err = cmdr.WriteText(ctx, addr, payload)
	case CmdRead:
		res.Text, err = cmdr.ReadText(ctx, addr)
	}
	if err != nil {
		res.Error = err.Error()
	} else {
		res.Ok = true
	}
	glog.V(1).Infof("bridge: %s %d: %s", cmd, addr, res)
	b.publish(fmt.Sprintf(TopicMasterResFmt, addr), res, false)
}

type command struct {
	topic   string
	payload []byte
}

// MasterService serves remote commands received from Queue.
type MasterService struct {
	Bridge    *Bridge
	Queue     *Queue
	Commander Commander
}

// Run implements framework.Runnable. Commands are executed one by one.
func (s *MasterService) Run(ctx context.Context) error {
	cmdCh := make(chan command, 16)
	sub := s.Queue.Sub(TopicMasterCmd, Handler(func(topic string, payload []byte) {
		select {
		case cmdCh <- command{topic: topic, payload: append([]byte{}, payload...)}:
		default:
			glog.Warningf("bridge: command queue full, drop %s", topic)
		}
	}))
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-cmdCh:
			s.Bridge.HandleCommand(ctx, s.Commander, cmd.topic, cmd.payload)
		}
	}
}
