package link

import (
	"github.com/golang/glog"

	"github.com/robotalks/mbascii/pkg/frame"
)

// Direction of a frame relative to the local station.
type Direction int

// Directions.
const (
	TX Direction = iota
	RX
)

func (d Direction) String() string {
	if d == TX {
		return "tx"
	}
	return "rx"
}

// Tap observes every frame sent and every candidate frame received.
// Received bytes are reported before they are parsed.
type Tap interface {
	Frame(dir Direction, raw []byte)
}

// TapFunc is func form of Tap.
type TapFunc func(dir Direction, raw []byte)

// Frame implements Tap.
func (f TapFunc) Frame(dir Direction, raw []byte) {
	f(dir, raw)
}

// Taps fans out to multiple taps. nil entries are skipped.
type Taps []Tap

// Frame implements Tap.
func (t Taps) Frame(dir Direction, raw []byte) {
	for _, tap := range t {
		if tap != nil {
			tap.Frame(dir, raw)
		}
	}
}

// LogTap dumps frames in hex at verbosity level 2.
type LogTap struct {
	Name string
}

// Frame implements Tap.
func (t *LogTap) Frame(dir Direction, raw []byte) {
	if glog.V(2) {
		glog.Infof("[%s] %s %s", t.Name, dir, frame.HexDump(raw))
	}
}
