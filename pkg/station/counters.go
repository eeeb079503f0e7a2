package station

import "sync"

// Counter identifies a station diagnostic counter.
type Counter int

// Station counters.
const (
	// CntBusMsg counts candidate frames seen on the bus.
	CntBusMsg Counter = iota
	// CntFramingErr counts candidate frames with bad framing.
	CntFramingErr
	// CntChecksumErr counts frames failing the LRC check.
	CntChecksumErr
	// CntStationMsg counts frames addressed to the station, broadcasts included.
	CntStationMsg
	// CntIgnored counts valid frames the station did not act on.
	CntIgnored
	// CntNoReply counts processed frames which were not answered.
	CntNoReply
	// CntException counts exception replies.
	CntException
	// CntReply counts all replies sent.
	CntReply

	CntNum = iota
)

var counterNames = [CntNum]string{
	"bus", "framing-err", "checksum-err", "station", "ignored", "no-reply", "exception", "reply",
}

func (c Counter) String() string {
	if c < 0 || int(c) >= CntNum {
		return "unknown"
	}
	return counterNames[c]
}

type counters struct {
	lock sync.Mutex
	ca   [CntNum]uint64
}

func (c *counters) inc(cnts ...Counter) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, cnt := range cnts {
		c.ca[cnt]++
	}
}

func (c *counters) get(cnt Counter) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	if cnt < 0 || int(cnt) >= CntNum {
		return 0
	}
	return c.ca[cnt]
}

func (c *counters) all() []uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	r := make([]uint64, CntNum)
	copy(r, c.ca[:])
	return r
}

func (c *counters) reset() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.ca = [CntNum]uint64{}
}
