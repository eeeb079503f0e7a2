package transport

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Options are used by Open.
type Options struct {
	// Baud applies to serial ports, unless the URL has a baud parameter.
	Baud int
	// DialTimeout applies to TCP connections.
	DialTimeout time.Duration
	// Origin is the websocket origin, defaults to http://localhost/.
	Origin string
}

// Open opens a transport by URL:
//
//	serial:///dev/ttyUSB0?baud=19200
//	/dev/ttyUSB0 or COM8 (serial)
//	tcp://host:port
//	ws://host:port/path or wss://...
func Open(rawURL string, opts Options) (Transport, error) {
	if !strings.Contains(rawURL, "://") {
		return openSerial(SerialConfig{Name: rawURL, Baud: opts.Baud})
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "serial":
		name := u.Path
		if u.Host != "" {
			name = u.Host + u.Path
		}
		conf := SerialConfig{Name: name, Baud: opts.Baud}
		if baud := u.Query().Get("baud"); baud != "" {
			if conf.Baud, err = strconv.Atoi(baud); err != nil {
				return nil, fmt.Errorf("invalid baud %q", baud)
			}
		}
		return openSerial(conf)
	case "tcp":
		timeout := opts.DialTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		conn, err := DialTCP(u.Host, timeout)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case "ws", "wss":
		origin := opts.Origin
		if origin == "" {
			origin = "http://localhost/"
		}
		ws, err := DialWebSocket(rawURL, origin)
		if err != nil {
			return nil, err
		}
		return ws, nil
	}
	return nil, fmt.Errorf("unsupported transport scheme %q", u.Scheme)
}

func openSerial(conf SerialConfig) (Transport, error) {
	s, err := OpenSerial(conf)
	if err != nil {
		return nil, err
	}
	return s, nil
}
