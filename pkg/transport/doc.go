// Package transport provides byte transports for a link: serial ports,
// TCP connections (e.g. a ser2net bridge), serial lines tunnelled over
// WebSocket and an in-memory multidrop bus.
package transport
