// Package link recovers frame boundaries from a half-duplex byte stream.
package link

// Bytes are accumulated until either the CR LF terminator is seen or the
// line stays silent for longer than the inter-character gap. Either way the
// accumulated bytes are handed off as one candidate frame and the buffer is
// cleared, whether or not the candidate turns out to be a valid frame. The
// gap rule lets a receiver recover from a corrupted frame which never
// presents its terminator.
//
// All waits are short polls against a monotonic clock, so a caller stops
// waiting by cancelling the context passed to Receive.
