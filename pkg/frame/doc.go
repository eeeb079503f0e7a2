// Package frame implements the ASCII wire format of the bus.
package frame

// A frame on the wire is a ':' marker, the upper-case hexadecimal encoding
// of address, function, data and LRC, and a CR LF terminator:
//
//	':' ADDR FN DATA... LRC '\r' '\n'
//
// The LRC is the two's complement of the 8-bit sum of address, function
// and data, so the sum of all decoded bytes, LRC included, is zero.
//
// Address 0 is the broadcast address. Slaves accept broadcast writes
// but never reply to a broadcast.
