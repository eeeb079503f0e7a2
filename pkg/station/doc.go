// Package station implements a slave station.
//
// A Station owns one text buffer. WriteText overwrites it and is answered
// with "OK" unless broadcast, ReadText returns it and is never answered to
// a broadcast. Any other function addressed to the station gets an
// illegal function exception. Malformed frames are counted and dropped.
package station
