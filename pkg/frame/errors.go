package frame

import "errors"

var (
	// ErrInvalidAddress indicates a station address outside 0-247.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrFraming indicates missing marker or terminator, or a hex body
	// which can't be decoded into address, function and LRC.
	ErrFraming = errors.New("framing error")
	// ErrChecksum indicates the decoded frame failed the LRC check.
	ErrChecksum = errors.New("checksum error")
	// ErrUnsupportedMode indicates a frame encoding other than ASCII.
	ErrUnsupportedMode = errors.New("unsupported mode")
)
