package link

import "errors"

var (
	// ErrNoFrame indicates the receive deadline passed before a frame
	// boundary was detected.
	ErrNoFrame = errors.New("no frame")
)
