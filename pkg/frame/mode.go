package frame

import (
	"fmt"
	"strings"
)

// Mode is the frame encoding used on the line.
type Mode string

// Frame encodings.
const (
	ModeASCII Mode = "ascii"
	ModeRTU   Mode = "rtu"
)

// ParseMode validates the named encoding. Only ASCII is implemented,
// RTU is recognized and rejected with ErrUnsupportedMode.
func ParseMode(name string) (Mode, error) {
	switch m := Mode(strings.ToLower(name)); m {
	case ModeASCII, "":
		return ModeASCII, nil
	case ModeRTU:
		return m, fmt.Errorf("%w: %s", ErrUnsupportedMode, m)
	default:
		return m, fmt.Errorf("%w: %q", ErrUnsupportedMode, name)
	}
}
