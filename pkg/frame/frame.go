package frame

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Wire delimiters.
const (
	Marker byte = ':'
	CR     byte = '\r'
	LF     byte = '\n'
)

// Terminator ends every frame.
var Terminator = []byte{CR, LF}

// Address limits.
const (
	Broadcast  = 0
	MinUnicast = 1
	MaxAddress = 247
)

// Size limits (bytes on the wire, and decoded data bytes).
const (
	MinFrameLen = 1 + 6 + 2
	MaxFrameLen = 513
	MaxDataLen  = (MaxFrameLen - MinFrameLen) / 2
)

// ExcFlag is set on the function code of an exception response.
const ExcFlag byte = 0x80

// FnCode identifies an application operation.
type FnCode byte

// Application function codes.
const (
	WriteText FnCode = 0x01
	ReadText  FnCode = 0x02
)

// Well-known payloads.
var (
	// Ack is the payload of a WriteText acknowledgement.
	Ack = []byte("OK")
	// ExIllegalFunction is the exception payload for unsupported functions.
	ExIllegalFunction = []byte("01")
)

func (f FnCode) String() string {
	switch f {
	case WriteText:
		return "WriteText"
	case ReadText:
		return "ReadText"
	}
	if byte(f)&ExcFlag != 0 {
		return "Exception(" + (f & FnCode(^ExcFlag)).String() + ")"
	}
	return fmt.Sprintf("FnCode(0x%02X)", byte(f))
}

// IsExc indicates an exception response.
func (f FnCode) IsExc() bool { return byte(f)&ExcFlag != 0 }

// Exc returns the exception response code of f.
func (f FnCode) Exc() FnCode { return f | FnCode(ExcFlag) }

// Frame is a decoded frame. The LRC is derived and not stored.
type Frame struct {
	Address  byte
	Function FnCode
	Data     []byte
}

// IsBroadcast indicates the frame is addressed to all stations.
func (f *Frame) IsBroadcast() bool { return f.Address == Broadcast }

// Bytes returns the encoded frame.
func (f *Frame) Bytes() ([]byte, error) {
	return Build(int(f.Address), f.Function, f.Data)
}

func (f *Frame) String() string {
	return fmt.Sprintf("[%d %s %q]", f.Address, f.Function, f.Data)
}

// ValidAddress checks addr is within 0-247.
func ValidAddress(addr int) error {
	if addr < Broadcast || addr > MaxAddress {
		return fmt.Errorf("%w: %d", ErrInvalidAddress, addr)
	}
	return nil
}

const hexDigits = "0123456789ABCDEF"

func appendHex(b []byte, v byte) []byte {
	return append(b, hexDigits[v>>4], hexDigits[v&0x0f])
}

// Build encodes a frame. Function and data are not validated.
func Build(addr int, fn FnCode, data []byte) ([]byte, error) {
	if err := ValidAddress(addr); err != nil {
		return nil, err
	}
	sum := byte(addr) + byte(fn)
	for _, b := range data {
		sum += b
	}
	out := make([]byte, 0, 1+(len(data)+3)*2+len(Terminator))
	out = append(out, Marker)
	out = appendHex(out, byte(addr))
	out = appendHex(out, byte(fn))
	for _, b := range data {
		out = appendHex(out, b)
	}
	out = appendHex(out, -sum)
	return append(out, Terminator...), nil
}

// Parse decodes a frame. Framing and checksum failures are reported as
// ErrFraming and ErrChecksum respectively.
func Parse(wire []byte) (Frame, error) {
	if len(wire) == 0 || wire[0] != Marker || !bytes.HasSuffix(wire, Terminator) {
		return Frame{}, fmt.Errorf("%w: bad delimiters", ErrFraming)
	}
	body := wire[1 : len(wire)-len(Terminator)]
	if len(body) < 6 || len(body)%2 != 0 {
		return Frame{}, fmt.Errorf("%w: bad length %d", ErrFraming, len(body))
	}
	raw := make([]byte, len(body)/2)
	if _, err := hex.Decode(raw, body); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrFraming, err)
	}
	n := len(raw) - 1
	if lrc := LRC(raw[:n]); lrc != raw[n] {
		return Frame{}, fmt.Errorf("%w: got %02X want %02X", ErrChecksum, raw[n], lrc)
	}
	f := Frame{Address: raw[0], Function: FnCode(raw[1])}
	if n > 2 {
		f.Data = raw[2:n]
	}
	return f, nil
}

// HexDump formats b as space separated upper-case hex bytes.
func HexDump(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(hexDigits[v>>4])
		sb.WriteByte(hexDigits[v&0x0f])
	}
	return sb.String()
}
