// Package text provides the shell commands of the text application.
package text

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mbascii/pkg/cli/sh"
	"github.com/robotalks/mbascii/pkg/frame"
)

// Reply is the printed result of a command.
type Reply struct {
	Address  int    `json:"address"`
	Function string `json:"function,omitempty"`
	Text     string `json:"text,omitempty"`
	Raw      string `json:"raw,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

// WriteArgs parses ADDR TEXT... into address and text.
func WriteArgs(args []string) (int, []byte, error) {
	if len(args) < 1 {
		return 0, nil, errors.New("ADDR required")
	}
	addr, err := sh.ParseAddr(args[0])
	if err != nil {
		return 0, nil, err
	}
	if len(args) < 2 {
		return 0, nil, errors.New("TEXT required")
	}
	return addr, []byte(strings.Join(args[1:], " ")), nil
}

// SendArgs parses ADDR FN [HEXDATA...].
func SendArgs(args []string) (int, frame.FnCode, []byte, error) {
	if len(args) < 2 {
		return 0, 0, nil, errors.New("ADDR and FN required")
	}
	addr, err := sh.ParseAddr(args[0])
	if err != nil {
		return 0, 0, nil, err
	}
	fn, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("invalid FN %q", args[1])
	}
	data, err := sh.ParseHex(strings.Join(args[2:], ""))
	if err != nil {
		return 0, 0, nil, err
	}
	return addr, frame.FnCode(fn), data, nil
}

var (
	// WriteCmd stores text in a station, or all stations with ADDR 0.
	WriteCmd = ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "ADDR TEXT...",
		Func: func(c *ishell.Context) {
			addr, text, err := WriteArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			if err := s.Master.WriteText(s.Context(), addr, text); err != nil {
				c.Err(err)
				return
			}
			msg := "OK"
			if addr == frame.Broadcast {
				msg = "OK (broadcast)"
			}
			sh.Output(c, &Reply{Address: addr, Function: frame.WriteText.String()}, msg)
		},
	}

	// ReadCmd reads the text of a station.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "ADDR",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(errors.New("ADDR required"))
				return
			}
			addr, err := sh.ParseAddr(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			text, err := s.Master.ReadText(s.Context(), addr)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, &Reply{Address: addr, Function: frame.ReadText.String(), Text: string(text)},
				fmt.Sprintf("%d: %q", addr, text))
		},
	}

	// SendCmd sends an arbitrary request.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "ADDR FN [HEXDATA]",
		Func: func(c *ishell.Context) {
			addr, fn, data, err := SendArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			resp, err := s.Master.Execute(s.Context(), addr, fn, data)
			if err != nil {
				c.Err(err)
				return
			}
			if resp.Frame == nil {
				sh.Output(c, &Reply{Address: addr, Attempts: resp.Attempts}, "no reply")
				return
			}
			f := resp.Frame
			sh.Output(c, &Reply{
				Address:  int(f.Address),
				Function: f.Function.String(),
				Text:     string(f.Data),
				Raw:      frame.HexDump(resp.Raw),
				Attempts: resp.Attempts,
			}, fmt.Sprintf("%s (%d attempts)\n%s", f.String(), resp.Attempts, frame.HexDump(resp.Raw)))
		},
	}
)

func init() {
	sh.AddCmds(
		&WriteCmd,
		&ReadCmd,
		&SendCmd,
	)
}
