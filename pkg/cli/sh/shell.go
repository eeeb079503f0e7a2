package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mbascii/pkg/config"
	"github.com/robotalks/mbascii/pkg/frame"
	"github.com/robotalks/mbascii/pkg/journal"
	"github.com/robotalks/mbascii/pkg/link"
	"github.com/robotalks/mbascii/pkg/master"
	"github.com/robotalks/mbascii/pkg/transport"
)

// Shell provides ishell backed interactive shell driving a Master.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell   *ishell.Shell
	Config  *config.Config
	Master  *master.Master
	Journal *journal.DB

	lock    sync.Mutex
	preview bool
	ctx     context.Context
}

const (
	shellKey = "$shell"
	prompt   = "mbascii > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	preview    bool

	// commands
	commands = []*ishell.Cmd{
		&SetCmd,
		&ShowCmd,
		&HistoryCmd,
		&PortsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.BoolVar(&preview, "preview", preview, "Print TX/RX frames in hex.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *config.Config, m *master.Master) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Config:      conf,
		Master:      m,
		preview:     preview,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Context returns the context for running a command, canceled when the
// shell is stopped.
func (s *Shell) Context() context.Context {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// RunContext runs like Run with commands bound to ctx.
func (s *Shell) RunContext(ctx context.Context, args ...string) error {
	s.lock.Lock()
	s.ctx = ctx
	s.lock.Unlock()
	return s.Run(args...)
}

// Tap prints frames when preview is enabled.
func (s *Shell) Tap() link.Tap {
	return link.TapFunc(func(dir link.Direction, raw []byte) {
		s.lock.Lock()
		enabled := s.preview
		s.lock.Unlock()
		if enabled {
			s.Shell.Printf("%s: %s\n", strings.ToUpper(dir.String()), frame.HexDump(raw))
		}
	})
}

// SetPreview toggles frame preview.
func (s *Shell) SetPreview(en bool) {
	s.lock.Lock()
	s.preview = en
	s.lock.Unlock()
}

// Output prints v as JSON, or text otherwise.
func Output(c *ishell.Context, v interface{}, text string) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) error {
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
		return nil
	}
	return errors.New("command expected")
}

// ParseAddr parses a station address, 0 for broadcast.
func ParseAddr(s string) (int, error) {
	addr, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid ADDR %q", s)
	}
	if err := frame.ValidAddress(addr); err != nil {
		return 0, err
	}
	return addr, nil
}

// ParseDuration accepts a Go duration or plain seconds like 0.5.
func ParseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// ParseHex parses hex bytes, separators ignored.
func ParseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %v", err)
	}
	return data, nil
}

// Settings are the master timing parameters.
type Settings struct {
	Timeout string `json:"timeout"`
	Retries int    `json:"retries"`
	CharGap string `json:"char_gap"`
	Port    string `json:"port"`
	Preview bool   `json:"preview"`
}

// Apply changes one named setting, validating the result.
func Apply(m *master.Master, name, value string) error {
	p := m.Params()
	var err error
	switch name {
	case "timeout":
		p.Timeout, err = ParseDuration(value)
	case "retries":
		p.Retries, err = strconv.Atoi(value)
	case "chargap", "char-gap":
		p.CharGap, err = ParseDuration(value)
	default:
		return fmt.Errorf("unknown setting %q", name)
	}
	if err != nil {
		return err
	}
	return m.SetParams(p)
}

var (
	// SetCmd changes master settings.
	SetCmd = ishell.Cmd{
		Name: "set",
		Help: "timeout|retries|chargap|preview VALUE",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(errors.New("NAME and VALUE required"))
				return
			}
			s := ShellFrom(c)
			if c.Args[0] == "preview" {
				s.SetPreview(c.Args[1] == "on" || c.Args[1] == "true" || c.Args[1] == "1")
				return
			}
			if err := Apply(s.Master, c.Args[0], c.Args[1]); err != nil {
				c.Err(err)
			}
		},
	}

	// ShowCmd prints current settings.
	ShowCmd = ishell.Cmd{
		Name: "show",
		Help: "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			p := s.Master.Params()
			s.lock.Lock()
			st := Settings{
				Timeout: p.Timeout.String(),
				Retries: p.Retries,
				CharGap: p.CharGap.String(),
				Port:    s.Config.Port,
				Preview: s.preview,
			}
			s.lock.Unlock()
			Output(c, st, fmt.Sprintf("port=%s timeout=%s retries=%d chargap=%s preview=%v",
				st.Port, st.Timeout, st.Retries, st.CharGap, st.Preview))
		},
	}

	// HistoryCmd lists recent transactions from the journal.
	HistoryCmd = ishell.Cmd{
		Name:    "history",
		Aliases: []string{"h"},
		Help:    "[N]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if s.Journal == nil {
				c.Err(errors.New("journal not enabled"))
				return
			}
			n := 10
			if len(c.Args) > 0 {
				var err error
				if n, err = strconv.Atoi(c.Args[0]); err != nil || n <= 0 {
					c.Err(fmt.Errorf("invalid N %q", c.Args[0]))
					return
				}
			}
			recs, err := s.Journal.RecentTransactions(n)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				Output(c, recs, "")
				return
			}
			for _, rec := range recs {
				c.Println(rec.String())
			}
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports := transport.ListPorts()
			if ports == nil {
				ports = []string{}
			}
			Output(c, ports, strings.Join(ports, "\n"))
		},
	}
)
