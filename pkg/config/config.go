// Package config provides the common options of the binaries, with
// defaults overridable by MBASCII_* environment variables and flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/mbascii/pkg/bridge/mqtt"
	"github.com/robotalks/mbascii/pkg/frame"
	"github.com/robotalks/mbascii/pkg/journal"
	"github.com/robotalks/mbascii/pkg/link"
	"github.com/robotalks/mbascii/pkg/master"
	"github.com/robotalks/mbascii/pkg/station"
	"github.com/robotalks/mbascii/pkg/transport"
)

// Role selects address validation rules.
type Role string

// Roles.
const (
	RoleMaster  Role = "master"
	RoleStation Role = "station"
)

// Config provides common options to set up a master or a station.
type Config struct {
	// Port is a serial device or a transport URL, see transport.Open.
	Port         string
	Baud         int
	CharGap      time.Duration
	Mode         string
	Timeout      time.Duration
	Retries      int
	Address      int
	PollInterval time.Duration
	// Journal is the path of the SQLite journal, empty to disable.
	Journal string
	// MQTTURL is the broker URL, empty to disable the bridge.
	MQTTURL  string
	ClientID string
}

var defaultConfig = Config{
	Port:         "/dev/ttyUSB0",
	Baud:         transport.DefaultBaud,
	CharGap:      link.DefaultCharGap,
	Mode:         string(frame.ModeASCII),
	Timeout:      master.DefaultTimeout,
	Address:      1,
	PollInterval: link.DefaultPollInterval,
}

func init() {
	applyEnv(&defaultConfig, os.Getenv)
}

func applyEnv(c *Config, getenv func(string) string) {
	strs := map[string]*string{
		"MBASCII_PORT":      &c.Port,
		"MBASCII_MODE":      &c.Mode,
		"MBASCII_JOURNAL":   &c.Journal,
		"MBASCII_MQTT_URL":  &c.MQTTURL,
		"MBASCII_CLIENT_ID": &c.ClientID,
	}
	for name, ptr := range strs {
		if val := getenv(name); val != "" {
			*ptr = val
		}
	}
	ints := map[string]*int{
		"MBASCII_BAUD":    &c.Baud,
		"MBASCII_RETRIES": &c.Retries,
		"MBASCII_ADDRESS": &c.Address,
	}
	for name, ptr := range ints {
		if val := getenv(name); val != "" {
			n, err := strconv.Atoi(val)
			if err != nil {
				glog.Warningf("ignore %s=%q: %v", name, val, err)
				continue
			}
			*ptr = n
		}
	}
	durations := map[string]*time.Duration{
		"MBASCII_CHAR_GAP":      &c.CharGap,
		"MBASCII_TIMEOUT":       &c.Timeout,
		"MBASCII_POLL_INTERVAL": &c.PollInterval,
	}
	for name, ptr := range durations {
		if val := getenv(name); val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				glog.Warningf("ignore %s=%q: %v", name, val, err)
				continue
			}
			*ptr = d
		}
	}
}

// SetupFlags sets up command line flags on the default config.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine, &defaultConfig)
}

// SetupFlagSet registers flags for c on fs.
func SetupFlagSet(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.Port, "port", c.Port, "Serial device or transport URL (serial://, tcp://, ws://).")
	fs.IntVar(&c.Baud, "baud", c.Baud, "Serial baud rate.")
	fs.DurationVar(&c.CharGap, "char-gap", c.CharGap, "Inter-character gap ending a frame, 0-1s.")
	fs.StringVar(&c.Mode, "mode", c.Mode, "Frame encoding, only ascii is supported.")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Response timeout per attempt, 0-10s.")
	fs.IntVar(&c.Retries, "retries", c.Retries, "Retransmissions after the first attempt, 0-5.")
	fs.IntVar(&c.Address, "addr", c.Address, "Station address, 0 (broadcast) is master only.")
	fs.DurationVar(&c.PollInterval, "poll", c.PollInterval, "Transport poll interval.")
	fs.StringVar(&c.Journal, "journal", c.Journal, "SQLite journal file.")
	fs.StringVar(&c.MQTTURL, "mqtt", c.MQTTURL, "MQTT broker URL, e.g. mqtt://localhost:1883/mbascii/.")
	fs.StringVar(&c.ClientID, "client-id", c.ClientID, "MQTT client ID, derived from the machine ID if empty.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the options for role.
func (c *Config) Validate(role Role) error {
	if _, err := frame.ParseMode(c.Mode); err != nil {
		return err
	}
	if err := master.ValidateParams(c.Timeout, c.Retries, c.CharGap); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval %v", master.ErrInvalidConfig, c.PollInterval)
	}
	min := frame.Broadcast
	if role == RoleStation {
		min = frame.MinUnicast
	}
	if c.Address < min || c.Address > frame.MaxAddress {
		return fmt.Errorf("%w: %s address %d", frame.ErrInvalidAddress, role, c.Address)
	}
	return nil
}

// OpenTransport opens Port.
func (c *Config) OpenTransport() (transport.Transport, error) {
	return transport.Open(c.Port, transport.Options{Baud: c.Baud})
}

// NewLink creates a link over t.
func (c *Config) NewLink(t link.Transport) *link.Link {
	l := link.New(t, c.CharGap)
	l.PollInterval = c.PollInterval
	return l
}

// NewMaster creates a master over t.
func (c *Config) NewMaster(t link.Transport) *master.Master {
	m := master.New(c.NewLink(t))
	m.Timeout, m.Retries, m.CharGap = c.Timeout, c.Retries, c.CharGap
	return m
}

// NewStation creates a station at Address over t.
func (c *Config) NewStation(t link.Transport) (*station.Station, error) {
	return station.New(c.Address, c.NewLink(t))
}

// OpenJournal opens the journal, or returns nil if not configured.
func (c *Config) OpenJournal() (*journal.DB, error) {
	if c.Journal == "" {
		return nil, nil
	}
	return journal.Open(journal.Config{Path: c.Journal, Verbose: bool(glog.V(1))})
}

// DialMQTT connects to the broker, or returns nil if not configured.
func (c *Config) DialMQTT(role Role) (*mqtt.Queue, error) {
	if c.MQTTURL == "" {
		return nil, nil
	}
	clientID := c.ClientID
	if clientID == "" {
		clientID = ClientID(role)
	}
	return mqtt.Dial(c.MQTTURL, clientID)
}

// ClientID derives a stable MQTT client ID for role on this machine.
func ClientID(role Role) string {
	id, err := machineid.ProtectedID("mbascii")
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return fmt.Sprintf("mbascii-%s-%d", role, os.Getpid())
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return fmt.Sprintf("mbascii-%s-%s", role, id)
}
