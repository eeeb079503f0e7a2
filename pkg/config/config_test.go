package config

import (
	"errors"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mbascii/pkg/frame"
	"github.com/robotalks/mbascii/pkg/master"
	"github.com/robotalks/mbascii/pkg/transport"
)

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"MBASCII_PORT":     "tcp://localhost:4001",
		"MBASCII_RETRIES":  "2",
		"MBASCII_TIMEOUT":  "250ms",
		"MBASCII_CHAR_GAP": "bad",
		"MBASCII_BAUD":     "fast",
		"MBASCII_ADDRESS":  "5",
	}
	c := NewConfig()
	applyEnv(c, func(name string) string { return env[name] })
	require.Equal(t, "tcp://localhost:4001", c.Port)
	require.Equal(t, 2, c.Retries)
	require.Equal(t, 250*time.Millisecond, c.Timeout)
	require.Equal(t, 5, c.Address)
	require.Equal(t, Default().CharGap, c.CharGap)
	require.Equal(t, Default().Baud, c.Baud)
}

func TestFlags(t *testing.T) {
	c := NewConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	SetupFlagSet(fs, c)
	require.NoError(t, fs.Parse([]string{"-port", "COM8", "-addr", "0", "-timeout", "1s", "-retries", "2", "-char-gap", "100ms"}))
	require.Equal(t, "COM8", c.Port)
	require.Equal(t, 0, c.Address)
	require.Equal(t, 2, c.Retries)
	require.Equal(t, 100*time.Millisecond, c.CharGap)
	require.NotEqual(t, "COM8", Default().Port)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name  string
		role  Role
		setup func(*Config)
		kind  error
	}{
		{name: "defaults master", role: RoleMaster, setup: func(*Config) {}},
		{name: "defaults station", role: RoleStation, setup: func(*Config) {}},
		{name: "broadcast master", role: RoleMaster, setup: func(c *Config) { c.Address = 0 }},
		{name: "broadcast station", role: RoleStation, setup: func(c *Config) { c.Address = 0 }, kind: frame.ErrInvalidAddress},
		{name: "address too large", role: RoleMaster, setup: func(c *Config) { c.Address = 248 }, kind: frame.ErrInvalidAddress},
		{name: "rtu", role: RoleMaster, setup: func(c *Config) { c.Mode = "rtu" }, kind: frame.ErrUnsupportedMode},
		{name: "timeout", role: RoleMaster, setup: func(c *Config) { c.Timeout = 11 * time.Second }, kind: master.ErrInvalidConfig},
		{name: "retries", role: RoleMaster, setup: func(c *Config) { c.Retries = 6 }, kind: master.ErrInvalidConfig},
		{name: "char gap", role: RoleStation, setup: func(c *Config) { c.CharGap = 2 * time.Second }, kind: master.ErrInvalidConfig},
		{name: "poll interval", role: RoleStation, setup: func(c *Config) { c.PollInterval = 0 }, kind: master.ErrInvalidConfig},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewConfig()
			c.Mode, c.Address = "ascii", 1
			tc.setup(c)
			err := c.Validate(tc.role)
			if tc.kind == nil {
				require.NoError(t, err)
			} else {
				require.True(t, errors.Is(err, tc.kind), "%v", err)
			}
		})
	}
}

func TestFactories(t *testing.T) {
	c := NewConfig()
	c.Address, c.Retries, c.Timeout, c.CharGap = 5, 3, 2*time.Second, 20*time.Millisecond
	c.PollInterval = time.Millisecond
	bus := transport.NewBus()

	m := c.NewMaster(bus.Attach("master"))
	require.Equal(t, 3, m.Retries)
	require.Equal(t, 2*time.Second, m.Timeout)
	require.Equal(t, 20*time.Millisecond, m.Link.CharGap())
	require.Equal(t, time.Millisecond, m.Link.PollInterval)

	s, err := c.NewStation(bus.Attach("station"))
	require.NoError(t, err)
	require.Equal(t, byte(5), s.Address())

	db, err := c.OpenJournal()
	require.NoError(t, err)
	require.Nil(t, db)
	c.Journal = filepath.Join(t.TempDir(), "j.db")
	db, err = c.OpenJournal()
	require.NoError(t, err)
	require.NoError(t, db.Close())

	q, err := c.DialMQTT(RoleMaster)
	require.NoError(t, err)
	require.Nil(t, q)
}

func TestClientID(t *testing.T) {
	id := ClientID(RoleStation)
	require.True(t, strings.HasPrefix(id, "mbascii-station-"), id)
	require.Equal(t, id, ClientID(RoleStation))
}
