package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/rdstream/pkg/rdstream"
)

// Config holds CLI configuration for the rdstream client.
type Config struct {
	Address string

	DialTimeout      time.Duration
	ReadBufferSize   int
	MaxBufferedBytes int
	EventQueueSize   int
	ShutdownTimeout  time.Duration

	Reconnect    bool
	ReconnectMin time.Duration
	ReconnectMax time.Duration

	MetricsAddr   string
	StopFile      string
	SnapshotDir   string
	SnapshotEvery int
	StatsEvery    int
	LogLevel      string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DialTimeout:     rdstream.DefaultDialTimeout,
		ReadBufferSize:  rdstream.DefaultReadBufferSize,
		EventQueueSize:  16,
		ShutdownTimeout: 10 * time.Second,
		ReconnectMin:    500 * time.Millisecond,
		ReconnectMax:    30 * time.Second,
		SnapshotEvery:   30,
		StatsEvery:      30,
		LogLevel:        "info",
	}
}

// Validate checks the configuration for errors and normalizes the address.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	c.Address = rdstream.NormalizeAddress(c.Address)

	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive")
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("read buffer size must be positive")
	}
	if c.MaxBufferedBytes < 0 {
		return fmt.Errorf("max buffered bytes must not be negative")
	}
	if c.EventQueueSize < 0 {
		return fmt.Errorf("event queue size must not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	if c.Reconnect {
		if c.ReconnectMin <= 0 {
			return fmt.Errorf("reconnect min delay must be positive")
		}
		if c.ReconnectMax < c.ReconnectMin {
			return fmt.Errorf("reconnect max delay must be >= min delay")
		}
	}

	if c.SnapshotDir != "" && c.SnapshotEvery <= 0 {
		return fmt.Errorf("snapshot interval must be positive")
	}
	if c.StatsEvery <= 0 {
		c.StatsEvery = 1
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}

	return nil
}

// ClientConfig converts to the library configuration.
func (c Config) ClientConfig() rdstream.Config {
	return rdstream.Config{
		Address:          c.Address,
		DialTimeout:      c.DialTimeout,
		ReadBufferSize:   c.ReadBufferSize,
		MaxBufferedBytes: c.MaxBufferedBytes,
		EventQueueSize:   c.EventQueueSize,
		ShutdownTimeout:  c.ShutdownTimeout,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
