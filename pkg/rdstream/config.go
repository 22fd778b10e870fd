package rdstream

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/bft-labs/rdstream/internal/app"
	"github.com/bft-labs/rdstream/internal/domain"
)

const (
	// DefaultPort is the port capture hosts listen on.
	DefaultPort = 21578

	// DefaultDialTimeout bounds connection establishment.
	DefaultDialTimeout = 10 * time.Second

	// DefaultReadBufferSize is the size of a single socket read.
	DefaultReadBufferSize = app.DefaultReadBufferSize

	// DefaultMaxPayloadBytes caps one decompressed payload.
	DefaultMaxPayloadBytes = 1 << 30
)

// Config holds the connection settings for a Client.
type Config struct {
	// Address is "host:port" or a bare host, which gets DefaultPort.
	Address string

	DialTimeout    time.Duration
	ReadBufferSize int

	// MaxBufferedBytes bounds undecoded input held in memory. Zero means
	// unbounded.
	MaxBufferedBytes int

	// EventQueueSize is how many decoded events may wait for the consumer.
	EventQueueSize int

	// MaxPayloadBytes caps the decompressed size of one payload. Larger
	// payloads are a decompression error. Ignored with WithDecompressor.
	MaxPayloadBytes int64

	ShutdownTimeout time.Duration
}

// SetDefaults fills zero fields with default values.
func (c *Config) SetDefaults() {
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = DefaultReadBufferSize
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = app.ShutdownTimeout
	}
	if c.MaxPayloadBytes == 0 {
		c.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	c.Address = NormalizeAddress(c.Address)
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("%w: address is required", domain.ErrInvalidConfig)
	}
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("%w: address %q: %v", domain.ErrInvalidConfig, c.Address, err)
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("%w: dial timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.ReadBufferSize < 0 {
		return fmt.Errorf("%w: read buffer size must be positive", domain.ErrInvalidConfig)
	}
	if c.MaxBufferedBytes < 0 {
		return fmt.Errorf("%w: max buffered bytes must be >= 0", domain.ErrInvalidConfig)
	}
	if c.EventQueueSize < 0 {
		return fmt.Errorf("%w: event queue size must be >= 0", domain.ErrInvalidConfig)
	}
	if c.MaxPayloadBytes < 0 {
		return fmt.Errorf("%w: max payload bytes must be >= 0", domain.ErrInvalidConfig)
	}
	return nil
}

// NormalizeAddress appends DefaultPort to an address without a port.
func NormalizeAddress(addr string) string {
	if addr == "" {
		return ""
	}
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	host := addr
	if len(host) > 1 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	return net.JoinHostPort(host, strconv.Itoa(DefaultPort))
}
