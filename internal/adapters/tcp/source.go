package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/bft-labs/rdstream/internal/ports"
)

// DefaultDialTimeout bounds connection establishment when none is set.
const DefaultDialTimeout = 10 * time.Second

// Dialer implements ports.Dialer over TCP.
type Dialer struct {
	timeout time.Duration
	logger  ports.Logger
}

// NewDialer creates a TCP dialer. A non-positive timeout selects
// DefaultDialTimeout.
func NewDialer(timeout time.Duration, logger ports.Logger) *Dialer {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	return &Dialer{timeout: timeout, logger: logger}
}

// Dial connects to address ("host:port").
func (d *Dialer) Dial(ctx context.Context, address string) (ports.ByteSource, error) {
	nd := net.Dialer{Timeout: d.timeout}
	conn, err := nd.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		// Frames are latency sensitive and the client never writes.
		_ = tc.SetNoDelay(true)
	}

	if d.logger != nil {
		d.logger.Debug("connected",
			ports.String("remote", conn.RemoteAddr().String()),
			ports.String("local", conn.LocalAddr().String()),
		)
	}
	return NewSource(conn), nil
}

// Source adapts a net.Conn to ports.ByteSource.
type Source struct {
	conn net.Conn
}

// NewSource wraps an established connection.
func NewSource(conn net.Conn) *Source {
	return &Source{conn: conn}
}

// Receive reads up to len(p) bytes. A closed connection reports net.ErrClosed.
func (s *Source) Receive(p []byte) (int, error) {
	return s.conn.Read(p)
}

// Close closes the connection. Closing twice is not an error.
func (s *Source) Close() error {
	err := s.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// RemoteAddr returns the peer address.
func (s *Source) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}
