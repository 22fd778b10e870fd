package ports

import "context"

// ByteSource is a connected duplex stream with no framing knowledge.
type ByteSource interface {
	// Receive reads up to len(p) bytes. It returns io.EOF when the remote
	// side has finished sending. A (0, nil) return is tolerated, but a long
	// run of them is taken as end of stream. A Receive blocked in the
	// kernel returns once Close is called.
	Receive(p []byte) (int, error)

	// Close releases the connection. Callers close a source at most once.
	Close() error
}

// Dialer connects to a remote streaming host.
type Dialer interface {
	Dial(ctx context.Context, address string) (ByteSource, error)
}

// RemoteAddresser is implemented by sources that know their peer.
type RemoteAddresser interface {
	RemoteAddr() string
}
