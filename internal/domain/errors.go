package domain

import "errors"

// Domain errors represent error conditions in the rdstream domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running client.
	ErrAlreadyRunning = errors.New("rdstream: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped client.
	ErrNotRunning = errors.New("rdstream: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("rdstream: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("rdstream: invalid configuration")

	// ErrTransport wraps connect and receive failures of the byte source.
	ErrTransport = errors.New("rdstream: transport error")
)
