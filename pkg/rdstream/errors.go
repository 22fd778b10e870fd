package rdstream

import (
	"github.com/bft-labs/rdstream/internal/domain"
	"github.com/bft-labs/rdstream/internal/protocol"
)

// Errors returned by the client.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrTransport       = domain.ErrTransport

	ErrCorruptStream       = protocol.ErrCorruptStream
	ErrDimensionOutOfRange = protocol.ErrDimensionOutOfRange
	ErrPayloadTooLarge     = protocol.ErrPayloadTooLarge
	ErrDecompress          = protocol.ErrDecompress
	ErrFrameSizeMismatch   = protocol.ErrFrameSizeMismatch
)

// ProtocolError describes where a stream became undecodable.
type ProtocolError = protocol.ProtocolError
