package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrNeedMore is returned by Parser.Next when the buffered bytes do not
	// yet hold a complete field. It is not fatal.
	ErrNeedMore = errors.New("protocol: need more data")

	// ErrCorruptStream is the root of every fatal decoding error.
	ErrCorruptStream = errors.New("protocol: corrupt stream")

	ErrDimensionOutOfRange = fmt.Errorf("%w: dimension out of range", ErrCorruptStream)
	ErrPayloadTooLarge     = fmt.Errorf("%w: compressed length out of range", ErrCorruptStream)
	ErrDecompress          = fmt.Errorf("%w: decompression failed", ErrCorruptStream)
	ErrFrameSizeMismatch   = fmt.Errorf("%w: payload is not a multiple of the frame size", ErrCorruptStream)
)

// ProtocolError describes a fatal decoding failure.
type ProtocolError struct {
	// State is the parser state the failing field belonged to.
	State State

	// Offset is the stream position of the failing field.
	Offset uint64

	// Value is the decoded field (dimension, compressed length or
	// decompressed size) when one is available.
	Value uint64

	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s at offset %d (value %d): %v", e.State, e.Offset, e.Value, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Reason returns a short label for metrics and logs.
func (e *ProtocolError) Reason() string {
	switch {
	case errors.Is(e.Err, ErrDimensionOutOfRange):
		return "dimension"
	case errors.Is(e.Err, ErrPayloadTooLarge):
		return "length"
	case errors.Is(e.Err, ErrDecompress):
		return "decompress"
	case errors.Is(e.Err, ErrFrameSizeMismatch):
		return "frame_size"
	default:
		return "other"
	}
}
