package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bft-labs/rdstream/internal/domain"
)

// Encoder writes the stream format. It is used by the synthetic server and
// by tests that need well-formed streams.
type Encoder struct {
	w     io.Writer
	level int
}

// NewEncoder creates an encoder compressing at a compress/gzip level.
// gzip.NoCompression (0) writes stored blocks.
func NewEncoder(w io.Writer, level int) *Encoder {
	return &Encoder{w: w, level: level}
}

// WriteHandshake writes width then height.
func (e *Encoder) WriteHandshake(d domain.Dimensions) error {
	var hdr [2 * fieldSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], d.Width)
	binary.LittleEndian.PutUint32(hdr[fieldSize:], d.Height)
	_, err := e.w.Write(hdr[:])
	return err
}

// Compress gzips raw at the encoder's level without writing it.
func (e *Encoder) Compress(raw []byte) ([]byte, error) {
	return Compress(raw, e.level)
}

// WriteFrame compresses raw and writes it as one record. It returns the
// compressed length.
func (e *Encoder) WriteFrame(raw []byte) (int, error) {
	payload, err := e.Compress(raw)
	if err != nil {
		return 0, fmt.Errorf("compress frame: %w", err)
	}
	return len(payload), e.WriteRecord(payload)
}

// WriteRecord writes an already compressed payload with its length prefix.
func (e *Encoder) WriteRecord(payload []byte) error {
	if uint64(len(payload)) > uint64(MaxCompressedLength) {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	var hdr [fieldSize]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := e.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := e.w.Write(payload)
	return err
}
