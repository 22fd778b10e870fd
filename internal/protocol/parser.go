package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/bft-labs/rdstream/internal/domain"
)

const (
	// MaxDimension bounds the handshake width and height.
	MaxDimension uint32 = 8192

	// MaxCompressedLength bounds the declared length of one payload (1 GiB).
	MaxCompressedLength uint32 = 1 << 30

	fieldSize = 4
)

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithDecompressor replaces the gzip decompressor.
func WithDecompressor(d Decompressor) ParserOption {
	return func(p *Parser) {
		p.decompressor = d
	}
}

// Parser decodes a stream incrementally. It is not safe for concurrent use;
// the session's parse goroutine owns it.
type Parser struct {
	state        State
	dims         domain.Dimensions
	buf          []byte
	offset       uint64
	seq          uint64
	decompressor Decompressor
	err          error
}

// NewParser creates a parser in AwaitingWidth.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		state:        AwaitingWidth,
		decompressor: GzipDecompressor{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Feed appends stream bytes to the parser's working buffer. The parser
// keeps its own copy.
func (p *Parser) Feed(b []byte) {
	if len(b) == 0 {
		return
	}
	if len(p.buf) == 0 {
		p.buf = append([]byte(nil), b...)
		return
	}
	p.buf = append(p.buf, b...)
}

// Next decodes the next event. It returns ErrNeedMore when more bytes are
// required and a *ProtocolError when the stream is corrupt. After a
// ProtocolError every call returns the same error.
func (p *Parser) Next() (domain.Event, error) {
	if p.err != nil {
		return domain.Event{}, p.err
	}

	switch p.state {
	case AwaitingWidth, AwaitingHeight:
		return p.nextDimension()
	default:
		return p.nextFrame()
	}
}

func (p *Parser) nextDimension() (domain.Event, error) {
	if len(p.buf) < fieldSize {
		return domain.Event{}, ErrNeedMore
	}

	v := binary.LittleEndian.Uint32(p.buf)
	if v > MaxDimension {
		return domain.Event{}, p.fail(ErrDimensionOutOfRange, uint64(v))
	}
	p.consume(fieldSize)

	if p.state == AwaitingWidth {
		p.dims.Width = v
		p.state = AwaitingHeight
		return domain.Event{Kind: domain.EventWidth, Value: v}, nil
	}

	p.dims.Height = v
	p.state = AwaitingFrame
	return domain.Event{Kind: domain.EventHeight, Value: v}, nil
}

func (p *Parser) nextFrame() (domain.Event, error) {
	if len(p.buf) < fieldSize {
		return domain.Event{}, ErrNeedMore
	}

	n := binary.LittleEndian.Uint32(p.buf)
	if n > MaxCompressedLength {
		return domain.Event{}, p.fail(ErrPayloadTooLarge, uint64(n))
	}

	total := fieldSize + int(n)
	if len(p.buf) < total {
		return domain.Event{}, ErrNeedMore
	}

	raw, err := p.decompressor.Decompress(p.buf[fieldSize:total])
	if err != nil {
		return domain.Event{}, p.fail(fmt.Errorf("%w: %w", ErrDecompress, err), uint64(n))
	}

	size := p.dims.FrameSize()
	if size == 0 || len(raw) == 0 || uint64(len(raw))%size != 0 {
		return domain.Event{}, p.fail(ErrFrameSizeMismatch, uint64(len(raw)))
	}

	p.consume(total)
	p.seq++

	return domain.Event{
		Kind: domain.EventFrame,
		Frame: domain.FrameEvent{
			Seq:        p.seq,
			Dimensions: p.dims,
			Data:       raw,
			Count:      int(uint64(len(raw)) / size),
		},
	}, nil
}

func (p *Parser) consume(n int) {
	p.buf = p.buf[n:]
	p.offset += uint64(n)
	if len(p.buf) == 0 {
		p.buf = nil
	}
}

func (p *Parser) fail(err error, value uint64) error {
	p.err = &ProtocolError{
		State:  p.state,
		Offset: p.offset,
		Value:  value,
		Err:    err,
	}
	return p.err
}

// State returns the current parser state.
func (p *Parser) State() State {
	return p.state
}

// Dimensions returns the dimensions decoded so far.
func (p *Parser) Dimensions() domain.Dimensions {
	return p.dims
}

// Buffered returns the number of fed bytes not yet consumed.
func (p *Parser) Buffered() int {
	return len(p.buf)
}

// Offset returns the number of stream bytes consumed.
func (p *Parser) Offset() uint64 {
	return p.offset
}

// Err returns the sticky fatal error, if any.
func (p *Parser) Err() error {
	return p.err
}
