package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/bft-labs/rdstream/internal/domain"
)

func TestParser_Handshake(t *testing.T) {
	p := NewParser()
	if p.State() != AwaitingWidth {
		t.Fatalf("initial state = %v, want AwaitingWidth", p.State())
	}

	p.Feed(buildStream(t, domain.Dimensions{Width: 1920, Height: 1080}))
	evs, err := drainEvents(p)
	if err != nil {
		t.Fatalf("drainEvents() error = %v", err)
	}

	want := []domain.Event{
		{Kind: domain.EventWidth, Value: 1920},
		{Kind: domain.EventHeight, Value: 1080},
	}
	if !reflect.DeepEqual(evs, want) {
		t.Errorf("events = %+v, want %+v", evs, want)
	}
	if p.State() != AwaitingFrame {
		t.Errorf("state = %v, want AwaitingFrame", p.State())
	}
	if got := p.Dimensions(); got != (domain.Dimensions{Width: 1920, Height: 1080}) {
		t.Errorf("Dimensions() = %v, want 1920x1080", got)
	}
	if p.Offset() != 8 {
		t.Errorf("Offset() = %d, want 8", p.Offset())
	}
}

func TestParser_WaitsForCompleteFields(t *testing.T) {
	p := NewParser()
	p.Feed([]byte{2, 0, 0})

	if _, err := p.Next(); !errors.Is(err, ErrNeedMore) {
		t.Fatalf("Next() with 3 bytes: error = %v, want ErrNeedMore", err)
	}
	if p.State() != AwaitingWidth || p.Buffered() != 3 {
		t.Errorf("partial field consumed: state %v, buffered %d", p.State(), p.Buffered())
	}
}

func TestParser_WaitsForCompletePayload(t *testing.T) {
	d := domain.Dimensions{Width: 2, Height: 2}
	stream := buildStream(t, d, pixels(12, 1))

	p := NewParser()
	p.Feed(stream[:len(stream)-1])
	evs, err := drainEvents(p)
	if err != nil {
		t.Fatalf("drainEvents() error = %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("got %d events before payload completed, want 2", len(evs))
	}
	before := p.Buffered()

	if _, err := p.Next(); !errors.Is(err, ErrNeedMore) {
		t.Fatalf("Next() error = %v, want ErrNeedMore", err)
	}
	if p.Buffered() != before {
		t.Errorf("Buffered() changed from %d to %d on a partial record", before, p.Buffered())
	}

	p.Feed(stream[len(stream)-1:])
	ev, err := p.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if ev.Kind != domain.EventFrame || !bytes.Equal(ev.Frame.Data, pixels(12, 1)) {
		t.Errorf("frame event = %+v, want the 12 payload bytes", ev)
	}
	if p.Buffered() != 0 {
		t.Errorf("Buffered() = %d after complete record, want 0", p.Buffered())
	}
}

func TestParser_ChunkingIndependence(t *testing.T) {
	d := domain.Dimensions{Width: 4, Height: 3}
	size := int(d.FrameSize())
	stream := buildStream(t, d,
		pixels(size, 0),
		pixels(size*2, 9),
		pixels(size, 200),
	)

	whole, err := feedChunks(NewParser(), stream, len(stream))
	if err != nil {
		t.Fatalf("single chunk: error = %v", err)
	}
	if len(whole) != 5 {
		t.Fatalf("single chunk: got %d events, want 5", len(whole))
	}

	for _, n := range []int{1, 2, 3, 5, 7, 13, 64} {
		got, err := feedChunks(NewParser(), stream, n)
		if err != nil {
			t.Fatalf("chunk size %d: error = %v", n, err)
		}
		if !reflect.DeepEqual(got, whole) {
			t.Errorf("chunk size %d: events differ from single-chunk decode", n)
		}
	}
}

func TestParser_DimensionSanityBound(t *testing.T) {
	tests := []struct {
		name   string
		width  uint32
		height uint32
		state  State
	}{
		{"width 8193", 8193, 10, AwaitingWidth},
		{"height 8193", 10, 8193, AwaitingHeight},
		{"byte-swapped width", 0x80070000, 10, AwaitingWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hdr [8]byte
			binary.LittleEndian.PutUint32(hdr[0:], tt.width)
			binary.LittleEndian.PutUint32(hdr[4:], tt.height)

			p := NewParser()
			p.Feed(hdr[:])
			evs, err := drainEvents(p)

			if !errors.Is(err, ErrDimensionOutOfRange) || !errors.Is(err, ErrCorruptStream) {
				t.Fatalf("error = %v, want ErrDimensionOutOfRange", err)
			}
			var perr *ProtocolError
			if !errors.As(err, &perr) || perr.State != tt.state {
				t.Errorf("ProtocolError state = %v, want %v", perr, tt.state)
			}
			for _, ev := range evs {
				if ev.Kind == domain.EventFrame {
					t.Error("frame event emitted after corrupt handshake")
				}
			}
		})
	}
}

func TestParser_MaxDimensionAccepted(t *testing.T) {
	p := NewParser()
	p.Feed(buildStream(t, domain.Dimensions{Width: 8192, Height: 8192}))
	if evs, err := drainEvents(p); err != nil || len(evs) != 2 {
		t.Fatalf("drainEvents() = (%d events, %v), want (2, nil)", len(evs), err)
	}
}

func TestParser_CompressedLengthSanityBound(t *testing.T) {
	var buf bytes.Buffer
	_ = NewEncoder(&buf, 1).WriteHandshake(domain.Dimensions{Width: 1, Height: 1})
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], MaxCompressedLength+1)
	buf.Write(hdr[:])

	p := NewParser()
	p.Feed(buf.Bytes())
	_, err := drainEvents(p)

	var perr *ProtocolError
	if !errors.As(err, &perr) || !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("error = %v, want ErrPayloadTooLarge", err)
	}
	if perr.Offset != 8 || perr.Value != uint64(MaxCompressedLength)+1 {
		t.Errorf("ProtocolError = %+v, want offset 8 and the declared length", perr)
	}
	if perr.Reason() != "length" {
		t.Errorf("Reason() = %q, want %q", perr.Reason(), "length")
	}
}

func TestParser_FrameSizeMismatch(t *testing.T) {
	d := domain.Dimensions{Width: 2, Height: 1}
	p := NewParser()
	p.Feed(buildStream(t, d, pixels(7, 0)))

	evs, err := drainEvents(p)
	if !errors.Is(err, ErrFrameSizeMismatch) {
		t.Fatalf("error = %v, want ErrFrameSizeMismatch", err)
	}
	if len(evs) != 2 {
		t.Errorf("got %d events, want only the handshake", len(evs))
	}

	// The failure is sticky.
	if _, again := p.Next(); !errors.Is(again, ErrFrameSizeMismatch) {
		t.Errorf("Next() after failure = %v, want the same error", again)
	}
}

func TestParser_ZeroSizedPayloadRejected(t *testing.T) {
	p := NewParser()
	p.Feed(buildStream(t, domain.Dimensions{Width: 2, Height: 1}, []byte{}))
	if _, err := drainEvents(p); !errors.Is(err, ErrFrameSizeMismatch) {
		t.Fatalf("error = %v, want ErrFrameSizeMismatch", err)
	}
}

func TestParser_ZeroDimensionRejectedAtFirstFrame(t *testing.T) {
	p := NewParser()
	p.Feed(buildStream(t, domain.Dimensions{Width: 0, Height: 5}, pixels(3, 0)))
	evs, err := drainEvents(p)
	if !errors.Is(err, ErrFrameSizeMismatch) {
		t.Fatalf("error = %v, want ErrFrameSizeMismatch", err)
	}
	if len(evs) != 2 {
		t.Errorf("got %d events, want the handshake only", len(evs))
	}
}

func TestParser_MalformedGzipIsCorruption(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, 1)
	_ = enc.WriteHandshake(domain.Dimensions{Width: 1, Height: 1})
	_ = enc.WriteRecord([]byte("definitely not gzip"))

	p := NewParser()
	p.Feed(buf.Bytes())
	_, err := drainEvents(p)

	if !errors.Is(err, ErrDecompress) || !errors.Is(err, ErrCorruptStream) {
		t.Fatalf("error = %v, want ErrDecompress", err)
	}
}

// Two raw frames in one payload are delivered as a single event.
func TestParser_MultiFramePayloadIsOneEvent(t *testing.T) {
	d := domain.Dimensions{Width: 2, Height: 1}
	raw := pixels(12, 3)

	p := NewParser()
	p.Feed(buildStream(t, d, raw))
	evs, err := drainEvents(p)
	if err != nil {
		t.Fatalf("drainEvents() error = %v", err)
	}
	if len(evs) != 3 {
		t.Fatalf("got %d events, want 3", len(evs))
	}

	frame := evs[2].Frame
	if !bytes.Equal(frame.Data, raw) {
		t.Errorf("frame data = %v, want all 12 bytes", frame.Data)
	}
	if frame.Count != 2 || frame.Seq != 1 {
		t.Errorf("frame Count = %d Seq = %d, want 2 and 1", frame.Count, frame.Seq)
	}

	split := frame.Frames()
	if len(split) != 2 || !bytes.Equal(split[0], raw[:6]) || !bytes.Equal(split[1], raw[6:]) {
		t.Errorf("Frames() = %v, want two 6-byte halves", split)
	}
}

func TestParser_CustomDecompressor(t *testing.T) {
	calls := 0
	identity := DecompressorFunc(func(b []byte) ([]byte, error) {
		calls++
		return append([]byte(nil), b...), nil
	})

	var buf bytes.Buffer
	enc := NewEncoder(&buf, 1)
	_ = enc.WriteHandshake(domain.Dimensions{Width: 1, Height: 1})
	_ = enc.WriteRecord([]byte{1, 2, 3})

	p := NewParser(WithDecompressor(identity))
	p.Feed(buf.Bytes())
	evs, err := drainEvents(p)
	if err != nil {
		t.Fatalf("drainEvents() error = %v", err)
	}
	if calls != 1 || len(evs) != 3 || evs[2].Frame.Count != 1 {
		t.Errorf("calls = %d, events = %+v", calls, evs)
	}
}
