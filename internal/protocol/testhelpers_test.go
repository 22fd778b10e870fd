package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bft-labs/rdstream/internal/domain"
)

// buildStream encodes a handshake followed by one record per payload.
func buildStream(t *testing.T, d domain.Dimensions, payloads ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := NewEncoder(&buf, 9)
	if err := enc.WriteHandshake(d); err != nil {
		t.Fatalf("WriteHandshake() error = %v", err)
	}
	for _, p := range payloads {
		if _, err := enc.WriteFrame(p); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
	}
	return buf.Bytes()
}

// drainEvents pulls events until the parser needs more input.
func drainEvents(p *Parser) ([]domain.Event, error) {
	var out []domain.Event
	for {
		ev, err := p.Next()
		if errors.Is(err, ErrNeedMore) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
}

// feedChunks feeds stream in chunks of size n and collects every event.
func feedChunks(p *Parser, stream []byte, n int) ([]domain.Event, error) {
	var out []domain.Event
	for off := 0; off < len(stream); off += n {
		end := off + n
		if end > len(stream) {
			end = len(stream)
		}
		p.Feed(stream[off:end])
		evs, err := drainEvents(p)
		out = append(out, evs...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func pixels(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = seed + byte(i*7)
	}
	return out
}
