package app

import (
	"context"
	"math/rand"
	"time"
)

// Backoff produces exponentially growing, jittered delays between
// reconnect attempts.
type Backoff struct {
	base time.Duration
	max  time.Duration
	cur  time.Duration
}

// NewBackoff creates a backoff starting at base and capped at max.
func NewBackoff(base, max time.Duration) *Backoff { return &Backoff{base: base, max: max} }

// Next advances and returns the next delay, jittered by +/-20%.
func (b *Backoff) Next() time.Duration {
	if b.cur <= 0 {
		b.cur = b.base
	} else {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	j := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(b.cur) * j)
}

// Sleep waits for the next delay or until ctx ends, returning ctx.Err()
// in the latter case.
func (b *Backoff) Sleep(ctx context.Context) error {
	t := time.NewTimer(b.Next())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Reset restarts the sequence at base.
func (b *Backoff) Reset() { b.cur = 0 }
