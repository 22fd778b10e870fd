package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff_GrowsAndCaps(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, 400*time.Millisecond)

	bounds := []time.Duration{100, 200, 400, 400}
	for i, base := range bounds {
		base *= time.Millisecond
		d := b.Next()
		lo := time.Duration(float64(base) * 0.8)
		hi := time.Duration(float64(base) * 1.2)
		if d < lo || d > hi {
			t.Errorf("step %d delay = %v, want within [%v, %v]", i, d, lo, hi)
		}
	}

	b.Reset()
	if d := b.Next(); d > 120*time.Millisecond {
		t.Errorf("delay after Reset = %v, want about 100ms", d)
	}
}

func TestBackoff_SleepHonorsContext(t *testing.T) {
	b := NewBackoff(time.Hour, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := b.Sleep(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Sleep() = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep() ignored context")
	}
}

func TestBackoff_SleepElapses(t *testing.T) {
	b := NewBackoff(time.Millisecond, time.Millisecond)
	if err := b.Sleep(context.Background()); err != nil {
		t.Errorf("Sleep() = %v, want nil", err)
	}
}
