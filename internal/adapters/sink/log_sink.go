package sink

import (
	"sync"
	"time"

	"github.com/bft-labs/rdstream/internal/domain"
	"github.com/bft-labs/rdstream/internal/ports"
)

// LogSink logs the stream dimensions and a rate line every N payloads.
type LogSink struct {
	logger ports.Logger
	every  int
	now    func() time.Time

	mu        sync.Mutex
	payloads  uint64
	rawFrames uint64
	lastAt    time.Time
	lastCount uint64
}

// NewLogSink creates a sink logging every `every` payloads.
func NewLogSink(logger ports.Logger, every int) *LogSink {
	if every <= 0 {
		every = 1
	}
	return &LogSink{logger: logger, every: every, now: time.Now}
}

func (s *LogSink) OnWidth(w uint32) {
	s.logger.Info("stream width", ports.Uint32("width", w))
}

func (s *LogSink) OnHeight(h uint32) {
	s.logger.Info("stream height", ports.Uint32("height", h))
}

func (s *LogSink) OnFrame(ev domain.FrameEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.lastAt.IsZero() {
		s.lastAt = now
	}
	s.payloads++
	s.rawFrames += uint64(ev.Count)

	if s.payloads%uint64(s.every) != 0 {
		return
	}

	rate := 0.0
	if elapsed := now.Sub(s.lastAt); elapsed > 0 {
		rate = float64(s.payloads-s.lastCount) / elapsed.Seconds()
	}
	s.logger.Info("decoding",
		ports.Uint64("payloads", s.payloads),
		ports.Uint64("raw_frames", s.rawFrames),
		ports.String("dimensions", ev.Dimensions.String()),
		ports.Float64("payloads_per_sec", rate),
	)
	s.lastAt = now
	s.lastCount = s.payloads
}
