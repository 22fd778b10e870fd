package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/rdstream/internal/dispatch"
	"github.com/bft-labs/rdstream/internal/domain"
	"github.com/bft-labs/rdstream/internal/ingest"
	"github.com/bft-labs/rdstream/internal/metrics"
	"github.com/bft-labs/rdstream/internal/ports"
	"github.com/bft-labs/rdstream/internal/protocol"
	"github.com/bft-labs/rdstream/pkg/log"
)

const (
	// DefaultReadBufferSize is the size of a single socket read.
	DefaultReadBufferSize = 64 << 10

	// TracerName names the tracer used when none is injected.
	TracerName = "github.com/bft-labs/rdstream"

	// maxEmptyReads consecutive (0, nil) reads are treated as end of stream.
	maxEmptyReads = 100
)

// SessionConfig tunes one session.
type SessionConfig struct {
	ReadBufferSize int

	// MaxBufferedBytes bounds the ingest buffer. Zero means unbounded.
	MaxBufferedBytes int

	// EventQueueSize is the dispatcher queue capacity.
	EventQueueSize int

	// MaxPayloadBytes caps the decompressed size of one payload when the
	// default gzip decompressor is used. Zero means unlimited.
	MaxPayloadBytes int64
}

// SessionDeps are the collaborators of a session. Every field is optional.
type SessionDeps struct {
	Consumer     ports.Consumer
	Logger       ports.Logger
	Metrics      *metrics.Metrics
	Tracer       trace.Tracer
	Decompressor protocol.Decompressor
}

// Session runs the read and parse loops for one connection.
type Session struct {
	id     string
	cfg    SessionConfig
	src    ports.ByteSource
	buf    *ingest.Buffer
	parser *protocol.Parser
	decomp *instrumentedDecompressor

	consumer ports.Consumer
	logger   ports.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	started atomic.Bool

	closeOnce sync.Once
	closeErr  error

	startedAt     atomic.Int64
	bytesReceived atomic.Uint64
	reads         atomic.Uint64
	payloads      atomic.Uint64
	rawFrames     atomic.Uint64
	state         atomic.Int32
	width         atomic.Uint32
	height        atomic.Uint32
}

// NewSession wraps a connected source. The session owns src from here on
// and closes it when Run ends.
func NewSession(src ports.ByteSource, cfg SessionConfig, deps SessionDeps) *Session {
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultReadBufferSize
	}
	if deps.Logger == nil {
		deps.Logger = log.NewNoopLogger()
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(TracerName)
	}
	if deps.Decompressor == nil {
		deps.Decompressor = protocol.GzipDecompressor{Limit: cfg.MaxPayloadBytes}
	}

	id := uuid.NewString()
	decomp := &instrumentedDecompressor{
		next:    deps.Decompressor,
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		ctx:     context.Background(),
	}

	return &Session{
		id:       id,
		cfg:      cfg,
		src:      src,
		buf:      ingest.NewBuffer(cfg.MaxBufferedBytes),
		parser:   protocol.NewParser(protocol.WithDecompressor(decomp)),
		decomp:   decomp,
		consumer: deps.Consumer,
		logger:   deps.Logger.With(log.String("session_id", id)),
		metrics:  deps.Metrics,
		tracer:   deps.Tracer,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Run blocks until the stream ends, Stop is called, ctx is canceled or a
// fatal error occurs. It returns nil for the first three cases. Run may be
// called once.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return domain.ErrAlreadyRunning
	}

	ctx, span := s.tracer.Start(ctx, "rdstream.session",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("rdstream.session_id", s.id)),
	)
	defer span.End()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !s.setCancel(cancel) {
		cancel()
	}

	s.startedAt.Store(time.Now().UnixNano())
	s.decomp.ctx = runCtx
	s.metrics.SessionStarted()
	defer s.metrics.SessionEnded()

	fields := []ports.Field{ports.Int("read_buffer", s.cfg.ReadBufferSize)}
	if ra, ok := s.src.(ports.RemoteAddresser); ok {
		fields = append(fields, ports.String("remote", ra.RemoteAddr()))
	}
	s.logger.Info("session started", fields...)

	dispatcher := dispatch.New(s.consumer, s.cfg.EventQueueSize, s.logger)

	g, gctx := errgroup.WithContext(runCtx)

	// The group context ends on Stop, on the first loop error, or when
	// both loops return. Each of those tears the connection down.
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		<-gctx.Done()
		s.teardown()
	}()

	g.Go(func() error { return s.readLoop(gctx) })
	g.Go(func() error { return s.parseLoop(gctx, dispatcher) })

	err := g.Wait()
	<-watcherDone
	dispatcher.Close()

	if s.closeErr != nil {
		s.logger.Debug("close source", ports.Err(s.closeErr))
	}

	stats := s.Stats()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("session failed",
			ports.Err(err),
			ports.Uint64("payloads", stats.Payloads),
			ports.Uint64("bytes", stats.BytesReceived),
		)
		return err
	}

	span.SetStatus(codes.Ok, "")
	s.logger.Info("session ended",
		ports.Uint64("payloads", stats.Payloads),
		ports.Uint64("raw_frames", stats.RawFrames),
		ports.Uint64("bytes", stats.BytesReceived),
		ports.Duration("uptime", stats.Uptime),
	)
	return nil
}

// Stop requests a cooperative shutdown. It returns immediately; Run
// returns once both loops have exited. Stop before Run makes Run return
// at once.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
}

// setCancel stores cancel and reports false if Stop already ran.
func (s *Session) setCancel(cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
	return !s.stopped
}

// teardown closes the source exactly once and wakes both loops.
func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		s.closeErr = s.src.Close()
		s.buf.Close()
	})
}

func (s *Session) readLoop(ctx context.Context) error {
	chunk := make([]byte, s.cfg.ReadBufferSize)
	empty := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := s.src.Receive(chunk)
		if n > 0 {
			empty = 0
			s.bytesReceived.Add(uint64(n))
			s.reads.Add(1)
			if appendErr := s.buf.Append(chunk[:n]); appendErr != nil {
				// Closed by teardown.
				return nil
			}
			s.metrics.ObserveRead(n, s.buf.Len())
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				s.endOfStream()
				return nil
			}
			return fmt.Errorf("%w: receive: %w", domain.ErrTransport, err)
		}

		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				s.endOfStream()
				return nil
			}
		}
	}
}

// endOfStream lets the parser finish what is buffered.
func (s *Session) endOfStream() {
	s.logger.Info("end of stream", ports.Uint64("bytes", s.bytesReceived.Load()))
	s.buf.Close()
}

func (s *Session) parseLoop(ctx context.Context, dispatcher *dispatch.Dispatcher) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		data, err := s.buf.Wait()
		if err != nil {
			if ctx.Err() == nil && s.parser.Buffered() > 0 {
				s.logger.Warn("stream ended inside a record",
					ports.Int("trailing_bytes", s.parser.Buffered()),
					ports.String("state", s.parser.State().String()),
				)
			}
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		s.parser.Feed(data)
		for {
			ev, err := s.parser.Next()
			if errors.Is(err, protocol.ErrNeedMore) {
				break
			}
			if err != nil {
				s.protocolError(err)
				return err
			}

			s.observe(ev)
			if err := dispatcher.Emit(ctx, ev); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func (s *Session) observe(ev domain.Event) {
	s.state.Store(int32(s.parser.State()))

	switch ev.Kind {
	case domain.EventWidth:
		s.width.Store(ev.Value)
		s.logger.Debug("width received", ports.Uint32("width", ev.Value))
	case domain.EventHeight:
		s.height.Store(ev.Value)
		s.logger.Info("handshake complete", ports.String("dimensions", s.parser.Dimensions().String()))
	case domain.EventFrame:
		s.payloads.Add(1)
		s.rawFrames.Add(uint64(ev.Frame.Count))
		s.metrics.ObservePayload(ev.Frame.Count)
		s.logger.Debug("payload decoded",
			ports.Uint64("seq", ev.Frame.Seq),
			ports.Int("bytes", len(ev.Frame.Data)),
			ports.Int("frames", ev.Frame.Count),
		)
	}
}

func (s *Session) protocolError(err error) {
	reason := "other"
	var perr *protocol.ProtocolError
	if errors.As(err, &perr) {
		reason = perr.Reason()
	}
	s.metrics.ProtocolError(reason)
}

// Stats returns a snapshot of the session counters. Safe for concurrent use.
func (s *Session) Stats() domain.SessionStats {
	stats := domain.SessionStats{
		ID:            s.id,
		BytesReceived: s.bytesReceived.Load(),
		Reads:         s.reads.Load(),
		Buffered:      s.buf.Len(),
		Payloads:      s.payloads.Load(),
		RawFrames:     s.rawFrames.Load(),
		Dimensions: domain.Dimensions{
			Width:  s.width.Load(),
			Height: s.height.Load(),
		},
		ParserState: protocol.State(s.state.Load()).String(),
	}
	if ns := s.startedAt.Load(); ns != 0 {
		stats.StartedAt = time.Unix(0, ns)
		stats.Uptime = time.Since(stats.StartedAt)
	}
	if ra, ok := s.src.(ports.RemoteAddresser); ok {
		stats.RemoteAddr = ra.RemoteAddr()
	}
	return stats
}

// instrumentedDecompressor records a span and a latency sample per payload.
type instrumentedDecompressor struct {
	next    protocol.Decompressor
	metrics *metrics.Metrics
	tracer  trace.Tracer
	ctx     context.Context
}

func (d *instrumentedDecompressor) Decompress(payload []byte) ([]byte, error) {
	_, span := d.tracer.Start(d.ctx, "rdstream.decompress",
		trace.WithAttributes(attribute.Int("rdstream.compressed_bytes", len(payload))),
	)
	defer span.End()

	start := time.Now()
	out, err := d.next.Decompress(payload)
	d.metrics.ObserveDecompress(time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("rdstream.raw_bytes", len(out)))
	return out, nil
}
