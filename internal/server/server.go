// Package server streams a generated test pattern in the rdstream wire
// format. It stands in for a real screen capture host.
package server

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bft-labs/rdstream/internal/domain"
	"github.com/bft-labs/rdstream/internal/ports"
	"github.com/bft-labs/rdstream/internal/protocol"
	"github.com/bft-labs/rdstream/pkg/log"
)

const (
	// DefaultLevel matches the capture host's gzip setting.
	DefaultLevel = 9

	// DefaultMaxPayload is the largest compressed payload sent; bigger
	// payloads are skipped.
	DefaultMaxPayload = 10 << 20

	writeBufferSize = 64 << 10
)

// Config describes the stream served to every client.
type Config struct {
	Addr       string
	Dimensions domain.Dimensions

	// FrameRate is payloads per second. Zero sends as fast as possible.
	FrameRate float64

	// FramesPerPayload packs that many raw frames into one record.
	FramesPerPayload int

	// Frames ends each connection after that many payloads. Zero streams
	// until the client goes away.
	Frames int

	// Level is the compress/gzip level. Zero stores payloads uncompressed;
	// the capture host uses DefaultLevel.
	Level int

	MaxPayload int
}

func (c *Config) setDefaults() {
	if c.FramesPerPayload <= 0 {
		c.FramesPerPayload = 1
	}
	if c.MaxPayload <= 0 {
		c.MaxPayload = DefaultMaxPayload
	}
}

// Validate checks the stream parameters.
func (c Config) Validate() error {
	d := c.Dimensions
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("%w: dimensions must be non-zero, got %s", domain.ErrInvalidConfig, d)
	}
	if d.Width > protocol.MaxDimension || d.Height > protocol.MaxDimension {
		return fmt.Errorf("%w: dimensions %s exceed %d", domain.ErrInvalidConfig, d, protocol.MaxDimension)
	}
	if c.FrameRate < 0 {
		return fmt.Errorf("%w: frame rate must be >= 0", domain.ErrInvalidConfig)
	}
	if c.Level < gzip.HuffmanOnly || c.Level > gzip.BestCompression {
		return fmt.Errorf("%w: gzip level %d out of range", domain.ErrInvalidConfig, c.Level)
	}
	return nil
}

// Server accepts clients and streams frames to each one.
type Server struct {
	cfg    Config
	logger ports.Logger

	mu   sync.Mutex
	addr net.Addr
	wg   sync.WaitGroup
}

// New creates a server. A nil logger discards output.
func New(cfg Config, logger ports.Logger) (*Server, error) {
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Server{
		cfg:    cfg,
		logger: logger.With(log.String("component", "server")),
	}, nil
}

// Start listens on cfg.Addr and serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is canceled, then waits for the
// per-connection goroutines. It closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info("listening",
		log.String("addr", ln.Addr().String()),
		log.String("dimensions", s.cfg.Dimensions.String()),
		log.Int("frames_per_payload", s.cfg.FramesPerPayload),
	)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	defer s.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept error", log.Err(err))
			continue
		}

		s.logger.Info("client connected", log.String("remote", conn.RemoteAddr().String()))
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// Addr returns the listening address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	remote := conn.RemoteAddr().String()
	sent, skipped, err := s.stream(ctx, conn)
	if err != nil && ctx.Err() == nil {
		s.logger.Debug("stream ended", log.String("remote", remote), log.Err(err))
	}
	s.logger.Info("client disconnected",
		log.String("remote", remote),
		log.Int("payloads", sent),
		log.Int("skipped", skipped),
	)
}

func (s *Server) stream(ctx context.Context, conn net.Conn) (sent, skipped int, err error) {
	w := bufio.NewWriterSize(conn, writeBufferSize)
	enc := protocol.NewEncoder(w, s.cfg.Level)

	if err := enc.WriteHandshake(s.cfg.Dimensions); err != nil {
		return 0, 0, fmt.Errorf("write handshake: %w", err)
	}
	if err := w.Flush(); err != nil {
		return 0, 0, fmt.Errorf("write handshake: %w", err)
	}

	var tick <-chan time.Time
	if s.cfg.FrameRate > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / s.cfg.FrameRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	pattern := NewPattern(s.cfg.Dimensions)
	raw := make([]byte, 0, int(s.cfg.Dimensions.FrameSize())*s.cfg.FramesPerPayload)

	for s.cfg.Frames == 0 || sent < s.cfg.Frames {
		if tick != nil {
			select {
			case <-ctx.Done():
				return sent, skipped, nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return sent, skipped, nil
		}

		raw = raw[:0]
		for i := 0; i < s.cfg.FramesPerPayload; i++ {
			raw = pattern.AppendNext(raw)
		}

		payload, err := enc.Compress(raw)
		if err != nil {
			return sent, skipped, err
		}
		if len(payload) > s.cfg.MaxPayload {
			skipped++
			s.logger.Warn("payload too large, skipping",
				log.Int("bytes", len(payload)),
				log.Int("limit", s.cfg.MaxPayload),
			)
			continue
		}

		if err := enc.WriteRecord(payload); err != nil {
			return sent, skipped, fmt.Errorf("write record: %w", err)
		}
		if err := w.Flush(); err != nil {
			return sent, skipped, fmt.Errorf("write record: %w", err)
		}
		sent++
	}
	return sent, skipped, nil
}
