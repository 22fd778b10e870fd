package rdstream

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/rdstream/internal/adapters/tcp"
	"github.com/bft-labs/rdstream/internal/app"
	"github.com/bft-labs/rdstream/internal/domain"
	"github.com/bft-labs/rdstream/internal/metrics"
	"github.com/bft-labs/rdstream/internal/ports"
	"github.com/bft-labs/rdstream/pkg/log"
)

// Client connects to a capture host and decodes its stream.
// Use New() to create an instance, then Start() to connect.
type Client struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	logger    ports.Logger
	metrics   *metrics.Metrics
	dialer    ports.Dialer

	mu      sync.Mutex
	session *app.Session
	done    chan struct{}
	runErr  error
}

// New creates a Client in StateStopped. It returns an error if the
// configuration is invalid.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	dialer := o.dialer
	if dialer == nil {
		dialer = tcp.NewDialer(cfg.DialTimeout, logger)
	}

	var m *metrics.Metrics
	if o.registerer != nil {
		m = metrics.New(o.registerer)
	}

	return &Client{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(logger, &stateEmitter{handler: o.onState}),
		logger:    logger,
		metrics:   m,
		dialer:    dialer,
	}, nil
}

// Start connects and begins decoding in the background. It returns once
// the connection is established. Connection failures wrap ErrTransport.
// ctx bounds the dial and the lifetime of the session.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	src, err := c.dialer.Dial(ctx, c.config.Address)
	if err != nil {
		_ = c.lifecycle.TransitionTo(app.StateCrashed, "connect failed")
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	session := app.NewSession(src,
		app.SessionConfig{
			ReadBufferSize:   c.config.ReadBufferSize,
			MaxBufferedBytes: c.config.MaxBufferedBytes,
			EventQueueSize:   c.config.EventQueueSize,
			MaxPayloadBytes:  c.config.MaxPayloadBytes,
		},
		app.SessionDeps{
			Consumer:     c.opts.consumer,
			Logger:       c.logger.With(log.String("address", c.config.Address)),
			Metrics:      c.metrics,
			Tracer:       c.opts.tracer,
			Decompressor: c.opts.decompressor,
		},
	)

	runCtx, cancel := context.WithCancel(ctx)
	c.lifecycle.SetCancel(cancel)
	c.session = session
	c.done = make(chan struct{})
	c.runErr = nil
	done := c.done

	if err := c.lifecycle.TransitionTo(app.StateRunning, "connected"); err != nil {
		cancel()
		_ = src.Close()
		return err
	}

	c.lifecycle.Go(func() {
		defer close(done)
		defer cancel()

		err := session.Run(runCtx)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.runErr = err

		// Stop owns the remaining transitions once it has begun.
		if c.lifecycle.State() != app.StateRunning {
			return
		}
		if err != nil {
			_ = c.lifecycle.TransitionTo(app.StateCrashed, err.Error())
			return
		}
		_ = c.lifecycle.TransitionTo(app.StateStopping, "stream ended")
		_ = c.lifecycle.TransitionTo(app.StateStopped, "stream ended")
	})

	return nil
}

// Stop closes the connection and waits up to Config.ShutdownTimeout for
// the session to finish. It returns nil on a clean shutdown and
// ErrShutdownTimeout otherwise.
func (c *Client) Stop() error {
	c.mu.Lock()
	if !c.lifecycle.CanStop() {
		c.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		c.mu.Unlock()
		return err
	}
	session := c.session
	c.mu.Unlock()

	session.Stop()
	c.lifecycle.Cancel()

	err := c.lifecycle.WaitWithTimeout(c.config.ShutdownTimeout)
	if err != nil {
		_ = c.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = c.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Wait blocks until the current session ends and returns its error. It
// returns nil when the stream ended or was stopped.
func (c *Client) Wait() error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return domain.ErrNotRunning
	}
	<-done

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runErr
}

// Done is closed when the current session ends. It is nil before the
// first Start.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (c *Client) Status() State {
	return convertState(c.lifecycle.State())
}

// Stats returns counters for the current or last session.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return Stats{}
	}
	return session.Stats()
}
