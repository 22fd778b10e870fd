package rdstream

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/bft-labs/rdstream/internal/domain"
	"github.com/bft-labs/rdstream/internal/ports"
	"github.com/bft-labs/rdstream/internal/protocol"
	"github.com/bft-labs/rdstream/pkg/log"
)

// Re-exported types so callers never import internal packages.
type (
	// Logger is the interface for structured logging.
	Logger = log.Logger

	// Consumer receives the handshake and decoded frames in stream order.
	Consumer = ports.Consumer

	// ByteSource is a connected stream the client reads from.
	ByteSource = ports.ByteSource

	// Dialer opens a ByteSource.
	Dialer = ports.Dialer

	// Decompressor turns one compressed payload into raw bytes.
	Decompressor = protocol.Decompressor

	// Dimensions is the frame geometry announced by the host.
	Dimensions = domain.Dimensions

	// FrameEvent carries one decoded payload.
	FrameEvent = domain.FrameEvent

	// Stats is a snapshot of the current session.
	Stats = domain.SessionStats
)

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	logger       ports.Logger
	consumer     ports.Consumer
	dialer       ports.Dialer
	registerer   prometheus.Registerer
	tracer       trace.Tracer
	decompressor protocol.Decompressor
	onState      func(StateChangeEvent)
}

// WithLogger sets a custom logger. If not provided nothing is logged.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConsumer sets the receiver of decoded events. Without one, frames
// are decoded and dropped.
func WithConsumer(c Consumer) Option {
	return func(o *options) {
		o.consumer = c
	}
}

// WithDialer replaces the TCP dialer, typically in tests.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithMetrics registers the client's Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithTracer sets the tracer for session and decompression spans. The
// global otel tracer is used otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithDecompressor replaces gzip payload decoding.
func WithDecompressor(d Decompressor) Option {
	return func(o *options) {
		o.decompressor = d
	}
}

// WithStateChangeHandler is called synchronously on every lifecycle
// transition. The handler must not call back into the Client except for
// Status.
func WithStateChangeHandler(fn func(StateChangeEvent)) Option {
	return func(o *options) {
		o.onState = fn
	}
}
