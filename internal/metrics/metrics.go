// Package metrics exposes Prometheus instrumentation for client sessions.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "rdstream"

// Metrics holds the collectors for one registry.
type Metrics struct {
	bytesReceived      prometheus.Counter
	reads              prometheus.Counter
	payloadsDecoded    prometheus.Counter
	rawFramesDecoded   prometheus.Counter
	protocolErrors     *prometheus.CounterVec
	ingestBuffered     prometheus.Gauge
	decompressDuration prometheus.Histogram
	activeSessions     prometheus.Gauge
}

// New registers the collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bytes_received_total",
			Help:      "Bytes read from the remote host",
		}),
		reads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reads_total",
			Help:      "Non-empty socket reads",
		}),
		payloadsDecoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "payloads_decoded_total",
			Help:      "Frame records decoded and delivered to the dispatcher",
		}),
		rawFramesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "raw_frames_decoded_total",
			Help:      "Raw frames contained in decoded payloads",
		}),
		protocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "protocol_errors_total",
			Help:      "Fatal protocol errors by reason",
		}, []string{"reason"}),
		ingestBuffered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "ingest_buffered_bytes",
			Help:      "Bytes waiting in the ingest buffer after the last read",
		}),
		decompressDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "decompress_duration_seconds",
			Help:      "Time spent decompressing one payload",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently running",
		}),
	}
}

// ObserveRead records one socket read of n bytes and the resulting
// ingest buffer size.
func (m *Metrics) ObserveRead(n, buffered int) {
	if m == nil {
		return
	}
	m.bytesReceived.Add(float64(n))
	m.reads.Inc()
	m.ingestBuffered.Set(float64(buffered))
}

// ObservePayload records a decoded payload holding rawFrames frames.
func (m *Metrics) ObservePayload(rawFrames int) {
	if m == nil {
		return
	}
	m.payloadsDecoded.Inc()
	m.rawFramesDecoded.Add(float64(rawFrames))
}

// ObserveDecompress records the duration of one decompression.
func (m *Metrics) ObserveDecompress(d time.Duration) {
	if m == nil {
		return
	}
	m.decompressDuration.Observe(d.Seconds())
}

// ProtocolError counts a fatal error under reason.
func (m *Metrics) ProtocolError(reason string) {
	if m == nil {
		return
	}
	m.protocolErrors.WithLabelValues(reason).Inc()
}

// SessionStarted increments the active session gauge.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionEnded decrements the active session gauge.
func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
	m.ingestBuffered.Set(0)
}
