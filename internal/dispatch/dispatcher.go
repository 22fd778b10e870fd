// Package dispatch delivers decoded protocol events to a consumer off the
// parse goroutine.
//
// Events travel through one bounded FIFO queue served by one delivery
// goroutine, so width and height always reach the consumer before the
// first frame and frames arrive in decode order. The parser only waits
// when the queue is full.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/rdstream/internal/domain"
	"github.com/bft-labs/rdstream/internal/ports"
	"github.com/bft-labs/rdstream/pkg/log"
)

// DefaultQueueSize is the number of undelivered events a Dispatcher holds
// before Emit waits.
const DefaultQueueSize = 16

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("dispatch: closed")

// Dispatcher owns the delivery goroutine for one session.
type Dispatcher struct {
	consumer ports.Consumer
	logger   ports.Logger

	queue chan domain.Event
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	closeOnce sync.Once
}

// New starts a dispatcher delivering to consumer. A nil consumer discards
// events; queueSize <= 0 selects DefaultQueueSize.
func New(consumer ports.Consumer, queueSize int, logger ports.Logger) *Dispatcher {
	if consumer == nil {
		consumer = ConsumerFuncs{}
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	d := &Dispatcher{
		consumer: consumer,
		logger:   logger,
		queue:    make(chan domain.Event, queueSize),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Emit queues ev for delivery. It blocks only while the queue is full and
// returns ctx.Err() if ctx ends first.
func (d *Dispatcher) Emit(ctx context.Context, ev domain.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case d.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued, undelivered events.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Close stops accepting events, delivers those already queued and waits
// for the delivery goroutine to exit.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	<-d.done
}

// Done is closed once every queued event has been delivered after Close.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("consumer panicked",
				ports.String("event", ev.Kind.String()),
				ports.Err(fmt.Errorf("%v", r)),
			)
		}
	}()

	switch ev.Kind {
	case domain.EventWidth:
		d.consumer.OnWidth(ev.Value)
	case domain.EventHeight:
		d.consumer.OnHeight(ev.Value)
	case domain.EventFrame:
		d.consumer.OnFrame(ev.Frame)
	}
}
