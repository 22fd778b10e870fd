// Package ingest implements the byte hand-off queue between the socket
// read loop and the protocol parser.
package ingest

import (
	"errors"
	"sync"
)

// ErrBufferClosed is returned by Append after Close, and by Wait once the
// buffer is closed and every byte has been handed out.
var ErrBufferClosed = errors.New("ingest: buffer closed")

// Buffer is a FIFO byte queue with a single mutex guarding both ends.
// One goroutine appends, one drains. With MaxBytes unset it grows without
// bound.
type Buffer struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	data     []byte
	maxBytes int
	closed   bool

	appended uint64
	drained  uint64
}

// NewBuffer creates a buffer. maxBytes <= 0 means unbounded; otherwise
// Append blocks while at least maxBytes are waiting to be drained.
func NewBuffer(maxBytes int) *Buffer {
	b := &Buffer{maxBytes: maxBytes}
	b.notEmpty = sync.NewCond(&b.mu)
	b.notFull = sync.NewCond(&b.mu)
	return b
}

// Append copies p onto the tail of the buffer.
func (b *Buffer) Append(p []byte) error {
	if len(p) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for !b.closed && b.maxBytes > 0 && len(b.data) >= b.maxBytes {
		b.notFull.Wait()
	}
	if b.closed {
		return ErrBufferClosed
	}

	b.data = append(b.data, p...)
	b.appended += uint64(len(p))
	b.notEmpty.Signal()
	return nil
}

// Drain removes and returns everything buffered, or nil when empty.
func (b *Buffer) Drain() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.takeLocked()
}

// Wait blocks until bytes are available or the buffer is closed, then
// drains. Bytes appended before Close are still returned; ErrBufferClosed
// comes only after the last of them.
func (b *Buffer) Wait() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(b.data) == 0 && !b.closed {
		b.notEmpty.Wait()
	}
	if len(b.data) == 0 {
		return nil, ErrBufferClosed
	}
	return b.takeLocked(), nil
}

// Close marks the buffer closed and wakes every blocked caller.
// It is safe to call more than once.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.notEmpty.Broadcast()
	b.notFull.Broadcast()
}

// Closed reports whether Close has been called.
func (b *Buffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Stats returns the total bytes ever appended and drained.
func (b *Buffer) Stats() (appended, drained uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appended, b.drained
}

func (b *Buffer) takeLocked() []byte {
	if len(b.data) == 0 {
		return nil
	}
	out := b.data
	b.data = nil
	b.drained += uint64(len(out))
	b.notFull.Broadcast()
	return out
}
