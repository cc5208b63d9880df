package audio

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrTimeout is returned by Get when no frame arrives in time.
	ErrTimeout = errors.New("audio: timed out waiting for frame")

	// ErrClosed is returned by Get once the buffer is closed and drained.
	ErrClosed = errors.New("audio: buffer closed")
)

// JitterBuffer is a bounded FIFO of audio frames between the network
// producer and the playback consumer. Put blocks while the buffer is
// full, which throttles the producer to playback speed. The Ready
// channel is closed exactly once, when the fill level first reaches
// the threshold, and playback holds off until then.
type JitterBuffer struct {
	frames    chan []byte
	threshold int
	ready     chan struct{}
	readyOnce sync.Once
	closeOnce sync.Once
}

// NewJitterBuffer creates a buffer holding up to capacity frames that
// signals readiness once threshold frames are queued.
func NewJitterBuffer(capacity, threshold int) *JitterBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	if threshold <= 0 || threshold > capacity {
		threshold = capacity
	}
	return &JitterBuffer{
		frames:    make(chan []byte, capacity),
		threshold: threshold,
		ready:     make(chan struct{}),
	}
}

// Put enqueues a frame, blocking while the buffer is full. It returns
// the context error if ctx is cancelled first. The producer must not
// call Put after Close.
func (b *JitterBuffer) Put(ctx context.Context, frame []byte) error {
	select {
	case b.frames <- frame:
		if len(b.frames) >= b.threshold {
			b.readyOnce.Do(func() { close(b.ready) })
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get dequeues the next frame, waiting up to timeout. It returns
// ErrTimeout if no frame arrives, or ErrClosed once the buffer is
// closed and every queued frame has been drained.
func (b *JitterBuffer) Get(timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case frame, ok := <-b.frames:
		if !ok {
			return nil, ErrClosed
		}
		return frame, nil
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Ready returns a channel that is closed once the fill level first
// reaches the threshold, or once the buffer is closed. The signal
// never un-fires, even if the buffer later drains.
func (b *JitterBuffer) Ready() <-chan struct{} {
	return b.ready
}

// Close marks the end of the stream. Queued frames remain readable;
// Get reports ErrClosed after the last one. Close also releases a
// consumer still waiting on Ready so short streams play out.
func (b *JitterBuffer) Close() {
	b.closeOnce.Do(func() {
		close(b.frames)
		b.readyOnce.Do(func() { close(b.ready) })
	})
}

// Len returns the number of frames currently queued.
func (b *JitterBuffer) Len() int {
	return len(b.frames)
}

// Cap returns the buffer capacity in frames.
func (b *JitterBuffer) Cap() int {
	return cap(b.frames)
}
