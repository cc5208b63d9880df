package audio

import (
	"context"
	"testing"
	"time"
)

func TestJitterBuffer_PutGet(t *testing.T) {
	b := NewJitterBuffer(10, 2)
	ctx := context.Background()

	frame := []byte{1, 2, 3, 4}
	if err := b.Put(ctx, frame); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, err := b.Get(time.Second)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(got) != len(frame) {
		t.Errorf("Expected frame of %d bytes, got %d", len(frame), len(got))
	}
}

func TestJitterBuffer_Ordering(t *testing.T) {
	b := NewJitterBuffer(10, 1)
	ctx := context.Background()

	for i := byte(0); i < 5; i++ {
		if err := b.Put(ctx, []byte{i}); err != nil {
			t.Fatalf("Put(%d) failed: %v", i, err)
		}
	}

	for i := byte(0); i < 5; i++ {
		frame, err := b.Get(time.Second)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if frame[0] != i {
			t.Errorf("Expected frame %d, got %d", i, frame[0])
		}
	}
}

func TestJitterBuffer_GetTimeout(t *testing.T) {
	b := NewJitterBuffer(10, 2)

	start := time.Now()
	_, err := b.Get(50 * time.Millisecond)
	if err != ErrTimeout {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("Get() returned before the timeout elapsed")
	}
}

func TestJitterBuffer_ReadyAtThreshold(t *testing.T) {
	b := NewJitterBuffer(10, 3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := b.Put(ctx, []byte{0}); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	select {
	case <-b.Ready():
		t.Error("Ready fired below the fill threshold")
	default:
	}

	if err := b.Put(ctx, []byte{0}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	select {
	case <-b.Ready():
	case <-time.After(time.Second):
		t.Error("Ready did not fire at the fill threshold")
	}
}

func TestJitterBuffer_ReadyLatches(t *testing.T) {
	b := NewJitterBuffer(10, 1)
	ctx := context.Background()

	if err := b.Put(ctx, []byte{0}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if _, err := b.Get(time.Second); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	// Buffer drained back to zero; the signal must stay fired.
	select {
	case <-b.Ready():
	default:
		t.Error("Ready un-fired after the buffer drained")
	}
}

func TestJitterBuffer_PutBlocksWhenFull(t *testing.T) {
	b := NewJitterBuffer(1, 1)
	ctx := context.Background()

	if err := b.Put(ctx, []byte{0}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	blockedCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := b.Put(blockedCtx, []byte{1})
	if err != context.DeadlineExceeded {
		t.Errorf("Expected context.DeadlineExceeded on full buffer, got %v", err)
	}

	// A consumer making room unblocks the producer.
	if _, err := b.Get(time.Second); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if err := b.Put(ctx, []byte{1}); err != nil {
		t.Errorf("Put() after drain failed: %v", err)
	}
}

func TestJitterBuffer_CloseDrainsThenReportsClosed(t *testing.T) {
	b := NewJitterBuffer(10, 2)
	ctx := context.Background()

	if err := b.Put(ctx, []byte{1}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := b.Put(ctx, []byte{2}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	b.Close()

	for i := byte(1); i <= 2; i++ {
		frame, err := b.Get(time.Second)
		if err != nil {
			t.Fatalf("Get() after Close failed: %v", err)
		}
		if frame[0] != i {
			t.Errorf("Expected frame %d, got %d", i, frame[0])
		}
	}

	if _, err := b.Get(time.Second); err != ErrClosed {
		t.Errorf("Expected ErrClosed after drain, got %v", err)
	}
}

func TestJitterBuffer_CloseReleasesReady(t *testing.T) {
	b := NewJitterBuffer(10, 5)

	b.Close()

	select {
	case <-b.Ready():
	case <-time.After(time.Second):
		t.Error("Ready did not release on Close")
	}
}

func TestJitterBuffer_CloseIdempotent(t *testing.T) {
	b := NewJitterBuffer(10, 2)
	b.Close()
	b.Close()

	if _, err := b.Get(10 * time.Millisecond); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestJitterBuffer_LenCap(t *testing.T) {
	b := NewJitterBuffer(7, 2)
	ctx := context.Background()

	if b.Cap() != 7 {
		t.Errorf("Expected Cap 7, got %d", b.Cap())
	}
	if b.Len() != 0 {
		t.Errorf("Expected Len 0, got %d", b.Len())
	}

	for i := 0; i < 3; i++ {
		if err := b.Put(ctx, []byte{0}); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}
	if b.Len() != 3 {
		t.Errorf("Expected Len 3, got %d", b.Len())
	}
}
