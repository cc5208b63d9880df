package recorder

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aurastream/genmusic/internal/lyria"
	"github.com/aurastream/genmusic/internal/wav"
)

// frameSession delivers canned frames.
type frameSession struct {
	frames chan []byte
	errCh  chan error
}

func newFrameSession() *frameSession {
	return &frameSession{
		frames: make(chan []byte, 256),
		errCh:  make(chan error, 1),
	}
}

func (f *frameSession) Configure(int, float64) error                    { return nil }
func (f *frameSession) SetWeightedPrompts([]lyria.WeightedPrompt) error { return nil }
func (f *frameSession) Play() error                                     { return nil }
func (f *frameSession) Pause() error                                    { return nil }
func (f *frameSession) Stop() error                                     { return nil }
func (f *frameSession) ResetContext() error                             { return nil }
func (f *frameSession) Frames() <-chan []byte                           { return f.frames }
func (f *frameSession) Err() <-chan error                               { return f.errCh }
func (f *frameSession) Close() error                                    { return nil }

func TestRecorder_StopsAtByteTarget(t *testing.T) {
	sess := newFrameSession()

	// 1 second of audio needs 192000 bytes. Frames of 48000 bytes
	// divide the target evenly, so the recording stops exactly there.
	go func() {
		for i := 0; i < 10; i++ {
			sess.frames <- make([]byte, 48000)
		}
	}()

	path := filepath.Join(t.TempDir(), "out.wav")
	res, err := New(sess).Record(context.Background(), path, 1)
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	if res.Bytes != 192000 {
		t.Errorf("Expected exactly 192000 bytes, got %d", res.Bytes)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if info.Size() != wav.HeaderSize+192000 {
		t.Errorf("Expected file of %d bytes, got %d", wav.HeaderSize+192000, info.Size())
	}
}

func TestRecorder_OvershootKeepsWholeFrame(t *testing.T) {
	sess := newFrameSession()

	// 50000-byte frames do not divide 192000: the fourth frame pushes
	// the total to 200000 and is kept whole.
	go func() {
		for i := 0; i < 10; i++ {
			sess.frames <- make([]byte, 50000)
		}
	}()

	path := filepath.Join(t.TempDir(), "over.wav")
	res, err := New(sess).Record(context.Background(), path, 1)
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	if res.Bytes != 200000 {
		t.Errorf("Expected 200000 bytes (target plus partial frame), got %d", res.Bytes)
	}
}

func TestRecorder_StreamEndsEarlyLeavesPartial(t *testing.T) {
	sess := newFrameSession()
	sess.frames <- make([]byte, 1024)
	close(sess.frames)

	path := filepath.Join(t.TempDir(), "short.wav")
	_, err := New(sess).Record(context.Background(), path, 1)
	if err == nil {
		t.Fatal("Expected error when the stream ends before the target")
	}

	// The partial file stays on disk, non-finalized: the header still
	// carries the placeholder zero data size.
	assertPartialFile(t, path, 1024)
}

func TestRecorder_StreamErrorLeavesPartial(t *testing.T) {
	sess := newFrameSession()
	sess.errCh <- fmt.Errorf("connection lost")

	path := filepath.Join(t.TempDir(), "err.wav")
	_, err := New(sess).Record(context.Background(), path, 1)
	if err == nil {
		t.Fatal("Expected error when the stream fails")
	}

	assertPartialFile(t, path, 0)
}

func TestRecorder_ContextCancelledLeavesPartial(t *testing.T) {
	sess := newFrameSession()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	path := filepath.Join(t.TempDir(), "cancel.wav")
	_, err := New(sess).Record(ctx, path, 1)
	if err != context.DeadlineExceeded {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}

	assertPartialFile(t, path, 0)
}

// assertPartialFile checks that path exists with dataBytes of PCM
// after the header and a data-size field still zero.
func assertPartialFile(t *testing.T, path string, dataBytes int64) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected partial file kept on disk: %v", err)
	}
	if info.Size() != wav.HeaderSize+dataBytes {
		t.Errorf("Expected partial file of %d bytes, got %d", wav.HeaderSize+dataBytes, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if size := binary.LittleEndian.Uint32(data[40:44]); size != 0 {
		t.Errorf("Expected non-finalized header with zero data size, got %d", size)
	}
}

func TestRecorder_InvalidDuration(t *testing.T) {
	sess := newFrameSession()

	if _, err := New(sess).Record(context.Background(), "unused.wav", 0); err == nil {
		t.Error("Expected error for zero duration")
	}
}
