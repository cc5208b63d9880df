package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"
)

// Device is a blocking PCM sink. Write returns only after the device
// has accepted the bytes, which paces the playback loop in real time.
type Device interface {
	io.Writer
	Close() error
}

// The process gets a single oto context; opening a second device
// reuses it.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// otoDevice plays PCM through the default output device. The player
// pulls from the read side of a pipe, so writes block until the
// device consumes them.
type otoDevice struct {
	player oto.Player
	pw     *io.PipeWriter
}

// OpenDevice opens the default audio output for the stream format.
func OpenDevice() (Device, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(SampleRate, Channels, BytesPerSample)
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = ctx
	})
	if otoErr != nil {
		return nil, fmt.Errorf("open audio device: %w", otoErr)
	}

	pr, pw := io.Pipe()
	player := otoCtx.NewPlayer(pr)
	player.Play()

	return &otoDevice{player: player, pw: pw}, nil
}

func (d *otoDevice) Write(p []byte) (int, error) {
	return d.pw.Write(p)
}

// Close drains buffered audio before releasing the player, so the
// tail of the stream is not cut off.
func (d *otoDevice) Close() error {
	d.pw.Close()
	for d.player.UnplayedBufferSize() > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	return d.player.Close()
}
