package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aurastream/genmusic/internal/audio"
	"github.com/aurastream/genmusic/internal/observability"
)

// getTimeout bounds a single read from the jitter buffer. A timeout
// is an underrun, not an exit condition.
const getTimeout = time.Second

// Consumer drains the jitter buffer into the audio device. It waits
// for the buffer to reach its fill threshold before opening the
// device so playback does not stutter on startup.
type Consumer struct {
	buffer     *audio.JitterBuffer
	openDevice func() (audio.Device, error)
	state      *State
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// Run plays frames until the stream drains or the running flag
// clears. The device is released on every exit path.
func (c *Consumer) Run() error {
	<-c.buffer.Ready()
	c.logger.Info().Int("buffered_frames", c.buffer.Len()).Msg("Playback started")

	device, err := c.openDevice()
	if err != nil {
		return fmt.Errorf("open playback device: %w", err)
	}
	defer device.Close()

	for c.state.Running() {
		frame, err := c.buffer.Get(getTimeout)
		if err == audio.ErrTimeout {
			observability.RecordBufferUnderrun()
			c.logger.Debug().Msg("Buffer underrun")
			continue
		}
		if err == audio.ErrClosed {
			return nil
		}

		if _, err := device.Write(frame); err != nil {
			return fmt.Errorf("write audio device: %w", err)
		}
		c.metrics.RecordAudioBytes("played", int64(len(frame)))
		observability.SetBufferDepth(c.buffer.Len())
	}
	return nil
}
