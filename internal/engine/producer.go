package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aurastream/genmusic/internal/audio"
	"github.com/aurastream/genmusic/internal/lyria"
	"github.com/aurastream/genmusic/internal/observability"
)

// Producer moves frames from the session into the jitter buffer. Put
// blocks while the buffer is full, which backpressures the network
// read to playback speed.
type Producer struct {
	session lyria.MusicSession
	buffer  *audio.JitterBuffer
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// Run pumps frames until the stream ends or ctx is cancelled. It
// always closes the buffer so the consumer drains and exits.
func (p *Producer) Run(ctx context.Context) {
	defer p.buffer.Close()

	for {
		select {
		case frame, ok := <-p.session.Frames():
			if !ok {
				p.logger.Debug().Msg("Stream ended")
				return
			}
			if len(frame) == 0 {
				continue
			}
			p.metrics.RecordFrame(len(frame))
			if err := p.buffer.Put(ctx, frame); err != nil {
				return
			}
			observability.SetBufferDepth(p.buffer.Len())
		case <-ctx.Done():
			return
		}
	}
}
