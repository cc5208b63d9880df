// Package recorder captures a fixed duration of generated audio into
// a WAV file.
package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aurastream/genmusic/internal/audio"
	"github.com/aurastream/genmusic/internal/lyria"
	"github.com/aurastream/genmusic/internal/observability"
	"github.com/aurastream/genmusic/internal/wav"
)

// Result describes a finished recording.
type Result struct {
	Path    string
	Bytes   int64
	Elapsed time.Duration
}

// Recorder drains one session into a file.
type Recorder struct {
	session lyria.MusicSession
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// New creates a recorder over an open session.
func New(session lyria.MusicSession) *Recorder {
	return &Recorder{
		session: session,
		metrics: observability.NewSessionMetrics(observability.NewSessionID()),
		logger:  observability.GetLogger(),
	}
}

// Record writes seconds of PCM to path and finalizes the file. On
// failure the partial file is left on disk non-finalized; keeping or
// removing it is the caller's call.
func (r *Recorder) Record(ctx context.Context, path string, seconds int) (*Result, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", seconds)
	}
	target := audio.TargetBytes(seconds)

	w, err := wav.Create(path, audio.SampleRate, audio.Channels, audio.BytesPerSample*8)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := r.copyTarget(ctx, w, target); err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Finalize(); err != nil {
		return nil, err
	}

	result := &Result{Path: path, Bytes: w.DataLen(), Elapsed: time.Since(start)}
	r.logger.Info().
		Str("path", path).
		Int64("bytes", result.Bytes).
		Dur("elapsed", result.Elapsed).
		Msg("Recording complete")
	return result, nil
}

// copyTarget moves frames into the writer until the byte target is
// met. Whole frames are written in arrival order, so the file may
// overshoot the target by up to one frame.
func (r *Recorder) copyTarget(ctx context.Context, w *wav.Writer, target int64) error {
	var written int64
	lastLog := time.Now()

	for written < target {
		select {
		case frame, ok := <-r.session.Frames():
			if !ok {
				return fmt.Errorf("stream ended at %d of %d bytes", written, target)
			}

			n, err := w.Write(frame)
			written += int64(n)
			if err != nil {
				return err
			}
			r.metrics.RecordAudioBytes("recorded", int64(n))

			if time.Since(lastLog) >= time.Second {
				lastLog = time.Now()
				r.logger.Info().
					Int64("bytes", written).
					Int("percent", int(written*100/target)).
					Msg("Recording")
			}

		case err := <-r.session.Err():
			return fmt.Errorf("stream failed at %d of %d bytes: %w", written, target, err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
