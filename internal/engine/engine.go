// Package engine runs a live music session: a producer feeding the
// jitter buffer from the network, a consumer feeding the audio
// device, and a command dispatcher steering generation.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/aurastream/genmusic/internal/audio"
	"github.com/aurastream/genmusic/internal/config"
	"github.com/aurastream/genmusic/internal/lyria"
	"github.com/aurastream/genmusic/internal/observability"
)

// pollInterval is how often the supervisor checks the running flag.
const pollInterval = 100 * time.Millisecond

// Engine owns one live session end to end.
type Engine struct {
	cfg        *config.Config
	session    lyria.MusicSession
	openDevice func() (audio.Device, error)
	buffer     *audio.JitterBuffer
	state      *State
	metrics    *observability.Metrics
	logger     zerolog.Logger

	in  io.Reader
	out io.Writer
}

// New wires an engine around an open session. The device is opened by
// the consumer once the buffer fills, so openDevice runs late and the
// device never sits idle during buffering. Commands are read from in
// and feedback written to out.
func New(cfg *config.Config, session lyria.MusicSession, openDevice func() (audio.Device, error), in io.Reader, out io.Writer) *Engine {
	return &Engine{
		cfg:        cfg,
		session:    session,
		openDevice: openDevice,
		buffer:     audio.NewJitterBuffer(cfg.BufferCapacity, cfg.FillThreshold),
		state:      NewState(cfg.DefaultBPM, cfg.Temperature),
		metrics:    observability.NewSessionMetrics(observability.NewSessionID()),
		logger:     observability.GetLogger(),
		in:         in,
		out:        out,
	}
}

// Status reports the session state and buffer depth for the status
// endpoint.
func (e *Engine) Status() (string, int) {
	if e.state.Running() {
		return "running", e.buffer.Len()
	}
	return "stopped", e.buffer.Len()
}

// Run drives the session until quit, end of input, or a stream error.
// It sends the initial steering, starts the pipeline goroutines, and
// supervises them on a fixed poll.
func (e *Engine) Run(ctx context.Context, initialMix []lyria.WeightedPrompt) error {
	e.state.SetRunning(true)
	e.metrics.RecordSessionStart()
	defer e.metrics.RecordSessionEnd()

	if len(initialMix) > 0 {
		e.state.SetMix(initialMix)
		if err := e.session.SetWeightedPrompts(initialMix); err != nil {
			return fmt.Errorf("set initial prompts: %w", err)
		}
	}
	if err := e.session.Configure(e.state.BPM(), e.state.Temperature()); err != nil {
		return fmt.Errorf("configure session: %w", err)
	}
	if err := e.session.Play(); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	producer := &Producer{session: e.session, buffer: e.buffer, metrics: e.metrics, logger: e.logger}
	go producer.Run(ctx)

	consumerDone := make(chan error, 1)
	consumer := &Consumer{buffer: e.buffer, openDevice: e.openDevice, state: e.state, metrics: e.metrics, logger: e.logger}
	go func() { consumerDone <- consumer.Run() }()

	dispatcher := &Dispatcher{
		state:   e.state,
		tempo:   &TempoController{state: e.state, session: e.session},
		prompts: &PromptMixController{state: e.state, session: e.session},
		in:      e.in,
		out:     e.out,
		logger:  e.logger,
		metrics: e.metrics,
	}
	go dispatcher.Run()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var runErr error
	for e.state.Running() {
		select {
		case <-ticker.C:
		case err := <-e.session.Err():
			e.logger.Error().Err(err).Msg("Session failed")
			e.state.SetRunning(false)
			runErr = err
		case err := <-consumerDone:
			e.state.SetRunning(false)
			e.session.Close()
			// The consumer exits cleanly when cancellation drains the
			// stream; surface the cancellation, not a nil.
			if err == nil {
				err = ctx.Err()
			}
			return err
		case <-ctx.Done():
			e.state.SetRunning(false)
			runErr = ctx.Err()
		}
	}

	// Closing the session ends the frame stream; the producer then
	// closes the buffer and the consumer drains out.
	e.session.Close()
	cancel()

	select {
	case err := <-consumerDone:
		if runErr == nil {
			runErr = err
		}
	case <-time.After(5 * time.Second):
		e.logger.Warn().Msg("Playback did not drain in time")
	}

	e.logger.Info().Msg("Session ended")
	return runErr
}
