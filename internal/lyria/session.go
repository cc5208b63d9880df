package lyria

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aurastream/genmusic/internal/config"
	"github.com/aurastream/genmusic/internal/observability"
	"github.com/aurastream/genmusic/internal/resilience"
)

// Session is a live connection to the music generation service. One
// goroutine decodes incoming frames while control messages are sent
// from the caller under a write lock.
type Session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	frames    chan []byte
	errChan   chan error
	closeChan chan struct{}
	closeOnce sync.Once

	circuitBreaker *resilience.CircuitBreaker
	metrics        *observability.Metrics
	logger         zerolog.Logger
}

func newSession(conn *websocket.Conn, cfg *config.Config) *Session {
	sessionID := observability.NewSessionID()
	s := &Session{
		conn:      conn,
		frames:    make(chan []byte, 4),
		errChan:   make(chan error, 1),
		closeChan: make(chan struct{}),
		circuitBreaker: resilience.NewCircuitBreaker(
			"lyria",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		metrics: observability.NewSessionMetrics(sessionID),
		logger:  observability.WithSessionID(sessionID),
	}

	go s.receiveLoop()
	return s
}

// receiveLoop decodes server messages and forwards PCM frames. The
// frames channel is small so a slow consumer backpressures straight
// into the websocket read.
func (s *Session) receiveLoop() {
	defer close(s.frames)

	for {
		var msg serverMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			select {
			case <-s.closeChan:
				// Local close, not a stream error.
			default:
				s.logger.Error().Err(err).Msg("Stream read failed")
				s.metrics.RecordError("stream_read", "lyria")
				select {
				case s.errChan <- fmt.Errorf("read stream: %w", err):
				default:
				}
			}
			return
		}

		if msg.ServerContent == nil {
			continue
		}

		for _, chunk := range msg.ServerContent.AudioChunks {
			pcm, err := base64.StdEncoding.DecodeString(chunk.Data)
			if err != nil {
				s.logger.Warn().Err(err).Msg("Dropping undecodable audio chunk")
				continue
			}
			if len(pcm) == 0 {
				continue
			}

			select {
			case s.frames <- pcm:
			case <-s.closeChan:
				return
			}
		}
	}
}

// send writes one control message under the write lock and the
// circuit breaker, tracking latency and outcome.
func (s *Session) send(msg clientMessage) error {
	s.metrics.RecordControlStart()
	err := s.circuitBreaker.Call(func() error {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		return s.conn.WriteJSON(msg)
	})
	s.metrics.RecordControlEnd(err == nil)

	observability.UpdateCircuitBreakerState("lyria", int(s.circuitBreaker.GetState()))
	if err != nil {
		s.metrics.RecordError("control_send", "lyria")
		observability.IncrementCircuitBreakerFailures("lyria")
	}
	return err
}

// Configure updates generation parameters for subsequent audio.
func (s *Session) Configure(bpm int, temperature float64) error {
	s.logger.Debug().Int("bpm", bpm).Float64("temperature", temperature).Msg("Sending generation config")
	return s.send(clientMessage{
		MusicGenerationConfig: &generationConfig{BPM: bpm, Temperature: temperature},
	})
}

// SetWeightedPrompts replaces the full prompt mix.
func (s *Session) SetWeightedPrompts(prompts []WeightedPrompt) error {
	s.logger.Debug().Int("prompts", len(prompts)).Msg("Sending prompt mix")
	return s.send(clientMessage{
		ClientContent: &clientContent{WeightedPrompts: prompts},
	})
}

// Play starts or resumes generation.
func (s *Session) Play() error {
	return s.send(clientMessage{PlaybackControl: controlPlay})
}

// Pause suspends generation without discarding context.
func (s *Session) Pause() error {
	return s.send(clientMessage{PlaybackControl: controlPause})
}

// Stop halts generation.
func (s *Session) Stop() error {
	return s.send(clientMessage{PlaybackControl: controlStop})
}

// ResetContext discards the musical context.
func (s *Session) ResetContext() error {
	return s.send(clientMessage{PlaybackControl: controlResetContext})
}

// Frames delivers raw PCM frames. Closed when the stream ends.
func (s *Session) Frames() <-chan []byte {
	return s.frames
}

// Err reports a terminal stream error, if any.
func (s *Session) Err() <-chan error {
	return s.errChan
}

// Close shuts the connection down. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeChan)

		s.writeMu.Lock()
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()

		err = s.conn.Close()
		s.logger.Info().Msg("Session closed")
	})
	return err
}
