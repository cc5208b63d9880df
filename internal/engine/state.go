package engine

import (
	"sync"
	"sync/atomic"

	"github.com/aurastream/genmusic/internal/lyria"
)

// State is the session state shared between the dispatcher and the
// playback goroutines. The running flag is the single shutdown
// signal: every loop polls it and winds down when it clears.
type State struct {
	running atomic.Bool

	mu          sync.RWMutex
	bpm         int
	temperature float64
	mix         []lyria.WeightedPrompt
}

// NewState creates state with the configured tempo and temperature.
func NewState(bpm int, temperature float64) *State {
	s := &State{bpm: bpm, temperature: temperature}
	return s
}

// Running reports whether the session should keep going.
func (s *State) Running() bool {
	return s.running.Load()
}

// SetRunning flips the shared running flag.
func (s *State) SetRunning(v bool) {
	s.running.Store(v)
}

// BPM returns the current tempo.
func (s *State) BPM() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bpm
}

// SetBPM updates the current tempo.
func (s *State) SetBPM(bpm int) {
	s.mu.Lock()
	s.bpm = bpm
	s.mu.Unlock()
}

// Temperature returns the generation temperature.
func (s *State) Temperature() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.temperature
}

// Mix returns a copy of the current prompt mix.
func (s *State) Mix() []lyria.WeightedPrompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mix := make([]lyria.WeightedPrompt, len(s.mix))
	copy(mix, s.mix)
	return mix
}

// AddPrompt appends a prompt and returns a copy of the new mix.
func (s *State) AddPrompt(p lyria.WeightedPrompt) []lyria.WeightedPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mix = append(s.mix, p)
	mix := make([]lyria.WeightedPrompt, len(s.mix))
	copy(mix, s.mix)
	return mix
}

// SetMix replaces the prompt mix.
func (s *State) SetMix(mix []lyria.WeightedPrompt) {
	s.mu.Lock()
	s.mix = append([]lyria.WeightedPrompt(nil), mix...)
	s.mu.Unlock()
}

// ClearPrompts empties the mix.
func (s *State) ClearPrompts() {
	s.mu.Lock()
	s.mix = nil
	s.mu.Unlock()
}
