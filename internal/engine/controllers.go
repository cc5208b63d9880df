package engine

import (
	"fmt"

	"github.com/aurastream/genmusic/internal/lyria"
)

// TempoController applies tempo changes. A tempo change does not take
// effect mid-phrase, so it resets the musical context after
// reconfiguring.
type TempoController struct {
	state   *State
	session lyria.MusicSession
}

// SetBPM validates and applies a new tempo.
func (c *TempoController) SetBPM(bpm int) error {
	if bpm <= 0 {
		return fmt.Errorf("bpm must be a positive integer, got %d", bpm)
	}

	c.state.SetBPM(bpm)
	if err := c.session.Configure(bpm, c.state.Temperature()); err != nil {
		return fmt.Errorf("apply tempo: %w", err)
	}
	if err := c.session.ResetContext(); err != nil {
		return fmt.Errorf("reset context: %w", err)
	}
	return nil
}

// PromptMixController manages the weighted prompt mix. The service
// replaces its steering state wholesale, so every change pushes the
// full mix.
type PromptMixController struct {
	state   *State
	session lyria.MusicSession
}

// Add appends a prompt and pushes the full mix.
func (c *PromptMixController) Add(text string, weight float64) error {
	mix := c.state.AddPrompt(lyria.WeightedPrompt{Text: text, Weight: weight})
	if err := c.session.SetWeightedPrompts(mix); err != nil {
		return fmt.Errorf("push prompt mix: %w", err)
	}
	return nil
}

// Clear empties the mix and pushes the empty state.
func (c *PromptMixController) Clear() error {
	c.state.ClearPrompts()
	if err := c.session.SetWeightedPrompts(nil); err != nil {
		return fmt.Errorf("push prompt mix: %w", err)
	}
	return nil
}

// List returns the current mix.
func (c *PromptMixController) List() []lyria.WeightedPrompt {
	return c.state.Mix()
}
