package engine

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/aurastream/genmusic/internal/lyria"
	"github.com/aurastream/genmusic/internal/observability"
)

// fakeSession records control calls for assertions.
type fakeSession struct {
	mu     sync.Mutex
	frames chan []byte
	errCh  chan error
	calls  []string
	mixes  [][]lyria.WeightedPrompt
	bpms   []int
	closed bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		frames: make(chan []byte, 64),
		errCh:  make(chan error, 1),
	}
}

func (f *fakeSession) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeSession) Configure(bpm int, temperature float64) error {
	f.record("configure")
	f.mu.Lock()
	f.bpms = append(f.bpms, bpm)
	f.mu.Unlock()
	return nil
}

func (f *fakeSession) SetWeightedPrompts(prompts []lyria.WeightedPrompt) error {
	f.record("setPrompts")
	f.mu.Lock()
	f.mixes = append(f.mixes, append([]lyria.WeightedPrompt(nil), prompts...))
	f.mu.Unlock()
	return nil
}

func (f *fakeSession) Play() error         { f.record("play"); return nil }
func (f *fakeSession) Pause() error        { f.record("pause"); return nil }
func (f *fakeSession) Stop() error         { f.record("stop"); return nil }
func (f *fakeSession) ResetContext() error { f.record("resetContext"); return nil }

func (f *fakeSession) Frames() <-chan []byte { return f.frames }
func (f *fakeSession) Err() <-chan error     { return f.errCh }

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.frames)
	}
	return nil
}

func (f *fakeSession) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSession) lastMix() []lyria.WeightedPrompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.mixes) == 0 {
		return nil
	}
	return f.mixes[len(f.mixes)-1]
}

func newTestDispatcher(sess *fakeSession, input string) (*Dispatcher, *State, *bytes.Buffer) {
	state := NewState(120, 1.0)
	state.SetRunning(true)
	out := &bytes.Buffer{}
	d := &Dispatcher{
		state:   state,
		tempo:   &TempoController{state: state, session: sess},
		prompts: &PromptMixController{state: state, session: sess},
		in:      strings.NewReader(input),
		out:     out,
		logger:  observability.GetLogger(),
		metrics: observability.NewSessionMetrics("test"),
	}
	return d, state, out
}

func TestDispatcher_QuitClearsRunning(t *testing.T) {
	sess := newFakeSession()
	d, state, _ := newTestDispatcher(sess, "quit\n")

	d.Run()

	if state.Running() {
		t.Error("Expected running flag cleared after quit")
	}
}

func TestDispatcher_EOFClearsRunning(t *testing.T) {
	sess := newFakeSession()
	d, state, _ := newTestDispatcher(sess, "")

	d.Run()

	if state.Running() {
		t.Error("Expected running flag cleared on end of input")
	}
}

func TestDispatcher_AddWeightParsing(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantText   string
		wantWeight float64
	}{
		{"no weight", "add warm jazz", "warm jazz", 1.0},
		{"integer weight", "add warm jazz 2", "warm jazz", 2.0},
		{"decimal weight", "add warm jazz 0.5", "warm jazz", 0.5},
		{"negative weight", "add warm jazz -0.5", "warm jazz", -0.5},
		{"number inside text", "add 90s rock", "90s rock", 1.0},
		{"malformed number stays text", "add jazz 1.5.2", "jazz 1.5.2", 1.0},
		{"single numeric token is text", "add 808", "808", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newFakeSession()
			d, _, _ := newTestDispatcher(sess, tt.line+"\nquit\n")

			d.Run()

			mix := sess.lastMix()
			if len(mix) != 1 {
				t.Fatalf("Expected 1 prompt in mix, got %d", len(mix))
			}
			if mix[0].Text != tt.wantText {
				t.Errorf("Expected text %q, got %q", tt.wantText, mix[0].Text)
			}
			if mix[0].Weight != tt.wantWeight {
				t.Errorf("Expected weight %v, got %v", tt.wantWeight, mix[0].Weight)
			}
		})
	}
}

func TestDispatcher_AddPushesFullMix(t *testing.T) {
	sess := newFakeSession()
	d, _, _ := newTestDispatcher(sess, "add warm jazz\nadd deep bass 0.5\nquit\n")

	d.Run()

	mix := sess.lastMix()
	if len(mix) != 2 {
		t.Fatalf("Expected full mix of 2 prompts, got %d", len(mix))
	}
	if mix[0].Text != "warm jazz" || mix[1].Text != "deep bass" {
		t.Errorf("Unexpected mix order: %+v", mix)
	}
}

func TestDispatcher_Clear(t *testing.T) {
	sess := newFakeSession()
	d, state, _ := newTestDispatcher(sess, "add warm jazz\nclear\nquit\n")

	d.Run()

	if len(sess.lastMix()) != 0 {
		t.Errorf("Expected empty mix pushed after clear, got %+v", sess.lastMix())
	}
	if len(state.Mix()) != 0 {
		t.Errorf("Expected empty local mix after clear, got %+v", state.Mix())
	}
}

func TestDispatcher_BPMAppliesAndResets(t *testing.T) {
	sess := newFakeSession()
	d, state, _ := newTestDispatcher(sess, "bpm 140\nquit\n")

	d.Run()

	if state.BPM() != 140 {
		t.Errorf("Expected BPM 140, got %d", state.BPM())
	}

	calls := sess.callList()
	var sawConfigure, sawReset bool
	for i, call := range calls {
		if call == "configure" {
			sawConfigure = true
			// Context reset must follow the config change.
			for _, later := range calls[i:] {
				if later == "resetContext" {
					sawReset = true
				}
			}
		}
	}
	if !sawConfigure || !sawReset {
		t.Errorf("Expected configure then resetContext, got %v", calls)
	}
}

func TestDispatcher_BPMErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not a number", "bpm abc"},
		{"missing argument", "bpm"},
		{"zero", "bpm 0"},
		{"negative", "bpm -90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newFakeSession()
			d, state, out := newTestDispatcher(sess, tt.line+"\nquit\n")

			d.Run()

			if !strings.Contains(out.String(), "Error:") {
				t.Errorf("Expected reported error, got output %q", out.String())
			}
			if state.BPM() != 120 {
				t.Errorf("Expected BPM unchanged at 120, got %d", state.BPM())
			}
			if len(sess.bpms) != 0 {
				t.Errorf("Expected no configure call, got %v", sess.bpms)
			}
		})
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	sess := newFakeSession()
	d, _, out := newTestDispatcher(sess, "bogus\nquit\n")

	d.Run()

	if !strings.Contains(out.String(), "unknown command") {
		t.Errorf("Expected unknown command error, got %q", out.String())
	}
}

func TestDispatcher_List(t *testing.T) {
	sess := newFakeSession()
	d, _, out := newTestDispatcher(sess, "add warm jazz 0.5\nlist\nquit\n")

	d.Run()

	if !strings.Contains(out.String(), "warm jazz") {
		t.Errorf("Expected list output to name the prompt, got %q", out.String())
	}
}
