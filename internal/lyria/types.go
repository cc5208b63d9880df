package lyria

// WeightedPrompt is one steering text with its relative influence on
// the generated music.
type WeightedPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// Playback control values understood by the service.
const (
	controlPlay         = "PLAY"
	controlPause        = "PAUSE"
	controlStop         = "STOP"
	controlResetContext = "RESET_CONTEXT"
)

// setupMessage is the first client message on a new connection.
type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model string `json:"model"`
}

// clientMessage carries one steering update. Exactly one field is set
// per message.
type clientMessage struct {
	ClientContent         *clientContent    `json:"clientContent,omitempty"`
	MusicGenerationConfig *generationConfig `json:"musicGenerationConfig,omitempty"`
	PlaybackControl       string            `json:"playbackControl,omitempty"`
}

type clientContent struct {
	WeightedPrompts []WeightedPrompt `json:"weightedPrompts"`
}

type generationConfig struct {
	BPM         int     `json:"bpm,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// serverMessage is a decoded service message. Unknown fields are
// ignored so protocol additions do not break the stream.
type serverMessage struct {
	SetupComplete *setupComplete `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
}

type setupComplete struct{}

type serverContent struct {
	AudioChunks []audioChunk `json:"audioChunks"`
}

// audioChunk carries base64-encoded raw PCM.
type audioChunk struct {
	Data string `json:"data"`
}

// MusicSession is a live bidirectional music generation session.
// Control methods may be called from one goroutine while another
// consumes Frames.
type MusicSession interface {
	// Configure updates generation parameters for subsequent audio.
	Configure(bpm int, temperature float64) error

	// SetWeightedPrompts replaces the full prompt mix.
	SetWeightedPrompts(prompts []WeightedPrompt) error

	// Play starts or resumes generation.
	Play() error

	// Pause suspends generation without discarding context.
	Pause() error

	// Stop halts generation.
	Stop() error

	// ResetContext discards the musical context so configuration
	// changes take effect cleanly.
	ResetContext() error

	// Frames delivers raw PCM frames. The channel closes when the
	// stream ends.
	Frames() <-chan []byte

	// Err reports a terminal stream error, if any.
	Err() <-chan error

	Close() error
}
