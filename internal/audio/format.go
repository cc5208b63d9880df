package audio

// PCM format produced by the generation service: 48 kHz stereo, 16-bit
// signed little-endian samples.
const (
	SampleRate     = 48000
	Channels       = 2
	BytesPerSample = 2

	// FrameAlign is the byte size of one interleaved sample frame.
	FrameAlign = Channels * BytesPerSample

	// BytesPerSecond is the PCM data rate.
	BytesPerSecond = SampleRate * Channels * BytesPerSample
)

// TargetBytes returns the PCM byte count for the given duration in seconds.
func TargetBytes(seconds int) int64 {
	return int64(seconds) * BytesPerSecond
}
