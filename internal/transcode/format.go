package transcode

import "time"

// Fixed output format. Discord voice expects 48 kHz 16-bit stereo Opus,
// 20ms per frame.
const (
	SampleRate     = 48000
	Channels       = 2
	BytesPerSample = 2
	FrameDuration  = 20 * time.Millisecond
)

// PCMBytesPerSecond is the byte rate of raw s16le audio at the fixed format.
const PCMBytesPerSecond = SampleRate * Channels * BytesPerSample

// PCMDuration returns the play time of a raw PCM byte count.
func PCMDuration(n int) time.Duration {
	return time.Duration(n) * time.Second / PCMBytesPerSecond
}
