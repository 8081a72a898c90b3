// Package tts provides a unified interface for text-to-speech providers.
//
// The package supports OpenAI speech synthesis out of the box; all providers
// implement the Provider interface, enabling seamless switching without
// changing caller code.
//
// Example usage:
//
//	provider, _ := tts.NewOpenAI(
//	    tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    tts.WithVoice(tts.VoiceNova),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Hello world")
//	// result.Audio contains MP3/PCM audio bytes
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
// All implementations must satisfy this interface for seamless provider switching.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the estimated audio playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the provider round-trip time in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the audio codec (e.g., mp3_44100_128, pcm_24000).
	Encoding Encoding

	// SampleRate in Hz (e.g., 24000, 44100).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// BitDepth for PCM formats (e.g., 16 for PCM16).
	BitDepth int
}

// Encoding represents audio encoding types.
type Encoding string

const (
	// PCM formats (raw audio, lowest latency)
	EncodingPCM16 Encoding = "pcm_16000" // 16kHz mono PCM16
	EncodingPCM24 Encoding = "pcm_24000" // 24kHz mono PCM16

	// Compressed formats
	EncodingMP3 Encoding = "mp3_44100_128" // MP3 128kbps
)

// SampleRateFromEncoding extracts the sample rate from an encoding type.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM24:
		return 24000
	case EncodingMP3:
		return 44100
	default:
		return 24000 // Default to 24kHz
	}
}
