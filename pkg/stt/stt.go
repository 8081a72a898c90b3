// Package stt provides a unified interface for speech-to-text providers.
//
// The package supports OpenAI Whisper and Google Cloud Speech backends. All
// providers implement the Provider interface, enabling seamless switching
// without changing caller code.
//
// Example usage:
//
//	provider, _ := stt.NewWhisper(
//	    stt.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Transcribe(ctx, audioBytes, "en")
//	// result.Text contains the transcript
package stt

import (
	"context"
)

// Provider defines the STT provider interface.
// All implementations must satisfy this interface for seamless provider switching.
type Provider interface {
	// Transcribe converts audio bytes to text. The language hint is a
	// BCP-47 code ("en", "es"); providers may ignore it if empty.
	Transcribe(ctx context.Context, audio []byte, language string) (*Result, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Result represents a complete transcription result.
type Result struct {
	// Text is the transcribed speech.
	Text string

	// Language is the detected or requested language code.
	Language string

	// LatencyMs is the provider round-trip time in milliseconds.
	LatencyMs int64
}
