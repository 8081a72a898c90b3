// Package config provides environment configuration helpers for go-interview.
package config

import (
	"fmt"
	"os"
)

// DefaultPort is the HTTP listen port when PORT is unset.
const DefaultPort = "8080"

// Env returns the value of the named environment variable.
// Falls back to the provided default if not set.
func Env(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// EnvRequired returns the value of the named environment variable.
// Exits with a usage message if not set.
func EnvRequired(name string) string {
	v := os.Getenv(name)
	if v == "" {
		fmt.Fprintf(os.Stderr, "Error: %s environment variable is required\n", name)
		fmt.Fprintf(os.Stderr, "Usage: %s=... go run ./cmd/interviewd\n", name)
		os.Exit(1)
	}
	return v
}

// OpenAIKey returns the OpenAI API key. Required.
func OpenAIKey() string {
	return EnvRequired("OPENAI_API_KEY")
}

// GoogleKey returns the Google Cloud API key, empty if unset.
// Only needed when STT_PROVIDER=google.
func GoogleKey() string {
	return os.Getenv("GOOGLE_API_KEY")
}

// STTProvider returns the configured speech-to-text provider
// ("whisper" or "google").
func STTProvider() string {
	return Env("STT_PROVIDER", "whisper")
}

// Port returns the HTTP listen port.
func Port() string {
	return Env("PORT", DefaultPort)
}

// SpoolDir returns the directory for transient audio spool files.
func SpoolDir() string {
	if dir := os.Getenv("SPOOL_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// LogLevel returns the configured log level.
func LogLevel() string {
	return Env("LOG_LEVEL", "info")
}
