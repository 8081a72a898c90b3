package stt

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/option"
	speech "google.golang.org/api/speech/v1"
)

const providerGoogle = "google"

// Google implements Provider for the Google Cloud Speech-to-Text REST API.
type Google struct {
	config *Config
	svc    *speech.Service
	logger *slog.Logger
}

// NewGoogle creates a new Google Cloud Speech provider.
// The service is created lazily on first use so construction never
// requires network access.
func NewGoogle(opts ...Option) (*Google, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Google{
		config: cfg,
		logger: cfg.Logger.With("component", "stt.google"),
	}, nil
}

// Transcribe converts audio bytes to text.
func (g *Google) Transcribe(ctx context.Context, audio []byte, language string) (*Result, error) {
	if len(audio) == 0 {
		return nil, WrapError(providerGoogle, ErrEmptyAudio)
	}

	svc, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	lang := language
	if lang == "" {
		lang = "en-US"
	}

	resp, err := svc.Speech.Recognize(&speech.RecognizeRequest{
		Config: &speech.RecognitionConfig{
			Encoding:        g.config.Encoding,
			SampleRateHertz: int64(g.config.SampleRate),
			LanguageCode:    lang,
		},
		Audio: &speech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("recognize: %w", err))
	}

	latency := time.Since(start).Milliseconds()

	var parts []string
	for _, r := range resp.Results {
		if len(r.Alternatives) > 0 {
			parts = append(parts, r.Alternatives[0].Transcript)
		}
	}
	text := strings.Join(parts, " ")

	g.logger.Debug("transcribed audio",
		"bytes", len(audio),
		"chars", len(text),
		"latency_ms", latency,
	)

	return &Result{
		Text:      text,
		Language:  lang,
		LatencyMs: latency,
	}, nil
}

// Health checks that the service can be constructed with the configured key.
func (g *Google) Health(ctx context.Context) error {
	_, err := g.service(ctx)
	return err
}

// Close releases resources.
func (g *Google) Close() error {
	return nil
}

// service returns the cached speech service, creating it on first use.
func (g *Google) service(ctx context.Context) (*speech.Service, error) {
	if g.svc != nil {
		return g.svc, nil
	}

	svc, err := speech.NewService(ctx, option.WithAPIKey(g.config.APIKey))
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("create service: %w", err))
	}
	g.svc = svc
	return svc, nil
}

// Verify Google implements Provider at compile time.
var _ Provider = (*Google)(nil)
