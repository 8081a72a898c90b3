package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/voxhire/go-interview/internal/httpc"
)

const (
	whisperURL      = "https://api.openai.com/v1/audio/transcriptions"
	providerWhisper = "whisper"
)

// OpenAI transcription model options
const (
	ModelWhisper1 = "whisper-1"
)

// Whisper implements Provider for the OpenAI audio transcription API.
type Whisper struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewWhisper creates a new Whisper STT provider.
func NewWhisper(opts ...Option) (*Whisper, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelWhisper1
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = whisperURL
	}

	return &Whisper{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "stt.whisper"),
		baseURL: baseURL,
	}, nil
}

// Transcribe converts audio bytes to text.
func (w *Whisper) Transcribe(ctx context.Context, audio []byte, language string) (*Result, error) {
	if len(audio) == 0 {
		return nil, WrapError(providerWhisper, ErrEmptyAudio)
	}

	start := time.Now()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", "audio.webm")
	if err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("create form file: %w", err))
	}
	if _, err := part.Write(audio); err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("write audio: %w", err))
	}

	if err := form.WriteField("model", w.config.ModelID); err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("write model field: %w", err))
	}
	if language != "" {
		if err := form.WriteField("language", language); err != nil {
			return nil, WrapError(providerWhisper, fmt.Errorf("write language field: %w", err))
		}
	}
	if err := form.Close(); err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("close form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.baseURL, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+w.config.APIKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("transcribe: %w", err))
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, w.parseError(resp)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("decode response: %w", err))
	}

	w.logger.Debug("transcribed audio",
		"bytes", len(audio),
		"chars", len(result.Text),
		"latency_ms", latency,
	)

	return &Result{
		Text:      result.Text,
		Language:  language,
		LatencyMs: latency,
	}, nil
}

// Health checks API connectivity.
func (w *Whisper) Health(ctx context.Context) error {
	// Use models endpoint as health check
	url := "https://api.openai.com/v1/models"
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return WrapError(providerWhisper, err)
	}

	req.Header.Set("Authorization", "Bearer "+w.config.APIKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return WrapError(providerWhisper, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return w.parseError(resp)
	}

	return nil
}

// Close releases resources.
func (w *Whisper) Close() error {
	w.client.CloseIdleConnections()
	return nil
}

// parseError reads and parses an error response.
func (w *Whisper) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerWhisper,
	}
}

// Verify Whisper implements Provider at compile time.
var _ Provider = (*Whisper)(nil)
