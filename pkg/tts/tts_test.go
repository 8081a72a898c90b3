package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAISynthesize(t *testing.T) {
	fakeAudio := []byte("fake mp3 bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var payload struct {
			Model string `json:"model"`
			Voice string `json:"voice"`
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Model != ModelTTS1 {
			t.Errorf("model = %q", payload.Model)
		}
		if payload.Voice != VoiceNova {
			t.Errorf("voice = %q", payload.Voice)
		}
		if payload.Input != "Hello candidate" {
			t.Errorf("input = %q", payload.Input)
		}

		w.Write(fakeAudio)
	}))
	defer server.Close()

	provider, err := NewOpenAI(
		WithAPIKey("test-key"),
		WithBaseURL(server.URL),
	)
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	defer provider.Close()

	result, err := provider.Synthesize(context.Background(), "Hello candidate")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(result.Audio) != string(fakeAudio) {
		t.Error("audio bytes do not match")
	}
	if result.CharCount != len("Hello candidate") {
		t.Errorf("CharCount = %d", result.CharCount)
	}
	if result.Format.Encoding != EncodingMP3 {
		t.Errorf("Encoding = %v", result.Format.Encoding)
	}
}

func TestOpenAIEmptyText(t *testing.T) {
	provider, err := NewOpenAI(WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	defer provider.Close()

	_, err = provider.Synthesize(context.Background(), "")
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestOpenAIAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid key", "code": "invalid_api_key"},
		})
	}))
	defer server.Close()

	provider, _ := NewOpenAI(WithAPIKey("bad"), WithBaseURL(server.URL))
	defer provider.Close()

	_, err := provider.Synthesize(context.Background(), "Hello")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if !apiErr.IsUnauthorized() {
		t.Error("expected IsUnauthorized()")
	}
}

func TestRequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAI(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestMockProvider(t *testing.T) {
	ctx := context.Background()
	mock := NewMock()

	result, err := mock.Synthesize(ctx, "Hello")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(result.Audio) == 0 {
		t.Error("Expected audio bytes")
	}

	if mock.CallCount("Synthesize") != 1 {
		t.Errorf("Expected 1 Synthesize call, got %d", mock.CallCount("Synthesize"))
	}
	if last := mock.LastCall(); last == nil || last.Text != "Hello" {
		t.Errorf("LastCall = %+v", last)
	}

	mock.Reset()
	if len(mock.Calls()) != 0 {
		t.Error("Expected 0 calls after reset")
	}
}

func TestMockWithError(t *testing.T) {
	testErr := errors.New("test error")
	mock := WithError(testErr)

	_, err := mock.Synthesize(context.Background(), "Hello")
	if !errors.Is(err, testErr) {
		t.Errorf("Expected test error, got: %v", err)
	}
}

func TestSampleRateFromEncoding(t *testing.T) {
	tests := []struct {
		enc  Encoding
		want int
	}{
		{EncodingPCM16, 16000},
		{EncodingPCM24, 24000},
		{EncodingMP3, 44100},
		{Encoding("unknown"), 24000},
	}

	for _, tt := range tests {
		if got := SampleRateFromEncoding(tt.enc); got != tt.want {
			t.Errorf("SampleRateFromEncoding(%v) = %d, want %d", tt.enc, got, tt.want)
		}
	}
}
