package protocol

import (
	"bytes"
	"testing"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "text message",
			msgType: TypeTextMessage,
			data:    TextMessageData{Message: "hello"},
			wantErr: false,
		},
		{
			name:    "audio chunk",
			msgType: TypeAudioData,
			data:    AudioData{Format: "webm", Data: "AAAA"},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypeStartInterview,
			data:    nil,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if msg == nil && !tt.wantErr {
				t.Error("NewMessage() returned nil message")
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	msg, err := NewTextMessage("Tell me about your last project")
	if err != nil {
		t.Fatalf("NewTextMessage() error = %v", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	if parsed.Type != TypeTextMessage {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeTextMessage)
	}

	data, err := parsed.GetTextMessageData()
	if err != nil {
		t.Fatalf("GetTextMessageData() error = %v", err)
	}
	if data.Message != "Tell me about your last project" {
		t.Errorf("Message = %q", data.Message)
	}
}

func TestAudioRoundTrip(t *testing.T) {
	audio := []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00, 0x42} // fake webm header

	msg, err := NewAudioDataMessage(audio, "webm")
	if err != nil {
		t.Fatalf("NewAudioDataMessage() error = %v", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	data, err := parsed.GetAudioData()
	if err != nil {
		t.Fatalf("GetAudioData() error = %v", err)
	}

	decoded, err := data.DecodeAudio()
	if err != nil {
		t.Fatalf("DecodeAudio() error = %v", err)
	}
	if !bytes.Equal(decoded, audio) {
		t.Errorf("decoded audio = %v, want %v", decoded, audio)
	}
}

func TestAIAudioRoundTrip(t *testing.T) {
	// Synthesized audio must survive base64 transport unchanged
	audio := make([]byte, 256)
	for i := range audio {
		audio[i] = byte(i)
	}

	msg, err := NewAIAudioMessage(audio)
	if err != nil {
		t.Fatalf("NewAIAudioMessage() error = %v", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	data, err := parsed.GetAIAudioData()
	if err != nil {
		t.Fatalf("GetAIAudioData() error = %v", err)
	}

	decoded, err := data.DecodeAudio()
	if err != nil {
		t.Fatalf("DecodeAudio() error = %v", err)
	}
	if !bytes.Equal(decoded, audio) {
		t.Error("decoded audio does not match original")
	}
}

func TestProcessingErrorMessage(t *testing.T) {
	msg, err := NewProcessingErrorMessage("Failed to process audio", errFake)
	if err != nil {
		t.Fatalf("NewProcessingErrorMessage() error = %v", err)
	}

	data, err := msg.GetProcessingErrorData()
	if err != nil {
		t.Fatalf("GetProcessingErrorData() error = %v", err)
	}
	if data.Message != "Failed to process audio" {
		t.Errorf("Message = %q", data.Message)
	}
	if data.Error != "fake provider failure" {
		t.Errorf("Error = %q", data.Error)
	}
}

func TestParseMessageInvalid(t *testing.T) {
	if _, err := ParseMessage([]byte("not json")); err == nil {
		t.Error("ParseMessage() expected error for invalid JSON")
	}
}

type fakeError struct{}

func (fakeError) Error() string { return "fake provider failure" }

var errFake = fakeError{}
