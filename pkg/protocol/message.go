// Package protocol defines the WebSocket message types for client-server
// communication. This package is shared between the interview service and
// the browser client.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → Server messages
	TypeAudioData      MessageType = "audio-data"      // Microphone audio chunk
	TypeAudioComplete  MessageType = "audio-complete"  // End of audio stream
	TypeTextMessage    MessageType = "text-message"    // Typed candidate message
	TypeStartInterview MessageType = "start-interview" // Begin the interview
	TypeEndInterview   MessageType = "end-interview"   // End and evaluate
	TypeGetEvaluation  MessageType = "get-evaluation"  // Fetch stored evaluation

	// Server → Client messages
	TypeTranscription      MessageType = "transcription"       // Candidate speech transcript
	TypeAIResponse         MessageType = "ai-response"         // Interviewer text reply
	TypeAIAudio            MessageType = "ai-audio"            // Interviewer speech audio
	TypeProcessingError    MessageType = "processing-error"    // Pipeline failure
	TypeEvaluationComplete MessageType = "evaluation-complete" // Fresh evaluation result
	TypeEvaluationResult   MessageType = "evaluation-result"   // Stored evaluation lookup
	TypeEvaluationError    MessageType = "evaluation-error"    // Evaluation failure
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Client → Server Message Types
// =============================================================================

// AudioData contains one chunk of microphone audio
type AudioData struct {
	Format string `json:"format,omitempty"` // "webm", "pcm16"
	Data   string `json:"data"`             // base64 encoded
}

// TextMessageData contains a typed candidate message
type TextMessageData struct {
	Message string `json:"message"`
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// TranscriptionData contains the transcript of buffered candidate audio
type TranscriptionData struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// AIResponseData contains the interviewer's text reply
type AIResponseData struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// AIAudioData contains synthesized interviewer speech
type AIAudioData struct {
	Audio string `json:"audio"` // base64 encoded
}

// ProcessingErrorData describes a pipeline failure
type ProcessingErrorData struct {
	Message string `json:"message"` // Human-readable description
	Error   string `json:"error"`   // Underlying error text
}

// EvaluationErrorData describes an evaluation failure or a missing record
type EvaluationErrorData struct {
	Error string `json:"error"`
}
