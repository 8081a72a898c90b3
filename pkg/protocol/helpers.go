package protocol

import (
	"encoding/base64"
	"time"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewAudioDataMessage creates an audio chunk message from raw bytes
func NewAudioDataMessage(audio []byte, format string) (*Message, error) {
	return NewMessage(TypeAudioData, AudioData{
		Format: format,
		Data:   base64.StdEncoding.EncodeToString(audio),
	})
}

// NewTextMessage creates a typed candidate message
func NewTextMessage(text string) (*Message, error) {
	return NewMessage(TypeTextMessage, TextMessageData{Message: text})
}

// NewTranscriptionMessage creates a transcription event
func NewTranscriptionMessage(text string) (*Message, error) {
	return NewMessage(TypeTranscription, TranscriptionData{
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewAIResponseMessage creates an interviewer reply event
func NewAIResponseMessage(text string) (*Message, error) {
	return NewMessage(TypeAIResponse, AIResponseData{
		Message:   text,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewAIAudioMessage creates an interviewer audio event from raw audio bytes
func NewAIAudioMessage(audio []byte) (*Message, error) {
	return NewMessage(TypeAIAudio, AIAudioData{
		Audio: base64.StdEncoding.EncodeToString(audio),
	})
}

// NewProcessingErrorMessage creates a pipeline failure event
func NewProcessingErrorMessage(message string, err error) (*Message, error) {
	data := ProcessingErrorData{Message: message}
	if err != nil {
		data.Error = err.Error()
	}
	return NewMessage(TypeProcessingError, data)
}

// NewEvaluationErrorMessage creates an evaluation failure event
func NewEvaluationErrorMessage(errText string) (*Message, error) {
	return NewMessage(TypeEvaluationError, EvaluationErrorData{Error: errText})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetAudioData extracts an audio chunk from a message
func (m *Message) GetAudioData() (*AudioData, error) {
	var data AudioData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeAudio decodes the base64 audio payload
func (a *AudioData) DecodeAudio() ([]byte, error) {
	return base64.StdEncoding.DecodeString(a.Data)
}

// GetTextMessageData extracts a typed message from a message
func (m *Message) GetTextMessageData() (*TextMessageData, error) {
	var data TextMessageData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTranscriptionData extracts transcription data from a message
func (m *Message) GetTranscriptionData() (*TranscriptionData, error) {
	var data TranscriptionData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetAIResponseData extracts an interviewer reply from a message
func (m *Message) GetAIResponseData() (*AIResponseData, error) {
	var data AIResponseData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetAIAudioData extracts interviewer audio from a message
func (m *Message) GetAIAudioData() (*AIAudioData, error) {
	var data AIAudioData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeAudio decodes the base64 audio payload
func (a *AIAudioData) DecodeAudio() ([]byte, error) {
	return base64.StdEncoding.DecodeString(a.Audio)
}

// GetProcessingErrorData extracts a pipeline failure from a message
func (m *Message) GetProcessingErrorData() (*ProcessingErrorData, error) {
	var data ProcessingErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetEvaluationErrorData extracts an evaluation failure from a message
func (m *Message) GetEvaluationErrorData() (*EvaluationErrorData, error) {
	var data EvaluationErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
