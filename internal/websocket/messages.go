package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeListeningStart MessageType = "listening_start"
	MessageTypeListeningEnd   MessageType = "listening_end"
	MessageTypeResult         MessageType = "result"
	MessageTypeSpeakingStart  MessageType = "speaking_start"
	MessageTypeSpeakingEnd    MessageType = "speaking_end"
	MessageTypePing           MessageType = "ping"
	MessageTypePong           MessageType = "pong"
	MessageTypeError          MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id,omitempty"`
}

// ListeningStartMessage opens a microphone capture session
type ListeningStartMessage struct {
	BaseMessage
	Language    string `json:"language"`
	TranslateTo string `json:"translate_to,omitempty"`
	SampleRate  int    `json:"sample_rate,omitempty"`
	Encoding    string `json:"encoding,omitempty"`
	Synthesize  bool   `json:"synthesize,omitempty"`
}

// ListeningEndMessage closes a capture session and requests results
type ListeningEndMessage struct {
	BaseMessage
}

// ResultMessage carries the transcript and optional translation back to the
// client. Warning is set when speech synthesis was requested but is not
// available for the target language.
type ResultMessage struct {
	BaseMessage
	RunID       string  `json:"run_id"`
	Transcript  string  `json:"transcript"`
	Translation string  `json:"translation,omitempty"`
	Duration    float64 `json:"duration_seconds,omitempty"`
	Warning     string  `json:"warning,omitempty"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming message
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	// First parse as base message to get type
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeListeningStart:
		var msg ListeningStartMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid listening_start message: %w", err)
		}
		if err := v.validateListeningStart(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypeListeningEnd:
		var msg ListeningEndMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid listening_end message: %w", err)
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// validateListeningStart validates capture session parameters
func (v *MessageValidator) validateListeningStart(msg *ListeningStartMessage) error {
	if msg.Language == "" {
		return fmt.Errorf("language is required")
	}
	if !entities.Language(msg.Language).IsSupported() {
		return fmt.Errorf("unsupported language code: %s", msg.Language)
	}
	if msg.TranslateTo != "" && !entities.Language(msg.TranslateTo).IsSupported() {
		return fmt.Errorf("unsupported language code: %s", msg.TranslateTo)
	}
	if msg.SampleRate != 0 && (msg.SampleRate < 8000 || msg.SampleRate > 48000) {
		return fmt.Errorf("sample_rate must be between 8000 and 48000")
	}
	if msg.Encoding != "" {
		validEncodings := map[string]bool{
			"pcm": true, "wav": true, "opus": true,
		}
		if !validEncodings[msg.Encoding] {
			return fmt.Errorf("encoding must be one of: pcm, wav, opus")
		}
	}
	return nil
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message, details string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Code:    code,
		Message: message,
		Details: details,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePong,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Data: data,
	}
}
