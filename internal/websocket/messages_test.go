package websocket

import (
	"testing"
)

func TestMessageValidator_ListeningStart(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{
			name: "valid minimal",
			message: `{
				"type": "listening_start",
				"language": "en"
			}`,
			wantErr: false,
		},
		{
			name: "valid full",
			message: `{
				"type": "listening_start",
				"language": "hi",
				"translate_to": "ta",
				"sample_rate": 16000,
				"encoding": "pcm",
				"synthesize": true
			}`,
			wantErr: false,
		},
		{
			name: "missing language",
			message: `{
				"type": "listening_start"
			}`,
			wantErr: true,
		},
		{
			name: "unsupported language",
			message: `{
				"type": "listening_start",
				"language": "xx"
			}`,
			wantErr: true,
		},
		{
			name: "unsupported translate target",
			message: `{
				"type": "listening_start",
				"language": "en",
				"translate_to": "zz"
			}`,
			wantErr: true,
		},
		{
			name: "sample rate too low",
			message: `{
				"type": "listening_start",
				"language": "en",
				"sample_rate": 4000
			}`,
			wantErr: true,
		},
		{
			name: "sample rate too high",
			message: `{
				"type": "listening_start",
				"language": "en",
				"sample_rate": 96000
			}`,
			wantErr: true,
		},
		{
			name: "invalid encoding",
			message: `{
				"type": "listening_start",
				"language": "en",
				"encoding": "flac"
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := validator.ValidateMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if _, ok := msg.(*ListeningStartMessage); !ok {
					t.Errorf("Expected *ListeningStartMessage, got %T", msg)
				}
			}
		})
	}
}

func TestMessageValidator_ListeningEnd(t *testing.T) {
	validator := NewMessageValidator()

	msg, err := validator.ValidateMessage([]byte(`{"type": "listening_end"}`))
	if err != nil {
		t.Fatalf("ValidateMessage failed: %v", err)
	}
	if _, ok := msg.(*ListeningEndMessage); !ok {
		t.Errorf("Expected *ListeningEndMessage, got %T", msg)
	}
}

func TestMessageValidator_Ping(t *testing.T) {
	validator := NewMessageValidator()

	msg, err := validator.ValidateMessage([]byte(`{"type": "ping", "data": "heartbeat"}`))
	if err != nil {
		t.Fatalf("ValidateMessage failed: %v", err)
	}
	ping, ok := msg.(*PingMessage)
	if !ok {
		t.Fatalf("Expected *PingMessage, got %T", msg)
	}
	if ping.Data != "heartbeat" {
		t.Errorf("Expected heartbeat data, got %q", ping.Data)
	}
}

func TestMessageValidator_Rejections(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name    string
		message string
	}{
		{"not json", `not json at all`},
		{"unknown type", `{"type": "launch_missiles"}`},
		{"result is server-to-client only", `{"type": "result"}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := validator.ValidateMessage([]byte(tt.message)); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestCreateErrorMessage(t *testing.T) {
	msg := CreateErrorMessage("bad_audio", "clip rejected", "audio too short")

	if msg.Type != MessageTypeError {
		t.Errorf("Expected error type, got %s", msg.Type)
	}
	if msg.Code != "bad_audio" {
		t.Errorf("Expected code bad_audio, got %s", msg.Code)
	}
	if msg.Message != "clip rejected" {
		t.Errorf("Expected message, got %s", msg.Message)
	}
	if msg.Timestamp == "" {
		t.Error("Expected timestamp to be set")
	}
}

func TestCreatePongMessage(t *testing.T) {
	msg := CreatePongMessage("heartbeat")

	if msg.Type != MessageTypePong {
		t.Errorf("Expected pong type, got %s", msg.Type)
	}
	if msg.Data != "heartbeat" {
		t.Errorf("Expected heartbeat data, got %s", msg.Data)
	}
}
