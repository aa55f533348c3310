package api

import "time"

// TranslateRequest represents the request payload for text translation
type TranslateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// TranslateResponse represents the response payload for text translation
type TranslateResponse struct {
	RunID       string `json:"run_id"`
	Translation string `json:"translation"`
}

// SpeechRequest represents the request payload for speech synthesis
type SpeechRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// WarningResponse reports a request that completed without output, such as
// synthesis for an unsupported language
type WarningResponse struct {
	Warning string `json:"warning"`
}

// LanguageInfo describes one supported language
type LanguageInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// StreamSessionResponse represents the response payload for a new
// microphone streaming session
type StreamSessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
