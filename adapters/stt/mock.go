package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
)

// MockSpeechToText is a placeholder implementation for local development
// without speech credentials
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	return &MockSpeechToText{logger: logger}
}

// TranscribeAudio implements repositories.SpeechToText
func (s *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	s.logger.Info("Processing mock speech-to-text",
		zap.Int("audioSize", len(audioData)),
		zap.String("language", string(config.Language)))

	// Mock transcription based on audio size
	switch {
	case len(audioData) > 100000:
		return "This is a longer sample transcription produced by the mock backend.", nil
	case len(audioData) > 10000:
		return "This is a sample transcription.", nil
	default:
		return "Hello.", nil
	}
}

// InitTranscribeStreaming creates a new mock streaming session
func (s *MockSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	s.logger.Info("Initializing mock streaming transcription",
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding),
		zap.String("language", string(config.Language)))

	return &mockStream{parent: s, config: config}, nil
}

type mockStream struct {
	parent   *MockSpeechToText
	config   repositories.AudioConfig
	received int
}

func (m *mockStream) Stream(data []byte) error {
	m.received += len(data)
	return nil
}

func (m *mockStream) End() (string, error) {
	if m.received == 0 {
		return "", fmt.Errorf("no audio data received")
	}
	return m.parent.TranscribeAudio(context.Background(), make([]byte, m.received), m.config)
}
