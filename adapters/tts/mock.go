package tts

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
)

// MockTextToSpeech is a placeholder synthesizer for local development. It
// mirrors the real adapter's language coverage so the unsupported-language
// warning path stays exercised.
type MockTextToSpeech struct {
	logger *zap.Logger
}

// NewMockTextToSpeech creates a new mock text-to-speech service
func NewMockTextToSpeech(logger *zap.Logger) repositories.TextToSpeech {
	return &MockTextToSpeech{logger: logger}
}

// Synthesize implements repositories.TextToSpeech
func (m *MockTextToSpeech) Synthesize(ctx context.Context, text string, language entities.Language) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if !synthesisLanguages[language] {
		return nil, fmt.Errorf("%w: %s", repositories.ErrSynthesisUnsupported, language.Name())
	}

	m.logger.Info("Processing mock text-to-speech",
		zap.String("language", string(language)),
		zap.Int("textLength", len(text)))

	// A fake MP3 frame header followed by padding, enough for callers that
	// only check for non-empty audio
	data := make([]byte, 512)
	copy(data, []byte{0xFF, 0xFB, 0x90, 0x00})
	return data, nil
}
