package translate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
)

// MockTranslate is a placeholder translator for local development; it tags
// the text with the pair instead of translating
type MockTranslate struct {
	logger *zap.Logger
}

// NewMockTranslate creates a new mock translator
func NewMockTranslate(logger *zap.Logger) repositories.Translator {
	return &MockTranslate{logger: logger}
}

// Translate implements repositories.Translator
func (m *MockTranslate) Translate(ctx context.Context, text string, source, target entities.Language) (string, error) {
	m.logger.Info("Processing mock translation",
		zap.String("source", string(source)),
		zap.String("target", string(target)))
	if source == target {
		return text, nil
	}
	return fmt.Sprintf("[%s->%s] %s", source, target, text), nil
}
