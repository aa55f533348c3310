package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
)

var (
	whitespaceRuns   = regexp.MustCompile(`\s+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([,.!?;:])`)
)

// PivotTranslator translates text between any two supported languages by
// always routing through English, since the backend's direct pair coverage
// is unreliable.
type PivotTranslator struct {
	backend repositories.Translator
	logger  *zap.Logger
}

// NewPivotTranslator creates a new pivot translator over the given backend
func NewPivotTranslator(backend repositories.Translator, logger *zap.Logger) *PivotTranslator {
	return &PivotTranslator{
		backend: backend,
		logger:  logger,
	}
}

// TranslateViaEnglish translates text from source to target through the
// English pivot. Empty or whitespace-only input returns "" without touching
// the backend. A backend failure on either leg is returned as an error
// naming the leg, never silently converted to an empty result.
func (t *PivotTranslator) TranslateViaEnglish(ctx context.Context, text string, source, target entities.Language) (string, error) {
	if err := source.Validate(); err != nil {
		return "", fmt.Errorf("invalid source language: %w", err)
	}
	if err := target.Validate(); err != nil {
		return "", fmt.Errorf("invalid target language: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	if source != entities.LanguageEnglish {
		translated, err := t.backend.Translate(ctx, text, source, entities.LanguageEnglish)
		if err != nil {
			return "", fmt.Errorf("translation %s->en failed: %w", source, err)
		}
		text = translated
	}

	if target != entities.LanguageEnglish {
		translated, err := t.backend.Translate(ctx, text, entities.LanguageEnglish, target)
		if err != nil {
			return "", fmt.Errorf("translation en->%s failed: %w", target, err)
		}
		text = translated
	}

	result := cleanTranslation(text)

	t.logger.Debug("Translation completed",
		zap.String("source", string(source)),
		zap.String("target", string(target)),
		zap.Int("length", len(result)))

	return result, nil
}

// cleanTranslation collapses whitespace runs, trims the ends, and removes
// stray spaces the backend sometimes inserts before punctuation.
func cleanTranslation(text string) string {
	text = whitespaceRuns.ReplaceAllString(text, " ")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
