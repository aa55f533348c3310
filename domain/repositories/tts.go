package repositories

import (
	"context"
	"errors"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
)

// ErrSynthesisUnsupported signals that the backend has no voice for the
// requested language. Callers downgrade this to a warning rather than a
// hard failure.
var ErrSynthesisUnsupported = errors.New("speech synthesis not supported for this language")

// TextToSpeech abstracts speech synthesis services. Synthesize returns a
// complete MP3 buffer for the given text and target language.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text string, language entities.Language) ([]byte, error)
}
