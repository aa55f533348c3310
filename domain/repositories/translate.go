package repositories

import (
	"context"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
)

// Translator abstracts a machine translation backend for a single
// source/target pair. Pivot routing through English is the caller's concern.
type Translator interface {
	Translate(ctx context.Context, text string, source, target entities.Language) (string, error)
}
