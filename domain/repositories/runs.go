package repositories

import (
	"context"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
)

// RunRepository stores pipeline run records
type RunRepository interface {
	Create(ctx context.Context, run *entities.TranslationRun) error
	Update(ctx context.Context, run *entities.TranslationRun) error
	GetByID(ctx context.Context, id string) (*entities.TranslationRun, error)
	ListRecent(ctx context.Context, limit int) ([]*entities.TranslationRun, error)
}
