package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
)

// RunRepository is an in-memory run store, the default when no MongoDB is
// configured. Records do not survive a restart.
type RunRepository struct {
	mu   sync.RWMutex
	runs map[string]*entities.TranslationRun
}

var _ repositories.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new in-memory run repository
func NewRunRepository() *RunRepository {
	return &RunRepository{
		runs: make(map[string]*entities.TranslationRun),
	}
}

// Create implements repositories.RunRepository
func (r *RunRepository) Create(ctx context.Context, run *entities.TranslationRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if err := run.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; exists {
		return fmt.Errorf("run with ID %s already exists", run.ID)
	}

	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

// Update implements repositories.RunRepository
func (r *RunRepository) Update(ctx context.Context, run *entities.TranslationRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if run.ID == "" {
		return errors.New("run ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; !exists {
		return fmt.Errorf("run with ID %s not found", run.ID)
	}

	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

// GetByID implements repositories.RunRepository
func (r *RunRepository) GetByID(ctx context.Context, id string) (*entities.TranslationRun, error) {
	if id == "" {
		return nil, errors.New("run ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[id]
	if !exists {
		return nil, nil
	}

	copied := *run
	return &copied, nil
}

// ListRecent implements repositories.RunRepository
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*entities.TranslationRun, error) {
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]*entities.TranslationRun, 0, len(r.runs))
	for _, run := range r.runs {
		copied := *run
		runs = append(runs, &copied)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
