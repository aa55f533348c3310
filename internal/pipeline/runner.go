package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
)

// State holds the shared data for a pipeline execution
type State map[string]interface{}

// String returns the string stored under key, or "" when absent.
func (s State) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// Step is a single stage of a pipeline run. Cleanup, when set, is executed
// after the run finishes regardless of outcome; cleanups of started steps
// run in reverse order.
type Step struct {
	Name    string
	Run     func(ctx context.Context, state State) error
	Cleanup func(state State)
}

// Runner executes pipeline steps sequentially with per-stage timing
type Runner struct {
	logger *zap.Logger
}

// NewRunner creates a new pipeline runner
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{logger: logger}
}

// Execute runs the steps in order, stopping at the first failure. It returns
// the stage records for every step that started, and the failing step's
// error. All registered cleanups of started steps run before Execute
// returns, on success and failure alike.
func (r *Runner) Execute(ctx context.Context, steps []Step, state State) ([]entities.StageRecord, error) {
	records := make([]entities.StageRecord, 0, len(steps))
	var cleanups []func(State)
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i](state)
		}
	}()

	for _, step := range steps {
		if step.Cleanup != nil {
			cleanups = append(cleanups, step.Cleanup)
		}

		rec := entities.StageRecord{
			Name:      step.Name,
			StartedAt: time.Now(),
		}

		err := step.Run(ctx, state)
		rec.FinishedAt = time.Now()

		if err != nil {
			rec.Error = err.Error()
			records = append(records, rec)
			r.logger.Error("Pipeline step failed",
				zap.String("step", step.Name),
				zap.Error(err))
			return records, err
		}

		records = append(records, rec)
		r.logger.Debug("Pipeline step completed",
			zap.String("step", step.Name),
			zap.Duration("took", rec.FinishedAt.Sub(rec.StartedAt)))
	}

	return records, nil
}
