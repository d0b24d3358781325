package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/justintanner/short-video-maker/internal/compose"
	"github.com/justintanner/short-video-maker/internal/domain"
)

// Runner drives one job end to end: scenes strictly in list order, then the
// composition handoff. Results are appended in scene order; the stock ids
// consumed so far feed each later scene's exclusion set.
type Runner struct {
	scenes  *SceneProcessor
	handoff *compose.Handoff
	logger  zerolog.Logger
}

// NewRunner constructs the per-job runner.
func NewRunner(scenes *SceneProcessor, handoff *compose.Handoff, logger zerolog.Logger) *Runner {
	return &Runner{
		scenes:  scenes,
		handoff: handoff,
		logger:  logger.With().Str("component", "runner").Logger(),
	}
}

// Process resolves every scene and hands the job to the compositor. Any
// stage failure aborts the job; classification into a JobError happens at
// the queue boundary.
func (r *Runner) Process(ctx context.Context, job *domain.Job) error {
	usedStockIDs := make(map[string]struct{})
	job.Results = job.Results[:0]

	for index := range job.Scenes {
		result, usedStockID, err := r.scenes.Process(ctx, job, index, usedStockIDs)
		if err != nil {
			return err
		}
		if usedStockID != "" {
			usedStockIDs[usedStockID] = struct{}{}
		}
		job.Results = append(job.Results, result)
	}

	return r.handoff.Compose(ctx, job)
}
