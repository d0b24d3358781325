// Package tempfiles tracks transient artifacts produced while a job runs and
// guarantees their removal when the job terminates, whatever the outcome.
package tempfiles

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Tracker records temp file paths per owning job. Paths registered under one
// job are never touched by another job's release.
type Tracker struct {
	mu     sync.Mutex
	byJob  map[string][]string
	logger zerolog.Logger
}

// NewTracker constructs an empty tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		byJob:  make(map[string][]string),
		logger: logger.With().Str("component", "tempfiles").Logger(),
	}
}

// Register records path as owned by jobID.
func (t *Tracker) Register(jobID, path string) {
	if jobID == "" || path == "" {
		return
	}
	t.mu.Lock()
	t.byJob[jobID] = append(t.byJob[jobID], path)
	t.mu.Unlock()
}

// ReleaseAll removes every path registered for jobID. Already-missing files
// are tolerated, and releasing a job that was already released is a no-op.
func (t *Tracker) ReleaseAll(jobID string) {
	t.mu.Lock()
	paths := t.byJob[jobID]
	delete(t.byJob, jobID)
	t.mu.Unlock()

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			t.logger.Warn().Err(err).Str("job_id", jobID).Str("path", path).Msg("failed to remove temp file")
			continue
		}
		t.logger.Debug().Str("job_id", jobID).Str("path", path).Msg("removed temp file")
	}
}

// Count returns how many paths are currently registered for jobID.
func (t *Tracker) Count(jobID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byJob[jobID])
}
