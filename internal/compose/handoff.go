// Package compose hands a job's fully resolved scenes to the external frame
// compositor. The core's obligations end at a duration-consistent manifest
// and a music selection; rendering itself is the compositor's business.
package compose

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/justintanner/short-video-maker/internal/domain"
	"github.com/justintanner/short-video-maker/internal/music"
	"github.com/justintanner/short-video-maker/internal/storage"
	"github.com/justintanner/short-video-maker/internal/tempfiles"
)

// Compositor renders a composition manifest into the final video.
type Compositor interface {
	Render(ctx context.Context, manifestPath, outputPath string) error
}

// Handoff builds the composition manifest and drives the compositor.
type Handoff struct {
	music      *music.Library
	compositor Compositor
	store      *storage.FileStore
	tracker    *tempfiles.Tracker
	logger     zerolog.Logger
}

// NewHandoff constructs the handoff adapter.
func NewHandoff(lib *music.Library, compositor Compositor, store *storage.FileStore, tracker *tempfiles.Tracker, logger zerolog.Logger) *Handoff {
	return &Handoff{
		music:      lib,
		compositor: compositor,
		store:      store,
		tracker:    tracker,
		logger:     logger.With().Str("component", "compose").Logger(),
	}
}

// Manifest is the contract handed to the compositor.
type Manifest struct {
	JobID         string               `json:"jobId"`
	Scenes        []domain.SceneResult `json:"scenes"`
	Config        domain.RenderConfig  `json:"config"`
	Orientation   domain.Orientation   `json:"orientation"`
	MusicFile     string               `json:"musicFile"`
	TotalDuration float64              `json:"totalDuration"`
}

// Compose validates scene/result parity, computes the timeline duration,
// selects music, writes the manifest atomically, and invokes the compositor.
// On success the final video exists at the job's deterministic output path.
func (h *Handoff) Compose(ctx context.Context, job *domain.Job) error {
	if len(job.Results) != len(job.Scenes) {
		return fmt.Errorf("compose: %d results for %d scenes", len(job.Results), len(job.Scenes))
	}

	// The trailing pad is already folded into the last scene's authoritative
	// duration, so the timeline is a plain sum.
	var total float64
	for _, result := range job.Results {
		total += result.Audio.Duration
	}

	track, err := h.music.Select(job.Config.MusicMood)
	if err != nil {
		return fmt.Errorf("compose: select music: %w", err)
	}

	manifest := Manifest{
		JobID:         job.ID,
		Scenes:        job.Results,
		Config:        job.Config,
		Orientation:   job.Config.Orientation,
		MusicFile:     track.Path,
		TotalDuration: total,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("compose: marshal manifest: %w", err)
	}

	manifestPath := h.store.NewTempPath(job.ID, ".json")
	h.tracker.Register(job.ID, manifestPath)
	if err := renameio.WriteFile(manifestPath, data, 0o644); err != nil {
		return fmt.Errorf("compose: write manifest: %w", err)
	}

	outputPath := h.store.OutputPath(job.ID)
	h.logger.Info().
		Str("job_id", job.ID).
		Float64("total_duration", total).
		Str("music", track.File).
		Msg("handing off composition")

	if err := h.compositor.Render(ctx, manifestPath, outputPath); err != nil {
		return fmt.Errorf("compose: render: %w", err)
	}
	if !h.store.OutputExists(job.ID) {
		return fmt.Errorf("compose: compositor produced no output for job %s", job.ID)
	}
	return nil
}
