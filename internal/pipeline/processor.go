// Package pipeline runs the five-stage per-scene asset pipeline: synthesize
// narration, pad the last scene, transcribe, encode, and acquire the visual
// track. Stages run strictly in order because each depends on the previous
// stage's output. Every transient artifact is registered with the temp
// tracker; release happens at the job boundary.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/justintanner/short-video-maker/internal/domain"
	"github.com/justintanner/short-video-maker/internal/metrics"
	"github.com/justintanner/short-video-maker/internal/storage"
	"github.com/justintanner/short-video-maker/internal/tempfiles"
)

// SceneProcessor produces one SceneResult per SceneSpec.
type SceneProcessor struct {
	synth   Synthesizer
	scribe  Transcriber
	encoder AudioEncoder

	videoGen VideoGenerator
	stock    StockSource

	store   *storage.FileStore
	tracker *tempfiles.Tracker
	metrics *metrics.Recorder
	logger  zerolog.Logger

	publicBaseURL string
	defaultVoice  string
	createRetries int
}

// ProcessorOptions wires a SceneProcessor's collaborators.
type ProcessorOptions struct {
	Synthesizer   Synthesizer
	Transcriber   Transcriber
	Encoder       AudioEncoder
	VideoGen      VideoGenerator
	Stock         StockSource
	Store         *storage.FileStore
	Tracker       *tempfiles.Tracker
	Metrics       *metrics.Recorder
	Logger        zerolog.Logger
	PublicBaseURL string
	DefaultVoice  string
	CreateRetries int
}

// NewSceneProcessor constructs the processor.
func NewSceneProcessor(opts ProcessorOptions) *SceneProcessor {
	return &SceneProcessor{
		synth:         opts.Synthesizer,
		scribe:        opts.Transcriber,
		encoder:       opts.Encoder,
		videoGen:      opts.VideoGen,
		stock:         opts.Stock,
		store:         opts.Store,
		tracker:       opts.Tracker,
		metrics:       opts.Metrics,
		logger:        opts.Logger.With().Str("component", "pipeline").Logger(),
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		defaultVoice:  opts.DefaultVoice,
		createRetries: opts.CreateRetries,
	}
}

// Process runs the five stages for the scene at index. usedStockIDs holds the
// stock video ids consumed by earlier scenes of the same job; the returned id
// is non-empty when this scene consumed one more.
func (p *SceneProcessor) Process(ctx context.Context, job *domain.Job, index int, usedStockIDs map[string]struct{}) (domain.SceneResult, string, error) {
	spec := job.Scenes[index]
	logger := p.logger.With().Str("job_id", job.ID).Int("scene", index).Logger()

	// Stage 1: narration.
	voice := job.Config.Voice
	if voice == "" {
		voice = p.defaultVoice
	}
	audio, duration, err := p.synth.Synthesize(ctx, spec.Text, voice)
	if err != nil {
		return domain.SceneResult{}, "", &domain.StageError{Stage: "synthesize", Err: err}
	}

	// Stage 2: the trailing pad extends the authoritative duration of the
	// last scene, not the audio itself.
	if index == len(job.Scenes)-1 && job.Config.PaddingBackMs > 0 {
		duration += float64(job.Config.PaddingBackMs) / 1000.0
	}

	rawPath, err := p.store.WriteTemp(ctx, job.ID, ".wav", audio)
	if err != nil {
		return domain.SceneResult{}, "", &domain.StageError{Stage: "synthesize", Err: err}
	}
	p.tracker.Register(job.ID, rawPath)

	// Stage 3: normalize, then transcribe. The reserved output path is
	// registered up front; a run that dies after creating the file still
	// gets cleaned up at the job boundary.
	normPath := p.store.NewTempPath(job.ID, ".wav")
	p.tracker.Register(job.ID, normPath)
	if err := p.encoder.Normalize(ctx, rawPath, normPath); err != nil {
		return domain.SceneResult{}, "", &domain.StageError{Stage: "normalize", Err: err}
	}

	captions, err := p.scribe.Transcribe(ctx, normPath)
	if err != nil {
		return domain.SceneResult{}, "", &domain.StageError{Stage: "transcribe", Err: err}
	}

	// Stage 4: distribution encode.
	mp3Path := p.store.NewTempPath(job.ID, ".mp3")
	p.tracker.Register(job.ID, mp3Path)
	if err := p.encoder.Encode(ctx, rawPath, mp3Path); err != nil {
		return domain.SceneResult{}, "", &domain.StageError{Stage: "encode", Err: err}
	}

	// Stage 5: visual track.
	visual, usedStockID, err := p.acquireVisual(ctx, job, spec, duration, usedStockIDs, logger)
	if err != nil {
		return domain.SceneResult{}, "", err
	}

	logger.Info().
		Float64("duration", duration).
		Str("visual", string(visual.Kind)).
		Msg("scene resolved")
	p.metrics.SceneProcessed()

	return domain.SceneResult{
		Captions: captions,
		Audio:    domain.AudioRef{URL: p.publicURL(mp3Path), Duration: duration},
		Visual:   visual,
	}, usedStockID, nil
}

// publicURL maps a temp path to the address collaborators fetch it under.
func (p *SceneProcessor) publicURL(path string) string {
	key, ok := p.store.TempKey(path)
	if !ok {
		return path
	}
	return fmt.Sprintf("%s/api/tmp/%s", p.publicBaseURL, key)
}

// resolveImageURL turns a visual source value into a provider-fetchable URL.
// Values that are already absolute URLs pass through; everything else is
// treated as a temp storage key.
func (p *SceneProcessor) resolveImageURL(value string) string {
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	return fmt.Sprintf("%s/api/tmp/%s", p.publicBaseURL, strings.TrimLeft(value, "/"))
}
