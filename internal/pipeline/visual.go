package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/justintanner/short-video-maker/internal/domain"
	"github.com/justintanner/short-video-maker/internal/providers/kie"
	"github.com/justintanner/short-video-maker/internal/providers/pexels"
)

// acquireVisual resolves the scene's visual track through one of two mutually
// exclusive branches: animating a provided image through the video provider,
// or searching stock footage. The provider branch degrades to the still image
// on provider failure; a content-policy rejection propagates because no
// retry or fallback can make the input acceptable.
func (p *SceneProcessor) acquireVisual(ctx context.Context, job *domain.Job, spec domain.SceneSpec, duration float64, usedStockIDs map[string]struct{}, logger zerolog.Logger) (domain.VisualTrack, string, error) {
	if spec.Visual != nil {
		track, err := p.animateImage(ctx, job, spec, logger)
		return track, "", err
	}
	return p.searchStock(ctx, job, spec, duration, usedStockIDs)
}

func (p *SceneProcessor) animateImage(ctx context.Context, job *domain.Job, spec domain.SceneSpec, logger zerolog.Logger) (domain.VisualTrack, error) {
	startURL := p.resolveImageURL(spec.Visual.Value)
	endURL := startURL
	if spec.EndVisual != nil {
		endURL = p.resolveImageURL(spec.EndVisual.Value)
	}
	prompt := spec.AnimationPrompt
	if prompt == "" {
		prompt = motionPrompt(spec.Text)
	}

	still := domain.VisualTrack{Kind: domain.VisualKindImage, URL: startURL}

	resultURL, err := p.videoGen.Generate(ctx, kie.GenerateRequest{
		Prompt:      prompt,
		ImageURLs:   []string{startURL, endURL},
		AspectRatio: job.Config.Orientation.AspectRatio(),
		MaxRetries:  p.createRetries,
	})
	if err != nil {
		var policy *domain.ContentPolicyError
		if errors.As(err, &policy) {
			return domain.VisualTrack{}, err
		}
		logger.Warn().Err(err).Msg("video generation failed, using still image")
		p.metrics.VisualFallback()
		return still, nil
	}

	// Registered before the download so a partial file from a failed copy
	// is still released with the job.
	dst := p.store.NewTempPath(job.ID, ".mp4")
	p.tracker.Register(job.ID, dst)
	if err := p.videoGen.Download(ctx, resultURL, dst); err != nil {
		return domain.VisualTrack{}, &domain.StageError{Stage: "visual", Err: err}
	}

	return domain.VisualTrack{Kind: domain.VisualKindVideo, URL: p.publicURL(dst)}, nil
}

func (p *SceneProcessor) searchStock(ctx context.Context, job *domain.Job, spec domain.SceneSpec, duration float64, usedStockIDs map[string]struct{}) (domain.VisualTrack, string, error) {
	video, err := p.stock.Search(ctx, pexels.SearchRequest{
		Terms:       spec.SearchTerms,
		MinDuration: duration,
		Orientation: job.Config.Orientation,
		ExcludeIDs:  usedStockIDs,
	})
	if err != nil {
		return domain.VisualTrack{}, "", &domain.StageError{Stage: "stock-search", Err: err}
	}

	dst := p.store.NewTempPath(job.ID, ".mp4")
	p.tracker.Register(job.ID, dst)
	if err := p.stock.Download(ctx, video.URL, dst); err != nil {
		return domain.VisualTrack{}, "", &domain.StageError{Stage: "stock-download", Err: err}
	}

	return domain.VisualTrack{Kind: domain.VisualKindVideo, URL: p.publicURL(dst)}, video.ID, nil
}
