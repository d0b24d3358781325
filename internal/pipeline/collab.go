package pipeline

import (
	"context"

	"github.com/justintanner/short-video-maker/internal/domain"
	"github.com/justintanner/short-video-maker/internal/providers/kie"
	"github.com/justintanner/short-video-maker/internal/providers/pexels"
)

// Synthesizer renders narration text into a decodable audio stream and
// reports its duration in seconds.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, float64, error)
}

// Transcriber converts normalized narration audio into word-level caption
// spans.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]domain.Caption, error)
}

// AudioEncoder performs the two audio conversions the pipeline needs.
type AudioEncoder interface {
	Normalize(ctx context.Context, src, dst string) error
	Encode(ctx context.Context, src, dst string) error
}

// VideoGenerator is the external generative-video provider.
type VideoGenerator interface {
	Generate(ctx context.Context, req kie.GenerateRequest) (string, error)
	Download(ctx context.Context, url, dst string) error
}

// StockSource finds and downloads stock footage.
type StockSource interface {
	Search(ctx context.Context, req pexels.SearchRequest) (pexels.Video, error)
	Download(ctx context.Context, url, dst string) error
}
