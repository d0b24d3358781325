// Package media shells out to ffmpeg for the audio conversions the pipeline
// needs and adapts the external compositor command. Neither tool's behavior
// is owned here; failures surface unmodified to the job boundary.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
)

// FFmpeg wraps the ffmpeg binary for audio normalization and encoding.
type FFmpeg struct {
	path   string
	logger zerolog.Logger
}

// NewFFmpeg configures the adapter. path defaults to "ffmpeg" on $PATH.
func NewFFmpeg(path string, logger zerolog.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{
		path:   path,
		logger: logger.With().Str("component", "ffmpeg").Logger(),
	}
}

// Normalize converts src into canonical lossless form: 16 kHz mono pcm wav,
// the input format the transcriber expects.
func (f *FFmpeg) Normalize(ctx context.Context, src, dst string) error {
	return f.run(ctx, "-y", "-i", src, "-ar", "16000", "-ac", "1", "-c:a", "pcm_s16le", dst)
}

// Encode compresses src into mp3 for distribution.
func (f *FFmpeg) Encode(ctx context.Context, src, dst string) error {
	return f.run(ctx, "-y", "-i", src, "-codec:a", "libmp3lame", "-qscale:a", "4", dst)
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, f.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger.Debug().Strs("args", args).Msg("running ffmpeg")
	if err := cmd.Run(); err != nil {
		detail := lastLine(stderr.Bytes())
		if detail != "" {
			return fmt.Errorf("media: ffmpeg failed: %s: %w", detail, err)
		}
		return fmt.Errorf("media: ffmpeg failed: %w", err)
	}
	return nil
}

func lastLine(out []byte) string {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}
