package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// ExecCompositor invokes the external frame compositor as a child process.
// The command receives the composition manifest and the output location; the
// compositor owns everything about rendering, including its own timeouts.
type ExecCompositor struct {
	command string
	logger  zerolog.Logger
}

// NewExecCompositor configures the adapter around the given command line.
func NewExecCompositor(command string, logger zerolog.Logger) *ExecCompositor {
	return &ExecCompositor{
		command: command,
		logger:  logger.With().Str("component", "compositor").Logger(),
	}
}

// Render runs the compositor with the manifest and expects the final video at
// outputPath when the process exits cleanly.
func (c *ExecCompositor) Render(ctx context.Context, manifestPath, outputPath string) error {
	parts := strings.Fields(c.command)
	if len(parts) == 0 {
		return fmt.Errorf("media: compositor command is empty")
	}
	args := append(parts[1:], "--props", manifestPath, "--output", outputPath)

	cmd := exec.CommandContext(ctx, parts[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.logger.Info().Str("manifest", manifestPath).Str("output", outputPath).Msg("rendering composition")
	if err := cmd.Run(); err != nil {
		detail := lastLine(stderr.Bytes())
		if detail != "" {
			return fmt.Errorf("media: compositor failed: %s: %w", detail, err)
		}
		return fmt.Errorf("media: compositor failed: %w", err)
	}
	return nil
}
