// Package tts calls a Kokoro-compatible speech synthesis sidecar.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/justintanner/short-video-maker/internal/infra"
	"github.com/justintanner/short-video-maker/internal/media"
)

// Voices enumerates the synthesis voices the sidecar ships with.
var Voices = []string{
	"af_heart", "af_alloy", "af_bella", "af_nova", "af_sky",
	"am_adam", "am_echo", "am_liam", "am_onyx",
	"bf_alice", "bf_emma", "bm_daniel", "bm_george",
}

// Options configures the synthesis client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs HTTP calls to the speech synthesis service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed,omitempty"`
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8880"
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "tts").Logger()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// Synthesize renders text with the requested voice and returns WAV bytes plus
// the audio duration in seconds.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, 0, fmt.Errorf("tts: text is required")
	}

	payload := speechRequest{
		Model:          "kokoro",
		Input:          text,
		Voice:          voice,
		ResponseFormat: "wav",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("tts: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("tts: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("tts: synthesize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, 0, fmt.Errorf("tts: synthesize: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("tts: read audio: %w", err)
	}

	duration, err := media.WavDuration(audio)
	if err != nil {
		return nil, 0, fmt.Errorf("tts: probe duration: %w", err)
	}

	c.logger.Debug().Str("voice", voice).Float64("duration", duration).Msg("narration synthesized")
	return audio, duration, nil
}
