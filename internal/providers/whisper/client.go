// Package whisper calls a whisper.cpp server sidecar to transcribe narration
// audio into word-level caption spans.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/justintanner/short-video-maker/internal/domain"
	"github.com/justintanner/short-video-maker/internal/infra"
)

// Options configures the transcription client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs HTTP calls to the whisper server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

type inferenceResponse struct {
	Transcription []struct {
		Text    string `json:"text"`
		Offsets struct {
			From int `json:"from"`
			To   int `json:"to"`
		} `json:"offsets"`
	} `json:"transcription"`
	Error string `json:"error,omitempty"`
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 300 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8178"
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "whisper").Logger()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// Transcribe uploads the normalized wav at audioPath and returns word-level
// caption spans with millisecond offsets.
func (c *Client) Transcribe(ctx context.Context, audioPath string) ([]domain.Caption, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: open audio: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("whisper: build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("whisper: copy audio: %w", err)
	}
	for key, value := range map[string]string{
		"response_format":  "verbose_json",
		"token_timestamps": "true",
		"split_on_word":    "true",
	} {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("whisper: build form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("whisper: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inference", &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper: transcribe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("whisper: transcribe: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var decoded inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("whisper: decode response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("whisper: transcribe: %s", decoded.Error)
	}

	captions := make([]domain.Caption, 0, len(decoded.Transcription))
	for _, segment := range decoded.Transcription {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		captions = append(captions, domain.Caption{
			Text:    text,
			StartMs: segment.Offsets.From,
			EndMs:   segment.Offsets.To,
		})
	}

	c.logger.Debug().Int("spans", len(captions)).Msg("audio transcribed")
	return captions, nil
}
