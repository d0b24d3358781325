// Package kie calls the kie.ai generative-video API: one create-task request
// followed by bounded status polling. Submission failures classified as
// transient are retried with exponential backoff by creating a brand-new
// task; a task that reports failure is terminal and never re-polled.
package kie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/justintanner/short-video-maker/internal/domain"
	"github.com/justintanner/short-video-maker/internal/infra"
	"github.com/justintanner/short-video-maker/internal/metrics"
	"github.com/justintanner/short-video-maker/internal/poll"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("kie: api key is required")

const (
	createPath = "/api/v1/veo/generate"
	statusPath = "/api/v1/veo/record-info"
)

// Options configures the kie.ai client.
type Options struct {
	APIKey          string
	BaseURL         string
	Model           string
	HTTPClient      *http.Client
	Logger          *infra.Logger
	Metrics         *metrics.Recorder
	BackoffBase     time.Duration
	BackoffCap      time.Duration
	PollInterval    time.Duration
	PollMaxAttempts int
}

// Client performs HTTP calls to the kie.ai video generation API.
type Client struct {
	apiKey          string
	baseURL         string
	model           string
	httpClient      *http.Client
	logger          zerolog.Logger
	metrics         *metrics.Recorder
	backoffBase     time.Duration
	backoffCap      time.Duration
	pollInterval    time.Duration
	pollMaxAttempts int
}

// GenerateRequest captures the inputs for one video generation.
type GenerateRequest struct {
	Prompt string
	// ImageURLs are provider-fetchable references: the start frame and,
	// optionally, the end frame.
	ImageURLs   []string
	AspectRatio string
	Model       string
	// MaxRetries bounds how many times a transient submission failure is
	// retried. The total number of create attempts is MaxRetries+1.
	MaxRetries int
}

type createRequest struct {
	Prompt            string   `json:"prompt"`
	ImageURLs         []string `json:"imageUrls,omitempty"`
	Model             string   `json:"model"`
	GenerationType    string   `json:"generationType"`
	AspectRatio       string   `json:"aspectRatio"`
	EnableTranslation bool     `json:"enableTranslation"`
}

type createResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type recordResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID      string `json:"taskId"`
		SuccessFlag int    `json:"successFlag"`
		Response    *struct {
			ResultURLs []string `json:"resultUrls"`
		} `json:"response,omitempty"`
		ErrorMessage string `json:"errorMessage,omitempty"`
	} `json:"data"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.kie.ai"
	}
	model := opts.Model
	if model == "" {
		model = "veo3_fast"
	}
	backoffBase := opts.BackoffBase
	if backoffBase <= 0 {
		backoffBase = 2 * time.Second
	}
	backoffCap := opts.BackoffCap
	if backoffCap <= 0 {
		backoffCap = 30 * time.Second
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	pollMaxAttempts := opts.PollMaxAttempts
	if pollMaxAttempts <= 0 {
		pollMaxAttempts = 60
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "kie").Logger()
	}

	return &Client{
		apiKey:          strings.TrimSpace(opts.APIKey),
		baseURL:         baseURL,
		model:           model,
		httpClient:      httpClient,
		logger:          logger,
		metrics:         opts.Metrics,
		backoffBase:     backoffBase,
		backoffCap:      backoffCap,
		pollInterval:    pollInterval,
		pollMaxAttempts: pollMaxAttempts,
	}, nil
}

// Generate submits a video generation task, waits for it to turn terminal,
// and returns the result URL. Transient submission failures are resubmitted
// from scratch up to req.MaxRetries times.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	var taskID string
	for attempt := 0; ; attempt++ {
		id, err := c.createTask(ctx, req)
		if err == nil {
			taskID = id
			c.metrics.ProviderCreateAttempt("accepted")
			break
		}
		c.metrics.ProviderCreateAttempt("failed")
		if !retryable(err) || attempt >= req.MaxRetries {
			return "", err
		}
		delay := backoffDelay(c.backoffBase, c.backoffCap, attempt)
		c.logger.Warn().Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("task submission failed, retrying")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	c.logger.Info().Str("task_id", taskID).Msg("task accepted, polling")
	return c.awaitResult(ctx, taskID, req.Prompt)
}

func (c *Client) createTask(ctx context.Context, req GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	generationType := "t2v"
	if len(req.ImageURLs) > 0 {
		generationType = "i2v"
	}
	payload := createRequest{
		Prompt:            req.Prompt,
		ImageURLs:         req.ImageURLs,
		Model:             model,
		GenerationType:    generationType,
		AspectRatio:       req.AspectRatio,
		EnableTranslation: true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("kie: marshal create request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("kie: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("kie: submit task: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("kie: read create response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyCreateFailure(resp.StatusCode, 0, strings.TrimSpace(string(raw)), req.Prompt)
	}

	var decoded createResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("kie: decode create response: %w", err)
	}
	if decoded.Code != http.StatusOK {
		return "", classifyCreateFailure(decoded.Code, decoded.Code, decoded.Msg, req.Prompt)
	}
	if decoded.Data.TaskID == "" {
		return "", &domain.ProviderRequestError{
			HTTPStatus:      resp.StatusCode,
			ProviderMessage: "response carried no task id",
			Prompt:          req.Prompt,
		}
	}
	return decoded.Data.TaskID, nil
}

// awaitResult polls the task until it succeeds, fails, or the attempt bound
// is hit. Transport failures during polling are transient and do not abort
// the wait; 401/403/429 are permanent.
func (c *Client) awaitResult(ctx context.Context, taskID, prompt string) (string, error) {
	cfg := poll.Config{Interval: c.pollInterval, MaxAttempts: c.pollMaxAttempts}
	url, attempts, err := poll.Run(ctx, cfg, c.logger, func(ctx context.Context, attempt int) (string, poll.Status, error) {
		c.metrics.ProviderPollAttempt()
		return c.checkTask(ctx, taskID, prompt)
	})
	if err != nil {
		if errors.Is(err, poll.ErrExhausted) {
			return "", &domain.ProviderTimeoutError{TaskID: taskID, Attempts: attempts}
		}
		return "", err
	}
	c.logger.Info().Str("task_id", taskID).Int("polls", attempts).Msg("task succeeded")
	return url, nil
}

func (c *Client) checkTask(ctx context.Context, taskID, prompt string) (string, poll.Status, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statusPath+"?taskId="+taskID, nil)
	if err != nil {
		return "", poll.StatusPending, fmt.Errorf("kie: status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", poll.StatusPending, fmt.Errorf("kie: poll task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		requestErr := &domain.ProviderRequestError{
			HTTPStatus:      resp.StatusCode,
			ProviderMessage: strings.TrimSpace(string(raw)),
			Prompt:          prompt,
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
			return "", poll.StatusPending, poll.Permanent(requestErr)
		}
		return "", poll.StatusPending, requestErr
	}

	var decoded recordResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", poll.StatusPending, fmt.Errorf("kie: decode status response: %w", err)
	}

	switch decoded.Data.SuccessFlag {
	case 0:
		return "", poll.StatusPending, nil
	case 1:
		if decoded.Data.Response == nil || len(decoded.Data.Response.ResultURLs) == 0 {
			return "", poll.StatusPending, poll.Permanent(&domain.ProviderRequestError{
				HTTPStatus:      0,
				ProviderCode:    decoded.Code,
				ProviderMessage: "task succeeded without result urls",
				Prompt:          prompt,
			})
		}
		return decoded.Data.Response.ResultURLs[0], poll.StatusDone, nil
	default:
		message := decoded.Data.ErrorMessage
		if message == "" {
			message = decoded.Msg
		}
		if domain.IsContentPolicyMessage(message) {
			return "", poll.StatusPending, poll.Permanent(&domain.ContentPolicyError{
				ProviderMessage: message,
				Prompt:          prompt,
			})
		}
		return "", poll.StatusPending, poll.Permanent(&domain.ProviderRequestError{
			HTTPStatus:      0,
			ProviderCode:    decoded.Code,
			ProviderMessage: message,
			Prompt:          prompt,
		})
	}
}

// Download fetches a result video into dst.
func (c *Client) Download(ctx context.Context, url, dst string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("kie: download request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("kie: download result: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kie: download result: status %d", resp.StatusCode)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("kie: create download target: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("kie: write download: %w", err)
	}
	return out.Close()
}

// classifyCreateFailure turns a non-success create response into the right
// error kind. Content-policy phrasing wins over status-based classification.
func classifyCreateFailure(httpStatus, providerCode int, message, prompt string) error {
	if domain.IsContentPolicyMessage(message) {
		return &domain.ContentPolicyError{ProviderMessage: message, Prompt: prompt}
	}
	return &domain.ProviderRequestError{
		HTTPStatus:      httpStatus,
		ProviderCode:    providerCode,
		ProviderMessage: message,
		Prompt:          prompt,
	}
}

func retryable(err error) bool {
	var request *domain.ProviderRequestError
	if errors.As(err, &request) {
		return request.Retryable()
	}
	var policy *domain.ContentPolicyError
	if errors.As(err, &policy) {
		return false
	}
	// Transport-level submission failures are worth a fresh attempt.
	return true
}

func backoffDelay(base, maxDelay time.Duration, attempt int) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}
