// Package pexels finds and downloads stock footage for scenes without an
// explicit visual. Selection honors the scene's audio duration, the job's
// orientation, and the ids already used by earlier scenes in the same job.
package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/justintanner/short-video-maker/internal/domain"
	"github.com/justintanner/short-video-maker/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("pexels: api key is required")

// ErrNoMatch indicates that no candidate satisfied the search constraints.
var ErrNoMatch = errors.New("pexels: no matching video")

const searchPageSize = 25

// Options configures the stock footage client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs HTTP calls to the Pexels video API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// SearchRequest captures the constraints for one footage lookup.
type SearchRequest struct {
	Terms       []string
	MinDuration float64
	Orientation domain.Orientation
	// ExcludeIDs holds video ids already used by earlier scenes of the job.
	ExcludeIDs map[string]struct{}
}

// Video is the selected stock footage reference.
type Video struct {
	ID  string
	URL string
}

type searchResponse struct {
	Videos []struct {
		ID         int     `json:"id"`
		Duration   float64 `json:"duration"`
		VideoFiles []struct {
			FileType string `json:"file_type"`
			Width    int    `json:"width"`
			Height   int    `json:"height"`
			Link     string `json:"link"`
		} `json:"video_files"`
	} `json:"videos"`
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
		baseURL = "https://api.pexels.com"
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "pexels").Logger()
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Search returns a video matching the request, preferring candidates at
// least as long as the scene's audio and never reusing an excluded id.
func (c *Client) Search(ctx context.Context, req SearchRequest) (Video, error) {
	query := strings.TrimSpace(strings.Join(req.Terms, " "))
	if query == "" {
		query = "nature"
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("orientation", string(req.Orientation))
	params.Set("per_page", strconv.Itoa(searchPageSize))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/search?"+params.Encode(), nil)
	if err != nil {
		return Video{}, fmt.Errorf("pexels: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Video{}, fmt.Errorf("pexels: search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Video{}, fmt.Errorf("pexels: search: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Video{}, fmt.Errorf("pexels: decode search response: %w", err)
	}

	selected, ok := pickVideo(decoded, req)
	if !ok {
		return Video{}, fmt.Errorf("%w for %q", ErrNoMatch, query)
	}

	c.logger.Debug().Str("video_id", selected.ID).Str("query", query).Msg("stock footage selected")
	return selected, nil
}

// pickVideo prefers the first candidate covering the audio duration and falls
// back to the longest remaining one. Excluded ids are never picked.
func pickVideo(decoded searchResponse, req SearchRequest) (Video, bool) {
	var fallback Video
	var fallbackDuration float64

	for _, candidate := range decoded.Videos {
		id := strconv.Itoa(candidate.ID)
		if _, used := req.ExcludeIDs[id]; used {
			continue
		}
		link := bestFile(candidate.VideoFiles)
		if link == "" {
			continue
		}
		if candidate.Duration >= req.MinDuration {
			return Video{ID: id, URL: link}, true
		}
		if candidate.Duration > fallbackDuration {
			fallback = Video{ID: id, URL: link}
			fallbackDuration = candidate.Duration
		}
	}

	if fallback.ID != "" {
		return fallback, true
	}
	return Video{}, false
}

func bestFile(files []struct {
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}) string {
	var link string
	var best int
	for _, file := range files {
		if file.FileType != "video/mp4" {
			continue
		}
		if file.Width*file.Height > best {
			best = file.Width * file.Height
			link = file.Link
		}
	}
	return link
}

// Download fetches the selected footage into dst.
func (c *Client) Download(ctx context.Context, videoURL, dst string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return fmt.Errorf("pexels: download request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("pexels: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pexels: download: status %d", resp.StatusCode)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("pexels: create download target: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("pexels: write download: %w", err)
	}
	return out.Close()
}
