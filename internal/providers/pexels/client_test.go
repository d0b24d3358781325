package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/justintanner/short-video-maker/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func searchPayload() map[string]any {
	file := func(w, h int, link string) map[string]any {
		return map[string]any{"file_type": "video/mp4", "width": w, "height": h, "link": link}
	}
	return map[string]any{
		"videos": []map[string]any{
			{
				"id":       10,
				"duration": 3.0,
				"video_files": []map[string]any{
					file(720, 1280, "https://stock/10-hd.mp4"),
					{"file_type": "video/webm", "width": 4000, "height": 4000, "link": "https://stock/10.webm"},
				},
			},
			{
				"id":       20,
				"duration": 9.0,
				"video_files": []map[string]any{
					file(720, 1280, "https://stock/20-hd.mp4"),
					file(1080, 1920, "https://stock/20-fhd.mp4"),
				},
			},
		},
	}
}

func newSearchClient(t *testing.T, payload any, capture *http.Request) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:  "pexels-key",
		BaseURL: "https://api.pexels.test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if capture != nil {
				*capture = *r
			}
			body, _ := json.Marshal(payload)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(string(body))),
				Header:     http.Header{},
			}, nil
		})},
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("NewClient() error = %v, want %v", err, ErrMissingAPIKey)
	}
}

func TestSearchPrefersCoveringDuration(t *testing.T) {
	var captured http.Request
	client := newSearchClient(t, searchPayload(), &captured)

	video, err := client.Search(context.Background(), SearchRequest{
		Terms:       []string{"ocean", "waves"},
		MinDuration: 5.0,
		Orientation: domain.OrientationPortrait,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	// Video 10 is too short; 20 covers the duration and its largest mp4 wins.
	if video.ID != "20" || video.URL != "https://stock/20-fhd.mp4" {
		t.Fatalf("Search() = %+v", video)
	}

	if got := captured.Header.Get("Authorization"); got != "pexels-key" {
		t.Fatalf("Authorization = %q", got)
	}
	query := captured.URL.Query()
	if got := query.Get("query"); got != "ocean waves" {
		t.Fatalf("query = %q", got)
	}
	if got := query.Get("orientation"); got != "portrait" {
		t.Fatalf("orientation = %q", got)
	}
}

func TestSearchFallsBackToLongest(t *testing.T) {
	client := newSearchClient(t, searchPayload(), nil)

	video, err := client.Search(context.Background(), SearchRequest{
		Terms:       []string{"ocean"},
		MinDuration: 30.0,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if video.ID != "20" {
		t.Fatalf("Search() picked %q, want longest candidate 20", video.ID)
	}
}

func TestSearchHonorsExclusions(t *testing.T) {
	client := newSearchClient(t, searchPayload(), nil)

	video, err := client.Search(context.Background(), SearchRequest{
		Terms:       []string{"ocean"},
		MinDuration: 5.0,
		ExcludeIDs:  map[string]struct{}{"20": {}},
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if video.ID != "10" {
		t.Fatalf("Search() picked excluded video: %+v", video)
	}

	_, err = client.Search(context.Background(), SearchRequest{
		Terms:      []string{"ocean"},
		ExcludeIDs: map[string]struct{}{"10": {}, "20": {}},
	})
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("Search() error = %v, want %v", err, ErrNoMatch)
	}
}

func TestSearchEmptyTermsDefaultQuery(t *testing.T) {
	var captured http.Request
	client := newSearchClient(t, searchPayload(), &captured)

	if _, err := client.Search(context.Background(), SearchRequest{}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := captured.URL.Query().Get("query"); got != "nature" {
		t.Fatalf("default query = %q, want nature", got)
	}
}

func TestSearchSurfacesAPIError(t *testing.T) {
	client, err := NewClient(Options{
		APIKey:  "pexels-key",
		BaseURL: "https://api.pexels.test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Body:       io.NopCloser(strings.NewReader("rate limited")),
				Header:     http.Header{},
			}, nil
		})},
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	_, err = client.Search(context.Background(), SearchRequest{Terms: []string{"x"}})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("Search() error = %v, want status 429", err)
	}
}
