package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/justintanner/short-video-maker/internal/domain"
	"github.com/justintanner/short-video-maker/internal/http/handlers"
	"github.com/justintanner/short-video-maker/internal/http/httpapi"
	"github.com/justintanner/short-video-maker/internal/infra"
	"github.com/justintanner/short-video-maker/internal/music"
	"github.com/justintanner/short-video-maker/internal/queue"
	"github.com/justintanner/short-video-maker/internal/storage"
	"github.com/justintanner/short-video-maker/internal/tempfiles"
)

// renderStub completes every job instantly by writing its output file.
type renderStub struct {
	store *storage.FileStore
}

func (r *renderStub) Process(ctx context.Context, job *domain.Job) error {
	return os.WriteFile(r.store.OutputPath(job.ID), []byte("mp4"), 0o644)
}

type fixture struct {
	server *httptest.Server
	store  *storage.FileStore
	jobs   *queue.Queue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(store.MusicDir(), "chill-a.mp3"), []byte("mp3"), 0o644); err != nil {
		t.Fatalf("write music: %v", err)
	}
	lib, err := music.NewLibrary(store.MusicDir(), 1, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	tracker := tempfiles.NewTracker(zerolog.Nop())
	jobs := queue.New(context.Background(), &renderStub{store: store}, tracker, store, nil, zerolog.Nop())

	app := handlers.NewApp(jobs, store, lib, zerolog.Nop())
	cfg := &infra.Config{RateLimitPerMin: 1000}
	router := httpapi.NewRouter(app, cfg, prometheus.NewRegistry())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &fixture{server: server, store: store, jobs: jobs}
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestCreateVideoLifecycle(t *testing.T) {
	f := newFixture(t)

	body := `{"scenes":[{"text":"hello world","searchTerms":["sky"]}],"config":{"orientation":"portrait"}}`
	resp, err := http.Post(f.server.URL+"/api/short-video", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201", resp.StatusCode)
	}
	var created struct {
		VideoID string `json:"videoId"`
	}
	decodeBody(t, resp, &created)
	if created.VideoID == "" {
		t.Fatal("response missing videoId")
	}

	f.jobs.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err = http.Get(f.server.URL + "/api/short-video/" + created.VideoID + "/status")
		if err != nil {
			t.Fatalf("GET status error = %v", err)
		}
		var status struct {
			Status string `json:"status"`
		}
		decodeBody(t, resp, &status)
		if status.Status == "ready" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never became ready, status %q", status.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err = http.Get(f.server.URL + "/api/short-video/" + created.VideoID)
	if err != nil {
		t.Fatalf("GET video error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET video status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("Content-Type = %q, want video/mp4", ct)
	}

	resp, err = http.Get(f.server.URL + "/api/short-videos")
	if err != nil {
		t.Fatalf("GET list error = %v", err)
	}
	var listing struct {
		Videos []queue.Summary `json:"videos"`
	}
	decodeBody(t, resp, &listing)
	if len(listing.Videos) != 1 || listing.Videos[0].ID != created.VideoID {
		t.Fatalf("listing = %+v", listing)
	}

	req, _ := http.NewRequest(http.MethodDelete, f.server.URL+"/api/short-video/"+created.VideoID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE status = %d", resp.StatusCode)
	}
}

func TestCreateVideoRejectsInvalidPayloads(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{
		"{not json",
		`{"scenes":[],"config":{}}`,
		`{"scenes":[{"text":"  "}],"config":{}}`,
	} {
		resp, err := http.Post(f.server.URL+"/api/short-video", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("POST %q status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestUnknownVideoReturns404(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{
		"/api/short-video/nope/status",
		"/api/short-video/nope",
		"/api/short-video/nope/export",
	} {
		resp, err := http.Get(f.server.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("GET %s status = %d, want 404", path, resp.StatusCode)
		}
	}

	req, _ := http.NewRequest(http.MethodDelete, f.server.URL+"/api/short-video/nope", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("DELETE status = %d, want 404", resp.StatusCode)
	}
}

func TestServeTemp(t *testing.T) {
	f := newFixture(t)

	path, err := f.store.WriteTemp(context.Background(), "job-x", ".mp3", []byte("audio-bytes"))
	if err != nil {
		t.Fatalf("WriteTemp() error = %v", err)
	}
	key, ok := f.store.TempKey(path)
	if !ok {
		t.Fatal("TempKey() failed")
	}

	resp, err := http.Get(f.server.URL + "/api/tmp/" + key)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET temp status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("Content-Type = %q, want audio/mpeg", ct)
	}

	resp, err = http.Get(f.server.URL + "/api/tmp/does-not-exist.mp3")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET missing temp status = %d, want 404", resp.StatusCode)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/api/music-tags")
	if err != nil {
		t.Fatalf("GET music-tags error = %v", err)
	}
	var moods []string
	decodeBody(t, resp, &moods)
	if len(moods) != 1 || moods[0] != "chill" {
		t.Fatalf("music tags = %v", moods)
	}

	resp, err = http.Get(f.server.URL + "/api/voices")
	if err != nil {
		t.Fatalf("GET voices error = %v", err)
	}
	var voices []string
	decodeBody(t, resp, &voices)
	if len(voices) == 0 {
		t.Fatal("voices list is empty")
	}

	resp, err = http.Get(f.server.URL + "/health")
	if err != nil {
		t.Fatalf("GET health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}
