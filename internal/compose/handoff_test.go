package compose

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/justintanner/short-video-maker/internal/domain"
	"github.com/justintanner/short-video-maker/internal/music"
	"github.com/justintanner/short-video-maker/internal/storage"
	"github.com/justintanner/short-video-maker/internal/tempfiles"
)

type fakeCompositor struct {
	manifests []string
	err       error
	skipWrite bool
}

func (f *fakeCompositor) Render(ctx context.Context, manifestPath, outputPath string) error {
	f.manifests = append(f.manifests, manifestPath)
	if f.err != nil {
		return f.err
	}
	if f.skipWrite {
		return nil
	}
	return os.WriteFile(outputPath, []byte("mp4"), 0o644)
}

type handoffFixture struct {
	handoff    *Handoff
	compositor *fakeCompositor
	store      *storage.FileStore
	tracker    *tempfiles.Tracker
}

func newFixture(t *testing.T) *handoffFixture {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	for _, name := range []string{"chill-a.mp3", "epic-b.mp3"} {
		if err := os.WriteFile(filepath.Join(store.MusicDir(), name), []byte("mp3"), 0o644); err != nil {
			t.Fatalf("write music: %v", err)
		}
	}
	lib, err := music.NewLibrary(store.MusicDir(), 1, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	comp := &fakeCompositor{}
	tracker := tempfiles.NewTracker(zerolog.Nop())
	return &handoffFixture{
		handoff:    NewHandoff(lib, comp, store, tracker, zerolog.Nop()),
		compositor: comp,
		store:      store,
		tracker:    tracker,
	}
}

func testJob() *domain.Job {
	return &domain.Job{
		ID: "job-c",
		Scenes: []domain.SceneSpec{
			{Text: "one"},
			{Text: "two"},
		},
		Config: domain.RenderConfig{
			Orientation: domain.OrientationLandscape,
			MusicMood:   "chill",
		},
		Results: []domain.SceneResult{
			{Audio: domain.AudioRef{URL: "u1", Duration: 2.25}},
			{Audio: domain.AudioRef{URL: "u2", Duration: 3.75}},
		},
	}
}

func TestComposeWritesManifestAndOutput(t *testing.T) {
	f := newFixture(t)
	job := testJob()

	if err := f.handoff.Compose(context.Background(), job); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !f.store.OutputExists(job.ID) {
		t.Fatal("output missing after compose")
	}
	if len(f.compositor.manifests) != 1 {
		t.Fatalf("render calls = %d, want 1", len(f.compositor.manifests))
	}

	data, err := os.ReadFile(f.compositor.manifests[0])
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if manifest.JobID != job.ID {
		t.Fatalf("manifest job id = %q", manifest.JobID)
	}
	if manifest.TotalDuration != 6.0 {
		t.Fatalf("total duration = %v, want 6.0", manifest.TotalDuration)
	}
	if manifest.Orientation != domain.OrientationLandscape {
		t.Fatalf("orientation = %v", manifest.Orientation)
	}
	if !strings.Contains(filepath.Base(manifest.MusicFile), "chill") {
		t.Fatalf("music file = %q, want a chill track", manifest.MusicFile)
	}
	if len(manifest.Scenes) != 2 {
		t.Fatalf("manifest scenes = %d", len(manifest.Scenes))
	}

	// The manifest is transient and owned by the job.
	if got := f.tracker.Count(job.ID); got != 1 {
		t.Fatalf("tracked files = %d, want 1", got)
	}
}

func TestComposeRejectsResultParityMismatch(t *testing.T) {
	f := newFixture(t)
	job := testJob()
	job.Results = job.Results[:1]

	if err := f.handoff.Compose(context.Background(), job); err == nil {
		t.Fatal("Compose() should fail on scene/result mismatch")
	}
	if len(f.compositor.manifests) != 0 {
		t.Fatal("compositor ran despite invalid job")
	}
}

func TestComposeSurfacesRenderFailure(t *testing.T) {
	f := newFixture(t)
	f.compositor.err = errors.New("renderer crashed")

	err := f.handoff.Compose(context.Background(), testJob())
	if err == nil || !strings.Contains(err.Error(), "render") {
		t.Fatalf("Compose() error = %v, want render failure", err)
	}
}

func TestComposeVerifiesOutputExists(t *testing.T) {
	f := newFixture(t)
	f.compositor.skipWrite = true

	err := f.handoff.Compose(context.Background(), testJob())
	if err == nil || !strings.Contains(err.Error(), "no output") {
		t.Fatalf("Compose() error = %v, want missing-output failure", err)
	}
}
