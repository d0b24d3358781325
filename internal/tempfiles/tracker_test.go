package tempfiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeTemp(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReleaseAllRemovesOnlyOwnedFiles(t *testing.T) {
	dir := t.TempDir()
	tracker := NewTracker(zerolog.Nop())

	a1 := writeTemp(t, dir, "a1.wav")
	a2 := writeTemp(t, dir, "a2.mp3")
	b1 := writeTemp(t, dir, "b1.wav")

	tracker.Register("job-a", a1)
	tracker.Register("job-a", a2)
	tracker.Register("job-b", b1)

	tracker.ReleaseAll("job-a")

	for _, path := range []string{a1, a2} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("%s should be removed", path)
		}
	}
	if _, err := os.Stat(b1); err != nil {
		t.Fatalf("other job's file was touched: %v", err)
	}
	if got := tracker.Count("job-a"); got != 0 {
		t.Fatalf("Count(job-a) = %d after release, want 0", got)
	}
	if got := tracker.Count("job-b"); got != 1 {
		t.Fatalf("Count(job-b) = %d, want 1", got)
	}
}

func TestReleaseAllIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	tracker := NewTracker(zerolog.Nop())

	path := writeTemp(t, dir, "one.wav")
	tracker.Register("job", path)

	tracker.ReleaseAll("job")
	tracker.ReleaseAll("job")
	tracker.ReleaseAll("unknown")
}

func TestReleaseAllToleratesMissingFiles(t *testing.T) {
	tracker := NewTracker(zerolog.Nop())
	tracker.Register("job", filepath.Join(t.TempDir(), "never-created.wav"))
	tracker.ReleaseAll("job")
	if got := tracker.Count("job"); got != 0 {
		t.Fatalf("Count() = %d, want 0", got)
	}
}

func TestRegisterIgnoresEmptyArguments(t *testing.T) {
	tracker := NewTracker(zerolog.Nop())
	tracker.Register("", "/tmp/x")
	tracker.Register("job", "")
	if got := tracker.Count("job"); got != 0 {
		t.Fatalf("Count() = %d, want 0", got)
	}
}
