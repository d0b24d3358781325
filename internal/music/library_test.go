package music

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func writeCatalog(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("mp3"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestNewLibraryIndexesMoods(t *testing.T) {
	dir := writeCatalog(t,
		"chill-sunset-01.mp3",
		"chill-morning.mp3",
		"Epic-rise.mp3",
		"lofi.mp3",
		"cover.png",
		"readme.txt",
	)
	lib, err := NewLibrary(dir, 1, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	want := []string{"chill", "epic", "lofi"}
	if got := lib.Moods(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Moods() = %v, want %v", got, want)
	}
}

func TestSelectPrefersMatchingMood(t *testing.T) {
	dir := writeCatalog(t, "chill-a.mp3", "chill-b.mp3", "epic-a.mp3")
	lib, err := NewLibrary(dir, 42, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	for i := 0; i < 20; i++ {
		track, err := lib.Select("CHILL")
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if track.Mood != "chill" {
			t.Fatalf("Select(chill) picked mood %q", track.Mood)
		}
	}
}

func TestSelectFallsBackToFullCatalog(t *testing.T) {
	dir := writeCatalog(t, "chill-a.mp3")
	lib, err := NewLibrary(dir, 7, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	track, err := lib.Select("jazz")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if track.File != "chill-a.mp3" {
		t.Fatalf("Select() = %q, want the only track", track.File)
	}

	if _, err := lib.Select(""); err != nil {
		t.Fatalf("Select(\"\") error = %v", err)
	}
}

func TestSelectEmptyLibrary(t *testing.T) {
	lib, err := NewLibrary(t.TempDir(), 1, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	if _, err := lib.Select("any"); !errors.Is(err, ErrEmptyLibrary) {
		t.Fatalf("Select() error = %v, want %v", err, ErrEmptyLibrary)
	}
}

func TestNewLibraryMissingDir(t *testing.T) {
	if _, err := NewLibrary(filepath.Join(t.TempDir(), "nope"), 1, zerolog.Nop()); err == nil {
		t.Fatal("NewLibrary() on missing dir should fail")
	}
}
