// Package music indexes the background music catalog. Selection is uniform
// random among the tracks matching a requested mood tag; the mood is the only
// constraint the composition places on music.
package music

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ErrEmptyLibrary indicates that no usable tracks were found in the catalog.
var ErrEmptyLibrary = errors.New("music: library is empty")

// Track is one catalog entry. The mood tag is the filename segment before the
// first dash, e.g. "chill-lofi-evening.mp3" has mood "chill".
type Track struct {
	Path string
	File string
	Mood string
}

// Library holds the indexed catalog.
type Library struct {
	mu     sync.Mutex
	tracks []Track
	rng    *rand.Rand
	logger zerolog.Logger
}

// NewLibrary scans dir for mp3 files and indexes them by mood.
func NewLibrary(dir string, seed int64, logger zerolog.Logger) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("music: scan catalog: %w", err)
	}

	var tracks []Track
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".mp3") {
			continue
		}
		name := entry.Name()
		mood := strings.TrimSuffix(name, filepath.Ext(name))
		if idx := strings.Index(mood, "-"); idx > 0 {
			mood = mood[:idx]
		}
		tracks = append(tracks, Track{
			Path: filepath.Join(dir, name),
			File: name,
			Mood: strings.ToLower(mood),
		})
	}

	logger.Info().Int("tracks", len(tracks)).Str("dir", dir).Msg("music catalog indexed")
	return &Library{
		tracks: tracks,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger.With().Str("component", "music").Logger(),
	}, nil
}

// Moods returns the sorted set of mood tags present in the catalog.
func (l *Library) Moods() []string {
	seen := make(map[string]struct{})
	for _, track := range l.tracks {
		seen[track.Mood] = struct{}{}
	}
	moods := make([]string, 0, len(seen))
	for mood := range seen {
		moods = append(moods, mood)
	}
	sort.Strings(moods)
	return moods
}

// Select picks a uniform-random track matching mood. An empty mood, or a mood
// with no matches, selects from the whole catalog.
func (l *Library) Select(mood string) (Track, error) {
	if len(l.tracks) == 0 {
		return Track{}, ErrEmptyLibrary
	}
	mood = strings.ToLower(strings.TrimSpace(mood))

	candidates := l.tracks
	if mood != "" {
		var matched []Track
		for _, track := range l.tracks {
			if track.Mood == mood {
				matched = append(matched, track)
			}
		}
		if len(matched) > 0 {
			candidates = matched
		} else {
			l.logger.Debug().Str("mood", mood).Msg("no tracks for mood, selecting from full catalog")
		}
	}

	l.mu.Lock()
	pick := candidates[l.rng.Intn(len(candidates))]
	l.mu.Unlock()
	return pick, nil
}
