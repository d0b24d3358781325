package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/justintanner/short-video-maker/internal/providers/tts"
)

// ServeTemp exposes transient pipeline artifacts (scene audio, reference
// frames) so external providers can fetch them over HTTP. Keys are relative
// to the temp directory and traversal is rejected by the store.
func (a *App) ServeTemp(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	path, err := a.Store.ResolveTemp(key)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid asset key")
		return
	}
	f, err := os.Open(path)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to read asset")
		return
	}
	if ct := contentTypeForExt(filepath.Ext(path)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

// MusicTags lists the moods available in the music library.
func (a *App) MusicTags(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Music.Moods())
}

// Voices lists the narration voices the speech synthesizer offers.
func (a *App) Voices(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, tts.Voices)
}

func contentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".mp4":
		return "video/mp4"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".json":
		return "application/json"
	default:
		return ""
	}
}
