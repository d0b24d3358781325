package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/justintanner/short-video-maker/internal/music"
	"github.com/justintanner/short-video-maker/internal/queue"
	"github.com/justintanner/short-video-maker/internal/storage"
)

// App bundles the collaborators every handler needs.
type App struct {
	Queue  *queue.Queue
	Store  *storage.FileStore
	Music  *music.Library
	Logger zerolog.Logger
}

func NewApp(q *queue.Queue, store *storage.FileStore, lib *music.Library, logger zerolog.Logger) *App {
	return &App{Queue: q, Store: store, Music: lib, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]string{"error": errCode, "message": msg})
}
