package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/justintanner/short-video-maker/internal/domain"
	"github.com/justintanner/short-video-maker/internal/queue"
	"github.com/justintanner/short-video-maker/pkg/zip"
)

type createVideoRequest struct {
	Scenes []domain.SceneSpec  `json:"scenes"`
	Config domain.RenderConfig `json:"config"`
}

type createVideoResponse struct {
	VideoID string `json:"videoId"`
}

type statusResponse struct {
	Status string           `json:"status"`
	Error  *domain.JobError `json:"error,omitempty"`
}

// CreateVideo accepts a scene list plus render config and enqueues a job.
// The job id is returned immediately; rendering happens asynchronously.
func (a *App) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	id, err := a.Queue.Submit(req.Scenes, req.Config)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a.json(w, http.StatusCreated, createVideoResponse{VideoID: id})
}

// VideoStatus reports the externally visible status of a job. Queued jobs
// read as "processing" so clients only ever see processing, ready or failed.
func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, jobErr, err := a.Queue.StatusDetail(id)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "video not found")
		return
	}
	a.json(w, http.StatusOK, statusResponse{Status: status.External(), Error: jobErr})
}

// ListVideos merges in-memory jobs with rendered files already on disk.
func (a *App) ListVideos(w http.ResponseWriter, r *http.Request) {
	items, err := a.Queue.List()
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to list videos")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"videos": items})
}

// GetVideo streams the rendered mp4.
func (a *App) GetVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	path := a.Store.OutputPath(id)
	f, err := os.Open(path)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "video not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to read video")
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeContent(w, r, id+".mp4", info.ModTime(), f)
}

// ExportVideo bundles the rendered mp4 into a zip download.
func (a *App) ExportVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := os.ReadFile(a.Store.OutputPath(id))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "video not found")
		return
	}
	archive, err := zip.ArchiveAssets([]zip.Asset{
		{Filename: id + ".mp4", MIME: "video/mp4", Data: data},
	})
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// DeleteVideo removes a finished video. In-flight and queued jobs are
// refused; the client should wait for the job to settle first.
func (a *App) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	switch err := a.Queue.Delete(id); {
	case err == nil:
		a.json(w, http.StatusOK, map[string]string{"status": "deleted"})
	case errors.Is(err, queue.ErrJobInFlight):
		a.error(w, http.StatusConflict, "conflict", "video is still processing")
	case errors.Is(err, queue.ErrJobNotFound):
		a.error(w, http.StatusNotFound, "not_found", "video not found")
	default:
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete video")
	}
}
