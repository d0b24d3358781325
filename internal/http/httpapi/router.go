package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justintanner/short-video-maker/internal/http/handlers"
	"github.com/justintanner/short-video-maker/internal/infra"
	"github.com/justintanner/short-video-maker/internal/middleware"
)

// NewRouter wires the HTTP surface. Submissions are rate limited per client
// IP; everything else is open.
func NewRouter(app *handlers.App, cfg *infra.Config, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.CORS(nil),
	)

	r.Get("/health", app.Health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).
			Post("/short-video", app.CreateVideo)
		r.Get("/short-video/{id}/status", app.VideoStatus)
		r.Get("/short-video/{id}/export", app.ExportVideo)
		r.Get("/short-video/{id}", app.GetVideo)
		r.Delete("/short-video/{id}", app.DeleteVideo)
		r.Get("/short-videos", app.ListVideos)

		r.Get("/music-tags", app.MusicTags)
		r.Get("/voices", app.Voices)
		r.Get("/tmp/{key}", app.ServeTemp)
	})

	return r
}
