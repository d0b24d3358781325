package handlers

import (
	"net/http"
)

// Health is a liveness probe. It deliberately checks nothing downstream:
// the service is useful even while external providers are degraded.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "short-video-maker",
	})
}
