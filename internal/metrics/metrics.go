// Package metrics exposes Prometheus collectors for the job pipeline. All
// recorder methods are nil-safe so components can run without metrics wired.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder aggregates the service's Prometheus collectors.
type Recorder struct {
	jobsTotal           *prometheus.CounterVec
	jobDuration         prometheus.Histogram
	scenesTotal         prometheus.Counter
	providerCreateTotal *prometheus.CounterVec
	providerPollTotal   prometheus.Counter
	stockFallbackTotal  prometheus.Counter
}

// NewRecorder builds the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "svm_jobs_total",
			Help: "Jobs that reached a terminal state, by status.",
		}, []string{"status"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "svm_job_duration_seconds",
			Help:    "Wall time from dequeue to terminal state.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		scenesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "svm_scenes_processed_total",
			Help: "Scenes that completed the five-stage pipeline.",
		}),
		providerCreateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "svm_provider_create_attempts_total",
			Help: "Create-task attempts against the video provider, by outcome.",
		}, []string{"outcome"}),
		providerPollTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "svm_provider_poll_attempts_total",
			Help: "Status polls issued against the video provider.",
		}),
		stockFallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "svm_visual_fallback_total",
			Help: "Scenes that fell back to a still image after provider failure.",
		}),
	}
	reg.MustRegister(
		r.jobsTotal,
		r.jobDuration,
		r.scenesTotal,
		r.providerCreateTotal,
		r.providerPollTotal,
		r.stockFallbackTotal,
	)
	return r
}

// JobFinished records a terminal job and its processing duration in seconds.
func (r *Recorder) JobFinished(status string, seconds float64) {
	if r == nil {
		return
	}
	r.jobsTotal.WithLabelValues(status).Inc()
	r.jobDuration.Observe(seconds)
}

// SceneProcessed records one completed scene.
func (r *Recorder) SceneProcessed() {
	if r == nil {
		return
	}
	r.scenesTotal.Inc()
}

// ProviderCreateAttempt records one create-task attempt and its outcome.
func (r *Recorder) ProviderCreateAttempt(outcome string) {
	if r == nil {
		return
	}
	r.providerCreateTotal.WithLabelValues(outcome).Inc()
}

// ProviderPollAttempt records one status poll.
func (r *Recorder) ProviderPollAttempt() {
	if r == nil {
		return
	}
	r.providerPollTotal.Inc()
}

// VisualFallback records a scene that used its still image after the provider
// failed to generate a video.
func (r *Recorder) VisualFallback() {
	if r == nil {
		return
	}
	r.stockFallbackTotal.Inc()
}
