// Package metrics exposes Prometheus collectors for predictions, the
// training-load cache, Strava sync and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "racetime"

// Recorder holds the collectors on its own registry. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	predictions        *prometheus.CounterVec
	predictionDuration prometheus.Histogram
	insufficientData   prometheus.Counter
	predictionRuns     prometheus.Counter

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	syncedActivities prometheus.Counter
	syncErrors       prometheus.Counter
	lastSync         prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates a recorder with Go runtime and process collectors registered
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "results_total",
			Help:      "Per-distance predictions by method (multi_model, power_law, pace_table).",
		}, []string{"method"}),
		predictionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "duration_seconds",
			Help:      "Time to generate a full prediction report, including the history fetch.",
			Buckets:   prometheus.DefBuckets,
		}),
		insufficientData: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "insufficient_data_total",
			Help:      "Prediction requests rejected for lack of history.",
		}),
		predictionRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "runs_total",
			Help:      "Prediction reports generated.",
		}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "training_cache",
			Name:      "hits_total",
			Help:      "Training metrics served from cache.",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "training_cache",
			Name:      "misses_total",
			Help:      "Training metrics recomputed.",
		}),
		syncedActivities: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "activities_total",
			Help:      "Activities stored by Strava sync.",
		}),
		syncErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "errors_total",
			Help:      "Failed Strava sync runs.",
		}),
		lastSync: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sync.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// PredictionRun records one generated report and the method of each distance
func (r *Recorder) PredictionRun(d time.Duration, methods []string) {
	if r == nil {
		return
	}
	r.predictionRuns.Inc()
	r.predictionDuration.Observe(d.Seconds())
	for _, m := range methods {
		r.predictions.WithLabelValues(m).Inc()
	}
}

// InsufficientData records a rejected prediction request
func (r *Recorder) InsufficientData() {
	if r == nil {
		return
	}
	r.insufficientData.Inc()
}

// CacheHit records a training metrics cache hit
func (r *Recorder) CacheHit() {
	if r == nil {
		return
	}
	r.cacheHits.Inc()
}

// CacheMiss records a training metrics cache miss
func (r *Recorder) CacheMiss() {
	if r == nil {
		return
	}
	r.cacheMisses.Inc()
}

// SyncSucceeded records a finished sync
func (r *Recorder) SyncSucceeded(stored int, at time.Time) {
	if r == nil {
		return
	}
	r.syncedActivities.Add(float64(stored))
	r.lastSync.Set(float64(at.Unix()))
}

// SyncFailed records a failed sync
func (r *Recorder) SyncFailed() {
	if r == nil {
		return
	}
	r.syncErrors.Inc()
}

// HTTPRequest records one served request
func (r *Recorder) HTTPRequest(route string, code int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	r.httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}
