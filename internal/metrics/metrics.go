// Package metrics exposes Prometheus instrumentation for the HTTP API
// and the consensus engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bitebuddy_http_requests_total",
			Help: "HTTP requests by method and status code.",
		},
		[]string{"method", "status"},
	)

	requestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bitebuddy_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SwipesTotal counts recorded swipes by verdict.
	SwipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bitebuddy_swipes_total",
			Help: "Swipes recorded, labeled by verdict.",
		},
		[]string{"verdict"},
	)

	// MatchesTotal counts matches created by the deriver.
	MatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bitebuddy_matches_total",
			Help: "Matches created.",
		},
	)
)

// Handler returns the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		requestDuration.Observe(time.Since(start).Seconds())
	})
}

// RecordSwipe increments the swipe counter for a verdict.
func RecordSwipe(liked bool) {
	verdict := "dislike"
	if liked {
		verdict = "like"
	}
	SwipesTotal.WithLabelValues(verdict).Inc()
}
