// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "placebook"

var routeLabels = []string{"method", "route", "status"}

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by route pattern.",
	}, routeLabels)

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by route pattern.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
	}, routeLabels)

	requestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	// AggregateCacheTotal counts aggregate cache lookups by pipeline
	// ("tags", "top") and result ("hit", "miss", "error").
	AggregateCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "aggregate_cache_total",
		Help:      "Aggregate cache lookups.",
	}, []string{"pipeline", "result"})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, requestsInFlight, AggregateCacheTotal)
}

// Middleware instruments every request. Requests are labelled by their chi
// route pattern, never the raw path, so slugs and ids stay out of the labels.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestsInFlight.Inc()
			defer requestsInFlight.Dec()

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			observe(r, ww.Status(), time.Since(start))
		})
	}
}

func observe(r *http.Request, status int, elapsed time.Duration) {
	if status == 0 {
		status = http.StatusOK
	}
	route := "unknown"
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		route = rc.RoutePattern()
	}
	labels := prometheus.Labels{"method": r.Method, "route": route, "status": strconv.Itoa(status)}
	requestsTotal.With(labels).Inc()
	requestDuration.With(labels).Observe(elapsed.Seconds())
}
