package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rentals", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rentals", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rentals", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)

	LoaderRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rentals", Subsystem: "loader", Name: "runs_total", Help: "Load runs by result."},
		[]string{"result"},
	)
	LoaderDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rentals", Subsystem: "loader", Name: "rows_dropped_total", Help: "Fragments dropped with a warning."},
		[]string{"entity", "reason"},
	)
	LoaderStaged = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "rentals", Subsystem: "loader", Name: "staged_entities", Help: "Entities staged by the last run."},
		[]string{"entity"},
	)
	LoaderInserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rentals", Subsystem: "loader", Name: "rows_inserted_total", Help: "Rows inserted per commit step."},
		[]string{"step"},
	)
	LoaderStepLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rentals", Subsystem: "loader", Name: "commit_step_seconds",
			Help:    "Commit step duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)
)

// Serve exposes reg on addr/metrics in the background. Empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, CacheEvents,
		LoaderRuns, LoaderDropped, LoaderStaged, LoaderInserted, LoaderStepLatency)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

// LoadRecorder feeds loader measurements into the package collectors.
type LoadRecorder struct{}

func (LoadRecorder) RowDropped(entity, reason string) {
	LoaderDropped.WithLabelValues(entity, reason).Inc()
}

func (LoadRecorder) Staged(entity string, n int64) {
	LoaderStaged.WithLabelValues(entity).Set(float64(n))
}

func (LoadRecorder) StepDone(step string, inserted int64, d time.Duration) {
	LoaderInserted.WithLabelValues(step).Add(float64(inserted))
	LoaderStepLatency.WithLabelValues(step).Observe(d.Seconds())
}

func (LoadRecorder) RunFinished(result string) {
	LoaderRuns.WithLabelValues(result).Inc()
}
