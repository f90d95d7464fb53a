// Package monitoring exposes Prometheus metrics for the classifier service.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry so that several
// instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	predictions           *prometheus.CounterVec
	predictionErrors      prometheus.Counter
	inferenceDuration     prometheus.Histogram
	confidenceUnavailable prometheus.Counter
	cacheHits             prometheus.Counter
	cacheMisses           prometheus.Counter
	httpRequests          *prometheus.CounterVec
	httpDuration          *prometheus.HistogramVec
}

// NewMetrics builds and registers every collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "firetype_predictions_total",
			Help: "Predictions served by fire type.",
		}, []string{"fire_type"}),
		predictionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firetype_prediction_errors_total",
			Help: "Predictions that failed inside the inference adapter.",
		}),
		inferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "firetype_inference_duration_seconds",
			Help:    "Time to answer one prediction, memo hits included.",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		confidenceUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firetype_confidence_unavailable_total",
			Help: "Predictions returned without a confidence score.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firetype_cache_hits_total",
			Help: "Predictions answered from the memo cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firetype_cache_misses_total",
			Help: "Predictions that required inference.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.predictions,
		m.predictionErrors,
		m.inferenceDuration,
		m.confidenceUnavailable,
		m.cacheHits,
		m.cacheMisses,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ObservePrediction records one successful prediction.
func (m *Metrics) ObservePrediction(fireType string, hasConfidence bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(fireType).Inc()
	m.inferenceDuration.Observe(duration.Seconds())
	if !hasConfidence {
		m.confidenceUnavailable.Inc()
	}
}

// PredictionError counts a prediction that returned an error.
func (m *Metrics) PredictionError() {
	if m == nil {
		return
	}
	m.predictionErrors.Inc()
}

// CacheHit counts a prediction served from the memo.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// CacheMiss counts a prediction that ran inference.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests and latency for one route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
