package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "expert"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	askTotal            *prometheus.CounterVec
	askDuration         *prometheus.HistogramVec
	judgeVerdictsTotal  *prometheus.CounterVec
	breakerChangesTotal *prometheus.CounterVec

	reloadTotal    *prometheus.CounterVec
	reloadDuration *prometheus.HistogramVec
	indexAge       *prometheus.HistogramVec
	indexSegments  *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	askTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "answers_total",
			Help:      "Total answers by delivery surface and final route.",
		},
		[]string{"service", "surface", "route"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "answer_duration_seconds",
			Help:      "Time to produce an answer in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"service", "surface"},
	)
	judgeVerdictsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "judge_verdicts_total",
			Help:      "Relevance judge outcomes.",
		},
		[]string{"service", "verdict"},
	)
	breakerChangesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state_changes_total",
			Help:      "Circuit breaker transitions by operation and target state.",
		},
		[]string{"service", "operation", "to"},
	)
	reloadTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "knowledge",
			Name:      "reloads_total",
			Help:      "Knowledge base reloads by status.",
		},
		[]string{"service", "status"},
	)
	reloadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "knowledge",
			Name:      "reload_duration_seconds",
			Help:      "Knowledge base reload duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	indexAge := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "knowledge",
			Name:      "index_age_seconds",
			Help:      "Delay between an index build and its pickup by this process.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	indexSegments := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "knowledge",
			Name:      "segments",
			Help:      "Segments in the active passage store.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		askTotal,
		askDuration,
		judgeVerdictsTotal,
		breakerChangesTotal,
		reloadTotal,
		reloadDuration,
		indexAge,
		indexSegments,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		askTotal:            askTotal,
		askDuration:         askDuration,
		judgeVerdictsTotal:  judgeVerdictsTotal,
		breakerChangesTotal: breakerChangesTotal,
		reloadTotal:         reloadTotal,
		reloadDuration:      reloadDuration,
		indexAge:            indexAge,
		indexSegments:       indexSegments,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps label cardinality bounded to the served routes.
func normalizePath(path string) string {
	switch path {
	case "/ask", "/v1/ask", "/v1/chat/completions", "/v1/models", "/healthz", "/metrics":
		return path
	default:
		return "other"
	}
}

func (m *HTTPServerMetrics) RecordAnswer(service, surface, route string, duration time.Duration) {
	if route == "" {
		route = "error"
	}
	m.askTotal.WithLabelValues(service, surface, route).Inc()
	m.askDuration.WithLabelValues(service, surface).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordJudgeVerdict(service string, relevant bool, err error) {
	verdict := "not_relevant"
	switch {
	case err != nil:
		verdict = "error"
	case relevant:
		verdict = "relevant"
	}
	m.judgeVerdictsTotal.WithLabelValues(service, verdict).Inc()
}

func (m *HTTPServerMetrics) RecordBreakerStateChange(service, operation, to string) {
	m.breakerChangesTotal.WithLabelValues(service, operation, to).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
