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

type RelayMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	scanTotal            *prometheus.CounterVec
	providerCallTotal    *prometheus.CounterVec
	providerCallDuration *prometheus.HistogramVec
	rejectedTotal        *prometheus.CounterVec
}

func NewRelayMetrics(service string) *RelayMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafscan",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leafscan",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "leafscan",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	scanTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafscan",
			Subsystem: "relay",
			Name:      "scans_total",
			Help:      "Total relayed identification scans by outcome.",
		},
		[]string{"service", "identify", "diseases"},
	)
	providerCallTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafscan",
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Total upstream provider calls by endpoint and status.",
		},
		[]string{"service", "endpoint", "status"},
	)
	providerCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leafscan",
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Upstream provider call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	rejectedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafscan",
			Subsystem: "http",
			Name:      "rejected_total",
			Help:      "Requests rejected before reaching a handler.",
		},
		[]string{"service", "reason"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		scanTotal,
		providerCallTotal,
		providerCallDuration,
		rejectedTotal,
	)

	return &RelayMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		scanTotal:            scanTotal,
		providerCallTotal:    providerCallTotal,
		providerCallDuration: providerCallDuration,
		rejectedTotal:        rejectedTotal,
	}
}

func (m *RelayMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *RelayMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
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
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *RelayMetrics) RecordScan(service string, identifyOK bool, diseasesRequested bool, diseasesOK bool) {
	diseases := "not_requested"
	if diseasesRequested {
		diseases = outcomeLabel(diseasesOK)
	}
	m.scanTotal.WithLabelValues(service, outcomeLabel(identifyOK), diseases).Inc()
}

func (m *RelayMetrics) RecordProviderCall(service, endpoint string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.providerCallTotal.WithLabelValues(service, endpoint, status).Inc()
	m.providerCallDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}

func (m *RelayMetrics) RecordRejected(service, reason string) {
	m.rejectedTotal.WithLabelValues(service, reason).Inc()
}

func outcomeLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
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

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
