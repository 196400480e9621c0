package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/verdantlab/leafscan/internal/core/domain"
	"github.com/verdantlab/leafscan/internal/core/ports"
	"github.com/verdantlab/leafscan/internal/observability/metrics"
)

// SpeciesProvider is the upstream the relay fronts. Both calls return the
// provider's JSON body untouched.
type SpeciesProvider interface {
	IdentifySpecies(ctx context.Context, images []domain.ImageBlob, organs []string, lang string) (json.RawMessage, error)
	DiagnoseDiseases(ctx context.Context, images []domain.ImageBlob, lang string) (json.RawMessage, error)
}

type Config struct {
	Service          string
	MaxBodyBytes     int64
	MaxImages        int
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxConcurrent    int
	BackpressureWait time.Duration
}

type Router struct {
	cfg       Config
	provider  SpeciesProvider
	publisher ports.ScanEventPublisher
	metrics   *metrics.RelayMetrics
}

func NewRouter(cfg Config, provider SpeciesProvider, publisher ports.ScanEventPublisher, relayMetrics *metrics.RelayMetrics) *Router {
	if cfg.Service == "" {
		cfg.Service = "leafscan-relay"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 16 << 20
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 5
	}
	if cfg.BackpressureWait <= 0 {
		cfg.BackpressureWait = 2 * time.Second
	}
	return &Router{
		cfg:       cfg,
		provider:  provider,
		publisher: publisher,
		metrics:   relayMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/identify", rt.identify)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.MaxConcurrent, rt.cfg.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.Service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
