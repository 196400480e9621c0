package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpadapter "github.com/verdantlab/leafscan/internal/adapters/http"
	"github.com/verdantlab/leafscan/internal/config"
	"github.com/verdantlab/leafscan/internal/core/ports"
	"github.com/verdantlab/leafscan/internal/core/usecase"
	"github.com/verdantlab/leafscan/internal/infrastructure/identify/gemini"
	"github.com/verdantlab/leafscan/internal/infrastructure/identify/plantnet"
	relayclient "github.com/verdantlab/leafscan/internal/infrastructure/identify/relay"
	"github.com/verdantlab/leafscan/internal/infrastructure/imaging"
	"github.com/verdantlab/leafscan/internal/infrastructure/kvstore/localfs"
	kvpostgres "github.com/verdantlab/leafscan/internal/infrastructure/kvstore/postgres"
	natsqueue "github.com/verdantlab/leafscan/internal/infrastructure/queue/nats"
	"github.com/verdantlab/leafscan/internal/infrastructure/resilience"
	"github.com/verdantlab/leafscan/internal/observability/metrics"
)

// Relay is the server-side deployment: the same-origin proxy that fronts the
// plant identification provider and keeps the API key off the client.
type Relay struct {
	Config  config.Config
	Handler http.Handler
	Metrics *metrics.RelayMetrics

	closeFn func()
}

func NewRelay(_ context.Context, cfg config.Config) (*Relay, error) {
	executor := resilience.NewExecutor(resilience.Config{
		BreakerEnabled:     cfg.BreakerEnabled,
		BreakerMinRequests: uint32(cfg.BreakerMinRequests),
	})

	provider := plantnet.New(cfg.PlantNetBaseURL, cfg.PlantNetAPIKey, executor)
	relayMetrics := metrics.NewRelayMetrics("leafscan-relay")

	var publisher ports.ScanEventPublisher
	closeFn := func() {}
	if cfg.NATSURL != "" {
		queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init scan event publisher: %w", err)
		}
		publisher = queue
		closeFn = queue.Close
	}

	router := httpadapter.NewRouter(httpadapter.Config{
		Service:          "leafscan-relay",
		MaxBodyBytes:     cfg.RelayMaxBodyBytes,
		MaxImages:        cfg.RelayMaxImages,
		RateLimitRPS:     cfg.APIRateLimitRPS,
		RateLimitBurst:   cfg.APIRateLimitBurst,
		MaxConcurrent:    cfg.APIMaxConcurrent,
		BackpressureWait: time.Duration(cfg.APIBackpressureWaitS) * time.Second,
	}, provider, publisher, relayMetrics)

	return &Relay{
		Config:  cfg,
		Handler: router.Handler(),
		Metrics: relayMetrics,
		closeFn: closeFn,
	}, nil
}

func (r *Relay) Close() {
	if r.closeFn != nil {
		r.closeFn()
	}
}

// Scanner is the client-side assembly: the capture flow a UI layer embeds.
type Scanner struct {
	Flow        ports.CaptureFlow
	Credentials ports.CredentialAccess

	closeFn func()
}

func NewScanner(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Scanner, error) {
	store, closeFn, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	compressor := imaging.NewCompressor(cfg.MaxImageDim, cfg.JPEGQuality)
	primary := relayclient.New(cfg.RelayURL)
	secondary := gemini.New(cfg.GeminiModel)
	credentials := usecase.NewCredentialService(store)

	identifier := usecase.NewIdentifyUseCase(primary, secondary, credentials, cfg.Lang, cfg.DetectDisease, logger)
	manager := usecase.NewSessionManager(store, compressor, identifier, logger)

	if err := manager.Resume(ctx); err != nil {
		closeFn()
		return nil, fmt.Errorf("resume session: %w", err)
	}

	return &Scanner{
		Flow:        manager,
		Credentials: credentials,
		closeFn:     closeFn,
	}, nil
}

func (s *Scanner) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

func openStore(ctx context.Context, cfg config.Config) (ports.KeyValueStore, func(), error) {
	switch cfg.KVBackend {
	case "postgres":
		db, err := kvpostgres.OpenDB(cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		store := kvpostgres.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure kv schema: %w", err)
		}
		return store, func() { _ = db.Close() }, nil
	default:
		store, err := localfs.New(cfg.KVPath)
		if err != nil {
			return nil, nil, fmt.Errorf("init kv store: %w", err)
		}
		return store, func() {}, nil
	}
}
