package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"vp-gateway/internal/platform/config"
	"vp-gateway/internal/platform/health"
	"vp-gateway/internal/platform/httpserver"
	"vp-gateway/internal/platform/kafka"
	"vp-gateway/internal/platform/logger"
	"vp-gateway/internal/platform/metrics"
	"vp-gateway/internal/platform/postgres"
	"vp-gateway/internal/platform/redis"
	"vp-gateway/internal/presentation/handler"
	presentationmetrics "vp-gateway/internal/presentation/metrics"
	"vp-gateway/internal/presentation/models"
	"vp-gateway/internal/presentation/notify"
	"vp-gateway/internal/presentation/router"
	"vp-gateway/internal/presentation/service"
	"vp-gateway/internal/presentation/store"
	"vp-gateway/internal/presentation/verifier"
	httptransport "vp-gateway/internal/transport/http"
	"vp-gateway/pkg/platform/circuit"
)

const shutdownTimeout = 10 * time.Second

type credentialStore interface {
	service.CredentialStore
	verifier.CredentialStore
	EnsureDefault(ctx context.Context, cred models.VerifierCredential) (*models.VerifierCredential, error)
}

type stores struct {
	requests      service.RequestStore
	credentials   credentialStore
	presentations service.PresentationStore
	declinations  service.DeclinationStore
}

// infra holds the optional backing clients; nil fields are not configured.
type infra struct {
	db    *sql.DB
	redis *redis.Client
	kafka *kgo.Client
}

func (i *infra) close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.New(reg)
	presMetrics := presentationmetrics.New(reg)

	deps, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	st, err := buildStores(ctx, cfg, deps.db, log)
	if err != nil {
		return err
	}
	if _, err := st.credentials.EnsureDefault(ctx, models.VerifierCredential{
		DID:                  cfg.Verifier.DID,
		EncryptionPrivateKey: cfg.Verifier.EncryptionPrivateKey,
		AuthToken:            cfg.Verifier.AuthToken,
	}); err != nil {
		return fmt.Errorf("seed verifier credential: %w", err)
	}

	publisher, err := buildPublisher(ctx, cfg, deps, log)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(publisher,
		notify.WithBufferSize(cfg.Notifier.BufferSize),
		notify.WithPublishTimeout(cfg.Notifier.PublishLimit),
		notify.WithLogger(log),
		notify.WithMetrics(presMetrics),
	)

	client := verifier.NewHTTPClient(cfg.Verifier.BaseURL,
		verifier.WithTimeout(cfg.Verifier.Timeout),
		verifier.WithClientLogger(log),
		verifier.WithBreaker(circuit.New("verifier",
			circuit.WithFailureThreshold(cfg.Verifier.FailureThreshold),
			circuit.WithSuccessThreshold(cfg.Verifier.SuccessThreshold),
			circuit.WithCooldown(cfg.Verifier.Cooldown),
		)),
	)
	adapter, err := verifier.New(client, st.credentials,
		verifier.WithLogger(log),
		verifier.WithMetrics(presMetrics),
	)
	if err != nil {
		return fmt.Errorf("build verifier adapter: %w", err)
	}

	pipeline, err := service.New(service.Deps{
		Requests:      st.requests,
		Credentials:   st.credentials,
		Presentations: st.presentations,
		Declinations:  st.declinations,
		Verifier:      adapter,
		Notifier:      dispatcher,
	}, service.WithLogger(log), service.WithMetrics(presMetrics))
	if err != nil {
		return fmt.Errorf("build presentation pipeline: %w", err)
	}

	versions, err := router.Standard(
		service.NewOriginal(pipeline, cfg.Compat.OriginalRawDeclination),
		service.NewLegacy(pipeline),
		service.NewCurrent(pipeline),
	)
	if err != nil {
		return fmt.Errorf("build version router: %w", err)
	}

	healthOpts := []health.Option{}
	if deps.db != nil {
		healthOpts = append(healthOpts, health.WithCheck("postgres", deps.db.PingContext))
	}
	if deps.redis != nil {
		healthOpts = append(healthOpts, health.WithCheck("redis", deps.redis.Health))
	}
	if deps.kafka != nil {
		healthOpts = append(healthOpts, health.WithCheck("kafka", deps.kafka.Ping))
	}

	srv := httpserver.New(cfg.Server, httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        httpMetrics,
		Gatherer:       reg,
		RequestTimeout: cfg.Server.RequestTimeout,
		Presentation:   handler.New(versions, log),
		Health:         health.New(log, healthOpts...),
	}))

	// The dispatcher outlives the HTTP server so requests finishing during
	// shutdown can still enqueue notifications.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(dispatchCtx)
	})
	g.Go(func() error {
		log.Info("starting vp-gateway",
			"addr", cfg.Server.Addr,
			"notifier", publisher.Name(),
			"postgres", deps.db != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopDispatch()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	deps := &infra{}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	deps.db = db

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		deps.close()
		return nil, err
	}
	deps.redis = rc

	kc, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		deps.close()
		return nil, err
	}
	deps.kafka = kc

	log.Info("backing services connected",
		"postgres", db != nil,
		"redis", rc != nil,
		"kafka", kc != nil,
	)
	return deps, nil
}

func buildStores(ctx context.Context, cfg config.Config, db *sql.DB, log *slog.Logger) (*stores, error) {
	if db == nil {
		log.Warn("no database configured, using in-memory stores")
		return &stores{
			requests:      store.NewInMemoryRequestStore(),
			credentials:   store.NewInMemoryCredentialStore(),
			presentations: store.NewInMemoryPresentationStore(),
			declinations:  store.NewInMemoryDeclinationStore(),
		}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	return &stores{
		requests:      store.NewPostgresRequestStore(db),
		credentials:   store.NewPostgresCredentialStore(db),
		presentations: store.NewPostgresPresentationStore(db),
		declinations:  store.NewPostgresDeclinationStore(db),
	}, nil
}

func buildPublisher(ctx context.Context, cfg config.Config, deps *infra, log *slog.Logger) (notify.Publisher, error) {
	switch cfg.Notifier.Backend {
	case config.NotifierKafka:
		if deps.kafka == nil {
			return nil, errors.New("kafka notifier selected but PRESENTATION_KAFKA_BROKERS is empty")
		}
		if err := kafka.EnsureTopic(ctx, deps.kafka, cfg.Kafka); err != nil {
			return nil, err
		}
		return notify.NewKafkaPublisher(deps.kafka, cfg.Kafka.Topic), nil
	case config.NotifierRedis:
		if deps.redis == nil {
			return nil, errors.New("redis notifier selected but PRESENTATION_REDIS_URL is empty")
		}
		if n, err := deps.redis.Subscribers(ctx, cfg.Notifier.Channel); err == nil && n == 0 {
			log.Warn("no subscribers on notification channel", "channel", cfg.Notifier.Channel)
		}
		return notify.NewRedisPublisher(deps.redis, cfg.Notifier.Channel), nil
	case config.NotifierLog:
		return notify.NewLogPublisher(log), nil
	default:
		return nil, fmt.Errorf("unknown notifier backend %q", cfg.Notifier.Backend)
	}
}
