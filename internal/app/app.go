package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/anchorhub/backoffice/internal/auth"
	"github.com/anchorhub/backoffice/internal/config"
	"github.com/anchorhub/backoffice/internal/event"
	handler "github.com/anchorhub/backoffice/internal/handler/http"
	"github.com/anchorhub/backoffice/internal/repository/postgres"
	"github.com/anchorhub/backoffice/internal/repository/redis"
	"github.com/anchorhub/backoffice/internal/service"
	"github.com/anchorhub/backoffice/migrations"
	"github.com/anchorhub/backoffice/pkg/database"
	"github.com/anchorhub/backoffice/pkg/health"
	pkgkafka "github.com/anchorhub/backoffice/pkg/kafka"
	"github.com/anchorhub/backoffice/pkg/tracing"
)

const (
	serviceName    = "backoffice"
	serviceVersion = "0.1.0"
)

// App wires together all dependencies and runs the back office service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// Anything started before a failing step is shut down again before NewApp
// returns the error.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var started closers
	defer func() {
		if err == nil {
			return
		}
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if cerr := started.closeAll(closeCtx); cerr != nil {
			logger.Error("cleanup after failed startup", slog.String("error", cerr.Error()))
		}
	}()

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(serviceName, serviceVersion))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	started.add(tracerShutdown)

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	started.add(func(context.Context) error {
		pool.Close()
		return nil
	})
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, logger)
	}

	// The summary cache is optional: while Redis is unreachable every
	// summary is computed from Postgres and readiness reports it degraded.
	redisClient := database.OpenRedisClient(cfg.Redis())
	started.add(func(context.Context) error { return redisClient.Close() })
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, serving product summaries without cache",
			slog.String("addr", cfg.RedisAddr),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
	}

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	addressRepo := postgres.NewAddressRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	variantRepo := postgres.NewVariantRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	attributeRepo := postgres.NewAttributeRepository(pool)
	summaryCache := redis.NewSummaryCache(redisClient, cfg.SummaryCacheTTL)
	eventProducer := event.NewProducer(producer, logger)

	addressBook := service.NewAddressBook(addressRepo, eventProducer, logger)
	pricing := service.NewCatalogPricing(productRepo, variantRepo, summaryCache, eventProducer, logger)
	catalog := service.NewCatalogService(productRepo, variantRepo, categoryRepo, attributeRepo, pricing, logger)

	// Health checks. The cache and the event stream degrade the service
	// without taking it out of rotation.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	tokenValidator := auth.NewValidator(cfg.JWTSecret, cfg.JWTIssuer)
	router := handler.NewRouter(handler.Services{
		Addresses: addressBook,
		Pricing:   pricing,
		Products:  catalog,
		Taxonomy:  catalog,
	}, tokenValidator.Validate, healthHandler, logger, handler.Options{
		CORS:         cfg.CORS(),
		CatalogRPS:   cfg.CatalogRateLimitRPS,
		CatalogBurst: cfg.CatalogRateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown stops all components in order: HTTP server, tracer, Kafka
// producer, Redis client, PostgreSQL pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// Flush spans only after in-flight requests have drained.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
