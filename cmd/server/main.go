package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/switchledger/internal/adapter/http"
	"github.com/iho/switchledger/internal/adapter/http/handler"
	"github.com/iho/switchledger/internal/adapter/http/middleware"
	memoryRepo "github.com/iho/switchledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/switchledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/switchledger/internal/adapter/repository/redis"
	"github.com/iho/switchledger/internal/infrastructure/auth"
	"github.com/iho/switchledger/internal/infrastructure/config"
	"github.com/iho/switchledger/internal/infrastructure/integrity"
	"github.com/iho/switchledger/internal/infrastructure/logger"
	"github.com/iho/switchledger/internal/infrastructure/metrics"
	"github.com/iho/switchledger/internal/infrastructure/postgres"
	"github.com/iho/switchledger/internal/infrastructure/redis"
	"github.com/iho/switchledger/internal/infrastructure/retry"
	"github.com/iho/switchledger/internal/usecase"
)

const (
	rateLimitSweepInterval = time.Minute
	rateLimitMaxIdle       = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// storage bundles the ports backed by the configured driver.
type storage struct {
	txManager usecase.TransactionManager
	accounts  usecase.AccountRepository
	movements usecase.MovementRepository
	checks    []handler.Check
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		store := memoryRepo.NewStore()
		return &storage{
			txManager: store,
			accounts:  store.Accounts(),
			movements: store.Movements(),
			close:     func() {},
		}, nil
	}

	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	return &storage{
		txManager: postgresRepo.NewTxManager(pool),
		accounts:  postgresRepo.NewAccountRepository(pool),
		movements: postgresRepo.NewMovementRepository(pool),
		checks:    []handler.Check{{Name: "postgres", Ping: pool.Ping}},
		close:     pool.Close,
	}, nil
}

// newSigner returns a nil Signer when key is empty so the use cases see an
// untyped nil interface.
func newSigner(key string) (usecase.Signer, error) {
	if key == "" {
		return nil, nil
	}
	return integrity.NewHMACSigner(key)
}

type application struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

func newApplication(cfg *config.Config, log zerolog.Logger, st *storage, redisClient *goredis.Client) (*application, error) {
	signer, err := newSigner(cfg.SigningKey)
	if err != nil {
		return nil, err
	}
	if signer == nil {
		log.Warn().Msg("SIGNING_KEY not set, account signatures disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	idGen := postgresRepo.NewULIDGenerator()
	retrier := retry.NewRetrierWithConfig(retry.Config{
		MaxRetries:      cfg.MovementMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Logger:          log,
		OnRetry:         m.RetryObserved,
	})

	accountUC := usecase.NewAccountUseCase(st.txManager, st.accounts, st.movements, idGen, signer, m)
	movementUC := usecase.NewMovementUseCase(usecase.MovementUseCaseConfig{
		TxManager:    st.txManager,
		AccountRepo:  st.accounts,
		MovementRepo: st.movements,
		Retrier:      retrier,
		IDGen:        idGen,
		Signer:       signer,
		Metrics:      m,
		Logger:       log,
		Timeout:      cfg.MovementTimeout,
	})

	checks := st.checks
	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:  handler.NewAccountHandler(accountUC),
		MovementHandler: handler.NewMovementHandler(movementUC),
		LedgerHandler:   handler.NewLedgerHandler(movementUC),
		Logger:          log,
		Metrics:         m,
		Gatherer:        reg,
		IdempotencyTTL:  cfg.IdempotencyTTL,
	}

	if redisClient != nil {
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		checks = append(checks, handler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	app := &application{}
	if cfg.RateLimitRPS > 0 {
		app.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		routerCfg.RateLimiter = app.rateLimiter
	}

	if cfg.JWTSecret != "" {
		verifier, err := auth.NewJWTManager(cfg.JWTSecret, 0)
		if err != nil {
			return nil, err
		}
		routerCfg.Authenticator = verifier
	} else {
		log.Warn().Msg("JWT_SECRET not set, API authentication disabled")
	}

	routerCfg.HealthHandler = handler.NewHealthHandler(checks...)
	app.handler = httpAdapter.NewRouter(routerCfg)

	return app, nil
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL, 0)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")
	} else {
		log.Info().Msg("REDIS_URL not set, Idempotency-Key caching disabled")
	}

	app, err := newApplication(cfg, log, st, redisClient)
	if err != nil {
		return err
	}

	if app.rateLimiter != nil {
		go app.rateLimiter.Run(ctx, rateLimitSweepInterval, rateLimitMaxIdle)
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      app.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
