package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"proof-gateway/internal/axiom"
	"proof-gateway/internal/completion"
	"proof-gateway/internal/config"
	"proof-gateway/internal/logging"
	"proof-gateway/internal/proof"
	"proof-gateway/internal/server"
	"proof-gateway/middleware/ratelimit"
	"proof-gateway/middleware/ratelimit/domain"
	"proof-gateway/middleware/ratelimit/infra"
)

func runServe(parent context.Context, envFile string) error {
	v := config.New()
	if err := config.ReadDotEnv(v, envFile); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var rdb redis.UniversalClient
	if cfg.UsesRedis() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateRedisAddr,
			Password: cfg.RateRedisPassword,
			DB:       cfg.RateRedisDB,
		})
		defer func() { _ = client.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := client.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			return fmt.Errorf("redis ping error: %w", err)
		}
		rdb = client
	}

	srv, err := buildServer(ctx, cfg, logger, rdb)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("proof-gateway starting",
		zap.String("version", version),
		zap.String("addr", cfg.ListenAddr),
		zap.String("model", cfg.OpenAIModel))
	logger.Info("rate",
		zap.Bool("enabled", cfg.RateEnabled),
		zap.Int("limit", cfg.RateLimit),
		zap.Duration("window", cfg.RateWindow),
		zap.Bool("redis", cfg.RateRedisAddr != ""),
		zap.String("key_header", cfg.RateKeyHeader),
		zap.Bool("trust_xff", cfg.TrustXFF),
		zap.Bool("fail_open", cfg.RateFailOpen))
	logger.Info("rate-stats",
		zap.Bool("enabled", cfg.RateStatsEnabled),
		zap.String("backend", cfg.RateStatsBackend),
		zap.String("bucket", cfg.RateStatsBucket),
		zap.Duration("ttl", cfg.RateStatsTTL),
		zap.Bool("track_keys", cfg.RateStatsTrackKeys))
	logger.Info("concurrency",
		zap.Int("max", cfg.ConcurrencyMax),
		zap.Duration("acquire_timeout", cfg.ConcurrencyTimeout))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("proof-gateway stopped")
	return nil
}

// buildServer monta o grafo de dependências. rdb só é usado quando
// cfg.UsesRedis(); o janitor em memória para junto com ctx.
func buildServer(ctx context.Context, cfg config.Config, logger *zap.Logger, rdb redis.UniversalClient) (*server.Server, error) {
	registry, err := axiom.NewRegistry(cfg.AxiomBaseURL, cfg.AxiomSets)
	if err != nil {
		return nil, fmt.Errorf("axiom registry: %w", err)
	}
	resolver := axiom.NewResolver(registry, cfg.AxiomFetchTimeout)

	client := completion.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel).
		WithThrottle(cfg.CompletionRPS, cfg.CompletionBurst)
	client.Timeout = cfg.CompletionTimeout

	opts := server.Options{
		Logger:    logger,
		Addr:      cfg.ListenAddr,
		Proof:     proof.NewService(resolver, client),
		AxiomSets: registry.Names,
		Concurrency: ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
			Max:            cfg.ConcurrencyMax,
			RejectStatus:   http.StatusServiceUnavailable,
			AcquireTimeout: cfg.ConcurrencyTimeout,
			OnReject: func(r *http.Request, err error) {
				logger.Info("completion slot not acquired",
					zap.String("request_id", server.GetRequestID(r.Context())),
					zap.Error(err))
			},
		}),
	}

	var statsStore domain.StatsStore
	if cfg.RateStatsEnabled {
		switch cfg.RateStatsBackend {
		case "redis":
			if rdb == nil {
				return nil, errors.New("redis stats backend requires a redis client")
			}
			rs := infra.NewRedisStatsStore(
				rdb,
				infra.WithStatsPrefix(cfg.RateStatsPrefix),
				infra.WithStatsTTL(cfg.RateStatsTTL),
				infra.WithStatsBucket(cfg.RateStatsBucket),
				infra.WithStatsTrackKeys(cfg.RateStatsTrackKeys),
			)
			opts.Stats = rs
			statsStore = rs
		default:
			mem := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.RateStatsTrackKeys))
			opts.Stats = mem
			statsStore = mem
		}
	}

	if cfg.RateEnabled {
		policy := domain.Policy{Limit: cfg.RateLimit, Window: cfg.RateWindow}

		var store domain.WindowStore
		if cfg.RateRedisAddr != "" && rdb != nil {
			store = infra.NewRedisWindowStore(rdb, policy, infra.WithWindowPrefix(cfg.RateRedisPrefix))
		} else {
			mem := infra.NewWindowStore(policy, infra.WithWindowCleanupEvery(cfg.RateJanitorEvery))
			mem.StartJanitor(ctx)
			store = mem
		}

		opts.RateLimit = ratelimit.Middleware(ratelimit.Options{
			Store:               store,
			Stats:               statsStore,
			KeyHeader:           cfg.RateKeyHeader,
			TrustXForwardedFor:  cfg.TrustXFF,
			RejectStatus:        http.StatusTooManyRequests,
			AddRateLimitHeaders: cfg.AddHeaders,
			FailOpen:            cfg.RateFailOpen,
			OnError: func(r *http.Request, err error) {
				logger.Warn("rate limiter error",
					zap.String("request_id", server.GetRequestID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Error(err))
			},
		})
	}

	return server.New(opts), nil
}
