package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/applyme/internal/adapter/httpserver"
	"github.com/pscheid92/applyme/internal/adapter/metrics"
	"github.com/pscheid92/applyme/internal/adapter/redis"
	"github.com/pscheid92/applyme/internal/apiclient"
	"github.com/pscheid92/applyme/internal/app"
	"github.com/pscheid92/applyme/internal/platform/config"
	"github.com/pscheid92/applyme/internal/platform/logging"
	"github.com/pscheid92/applyme/internal/session"
	goredis "github.com/redis/go-redis/v9"
)

func runGracefulShutdown(srv *httpserver.Server, appSvc *app.Service) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		appSvc.Stop()

		close(done)
	}()

	return done
}

func setupRedis(ctx context.Context, cfg *config.Config, observer redis.OpObserver) (*goredis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	client.AddHook(redis.NewMetricsHook(observer))
	return client, nil
}

func setupAPIClient(cfg *config.Config, observer apiclient.Observer, clock clockwork.Clock) *apiclient.Client {
	opts := []apiclient.Option{
		apiclient.WithObserver(observer),
		apiclient.WithClock(clock),
		apiclient.WithTimeout(cfg.APITimeout),
	}
	if cfg.APIBreakerEnabled {
		opts = append(opts, apiclient.WithBreaker(apiclient.DefaultBreakerSettings()))
	}
	return apiclient.New(cfg.APIBaseURL, opts...)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	clock := clockwork.NewRealClock()
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "api_base_url", cfg.APIBaseURL)

	reg := metrics.NewRegistry()
	apiMetrics := metrics.NewAPIMetrics(reg)
	actionMetrics := metrics.NewActionMetrics(reg)

	apiClient := setupAPIClient(cfg, apiMetrics, clock)

	healthChecks := []httpserver.HealthCheck{
		{Name: "applyme_api", Check: apiClient.Health},
	}

	sessOpts := session.Options{
		Secret: cfg.SessionSecret,
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.AppEnv == "production",
		Clock:  clock,
	}

	if cfg.RedisURL != "" {
		redisClient, err := setupRedis(context.Background(), cfg, metrics.NewRedisMetrics(reg))
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()

		tokenStore := redis.NewTokenStore(redisClient, cfg.SessionMaxAge)
		healthChecks = append(healthChecks, httpserver.HealthCheck{Name: "redis", Check: tokenStore.Ping})
		sessOpts.Views = redis.NewViewStore(redisClient, cfg.SessionMaxAge)
		if cfg.TokenStore == config.TokenStoreRedis {
			sessOpts.Tokens = tokenStore
		}
	}
	if cfg.TokenStore == config.TokenStoreMemory {
		sessOpts.Tokens = session.NewMemoryTokenStore()
	}

	sessions, err := session.NewManager(sessOpts)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}
	slog.Info("Session stores ready", "token_store", cfg.TokenStore, "server_side_tokens", sessions.ServerSide(), "redis_views", sessOpts.Views != nil)

	appSvc := app.NewService(apiClient, clock, actionMetrics)
	metrics.TrackActionsInFlight(reg, appSvc.Guard().InFlight)

	srv, err := httpserver.NewServer(cfg, appSvc, sessions, reg, healthChecks)
	if err != nil {
		appSvc.Stop()
		return fmt.Errorf("failed to create server: %w", err)
	}

	done := runGracefulShutdown(srv, appSvc)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appSvc.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	return nil
}
