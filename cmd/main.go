package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/gigbridge/matchd/internal/adapters/dispatch"
	"github.com/gigbridge/matchd/internal/adapters/http/api"
	"github.com/gigbridge/matchd/internal/adapters/http/swagger"
	"github.com/gigbridge/matchd/internal/adapters/repository"
	"github.com/gigbridge/matchd/internal/adapters/settings"
	service "github.com/gigbridge/matchd/internal/app"
	"github.com/gigbridge/matchd/internal/config"
	"github.com/gigbridge/matchd/pkg/logger"
	"github.com/gigbridge/matchd/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 60 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection; the service exports its own
	// system gauges.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithComputeTimeout(cfg.ComputeTimeout),
		service.WithRescoreQueueSize(cfg.RescoreQueueSize),
		service.WithRescoreWorkerCount(cfg.RescoreWorkerCount),
		service.WithRescoreEnabled(cfg.RescoreEnabled),
		service.WithRescoreSchedule(cfg.RescoreCron, cfg.RescoreMaxAge),
		service.WithInviteExpirySchedule(cfg.InviteExpiryCron),
		service.WithHistoryLimit(cfg.SnapshotHistoryLimit),
	}

	// Durable stores are opt-in via configuration; anything not configured
	// falls back to the in-memory implementations inside the service.
	if cfg.DatabaseURL != "" {
		pool, err := repository.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error(ctx, "postgres connection failed", logger.Error(err))
			return
		}
		defer pool.Close()
		if err := repository.EnsureSchema(ctx, pool); err != nil {
			log.Error(ctx, "schema migration failed", logger.Error(err))
			return
		}
		opts = append(opts,
			service.WithSnapshotStore(repository.NewPgSnapshotStore(pool)),
			service.WithRequestStore(repository.NewPgRequestStore(pool)),
			service.WithCandidateStore(repository.NewPgCandidateStore(pool)),
		)
		log.Info(ctx, "using postgres stores")
	}

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error(ctx, "invalid redis url", logger.Error(err))
			return
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error(ctx, "redis connection failed", logger.Error(err))
			return
		}
		opts = append(opts,
			service.WithSettingsStore(settings.NewRedisStoreWithClient(rdb)),
			service.WithLedger(dispatch.NewRedisLedger(rdb)),
		)
		log.Info(ctx, "using redis settings store and invitation ledger")
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.NewServer().Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater periodically refreshes process-level gauges.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
