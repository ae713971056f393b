package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/point-ledger/internal/api"
	"github.com/baharkarakas/point-ledger/internal/api/handlers"
	"github.com/baharkarakas/point-ledger/internal/config"
	"github.com/baharkarakas/point-ledger/internal/db"
	"github.com/baharkarakas/point-ledger/internal/jobs"
	"github.com/baharkarakas/point-ledger/internal/lock"
	"github.com/baharkarakas/point-ledger/internal/logger"
	"github.com/baharkarakas/point-ledger/internal/metrics"
	repo "github.com/baharkarakas/point-ledger/internal/repository"
	"github.com/baharkarakas/point-ledger/internal/repository/memory"
	"github.com/baharkarakas/point-ledger/internal/repository/postgres"
	"github.com/baharkarakas/point-ledger/internal/repository/sqlite"
	"github.com/baharkarakas/point-ledger/internal/services"
	"github.com/baharkarakas/point-ledger/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error("store", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}
	defer stores.Close()

	metrics.Init()

	locks := lock.NewKeyed[int64]()
	wp := worker.NewPool(cfg.WorkerCount)
	defer wp.Stop()

	pointSvc := services.NewPointService(stores.Balances, stores.Histories, locks,
		services.WithMaxCharge(cfg.MaxCharge),
		services.WithLogger(log),
	)
	rec := services.NewReconciler(stores.Balances, stores.Histories, locks, wp, log)

	sched := jobs.NewScheduler(rec, log)
	if err := sched.Start(ctx, cfg.ReconcileSchedule); err != nil {
		log.Error("scheduler", "err", err)
		os.Exit(1)
	}
	defer sched.Stop()

	r := api.NewRouter(handlers.NewPointHandler(pointSvc, rec))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "backend", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (repo.Stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return repo.Stores{}, err
		}
		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return repo.Stores{}, fmt.Errorf("migrations: %w", err)
			}
		}
		return postgres.NewRepositories(pool), nil
	case config.BackendSQLite:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return repo.Stores{}, err
		}
		log.Info("sqlite opened", "path", cfg.SQLitePath)
		return s.Stores(), nil
	default:
		lat := memory.Latency{Min: cfg.StoreLatencyMin, Max: cfg.StoreLatencyMax}
		log.Info("memory store", "latency_min", lat.Min, "latency_max", lat.Max)
		return memory.NewRepositories(lat), nil
	}
}
