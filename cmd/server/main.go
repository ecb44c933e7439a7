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

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"backtest-service/services/api"
	"backtest-service/services/backtest"
	"backtest-service/services/config"
	"backtest-service/services/engine"
	"backtest-service/services/marketdata"
	"backtest-service/services/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	provider, cleanup, err := newProvider(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	store, storeCleanup, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer storeCleanup()

	eng := engine.New(engine.DeviceConfig{
		Enabled: cfg.DeviceEnabled,
		Workers: cfg.DeviceWorkers,
	}, logger)

	runner := backtest.NewRunner(provider, eng, cfg.SymbolWorkers, logger)

	sched := scheduler.New(store, runner, cfg.MaxConcurrentJobs, logger)
	sched.Start(context.Background())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewServer(sched, eng, logger).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	sched.Stop()

	return nil
}

// newProvider builds the data source router. Synthetic and parquet providers
// are always available per request; ClickHouse is registered only when it is
// the configured default, since it dials the warehouse at construction.
func newProvider(cfg *config.Config, logger *zap.Logger) (marketdata.DataProvider, func(), error) {
	router := marketdata.NewRouter(cfg.DataSource)
	router.Register("synthetic", marketdata.NewSyntheticProvider())
	router.Register("parquet", marketdata.NewParquetProvider(cfg.ParquetDir, logger))
	cleanup := func() {}

	switch cfg.DataSource {
	case "clickhouse":
		provider, err := marketdata.NewClickHouseProvider(marketdata.ClickHouseConfig{
			Addr:     cfg.ClickHouse.Addr,
			Database: cfg.ClickHouse.Database,
			Username: cfg.ClickHouse.Username,
			Password: cfg.ClickHouse.Password,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse provider: %w", err)
		}
		router.Register("clickhouse", provider)
		cleanup = func() { provider.Close() }
	case "synthetic", "parquet":
	default:
		return nil, nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}

	return router, cleanup, nil
}

func newStore(cfg *config.Config) (scheduler.Store, func(), error) {
	switch cfg.JobStore {
	case "sqlite":
		store, err := scheduler.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		return store, func() { store.Close() }, nil
	case "memory":
		return scheduler.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown job store %q", cfg.JobStore)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
