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
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsearch/internal/config"
	dbRedis "github.com/kailas-cloud/vecsearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/vecsearch/internal/logger"
	"github.com/kailas-cloud/vecsearch/internal/metrics"
	"github.com/kailas-cloud/vecsearch/internal/server"
	"github.com/kailas-cloud/vecsearch/internal/transport/memory"
	redistransport "github.com/kailas-cloud/vecsearch/internal/transport/redis"
	"github.com/kailas-cloud/vecsearch/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecsearchd",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend_driver", cfg.Backend.Driver),
		zap.Strings("backend_addrs", cfg.Backend.Addrs),
	)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	backend, closeBackend, err := openBackend(context.Background(), cfg.Backend, logger)
	if err != nil {
		logger.Fatal("Backend not ready", zap.Error(err))
	}
	defer closeBackend()

	r := server.New(backend, logger).Router(cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openBackend builds the storage selected by cfg and waits until it answers.
func openBackend(ctx context.Context, cfg config.BackendConfig, logger *zap.Logger) (server.Backend, func(), error) {
	switch cfg.Driver {
	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
			TLS:      cfg.TLS,
			Valkey:   cfg.Driver == config.DriverValkey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("wait for %s: %w", cfg.Driver, err)
		}
		logger.Info("Connected to backend", zap.String("driver", cfg.Driver))
		return redistransport.New(store), store.Close, nil

	default:
		logger.Info("Using in-memory backend; tables are lost on restart")
		return memory.NewEngine(memory.WithVersion(version.Version)), func() {}, nil
	}
}
