package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/api/handlers"
	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/config"
	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/handoff"
	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/handoff/persistence"
	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/internal/metrics"
	"github.com/ChunkyTortoise/jorge-real-estate-bots-sub002/internal/server"
)

// skipAuthPaths are exempt from JWT authentication.
var skipAuthPaths = []string{"/health", "/healthz", "/ready"}

// Server wires the coordinator, its stores, and the two HTTP listeners.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *handoff.Service

	api        *server.Manager
	metricsSrv *server.Manager
	redisStore *persistence.RedisStore
}

// NewServer builds the full service from configuration.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	coordCfg, err := cfg.Coordinator()
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector("jorge_handoff", prometheus.DefaultRegisterer, logger)

	opts := []handoff.Option{
		handoff.WithMetrics(collector),
		handoff.WithEventSink(handoff.NewLogSink(logger)),
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	health := handlers.NewHealthHandler(logger, Version)

	switch cfg.Handoff.Store {
	case "redis":
		store, err := persistence.NewRedisStore(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		s.redisStore = store
		opts = append(opts, handoff.WithStore(store))
		health.RegisterCheck(handlers.NewPingCheck("redis", store.Ping))
	case "sqlite":
		db, err := persistence.OpenSQLite(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		store, err := persistence.NewGormStore(db)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		opts = append(opts, handoff.WithStore(store))
		health.RegisterCheck(handlers.NewPingCheck("sqlite", func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}))
	}

	service, err := handoff.NewService(coordCfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	s.service = service

	mux := http.NewServeMux()
	handlers.NewHandoffHandler(service, logger).RegisterRoutes(mux)
	health.RegisterRoutes(mux)

	middlewares := []Middleware{
		Recovery(logger),
		RequestID(),
		RequestLogger(logger),
		MetricsMiddleware(collector),
		OTelTracing(),
	}
	if cfg.Server.RateLimitRPS > 0 {
		middlewares = append(middlewares,
			RateLimiter(context.Background(), cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger))
	}
	if cfg.Auth.JWTSecret != "" {
		middlewares = append(middlewares, JWTAuth(cfg.Auth, skipAuthPaths, logger))
	}
	handler := Chain(mux, middlewares...)

	s.api = server.NewManager(handler, server.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	s.metricsSrv = server.NewManager(metricsMux, server.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	return s, nil
}

// Run starts both listeners, restores persisted state, and blocks until a
// shutdown signal or a fatal server error.
func (s *Server) Run() error {
	restoreCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.service.Restore(restoreCtx); err != nil {
		s.logger.Warn("state restore incomplete", zap.Error(err))
	}

	if err := s.api.Start(); err != nil {
		return fmt.Errorf("api listener: %w", err)
	}
	if err := s.metricsSrv.Start(); err != nil {
		s.shutdown()
		return fmt.Errorf("metrics listener: %w", err)
	}

	s.logger.Info("listening",
		zap.String("api_addr", s.api.Addr()),
		zap.String("metrics_addr", s.metricsSrv.Addr()),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		s.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-s.api.Errors():
		s.logger.Error("api server failed", zap.Error(err))
	case err := <-s.metricsSrv.Errors():
		s.logger.Error("metrics server failed", zap.Error(err))
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.api.Shutdown(ctx) })
	g.Go(func() error { return s.metricsSrv.Shutdown(ctx) })
	err := g.Wait()

	if s.redisStore != nil {
		if closeErr := s.redisStore.Close(); closeErr != nil {
			s.logger.Warn("redis close failed", zap.Error(closeErr))
		}
	}
	return err
}
