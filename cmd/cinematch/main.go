package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cinematch/cinematch/internal/api"
	"github.com/cinematch/cinematch/internal/config"
	"github.com/cinematch/cinematch/internal/logger"
	"github.com/cinematch/cinematch/internal/metadata"
	"github.com/cinematch/cinematch/internal/metadata/tmdb"
	"github.com/cinematch/cinematch/internal/metrics"
	"github.com/cinematch/cinematch/internal/scheduler"
	"github.com/cinematch/cinematch/internal/scheduler/tasks"
	"github.com/cinematch/cinematch/internal/startup"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting CineMatch")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	client := tmdb.NewClient(cfg.TMDB, log.Logger)
	if !client.IsConfigured() {
		log.Warn().Msg("no TMDB API key configured, searches will fail")
	}

	var catalog metadata.CatalogClient = client
	if cfg.TMDB.Breaker.Enabled {
		catalog = tmdb.NewBreakerClient(client, cfg.TMDB.Breaker, log.Logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if client.IsConfigured() {
		// a failed probe is logged; the server starts regardless
		_ = startup.ProbeCatalog(ctx, catalog, startup.DefaultRetryConfig(), log.Logger)
	}

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}

	server := api.NewServer(cfg, catalog, sched, registry, log.Logger)

	if err := tasks.RegisterSessionEvictionTask(sched, server.Sessions(), &cfg.Session); err != nil {
		log.Fatal().Err(err).Msg("failed to register session eviction task")
	}
	if limiter := server.CreateLimiter(); limiter != nil {
		if err := tasks.RegisterLimiterCleanupTask(sched, limiter); err != nil {
			log.Fatal().Err(err).Msg("failed to register limiter cleanup task")
		}
	}
	sched.Start()

	hubCtx, stopHub := context.WithCancel(context.Background())
	go server.Hub().Run(hubCtx)

	go func() {
		addr := cfg.Server.Address()
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("address", addr).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	stopHub()
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}

	log.Info().Msg("server stopped")
}
