// Command x5-ingest consumes point events from Kafka, addresses them on the
// X5 grid and stores the records in Redis.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/x5geo/x5-index/internal/cache/redisstore"
	"github.com/x5geo/x5-index/internal/core/config"
	"github.com/x5geo/x5-index/internal/core/health"
	"github.com/x5geo/x5-index/internal/core/observability"
	"github.com/x5geo/x5-index/internal/hotness/expdecay"
	"github.com/x5geo/x5-index/internal/hotness/metricswrap"
	"github.com/x5geo/x5-index/internal/ingest"
	"github.com/x5geo/x5-index/internal/ingest/kafkaconsumer"
	"github.com/x5geo/x5-index/internal/logger"
	"github.com/x5geo/x5-index/internal/metrics"
	"github.com/x5geo/x5-index/pkg/x5"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()
	// this binary always ingests
	cfg.Kafka.Enabled = true

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "x5-ingest",
		Component: "ingest",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	if err := cfg.Validate(); err != nil {
		appLog.Error("invalid configuration", "err", err)
		return 1
	}

	// names are not stored with points, so no vocabulary is needed here
	idx, err := x5.New(cfg.Grid, nil)
	if err != nil {
		appLog.Error("index setup failed", "err", err)
		return 1
	}

	prov := metrics.Init(metrics.Config{Build: metrics.BuildInfo{
		Version:   Version,
		Revision:  os.Getenv("BUILD_REVISION"),
		BuildDate: os.Getenv("BUILD_DATE"),
	}})
	if err := observability.Init(prov.Registerer()); err != nil {
		appLog.Error("metrics setup failed", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	rc, err := redisstore.New(dialCtx, cfg.RedisAddr, cfg.RedisOptions()...)
	cancel()
	if err != nil {
		appLog.Error("redis unavailable", "addr", cfg.RedisAddr, "err", err)
		return 1
	}
	defer func() { _ = rc.Close() }()

	tracker := expdecay.New(cfg.HotHalfLife)
	hot := metricswrap.New(tracker, metricswrap.Options{
		Threshold: cfg.HotThreshold,
		LogSample: cfg.HotLogSample,
		Logger:    &zl,
	})

	proc := ingest.NewProcessor(idx, rc, ingest.Options{
		TTL:     cfg.PointTTL,
		Hotness: hot,
		Logger:  &zl,
	})
	consumer := kafkaconsumer.New(kafkaconsumer.FromApp(cfg), proc, kafkaconsumer.Options{
		Logger:   appLog,
		Register: prov.Registerer(),
	})

	r := chi.NewRouter()
	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(consumer))
	if cfg.MetricsEnabled {
		r.Handle(prov.Path(), prov.Handler())
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := consumer.Start(gctx); err != nil {
		appLog.Error("consumer start failed", "err", err)
		return 1
	}
	g.Go(func() error {
		<-gctx.Done()
		consumer.Stop()
		return nil
	})
	g.Go(func() error {
		tracker.PruneEvery(gctx, cfg.HotHalfLife, 0.01)
		return nil
	})
	g.Go(func() error {
		appLog.Info("admin listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	appLog.Info("starting x5-ingest",
		"version", Version,
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.Topic,
		"group", cfg.Kafka.GroupID,
		"redis", cfg.RedisAddr)

	if err := g.Wait(); err != nil {
		appLog.Error("ingest exited with error", "err", err)
		return 1
	}
	appLog.Info("ingest stopped")
	return 0
}
