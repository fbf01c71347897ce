// Command x5d serves the X5 index over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/x5geo/x5-index/internal/cache/redisstore"
	"github.com/x5geo/x5-index/internal/cellstore"
	"github.com/x5geo/x5-index/internal/core/config"
	"github.com/x5geo/x5-index/internal/core/health"
	"github.com/x5geo/x5-index/internal/core/observability"
	"github.com/x5geo/x5-index/internal/core/router"
	"github.com/x5geo/x5-index/internal/core/server"
	"github.com/x5geo/x5-index/internal/hotness/expdecay"
	"github.com/x5geo/x5-index/internal/hotness/metricswrap"
	"github.com/x5geo/x5-index/internal/ingest"
	"github.com/x5geo/x5-index/internal/ingest/kafkaconsumer"
	"github.com/x5geo/x5-index/internal/logger"
	"github.com/x5geo/x5-index/internal/metrics"
	"github.com/x5geo/x5-index/internal/vocab"
	"github.com/x5geo/x5-index/pkg/codec"
	"github.com/x5geo/x5-index/pkg/x5"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "x5d",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	if err := cfg.Validate(); err != nil {
		appLog.Error("invalid configuration", "err", err)
		return 1
	}

	var words *codec.Vocabulary
	if cfg.VocabFile != "" {
		v, err := vocab.Load(cfg.VocabFile)
		if err != nil {
			appLog.Error("vocabulary load failed", "file", cfg.VocabFile, "err", err)
			return 1
		}
		words = v
		appLog.Info("vocabulary loaded", "file", cfg.VocabFile, "nouns", v.Nouns(), "adjectives", v.Adjectives())
	}
	idx, err := x5.New(cfg.Grid, words)
	if err != nil {
		appLog.Error("index setup failed", "err", err)
		return 1
	}

	var metricsHandler http.Handler
	var prov *metrics.Provider
	if cfg.MetricsEnabled {
		prov = metrics.Init(metrics.Config{Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			BuildDate: os.Getenv("BUILD_DATE"),
		}})
		if err := observability.Init(prov.Registerer()); err != nil {
			appLog.Error("metrics setup failed", "err", err)
			return 1
		}
		metricsHandler = prov.Handler()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]health.Check{}
	var rc *redisstore.Client
	if cfg.RedisAddr != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		c, err := redisstore.New(dialCtx, cfg.RedisAddr, cfg.RedisOptions()...)
		cancel()
		switch {
		case err == nil:
			rc = c
			defer func() { _ = rc.Close() }()
			checks["redis"] = rc.Ping
		case cfg.Kafka.Enabled:
			appLog.Error("redis unavailable", "addr", cfg.RedisAddr, "err", err)
			return 1
		default:
			appLog.Warn("redis unavailable, serving from process memory only", "addr", cfg.RedisAddr, "err", err)
		}
	}

	// the shared tier is skipped when the cell cache is off
	var backend cellstore.Backend
	if rc != nil && cfg.CellCache.Enabled {
		backend = rc
	}
	cells := cellstore.New(idx, backend, cellstore.Options{
		Size:      cfg.CellCache.Size,
		TTL:       cfg.CellCache.TTL,
		OpTimeout: cfg.CacheOpTimeout,
		Logger:    &zl,
	})

	tracker := expdecay.New(cfg.HotHalfLife)
	hot := metricswrap.New(tracker, metricswrap.Options{
		Threshold: cfg.HotThreshold,
		LogSample: cfg.HotLogSample,
		Logger:    &zl,
	})

	deps := router.Deps{
		Index:  idx,
		Cells:  cells,
		Hot:    hot,
		H3Res:  cfg.H3Res,
		Logger: appLog,
	}
	if rc != nil {
		deps.Points = rc
	}
	api := router.New(deps)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled {
		proc := ingest.NewProcessor(idx, rc, ingest.Options{
			TTL:     cfg.PointTTL,
			Hotness: hot,
			Logger:  &zl,
		})
		opts := kafkaconsumer.Options{Logger: appLog}
		if prov != nil {
			opts.Register = prov.Registerer()
		}
		consumer := kafkaconsumer.New(kafkaconsumer.FromApp(cfg), proc, opts)
		if err := consumer.Start(gctx); err != nil {
			appLog.Error("ingest start failed", "err", err)
			return 1
		}
		g.Go(func() error {
			<-gctx.Done()
			consumer.Stop()
			return nil
		})
	}

	g.Go(func() error {
		tracker.PruneEvery(gctx, cfg.HotHalfLife, 0.01)
		return nil
	})

	handler := server.NewHandler(appLog, api, server.Options{
		Metrics: metricsHandler,
		Ready:   health.Dependencies(2*time.Second, checks),
	})
	g.Go(func() error {
		return server.Run(gctx, cfg.Addr, appLog, handler)
	})

	appLog.Info("starting x5d",
		"addr", cfg.Addr,
		"version", Version,
		"max_lat", cfg.Grid.MaxLat,
		"step", cfg.Grid.Step,
		"names", idx.HasVocabulary(),
		"redis", rc != nil,
		"ingest", cfg.Kafka.Enabled)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
