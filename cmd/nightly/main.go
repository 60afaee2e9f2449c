// Command nightly runs one full pipeline pass: wake the worker node,
// translate and embed all pending tips, promote frequently mentioned tips,
// then optionally put the worker back to sleep. It is meant to be driven by
// cron on the always-on node.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/travelbuddy/backend/internal/adapter/postgres"
	embeddingrepo "github.com/travelbuddy/backend/internal/adapter/postgres/embedding"
	locationrepo "github.com/travelbuddy/backend/internal/adapter/postgres/location"
	promotionrepo "github.com/travelbuddy/backend/internal/adapter/postgres/promotion"
	tiprepo "github.com/travelbuddy/backend/internal/adapter/postgres/tip"
	"github.com/travelbuddy/backend/internal/adapter/worker"
	"github.com/travelbuddy/backend/internal/app"
	"github.com/travelbuddy/backend/internal/config"
	processingsvc "github.com/travelbuddy/backend/internal/service/processing"
	promotionsvc "github.com/travelbuddy/backend/internal/service/promotion"
	"github.com/travelbuddy/backend/internal/wol"
	"github.com/travelbuddy/backend/pkg/ctxutil"
)

func main() {
	noWake := flag.Bool("no-wake", false, "assume the worker node is already awake")
	noPromotion := flag.Bool("no-promotion", false, "skip the promotion stage")
	sleepWorker := flag.Bool("sleep-worker", false, "suspend the worker node after the run")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = ctxutil.WithRunID(ctx, uuid.New())
	logger = ctxutil.LoggerWithRunID(ctx, logger)

	logger.Info("starting nightly run", slog.String("version", app.BuildVersion()))

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	coordinator, err := wol.NewCoordinator(cfg.WorkerNode, logger)
	if err != nil {
		logger.Error("init wake coordinator", slog.String("error", err.Error()))
		os.Exit(1)
	}

	client := worker.NewClient(cfg.WorkerNode, cfg.Processing, logger)

	tips := tiprepo.New(pool)
	embeddings := embeddingrepo.New(pool)

	dispatcher := processingsvc.NewDispatcher(client, cfg.Processing.SubBatchSize, cfg.Processing.Workers, logger)

	var waker interface{ Wake(context.Context) error }
	if !*noWake {
		waker = coordinator
	}

	processor := processingsvc.NewService(
		logger, tips, embeddings,
		postgres.NewTxManager(pool),
		client, waker, dispatcher,
		cfg.Processing.BatchSize, cfg.Processing.TargetLanguage,
	)

	stats, err := processor.Run(ctx)
	if err != nil {
		if errors.Is(err, processingsvc.ErrWorkerUnavailable) {
			logger.Error("worker node unavailable, nothing processed")
		} else {
			logger.Error("pipeline run failed", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}

	logger.Info("processing stage done",
		slog.Int("processed", stats.Processed),
		slog.Int("translated", stats.Translated),
		slog.Int("embedded", stats.Embedded),
		slog.Int("errors", stats.Errors),
	)

	if !*noPromotion {
		engine := promotionsvc.NewService(
			logger,
			locationrepo.New(pool), tips, embeddings, promotionrepo.New(pool),
			client,
			cfg.Promotion.SimilarityThreshold, cfg.Promotion.MinMentions,
		)
		promoted, err := engine.Run(ctx)
		if err != nil {
			logger.Error("promotion stage failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("promotion stage done", slog.Int("promoted", len(promoted)))
	}

	if *sleepWorker {
		if err := coordinator.RequestSleep(ctx); err != nil {
			logger.Warn("failed to suspend worker node", slog.String("error", err.Error()))
		}
	}
}
