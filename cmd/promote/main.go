// Command promote runs only the promotion stage: it clusters processed tips
// per location and upserts promotions, without touching pending tips or the
// worker node's power state. Useful after tuning the similarity threshold.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

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
	promotionsvc "github.com/travelbuddy/backend/internal/service/promotion"
	"github.com/travelbuddy/backend/pkg/ctxutil"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = ctxutil.WithRunID(ctx, uuid.New())
	logger = ctxutil.LoggerWithRunID(ctx, logger)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	client := worker.NewClient(cfg.WorkerNode, cfg.Processing, logger)

	engine := promotionsvc.NewService(
		logger,
		locationrepo.New(pool),
		tiprepo.New(pool),
		embeddingrepo.New(pool),
		promotionrepo.New(pool),
		client,
		cfg.Promotion.SimilarityThreshold, cfg.Promotion.MinMentions,
	)

	promoted, err := engine.Run(ctx)
	if err != nil {
		logger.Error("promotion failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("promotion completed", slog.Int("promoted", len(promoted)))
}
