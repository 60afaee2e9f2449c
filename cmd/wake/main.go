// Command wake powers the worker node on (or, with -sleep, suspends it) and
// exits. With -status it only probes and reports. Handy for debugging the
// node without running the whole pipeline.
//
// Exit codes: 0 = success, 1 = error (with -status: node not reachable).
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/travelbuddy/backend/internal/app"
	"github.com/travelbuddy/backend/internal/config"
	"github.com/travelbuddy/backend/internal/wol"
)

func main() {
	doSleep := flag.Bool("sleep", false, "suspend the worker node instead of waking it")
	status := flag.Bool("status", false, "report whether the worker node is reachable and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	coordinator, err := wol.NewCoordinator(cfg.WorkerNode, logger)
	if err != nil {
		logger.Error("init wake coordinator", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *status {
		if coordinator.IsReachable(ctx) {
			logger.Info("worker node is reachable", slog.String("host", cfg.WorkerNode.Host))
			return
		}
		logger.Info("worker node is not reachable", slog.String("host", cfg.WorkerNode.Host))
		os.Exit(1)
	}

	if *doSleep {
		if err := coordinator.RequestSleep(ctx); err != nil {
			logger.Error("suspend failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	if err := coordinator.Wake(ctx); err != nil {
		logger.Error("wake failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
