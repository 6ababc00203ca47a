// Command train fits the learned ranker once against the configured store
// and writes the artifact to MODEL_DIR. With -enqueue it hands the run to
// the retrain worker instead.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"servicehub/config"
	"servicehub/cron"
	"servicehub/database"
	"servicehub/services/ranking"
	"servicehub/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	enqueue := flag.Bool("enqueue", false, "submit the run to the training queue instead of running inline")
	reason := flag.String("reason", "manual", "reason recorded on the queued task")
	flag.Parse()

	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *enqueue {
		info, err := cron.Enqueue(ctx, *reason)
		if errors.Is(err, asynq.ErrDuplicateTask) {
			logger.Info("A retrain is already queued")
			return
		}
		if err != nil {
			logger.Fatal("Failed to enqueue retrain", zap.Error(err))
		}
		logger.Info("Enqueued retrain", zap.String("task_id", info.ID), zap.String("queue", info.Queue))
		return
	}

	reader, closeStore, err := database.OpenSnapshot(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open snapshot store", zap.String("store", cfg.DataStore), zap.Error(err))
	}
	defer closeStore()

	job := &ranking.Job{
		Reader: reader,
		Store:  ranking.NewStore(cfg.ModelDir),
		Params: ranking.ParamsFromConfig(cfg),
		Logger: logger,
	}
	result, err := job.Run(ctx)
	if err != nil {
		closeStore()
		logger.Fatal("Training failed", zap.Error(err))
	}
	logger.Info("Training finished",
		zap.String("run_id", result.RunID),
		zap.String("dir", cfg.ModelDir),
		zap.Int("rows", result.Rows),
		zap.Int("best_iteration", result.Manifest.BestIteration),
		zap.Duration("took", result.Duration),
	)
}
