package ranking

import (
	"context"
	"fmt"
	"time"

	snapshotRepo "servicehub/database/repository/snapshot"
	"servicehub/services/features"
	"servicehub/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunResult summarizes one training run.
type RunResult struct {
	RunID      string
	Rows       int
	Users      int
	Dropped    int
	Degenerate bool
	Manifest   *Manifest
	Duration   time.Duration
}

// Job runs one offline training pass: read history, build features, split
// by user, train and persist. It never writes to the snapshot store.
type Job struct {
	Reader snapshotRepo.Reader
	Store  *Store
	Params Params
	Logger *zap.Logger
}

// Run executes the job. A failed run leaves any previous artifact untouched.
func (j *Job) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger := j.Logger.With(zap.String("component", "ranker_training"), zap.String("run_id", runID))

	result, err := j.run(ctx, runID, logger)
	if err != nil {
		utils.TrainingRuns.WithLabelValues("failed").Inc()
		logger.Error("Training run failed", zap.Error(err))
		return nil, err
	}
	result.Duration = time.Since(start)
	utils.TrainingRuns.WithLabelValues("success").Inc()
	for name, v := range result.Manifest.ValidNDCG {
		utils.TrainingBestNDCG.WithLabelValues(name).Set(v)
	}
	logger.Info("Training run finished",
		zap.Int("rows", result.Rows),
		zap.Int("users", result.Users),
		zap.Int("best_iteration", result.Manifest.BestIteration),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (j *Job) run(ctx context.Context, runID string, logger *zap.Logger) (*RunResult, error) {
	interactions, err := j.Reader.ListInteractions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	locations, err := j.Reader.ListUserLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load user locations: %w", err)
	}

	set := features.BuildTrainingSet(interactions, locations)
	if set.DroppedNoLocation > 0 {
		logger.Warn("Dropped rows for users without location", zap.Int("rows", set.DroppedNoLocation))
	}
	if len(set.Rows) == 0 {
		return nil, ErrNoTrainingData
	}

	split := SplitByUser(set.Rows, j.Params.TestFraction, j.Params.Seed)
	if split.Degenerate {
		logger.Warn("Fewer than two users; validating on the training set",
			zap.Int("rows", len(set.Rows)))
	}
	logger.Info("Training ranker",
		zap.Int("train_rows", split.Train.Len()),
		zap.Int("valid_rows", split.Valid.Len()),
		zap.Int("train_users", split.TrainUsers),
		zap.Int("valid_users", split.ValidUsers),
	)

	model, err := NewTrainer(j.Params, logger).Train(ctx, split.Train, split.Valid)
	if err != nil {
		return nil, err
	}
	model.Version = runID
	model.TrainedAt = time.Now().UTC()

	manifest, err := j.Store.Save(model)
	if err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}
	return &RunResult{
		RunID:      runID,
		Rows:       len(set.Rows),
		Users:      set.Users,
		Dropped:    set.DroppedNoLocation,
		Degenerate: split.Degenerate,
		Manifest:   manifest,
	}, nil
}
