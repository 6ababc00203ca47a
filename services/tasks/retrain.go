package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicehub/services/ranking"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeRetrainRanker = "ranker:retrain"
	QueueTraining     = "training"
)

// RetrainPayload describes why a training run was requested. RequestedAt is
// set for one-off runs only; periodic tasks are built once at registration.
type RetrainPayload struct {
	Reason      string     `json:"reason"`
	RequestedAt *time.Time `json:"requested_at,omitempty"`
}

// NewRetrainTask builds a one-off training task stamped with the current time.
func NewRetrainTask(reason string) (*asynq.Task, []asynq.Option, error) {
	now := time.Now().UTC()
	return newRetrainTask(RetrainPayload{Reason: reason, RequestedAt: &now})
}

// NewScheduledRetrainTask builds the periodic training task.
func NewScheduledRetrainTask() (*asynq.Task, []asynq.Option, error) {
	return newRetrainTask(RetrainPayload{Reason: "schedule"})
}

// newRetrainTask encodes p. Unique keeps a second copy from being queued
// while one is pending or running.
func newRetrainTask(p RetrainPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeRetrainRanker, b)
	opts := []asynq.Option{
		asynq.Queue(QueueTraining),
		asynq.Unique(2 * time.Hour),
		asynq.MaxRetry(2),
		asynq.Timeout(time.Hour),
	}
	return task, opts, nil
}

// Runner is one offline training pass.
type Runner interface {
	Run(ctx context.Context) (*ranking.RunResult, error)
}

// NewRetrainHandler runs the training job for each task. Runs that found no
// training data are not retried.
func NewRetrainHandler(runner Runner, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p RetrainPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid retrain payload", zap.Error(err))
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
		fields := []zap.Field{zap.String("reason", p.Reason)}
		if p.RequestedAt != nil {
			fields = append(fields, zap.Time("requested_at", *p.RequestedAt))
		}
		logger.Info("Retraining ranker", fields...)

		result, err := runner.Run(ctx)
		if errors.Is(err, ranking.ErrNoTrainingData) {
			logger.Warn("Skipping retrain without training data")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err != nil {
			return err
		}
		logger.Info("Retrain complete", zap.String("run_id", result.RunID), zap.String("version", result.Manifest.Version))
		return nil
	}
}
