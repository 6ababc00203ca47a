package cron

import (
	"context"
	"fmt"
	"time"

	"servicehub/config"
	"servicehub/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisQueueOpt returns the asynq connection for the training queue.
func RedisQueueOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// RetrainWorker owns the asynq server that runs training and the scheduler
// that enqueues it.
type RetrainWorker struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	logger    *zap.Logger
	cancel    context.CancelFunc
}

// InitRetrainWorker starts the training worker in the background and
// registers the periodic retrain. Concurrency is 1 so runs never overlap.
func InitRetrainWorker(runner tasks.Runner, logger *zap.Logger) (*RetrainWorker, error) {
	logger = logger.With(zap.String("component", "retrain_worker"))
	redisOpts := RedisQueueOpt()

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				tasks.QueueTraining: 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRetrainRanker, tasks.NewRetrainHandler(runner, logger))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	task, opts, err := tasks.NewScheduledRetrainTask()
	if err != nil {
		return nil, fmt.Errorf("build retrain task: %w", err)
	}
	entryID, err := scheduler.Register(config.AppConfig.RetrainSchedule, task, opts...)
	if err != nil {
		return nil, fmt.Errorf("register retrain schedule %q: %w", config.AppConfig.RetrainSchedule, err)
	}
	logger.Info("Registered retrain schedule",
		zap.String("schedule", config.AppConfig.RetrainSchedule),
		zap.String("entry_id", entryID),
	)

	ctx, cancel := context.WithCancel(context.Background())
	w := &RetrainWorker{srv: srv, scheduler: scheduler, logger: logger, cancel: cancel}

	go monitorRedisConnection(ctx, logger)

	go func() {
		logger.Info("Starting retrain worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				break
			}
			logger.Error("Failed to start retrain worker",
				zap.Int("attempt", attempts), zap.Int("max_attempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Max retry attempts reached; retraining disabled")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
		if err := scheduler.Start(); err != nil {
			logger.Error("Failed to start retrain scheduler", zap.Error(err))
		}
	}()
	return w, nil
}

// Shutdown stops the scheduler and waits for an active run to finish.
func (w *RetrainWorker) Shutdown() {
	w.cancel()
	w.scheduler.Shutdown()
	w.srv.Shutdown()
	w.logger.Info("Retrain worker stopped")
}

// Enqueue submits a one-off retrain. A run already queued is reported as
// asynq.ErrDuplicateTask.
func Enqueue(ctx context.Context, reason string) (*asynq.TaskInfo, error) {
	client := asynq.NewClient(RedisQueueOpt())
	defer client.Close()

	task, opts, err := tasks.NewRetrainTask(reason)
	if err != nil {
		return nil, err
	}
	return client.EnqueueContext(ctx, task, opts...)
}

// monitorRedisConnection pings the queue Redis periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
				logger.Warn("Queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
