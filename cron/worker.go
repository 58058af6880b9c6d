package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"studioz/config"
	"studioz/models"
	"studioz/services/intent"
	"studioz/services/tasks"
	"studioz/utils"
)

const sweepSchedule = "@every 1m"

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitIntentSweepWorker runs the sweep worker and its scheduler in background.
// The returned func stops both.
func InitIntentSweepWorker(ctx context.Context, log intent.Log, maxAge time.Duration) (func(), error) {
	logger := utils.GetLogger()
	opts := redisOpts()

	srv := asynq.NewServer(
		opts,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeIntentSweep, handleIntentSweepTask(log, maxAge, time.Now))

	task, err := tasks.NewIntentSweepTask(maxAge)
	if err != nil {
		return nil, err
	}
	scheduler := asynq.NewScheduler(opts, &asynq.SchedulerOpts{Location: config.AppConfig.Location()})
	if _, err := scheduler.Register(sweepSchedule, task); err != nil {
		return nil, fmt.Errorf("register intent sweep: %w", err)
	}

	go monitorRedisConnection(ctx)

	// Start async worker with retry logic
	go func() {
		logger.Info("Starting intent sweep worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Start(mux); err != nil {
				logger.Warn("Intent sweep worker failed to start",
					zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))

				if attempts == maxAttempts {
					logger.Error("Intent sweep worker gave up; stale intents will not be compensated")
					return
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
				continue
			}
			if err := scheduler.Start(); err != nil {
				logger.Error("Intent sweep scheduler failed to start", zap.Error(err))
			}
			return
		}
	}()

	return func() {
		scheduler.Shutdown()
		srv.Shutdown()
	}, nil
}

func handleIntentSweepTask(log intent.Log, defaultAge time.Duration, now func() time.Time) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.IntentSweepPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			utils.GetLogger().Error("Invalid intent sweep payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		age := defaultAge
		if p.MaxAgeSeconds > 0 {
			age = time.Duration(p.MaxAgeSeconds) * time.Second
		}

		if _, err := log.Sweep(ctx, now().Add(-age)); err != nil {
			utils.GetLogger().Error("Intent sweep failed", zap.Error(err))
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings the queue database periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context) {
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
			if err := client.Ping(ctx).Err(); err != nil {
				utils.GetLogger().Warn("Queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
