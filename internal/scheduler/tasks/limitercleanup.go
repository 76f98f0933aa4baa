package tasks

import (
	"context"

	"github.com/cinematch/cinematch/internal/scheduler"
)

// LimiterCleanupTaskID identifies the rate limiter cleanup task.
const LimiterCleanupTaskID = "ratelimit-cleanup"

// Cleaner drops state for clients that went away.
type Cleaner interface {
	Cleanup() int
}

// RegisterLimiterCleanupTask registers the task that prunes idle rate limiter buckets.
func RegisterLimiterCleanupTask(sched *scheduler.Scheduler, cleaner Cleaner) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          LimiterCleanupTaskID,
		Name:        "Rate Limiter Cleanup",
		Description: "Drops per-client rate limit buckets that have not been used recently",
		Cron:        "*/10 * * * *",
		Func: func(ctx context.Context) error {
			cleaner.Cleanup()
			return nil
		},
	})
}
