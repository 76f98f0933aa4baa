package tasks

import (
	"context"

	"github.com/cinematch/cinematch/internal/config"
	"github.com/cinematch/cinematch/internal/scheduler"
)

// SessionEvictionTaskID identifies the idle session eviction task.
const SessionEvictionTaskID = "session-eviction"

// IdleEvictor removes sessions that have been idle for too long.
type IdleEvictor interface {
	EvictIdle() int
}

// RegisterSessionEvictionTask registers the idle session eviction task with the scheduler.
func RegisterSessionEvictionTask(sched *scheduler.Scheduler, evictor IdleEvictor, cfg *config.SessionConfig) error {
	if cfg.IdleTimeout <= 0 || cfg.EvictionCron == "" {
		return nil // Sessions never expire
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          SessionEvictionTaskID,
		Name:        "Idle Session Eviction",
		Description: "Removes interaction sessions with no activity and no connected client",
		Cron:        cfg.EvictionCron,
		Func: func(ctx context.Context) error {
			evictor.EvictIdle()
			return nil
		},
	})
}
