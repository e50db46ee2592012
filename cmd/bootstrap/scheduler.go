package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"support-center/internal/infra/sweeplock"
	"support-center/internal/pkg/config"
	"support-center/internal/usecase/commands"
)

// SchedulerModule runs the reminder sweep on a ticker. The redis lock keeps
// replicas from sweeping at the same time; losing the race is normal and
// just skips the tick.
var SchedulerModule = fx.Module("scheduler",
	fx.Invoke(startReminderScheduler),
)

func startReminderScheduler(
	lc fx.Lifecycle,
	cfg config.Config,
	reminders commands.ReminderCommands,
	lock *sweeplock.RedisLock,
) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go runSweepLoop(ctx, cfg.Scheduler.SweepInterval, reminders, lock, done)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

func runSweepLoop(
	ctx context.Context,
	interval time.Duration,
	reminders commands.ReminderCommands,
	lock *sweeplock.RedisLock,
	done chan<- struct{},
) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sweepOnce(ctx, reminders, lock, now)
		}
	}
}

func sweepOnce(ctx context.Context, reminders commands.ReminderCommands, lock *sweeplock.RedisLock, now time.Time) {
	acquired, err := lock.TryAcquire(ctx)
	if err != nil {
		slog.Error("failed to acquire sweep lock", "error", err)
		return
	}
	if !acquired {
		slog.Debug("sweep lock held elsewhere, skipping tick")
		return
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			slog.Warn("failed to release sweep lock", "error", err)
		}
	}()

	if _, err := reminders.RunSweep(ctx, now); err != nil {
		slog.Error("reminder sweep failed", "error", err)
	}
}
