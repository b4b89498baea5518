package scheduler

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig, ProvideLocker, New),
	fx.Invoke(runInbox),
)

// runInbox ties the cron loop to the app lifecycle. Stopping waits for an
// in-flight import until the shutdown deadline.
func runInbox(lc fx.Lifecycle, cfg Config, sched *Scheduler) {
	if !cfg.Enabled {
		sched.log.Info("inbox import disabled")
		return
	}

	lc.Append(fx.StartStopHook(
		sched.Start,
		func(ctx context.Context) {
			select {
			case <-sched.Stop().Done():
			case <-ctx.Done():
				sched.log.Warn("inbox import still running at shutdown", zap.Error(ctx.Err()))
			}
		},
	))
}
