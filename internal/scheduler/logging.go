package scheduler

import (
	"context"
	"time"

	obscontext "github.com/smallbiznis/aquabill/internal/observability/context"
	obslogger "github.com/smallbiznis/aquabill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/aquabill/internal/observability/metrics"
	"go.uber.org/zap"
)

// jobRun tallies one execution of a scheduled job.
type jobRun struct {
	job       string
	id        string
	startedAt time.Time

	imported int
	failed   int
	skipped  int
	errors   int
}

func (r *jobRun) fileImported() { r.imported++ }

func (r *jobRun) fileSkipped() { r.skipped++ }

func (r *jobRun) fileFailed() {
	r.failed++
	r.errors++
}

func (s *Scheduler) startJobRun(ctx context.Context, job string) (context.Context, *jobRun) {
	run := &jobRun{
		job:       job,
		id:        s.genID.Generate().String(),
		startedAt: s.clock.Now(),
	}
	return obscontext.WithJobRunID(ctx, run.id), run
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logJobStart(ctx context.Context, run *jobRun) {
	s.logger(ctx).Info("scheduler.job.start",
		zap.String("job", run.job),
		zap.String("dir", s.cfg.Dir),
	)
}

func (s *Scheduler) logJobFinish(ctx context.Context, run *jobRun) {
	fields := []zap.Field{
		zap.String("job", run.job),
		zap.Int64("duration_ms", s.clock.Now().Sub(run.startedAt).Milliseconds()),
		zap.Int("imported", run.imported),
		zap.Int("failed", run.failed),
		zap.Int("skipped", run.skipped),
	}
	if run.errors > 0 {
		s.logger(ctx).Warn("scheduler.job.finish", append(fields, zap.Int("error_count", run.errors))...)
		return
	}
	s.logger(ctx).Info("scheduler.job.finish", fields...)
}

// logFileFailure records a file the ingestion service rejected; the file itself
// is moved aside so the next scan does not retry it.
func (s *Scheduler) logFileFailure(ctx context.Context, run *jobRun, fileName string, err error) {
	run.fileFailed()
	s.logger(ctx).Error("inbox.file.failed",
		zap.String("job", run.job),
		zap.String("file_name", fileName),
		zap.String("reason", obsmetrics.ClassifyIngestReason(err)),
		zap.Error(err),
	)
}
