package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/aquabill/internal/clock"
	ingestdomain "github.com/smallbiznis/aquabill/internal/ingest/domain"
	obsmetrics "github.com/smallbiznis/aquabill/internal/observability/metrics"
	"github.com/smallbiznis/aquabill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const inboxJob = "inbox_import"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log       *zap.Logger
	IngestSvc ingestdomain.Service
	GenID     *snowflake.Node
	Clock     clock.Clock                `optional:"true"`
	Metrics   *obsmetrics.IngestMetrics `optional:"true"`
	Config    Config                     `optional:"true"`
	Locker    Locker                     `optional:"true"`
}

type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	genID     *snowflake.Node
	clock     clock.Clock
	ingestSvc ingestdomain.Service
	metrics   *obsmetrics.IngestMetrics
	locker    Locker

	mu   sync.Mutex
	cron *cron.Cron
}

// InboxResult summarizes one inbox scan.
type InboxResult struct {
	Processed []string
	Failed    []string
	Skipped   []string
	// Deferred files hit a timeout or transient database error and stay in the inbox.
	Deferred []string
	// Locked is set when another replica held the inbox lock and nothing was scanned.
	Locked bool
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.IngestSvc == nil || p.GenID == nil {
		return nil, ErrInvalidConfig
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       p.Config.withDefaults(),
		genID:     p.GenID,
		clock:     clk,
		ingestSvc: p.IngestSvc,
		metrics:   p.Metrics,
		locker:    p.Locker,
	}, nil
}

// Start registers the inbox job on the configured cron schedule.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	logger := cronLogger{log: s.log}
	c := cron.New(
		cron.WithLocation(s.clock.Now().Location()),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule %s %q: %w", inboxJob, s.cfg.Schedule, err)
	}

	c.Start()
	s.cron = c
	s.log.Info("scheduler started",
		zap.String("job", inboxJob),
		zap.String("schedule", s.cfg.Schedule),
		zap.String("dir", s.cfg.Dir),
	)
	return nil
}

// Stop halts the cron loop. The returned context is done once a running scan finishes.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	ctx := s.cron.Stop()
	s.cron = nil
	return ctx
}

// RunOnce scans the inbox and ingests every file whose name carries a known file type prefix.
func (s *Scheduler) RunOnce(parent context.Context) (InboxResult, error) {
	var result InboxResult
	err := s.runJob(parent, inboxJob, s.cfg.JobTimeout, func(ctx context.Context, run *jobRun) error {
		release, ok, err := s.acquire(ctx)
		if err != nil {
			return err
		}
		if !ok {
			result.Locked = true
			s.logger(ctx).Info("inbox locked by another instance", zap.String("key", inboxLockKey))
			return nil
		}
		defer release()

		result, err = s.importInbox(ctx, run)
		return err
	})
	return result, err
}

// acquire takes the inbox lock when a locker is configured.
func (s *Scheduler) acquire(ctx context.Context) (func(), bool, error) {
	if s.locker == nil {
		return func() {}, true, nil
	}
	token, ok, err := s.locker.TryLock(ctx, inboxLockKey, s.cfg.Lock.TTL)
	if err != nil {
		return nil, false, fmt.Errorf("acquire inbox lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return func() {
		// the job context may already be done
		if err := s.locker.Release(context.Background(), inboxLockKey, token); err != nil {
			s.log.Warn("release inbox lock failed", zap.Error(err))
		}
	}, true, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context, run *jobRun) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run := s.startJobRun(ctx, name)
	s.logJobStart(ctx, run)
	s.metrics.IncJobRun(name)

	err := fn(ctx, run)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err != nil {
		run.errors++
	}
	s.logJobFinish(ctx, run)
	if err == nil {
		return nil
	}

	s.metrics.IncJobError(name, err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger(ctx).Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) importInbox(ctx context.Context, run *jobRun) (InboxResult, error) {
	var result InboxResult

	names, err := s.pendingFiles()
	if err != nil {
		return result, err
	}
	s.metrics.SetInboxBacklog(len(names))

	var errs error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ft, ok := ingestdomain.FileTypeFromName(name)
		if !ok {
			result.Skipped = append(result.Skipped, name)
			run.fileSkipped()
			s.logger(ctx).Debug("inbox file skipped", zap.String("file_name", name))
			continue
		}

		if err := s.importFile(ctx, ft, name); err != nil {
			if retryable(err) {
				result.Deferred = append(result.Deferred, name)
				s.logger(ctx).Warn("inbox file left for next run",
					zap.String("file_name", name),
					zap.String("reason", obsmetrics.ClassifyIngestReason(err)),
					zap.Error(err),
				)
				if ctxErr := ctx.Err(); ctxErr != nil {
					return result, errors.Join(errs, ctxErr)
				}
				continue
			}
			result.Failed = append(result.Failed, name)
			s.logFileFailure(ctx, run, name, err)
			if moveErr := s.move(name, failedDir); moveErr != nil {
				errs = errors.Join(errs, moveErr)
			}
			continue
		}

		run.fileImported()
		result.Processed = append(result.Processed, name)
		if err := s.move(name, processedDir); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return result, errs
}

// retryable reports errors that say nothing about the file itself.
func retryable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		db.IsLockTimeout(err) ||
		db.IsSerializationFailure(err)
}

func (s *Scheduler) importFile(ctx context.Context, ft ingestdomain.FileType, name string) error {
	f, err := os.Open(filepath.Join(s.cfg.Dir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := s.ingestSvc.Ingest(ctx, ingestdomain.IngestRequest{
		FileType: ft,
		FileName: name,
		Body:     f,
	})
	if err != nil {
		return err
	}
	s.logger(ctx).Info("inbox.file.ingested",
		zap.String("file_name", name),
		zap.String("file_type", string(ft)),
		zap.String("ingest_run_id", res.RunID.String()),
		zap.Int64("stored", res.Stored),
	)
	return nil
}

// pendingFiles lists regular, non-hidden files at the top of the inbox in name order.
func (s *Scheduler) pendingFiles() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// move relocates an inbox file into sub, suffixing a timestamp when the target already exists.
func (s *Scheduler) move(name, sub string) error {
	dir := filepath.Join(s.cfg.Dir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	target := filepath.Join(dir, name)
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		target = filepath.Join(dir, fmt.Sprintf("%s.%s%s", stem, s.clock.Now().Format("20060102T150405"), ext))
	}
	return os.Rename(filepath.Join(s.cfg.Dir, name), target)
}

// cronLogger routes cron's internal messages through zap.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw("cron."+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw("cron."+msg, append(keysAndValues, "error", err)...)
}
