package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/aquabill/internal/clock"
	"github.com/smallbiznis/aquabill/internal/derive"
	"github.com/smallbiznis/aquabill/internal/ingest/domain"
	"github.com/smallbiznis/aquabill/internal/ingest/processor"
	"github.com/smallbiznis/aquabill/internal/normalize"
	obscontext "github.com/smallbiznis/aquabill/internal/observability/context"
	"github.com/smallbiznis/aquabill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/aquabill/internal/observability/metrics"
	"github.com/smallbiznis/aquabill/internal/observability/tracing"
	"github.com/smallbiznis/aquabill/internal/tabular"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxRunErrorLength = 1024

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          domain.Repository
	Clock         clock.Clock                `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics        `optional:"true"`
	IngestMetrics *obsmetrics.IngestMetrics `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock

	obsMetrics    *obsmetrics.Metrics
	ingestMetrics *obsmetrics.IngestMetrics
}

func NewService(p ServiceParam) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("ingest.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		clock:         c,
		obsMetrics:    p.ObsMetrics,
		ingestMetrics: p.IngestMetrics,
	}
}

// Ingest reads one file, prepares its rows and persists them atomically.
// Any failure leaves the canonical tables untouched and is recorded as a failed run.
func (s *Service) Ingest(ctx context.Context, req domain.IngestRequest) (domain.IngestResult, error) {
	proc, err := processor.For(req.FileType)
	if err != nil {
		return domain.IngestResult{}, err
	}
	fileName := strings.TrimSpace(req.FileName)
	if req.Body == nil || fileName == "" {
		return domain.IngestResult{}, domain.ErrInvalidRequest
	}

	start := time.Now()
	runID := s.genID.Generate()
	ctx = obscontext.WithRunID(ctx, runID.String())
	ctx, span := otel.Tracer("aquabill/ingest").Start(ctx, "ingest.file")
	defer span.End()
	span.SetAttributes(
		attribute.String("ingest.file_type", string(req.FileType)),
		attribute.String("ingest.run_id", runID.String()),
	)

	log := logger.WithIngest(logger.WithContext(ctx, s.log), string(req.FileType), fileName)

	result := domain.IngestResult{
		RunID:    runID,
		FileType: req.FileType,
		FileName: fileName,
		Mode:     proc.Mode(),
	}

	res, err := s.ingest(ctx, proc, req, result)
	duration := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, tracing.SafeError(err).Error())
		s.recordFailure(ctx, log, res, err)
		s.obsMetrics.RecordIngestFile(ctx, string(req.FileType), string(domain.RunStatusFailed))
		s.ingestMetrics.ObserveRun(string(req.FileType), duration, 0, res.Dropped, err)
		log.Warn("ingestion failed", zap.Error(err), zap.Duration("duration", duration))
		return domain.IngestResult{}, err
	}

	s.obsMetrics.RecordIngestFile(ctx, string(req.FileType), string(domain.RunStatusSuccess))
	s.obsMetrics.RecordIngestRows(ctx, string(req.FileType), int(res.Stored), res.Dropped)
	s.ingestMetrics.ObserveRun(string(req.FileType), duration, int(res.Stored), res.Dropped, nil)
	span.SetAttributes(attribute.Int64("ingest.rows_stored", res.Stored))

	log.Info("ingestion completed",
		zap.String("period", derive.Period{Month: res.PeriodeBulan, Year: res.PeriodeTahun}.Label()),
		zap.String("period_source", res.PeriodSource),
		zap.Int("rows", res.RowCount),
		zap.Int64("stored", res.Stored),
		zap.Int64("duplicates", res.Duplicates),
		zap.Int("dropped", res.Dropped),
		zap.Duration("duration", duration),
	)
	return res, nil
}

func (s *Service) ingest(ctx context.Context, proc processor.Processor, req domain.IngestRequest, res domain.IngestResult) (domain.IngestResult, error) {
	tbl, err := tabular.Read(res.FileName, req.Body)
	if err != nil {
		return res, err
	}
	res.RowCount = tbl.Len()

	period, source, err := s.resolvePeriod(req, tbl)
	if err != nil {
		return res, err
	}
	res.PeriodeBulan, res.PeriodeTahun, res.PeriodSource = period.Month, period.Year, source

	batch, err := proc.Prepare(tbl, processor.NewStamp(s.genID, res.RunID, period, s.clock.Now()))
	if err != nil {
		return res, err
	}
	res.Dropped = batch.Dropped
	res.Columns = batch.Sources

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored int64
		var err error
		switch batch.Mode {
		case domain.WriteReplace:
			stored, err = s.repo.Replace(ctx, tx, batch)
		default:
			stored, err = s.repo.Append(ctx, tx, batch)
		}
		if err != nil {
			return err
		}
		res.Stored = stored
		res.Duplicates = int64(batch.Len()) - stored

		return s.repo.InsertRun(ctx, tx, s.newRun(res, domain.RunStatusSuccess, nil))
	})
	if err != nil {
		res.Stored, res.Duplicates = 0, 0
		return res, fmt.Errorf("persist %s: %w", proc.FileType(), err)
	}
	return res, nil
}

func (s *Service) resolvePeriod(req domain.IngestRequest, tbl *tabular.Table) (derive.Period, string, error) {
	if req.Period != nil {
		if err := req.Period.Validate(); err != nil {
			return derive.Period{}, "", err
		}
		return *req.Period, domain.PeriodSourceRequest, nil
	}
	p, source := DetectPeriod(req.FileType, req.FileName, tbl, s.clock.Now())
	return p, source, nil
}

func (s *Service) newRun(res domain.IngestResult, status domain.RunStatus, cause error) *domain.UploadRun {
	run := &domain.UploadRun{
		ID:            res.RunID,
		FileType:      res.FileType,
		FileName:      res.FileName,
		PeriodeBulan:  res.PeriodeBulan,
		PeriodeTahun:  res.PeriodeTahun,
		PeriodSource:  res.PeriodSource,
		RowCount:      res.RowCount,
		InsertedCount: res.Stored,
		DroppedCount:  res.Dropped,
		Status:        status,
		CreatedAt:     s.clock.Now(),
	}
	meta := datatypes.JSONMap{"mode": string(res.Mode)}
	if len(res.Columns) > 0 {
		columns := make(map[string]any, len(res.Columns))
		for k, v := range res.Columns {
			columns[k] = v
		}
		meta["columns"] = columns
	}
	if res.Duplicates > 0 {
		meta["duplicates"] = res.Duplicates
	}
	var missing *domain.MissingRequiredColumnError
	if errors.As(cause, &missing) {
		meta["missing_columns"] = missing.Columns
	}
	run.Meta = meta
	if cause != nil {
		msg := cause.Error()
		if len(msg) > maxRunErrorLength {
			msg = msg[:maxRunErrorLength]
		}
		run.Error = msg
	}
	return run
}

func (s *Service) recordFailure(ctx context.Context, log *zap.Logger, res domain.IngestResult, cause error) {
	res.Stored, res.Duplicates = 0, 0
	if err := s.repo.InsertRun(ctx, s.db, s.newRun(res, domain.RunStatusFailed, cause)); err != nil {
		log.Error("failed to record failed run", zap.Error(err))
	}
}

func (s *Service) ListRuns(ctx context.Context, filter domain.RunFilter) ([]*domain.UploadRun, error) {
	if filter.FileType != "" {
		if _, err := processor.For(filter.FileType); err != nil {
			return nil, err
		}
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.ListRuns(ctx, s.db, filter)
}

func (s *Service) GetRun(ctx context.Context, id string) (*domain.UploadRun, error) {
	runID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || runID == 0 {
		return nil, domain.ErrRunNotFound
	}
	return s.repo.GetRun(ctx, s.db, runID.Int64())
}

func (s *Service) GetRecords(ctx context.Context, q domain.RecordQuery) (domain.RecordPage, error) {
	if _, err := processor.For(q.FileType); err != nil {
		return domain.RecordPage{}, domain.ErrUnknownEntity
	}
	if err := q.Period.Validate(); err != nil {
		return domain.RecordPage{}, err
	}
	if q.Limit <= 0 || q.Limit > 1000 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if strings.TrimSpace(q.CustomerID) != "" {
		id, ok := normalize.CustomerID(q.CustomerID)
		if !ok {
			return domain.RecordPage{}, domain.ErrInvalidRequest
		}
		q.CustomerID = id
	}

	rows, total, err := s.repo.FindRecords(ctx, s.db, q)
	if err != nil {
		return domain.RecordPage{}, err
	}
	return domain.RecordPage{
		Entity:       q.FileType,
		PeriodeBulan: q.Period.Month,
		PeriodeTahun: q.Period.Year,
		Total:        total,
		Records:      rows,
	}, nil
}
