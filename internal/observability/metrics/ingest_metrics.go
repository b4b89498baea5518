package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	ingestdomain "github.com/smallbiznis/aquabill/internal/ingest/domain"
	"github.com/smallbiznis/aquabill/pkg/db"
)

const (
	IngestReasonMissingColumn      = "missing_column"
	IngestReasonNoRowsAfterFilter  = "no_rows_after_filter"
	IngestReasonUnsupportedFormat  = "unsupported_format"
	IngestReasonInvalidPeriod      = "invalid_period"
	IngestReasonDeadlineExceeded   = "deadline_exceeded"
	IngestReasonUniqueViolation    = "unique_violation"
	IngestReasonDBLockTimeout      = "db_lock_timeout"
	IngestReasonSerializationIssue = "serialization_failure"
	IngestReasonUnknown            = "unknown"
)

// IngestMetrics captures ingestion and scheduled-import health signals.
type IngestMetrics struct {
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runErrors    *prometheus.CounterVec
	rowsStored   *prometheus.CounterVec
	rowsDropped  *prometheus.CounterVec
	jobRuns      *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	jobErrors    *prometheus.CounterVec
	inboxBacklog prometheus.Gauge
}

var (
	ingestMetricsOnce sync.Once
	ingestMetrics     *IngestMetrics
)

// IngestWithConfig returns the process-wide ingestion metrics on the default registerer.
func IngestWithConfig(cfg Config) *IngestMetrics {
	ingestMetricsOnce.Do(func() {
		ingestMetrics = newIngestMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return ingestMetrics
}

// NewIngestMetrics registers a fresh set of ingestion metrics on registerer.
func NewIngestMetrics(registerer prometheus.Registerer, cfg Config) *IngestMetrics {
	return newIngestMetrics(registerer, cfg)
}

func newIngestMetrics(registerer prometheus.Registerer, cfg Config) *IngestMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "aquabill"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &IngestMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "aquabill_ingest_runs_total",
			Help:        "Ingestion runs by file type and outcome.",
			ConstLabels: constLabels,
		}, []string{"file_type", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "aquabill_ingest_run_duration_seconds",
			Help:        "Time to read, normalize and persist one file.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			ConstLabels: constLabels,
		}, []string{"file_type"}),
		runErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "aquabill_ingest_errors_total",
			Help:        "Ingestion failures by low-cardinality reason.",
			ConstLabels: constLabels,
		}, []string{"file_type", "reason"}),
		rowsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "aquabill_ingest_rows_stored_total",
			Help:        "Canonical rows written, duplicates excluded.",
			ConstLabels: constLabels,
		}, []string{"file_type"}),
		rowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "aquabill_ingest_rows_dropped_total",
			Help:        "Rows dropped during normalization or filtering.",
			ConstLabels: constLabels,
		}, []string{"file_type"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "aquabill_scheduler_job_runs_total",
			Help:        "Scheduler job runs by name.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "aquabill_scheduler_job_duration_seconds",
			Help:        "Scheduler job latency.",
			Buckets:     []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600, 1800},
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "aquabill_scheduler_job_errors_total",
			Help:        "Scheduler job errors by reason.",
			ConstLabels: constLabels,
		}, []string{"job", "reason"}),
		inboxBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "aquabill_inbox_pending_files",
			Help:        "Files waiting in the ingestion inbox at the last scan.",
			ConstLabels: constLabels,
		}),
	}

	registerer.MustRegister(
		m.runs,
		m.runDuration,
		m.runErrors,
		m.rowsStored,
		m.rowsDropped,
		m.jobRuns,
		m.jobDuration,
		m.jobErrors,
		m.inboxBacklog,
	)
	return m
}

// ObserveRun records the outcome of one ingestion run.
func (m *IngestMetrics) ObserveRun(fileType string, duration time.Duration, stored, dropped int, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
		m.runErrors.WithLabelValues(fileType, ClassifyIngestReason(err)).Inc()
	}
	m.runs.WithLabelValues(fileType, status).Inc()
	m.runDuration.WithLabelValues(fileType).Observe(duration.Seconds())
	if stored > 0 {
		m.rowsStored.WithLabelValues(fileType).Add(float64(stored))
	}
	if dropped > 0 {
		m.rowsDropped.WithLabelValues(fileType).Add(float64(dropped))
	}
}

// IncJobRun increments the run counter for a scheduler job.
func (m *IngestMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

// ObserveJobDuration records scheduler job latency in seconds.
func (m *IngestMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// IncJobError increments the scheduler job error counter with classification.
func (m *IngestMetrics) IncJobError(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifyIngestReason(err)).Inc()
}

// SetInboxBacklog records how many files were found on the last inbox scan.
func (m *IngestMetrics) SetInboxBacklog(count int) {
	if m == nil {
		return
	}
	m.inboxBacklog.Set(float64(count))
}

// ClassifyIngestReason maps ingestion errors to low-cardinality reasons.
func ClassifyIngestReason(err error) string {
	switch {
	case err == nil:
		return IngestReasonUnknown
	case errors.Is(err, ingestdomain.ErrMissingRequiredColumn):
		return IngestReasonMissingColumn
	case errors.Is(err, ingestdomain.ErrNoRowsAfterFilter):
		return IngestReasonNoRowsAfterFilter
	case errors.Is(err, ingestdomain.ErrUnsupportedFormat), errors.Is(err, ingestdomain.ErrEmptyFile):
		return IngestReasonUnsupportedFormat
	case errors.Is(err, ingestdomain.ErrInvalidPeriod):
		return IngestReasonInvalidPeriod
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return IngestReasonDeadlineExceeded
	case db.IsDuplicateKeyErr(err):
		return IngestReasonUniqueViolation
	case db.IsLockTimeout(err):
		return IngestReasonDBLockTimeout
	case db.IsSerializationFailure(err):
		return IngestReasonSerializationIssue
	default:
		return IngestReasonUnknown
	}
}
