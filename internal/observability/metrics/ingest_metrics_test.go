package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	ingestdomain "github.com/smallbiznis/aquabill/internal/ingest/domain"
	"gorm.io/gorm"
)

func TestClassifyIngestReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "missing_column",
			err:  &ingestdomain.MissingRequiredColumnError{FileType: ingestdomain.FileTypeMC, Columns: []string{"zone_code"}},
			want: IngestReasonMissingColumn,
		},
		{
			name: "no_rows",
			err:  fmt.Errorf("process: %w", &ingestdomain.NoRowsAfterFilterError{FileType: ingestdomain.FileTypeMC}),
			want: IngestReasonNoRowsAfterFilter,
		},
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: IngestReasonDeadlineExceeded,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: IngestReasonDBLockTimeout,
		},
		{
			name: "unique_violation",
			err:  gorm.ErrDuplicatedKey,
			want: IngestReasonUniqueViolation,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: IngestReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyIngestReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestObserveRun(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newIngestMetrics(registry, Config{
		ServiceName: "aquabill",
		Environment: "test",
	})

	m.ObserveRun("COLLECTION", time.Second, 3, 1, nil)
	m.ObserveRun("MC", time.Second, 0, 0, &ingestdomain.NoRowsAfterFilterError{FileType: ingestdomain.FileTypeMC})

	if got := testutil.ToFloat64(m.rowsStored.WithLabelValues("COLLECTION")); got != 3 {
		t.Fatalf("expected stored count 3, got %v", got)
	}
	if got := testutil.ToFloat64(m.rowsDropped.WithLabelValues("COLLECTION")); got != 1 {
		t.Fatalf("expected dropped count 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("MC", "failed")); got != 1 {
		t.Fatalf("expected 1 failed MC run, got %v", got)
	}
	if got := testutil.ToFloat64(m.runErrors.WithLabelValues("MC", IngestReasonNoRowsAfterFilter)); got != 1 {
		t.Fatalf("expected 1 no_rows error, got %v", got)
	}
}
