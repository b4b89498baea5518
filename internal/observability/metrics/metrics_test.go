package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("file_type", "MC"),
		attribute.String("customer_id", "30045"),
		attribute.String("tag", "EKSTRIM"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "customer_id" {
			t.Fatalf("customer_id must not be used as a metric label")
		}
	}
}

func TestRecordersTolerateNilAndNoop(t *testing.T) {
	var nilMetrics *Metrics
	nilMetrics.RecordIngestFile(context.Background(), "MC", "success")
	nilMetrics.RecordAnomalyTags(context.Background(), map[string]int{"ZERO": 1})

	m, err := New(Config{ServiceName: "aquabill"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordIngestFile(context.Background(), "SBRS", "failed")
	m.RecordIngestRows(context.Background(), "SBRS", 10, 2)
	m.RecordAnomalyTags(context.Background(), map[string]int{"EKSTRIM": 3, "ZERO": 0})
	m.RecordReportRequest(context.Background(), "kpi")
}
