package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	ingestFiles    metric.Int64Counter
	ingestRows     metric.Int64Counter
	droppedRows    metric.Int64Counter
	anomalyTags    metric.Int64Counter
	reportRequests metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "aquabill"
	}
	meter := provider.Meter(name)

	ingestFiles, err := meter.Int64Counter("aquabill_ingest_files_total")
	if err != nil {
		return nil, err
	}
	ingestRows, err := meter.Int64Counter("aquabill_ingest_rows_total")
	if err != nil {
		return nil, err
	}
	droppedRows, err := meter.Int64Counter("aquabill_ingest_dropped_rows_total")
	if err != nil {
		return nil, err
	}
	anomalyTags, err := meter.Int64Counter("aquabill_anomaly_tags_total")
	if err != nil {
		return nil, err
	}
	reportRequests, err := meter.Int64Counter("aquabill_report_requests_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ingestFiles:    ingestFiles,
		ingestRows:     ingestRows,
		droppedRows:    droppedRows,
		anomalyTags:    anomalyTags,
		reportRequests: reportRequests,
	}, nil
}

// RecordIngestFile counts one processed file by type and outcome.
func (m *Metrics) RecordIngestFile(ctx context.Context, fileType, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("file_type", strings.TrimSpace(fileType)),
		attribute.String("status", strings.TrimSpace(status)),
	)
	m.ingestFiles.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordIngestRows adds stored and dropped row counts for a file type.
func (m *Metrics) RecordIngestRows(ctx context.Context, fileType string, stored, dropped int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("file_type", strings.TrimSpace(fileType)))
	if stored > 0 {
		m.ingestRows.Add(ctx, int64(stored), metric.WithAttributes(attrs...))
	}
	if dropped > 0 {
		m.droppedRows.Add(ctx, int64(dropped), metric.WithAttributes(attrs...))
	}
}

// RecordAnomalyTags counts classifier tags per tag code.
func (m *Metrics) RecordAnomalyTags(ctx context.Context, counts map[string]int) {
	if m == nil {
		return
	}
	for tag, count := range counts {
		if count <= 0 {
			continue
		}
		attrs := FilterAttributes(attribute.String("tag", tag))
		m.anomalyTags.Add(ctx, int64(count), metric.WithAttributes(attrs...))
	}
}

// RecordReportRequest counts report queries by report name.
func (m *Metrics) RecordReportRequest(ctx context.Context, report string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("report", strings.TrimSpace(report)))
	m.reportRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"file_type":   {},
	"status":      {},
	"tag":         {},
	"report":      {},
	"endpoint":    {},
	"status_code": {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
