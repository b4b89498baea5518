package observability

import (
	"github.com/smallbiznis/aquabill/internal/observability/logger"
	"github.com/smallbiznis/aquabill/internal/observability/metrics"
	"github.com/smallbiznis/aquabill/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module wires zap, the otel tracer and meter providers, and the prometheus
// collectors served on /metrics.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.LoggerConfig,
		Config.TracingConfig,
		Config.MetricsConfig,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		provideIngestMetrics,
	),
	// the tracer provider installs itself globally; nothing else depends on it
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func provideIngestMetrics(cfg metrics.Config) *metrics.IngestMetrics {
	return metrics.IngestWithConfig(cfg)
}
