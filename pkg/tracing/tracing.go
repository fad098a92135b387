package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/tutor-orchestrator/server/internal/core"
)

// TracerName is the instrumentation scope used by the orchestration packages.
const TracerName = "github.com/tutor-orchestrator/server"

type Config struct {
	Enabled     bool    `envconfig:"OTEL_ENABLED" default:"false"`
	ServiceName string  `envconfig:"OTEL_SERVICE_NAME" default:"tutor-orchestrator"`
	SampleRatio float64 `envconfig:"OTEL_SAMPLER_RATIO" default:"1"`
	PrettyPrint bool    `envconfig:"OTEL_PRETTY_PRINT" default:"false"`
}

// Init installs a global tracer provider exporting to stdout. When tracing is
// disabled the global no-op provider is left in place and the returned shutdown
// is a no-op.
func Init(ctx context.Context, cfg Config, env core.Environment) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("deployment.environment", env.String()),
	))
	if err != nil {
		return nil, err
	}

	var opts []stdouttrace.Option
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, err
	}

	ratio := cfg.SampleRatio
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the shared orchestration tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
