package observability

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"support-workers/internal/common/config"
)

// EnableTracing installs a global tracer provider exporting to Jaeger.
// An empty endpoint leaves the no-op provider in place.
func (o *Observability) EnableTracing(cfg config.TracingConfig) error {
	if cfg.JaegerEndpoint == "" {
		return nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return fmt.Errorf("create jaeger exporter: %w", err)
	}

	o.installTracerProvider(sdktrace.WithBatcher(exporter), sdktrace.WithSampler(Sampler(cfg.SampleRatio)))
	return nil
}

func (o *Observability) installTracerProvider(opts ...sdktrace.TracerProviderOption) {
	res := resource.NewSchemaless(attribute.String("service.name", o.serviceName))
	opts = append(opts, sdktrace.WithResource(res))

	o.tracerProvider = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(o.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Sampler samples everything for ratios outside (0, 1).
func Sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// Tracer returns the process-wide tracer for job handlers.
func Tracer() trace.Tracer {
	return otel.Tracer("support-workers")
}
