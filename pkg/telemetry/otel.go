package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Default tracer name for realdom engines.
const defaultTracerName = "realdom"

// OTelConfig configures the tracer handed to the engine.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "realdom").
	TracerName string

	// Provider resolves the tracer. If nil, the global provider is used.
	Provider trace.TracerProvider

	// Disabled returns a tracer that records nothing.
	Disabled bool
}

// OTelOption configures the tracer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the provider the tracer is resolved from.
func WithTracerProvider(p trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.Provider = p
	}
}

// WithTracingDisabled turns tracing off.
func WithTracingDisabled(disabled bool) OTelOption {
	return func(c *OTelConfig) {
		c.Disabled = disabled
	}
}

// Tracer resolves the tracer for realdom.WithTracer.
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// given. Configure it in your main() before creating engines:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func Tracer(opts ...OTelOption) trace.Tracer {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Disabled {
		return noop.NewTracerProvider().Tracer(config.TracerName)
	}
	if config.Provider == nil {
		return otel.Tracer(config.TracerName)
	}
	return config.Provider.Tracer(config.TracerName)
}
