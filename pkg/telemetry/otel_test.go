package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// namingProvider remembers the tracer names it was asked for.
type namingProvider struct {
	noop.TracerProvider
	names []string
}

func (p *namingProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	p.names = append(p.names, name)
	return p.TracerProvider.Tracer(name, opts...)
}

func TestTracer(t *testing.T) {
	tests := []struct {
		name string
		opts []OTelOption
		want []string
	}{
		{"default name", nil, []string{"realdom"}},
		{"custom name", []OTelOption{WithTracerName("editor")}, []string{"editor"}},
		{"disabled skips the provider", []OTelOption{WithTracingDisabled(true)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &namingProvider{}
			tr := Tracer(append([]OTelOption{WithTracerProvider(p)}, tt.opts...)...)
			if tr == nil {
				t.Fatal("Tracer() returned nil")
			}
			if len(p.names) != len(tt.want) || (len(tt.want) > 0 && p.names[0] != tt.want[0]) {
				t.Errorf("provider asked for %v, want %v", p.names, tt.want)
			}
			_, span := tr.Start(context.Background(), "realdom.Update")
			defer span.End()
			if span.IsRecording() {
				t.Error("noop span should not record")
			}
		})
	}
}

func TestTracerGlobalProvider(t *testing.T) {
	if Tracer() == nil {
		t.Fatal("Tracer() returned nil")
	}
}
