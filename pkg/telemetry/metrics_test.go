package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/realdom/pkg/node"
	"github.com/vango-dev/realdom/pkg/realdom"
	"github.com/vango-dev/realdom/pkg/states"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordCycle(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	m.RecordCycle(realdom.CycleReport{
		Cycle:      1,
		DirtyNodes: 3,
		Pending:    2,
		Duration:   time.Millisecond,
		Passes: []realdom.PassReport{
			{Name: "size", Nodes: 3, Changed: 2, Duration: time.Microsecond},
			{Name: "color"},
		},
	})
	m.RecordCycle(realdom.CycleReport{
		Cycle:  2,
		Passes: []realdom.PassReport{{Name: "size", Nodes: 1, Changed: 0}},
	})

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"cycles_total", metricCounterValue(t, m.cycles), 2},
		{"pending_nodes", metricGaugeValue(t, m.pending), 0},
		{"pass_nodes_total{size}", metricCounterValue(t, m.passNodes.WithLabelValues("size")), 4},
		{"pass_changed_total{size}", metricCounterValue(t, m.passChanged.WithLabelValues("size")), 2},
		{"pass_nodes_total{color}", metricCounterValue(t, m.passNodes.WithLabelValues("color")), 0},
		{"cycle_duration_seconds count", float64(metricHistogramCount(t, m.cycleDuration)), 2},
		{"dirty_nodes count", float64(metricHistogramCount(t, m.dirtyNodes)), 2},
		{"pass_duration_seconds{size} count", float64(metricHistogramCount(t, m.passDuration.WithLabelValues("size"))), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestMetricNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(
		WithRegistry(reg),
		WithNamespace("editor"),
		WithSubsystem("dom"),
		WithConstLabels(prometheus.Labels{"instance": "a"}),
		WithBuckets([]float64{0.001, 0.01}),
	)
	m.RecordCycle(realdom.CycleReport{Passes: []realdom.PassReport{{Name: "size", Nodes: 1}}})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	got := map[string]bool{}
	for _, f := range families {
		got[f.GetName()] = true
		for _, metric := range f.GetMetric() {
			found := false
			for _, l := range metric.GetLabel() {
				if l.GetName() == "instance" && l.GetValue() == "a" {
					found = true
				}
			}
			if !found {
				t.Errorf("%s lacks the constant label", f.GetName())
			}
		}
	}
	for _, name := range []string{
		"editor_dom_cycles_total",
		"editor_dom_cycle_duration_seconds",
		"editor_dom_dirty_nodes",
		"editor_dom_pending_nodes",
		"editor_dom_pass_nodes_total",
		"editor_dom_pass_changed_total",
		"editor_dom_pass_duration_seconds",
	} {
		if !got[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestMetricsAsRecorder(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	d, err := realdom.New(states.All(),
		realdom.WithRecorder(m),
		realdom.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatal(err)
	}
	root, _ := d.GetMut(d.RootID())
	root.AddChild(d.CreateNode(node.Text("hello")).ID())
	_, cycles := d.Settle(context.Background(), nil, 8)

	if got := metricCounterValue(t, m.cycles); got != float64(cycles) {
		t.Errorf("cycles_total = %v, want %d", got, cycles)
	}
	if got := metricCounterValue(t, m.passNodes.WithLabelValues("size")); got < 2 {
		t.Errorf("pass_nodes_total{size} = %v, want at least 2", got)
	}
}
