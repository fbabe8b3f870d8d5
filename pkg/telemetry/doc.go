// Package telemetry exports realdom update cycles to Prometheus and resolves
// the OpenTelemetry tracer the engine opens its spans on.
//
// Metrics is a realdom.Recorder:
//
//	m := telemetry.NewMetrics(telemetry.WithNamespace("editor"))
//	dom, err := realdom.New(states.All(),
//	    realdom.WithRecorder(m),
//	    realdom.WithTracer(telemetry.Tracer(telemetry.WithTracerName("editor"))),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
//
// Metrics collected (with the default namespace):
//   - realdom_cycles_total: Counter of update cycles
//   - realdom_cycle_duration_seconds: Histogram of cycle duration
//   - realdom_dirty_nodes: Histogram of nodes stale at the start of a cycle
//   - realdom_pending_nodes: Gauge of nodes left stale after the last cycle
//   - realdom_pass_nodes_total: Counter of computations by state
//   - realdom_pass_changed_total: Counter of computations that changed a value, by state
//   - realdom_pass_duration_seconds: Histogram of per-state duration, by state
package telemetry
