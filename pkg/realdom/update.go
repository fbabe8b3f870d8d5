package realdom

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	rderrors "github.com/vango-dev/realdom/internal/errors"
	"github.com/vango-dev/realdom/pkg/dirty"
	"github.com/vango-dev/realdom/pkg/mask"
	"github.com/vango-dev/realdom/pkg/schedule"
	"github.com/vango-dev/realdom/pkg/state"
	"github.com/vango-dev/realdom/pkg/tree"
)

// PassReport describes one state's work in a cycle.
type PassReport struct {
	Name     string        `json:"name"`
	Nodes    int           `json:"nodes"`
	Changed  int           `json:"changed"`
	Duration time.Duration `json:"duration"`
}

// CycleReport describes one update cycle.
type CycleReport struct {
	Dom        string        `json:"dom"`
	Cycle      uint64        `json:"cycle"`
	DirtyNodes int           `json:"dirtyNodes"`
	Mutated    int           `json:"mutated"`
	Pending    int           `json:"pending"`
	Duration   time.Duration `json:"duration"`
	Passes     []PassReport  `json:"passes"`
}

// Recorder receives a report after every cycle. RecordCycle is called on
// the goroutine that called Update.
type Recorder interface {
	RecordCycle(CycleReport)
}

// Err returns the failure that poisoned the Dom, or nil.
func (d *Dom) Err() error { return d.poisoned }

// Pending returns the number of nodes with stale states.
func (d *Dom) Pending() int { return d.tracker.Pending() }

// Update runs one cycle: it recomputes every stale state on every node it
// is stale on, and returns the accumulated change masks of the nodes
// mutated since the previous cycle.
//
// ctx is used for tracing only; a cycle always runs to completion. A panic
// raised by a state is re-raised here, after which the Dom must not be
// used again.
func (d *Dom) Update(ctx context.Context, values *state.Values) map[tree.NodeID]mask.NodeMask {
	if d.poisoned != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(d.poisoned, "realdom: update after a failed cycle"))
	}
	d.cycle++
	start := time.Now()

	ctx, span := d.tracer.Start(ctx, "realdom.Update", trace.WithAttributes(
		attribute.String("realdom.dom", d.id.String()),
		attribute.Int64("realdom.cycle", int64(d.cycle)),
	))
	defer span.End()

	snap := d.tracker.Drain()
	queues := snap.Queues(d.tree)
	report := CycleReport{
		Dom:        d.id.String(),
		Cycle:      d.cycle,
		DirtyNodes: snap.Nodes(),
		Passes:     make([]PassReport, d.registry.Len()),
	}
	env := state.Env{Tree: d.tree, Store: d.store, Registry: d.registry, Values: values}

	err := d.registry.Plan().Run(context.WithoutCancel(ctx), d.workers, func(ctx context.Context, id state.TypeID) error {
		p, _ := d.registry.Lookup(id)
		return d.runPass(ctx, p, env, queues[p.Index()], snap, &report.Passes[p.Index()])
	})
	if err != nil {
		d.fail(span, err)
	}

	changed := make(map[tree.NodeID]mask.NodeMask, len(snap.Masks()))
	for id, m := range snap.Masks() {
		if d.tree.Contains(id) {
			changed[id] = m
		}
	}

	report.Mutated = len(changed)
	report.Pending = d.tracker.Pending()
	report.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("realdom.dirty_nodes", report.DirtyNodes),
		attribute.Int("realdom.pending", report.Pending),
	)
	d.logger.Debug("update cycle",
		"cycle", d.cycle,
		"dirty_nodes", report.DirtyNodes,
		"mutated", report.Mutated,
		"pending", report.Pending,
		"duration", report.Duration,
	)
	for _, r := range d.recorders {
		r.RecordCycle(report)
	}
	return changed
}

// fail poisons the Dom and re-raises the failure of a cycle.
func (d *Dom) fail(span trace.Span, err error) {
	d.poisoned = rderrors.New("E008").WithSubjects(d.id.String()).Wrap(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var pe *schedule.PanicError
	if errors.As(err, &pe) {
		d.logger.Error("state panicked", "cycle", d.cycle, "state", pe.Task, "panic", pe.Value, "stack", string(pe.Stack))
		panic(pe.Value)
	}
	d.logger.Error("update cycle failed", "cycle", d.cycle, "error", err)
	panic(errors.NewAssertionErrorWithWrappedErrf(err, "realdom: update cycle %d", d.cycle))
}

func (d *Dom) runPass(ctx context.Context, p *state.Descriptor, env state.Env, queue []dirty.Item, snap *dirty.Snapshot, rep *PassReport) error {
	rep.Name = p.Name()
	rep.Nodes = len(queue)
	if len(queue) == 0 {
		return nil
	}

	_, span := d.tracer.Start(ctx, "realdom.state", trace.WithAttributes(
		attribute.String("realdom.state", p.Name()),
		attribute.Int("realdom.nodes", len(queue)),
	))
	defer span.End()
	start := time.Now()

	run, err := p.Begin(env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer run.End()

	deps := p.Dependants()
	// Only directional states invalidate themselves, and only they need to
	// know which nodes they already visited this cycle.
	var visited map[tree.NodeID]struct{}
	if p.Direction() != state.DirectionNone {
		visited = make(map[tree.NodeID]struct{}, len(queue))
	}
	for _, it := range queue {
		changed := run.Compute(it.ID, it.Height)
		if visited != nil {
			visited[it.ID] = struct{}{}
		}
		if changed {
			rep.Changed++
			d.invalidate(p, deps, it.ID, snap, visited)
		}
	}

	rep.Duration = time.Since(start)
	span.SetAttributes(attribute.Int("realdom.changed", rep.Changed))
	return nil
}

// invalidate marks the dependants of p stale after p changed on id. A
// dependant still waiting to run on its target in this cycle will read the
// fresh value and is left alone; anything else is deferred to the next
// cycle.
func (d *Dom) invalidate(p *state.Descriptor, deps state.Dependants, id tree.NodeID, snap *dirty.Snapshot, visited map[tree.NodeID]struct{}) {
	mark := func(target tree.NodeID, dep state.Dependant) {
		if snap.Has(target, dep.Index) {
			if dep.Index != p.Index() {
				return
			}
			if _, done := visited[target]; !done {
				return
			}
		}
		d.tracker.MarkPass(target, dep.Index)
	}
	for _, dep := range deps.Parent {
		if parent, ok := d.tree.ParentAdvanced(id, dep.EnterShadow); ok {
			mark(parent, dep)
		}
	}
	for _, dep := range deps.Child {
		for _, c := range d.tree.ChildrenAdvanced(id, dep.EnterShadow) {
			mark(c, dep)
		}
	}
	for _, dep := range deps.Node {
		mark(id, dep)
	}
}

// Settle runs cycles until no state is stale or maxCycles cycles ran, and
// returns the union of their change masks and the number of cycles run.
func (d *Dom) Settle(ctx context.Context, values *state.Values, maxCycles int) (map[tree.NodeID]mask.NodeMask, int) {
	all := make(map[tree.NodeID]mask.NodeMask)
	n := 0
	for n < maxCycles && d.tracker.Pending() > 0 {
		for id, m := range d.Update(ctx, values) {
			all[id] = all[id].Union(m)
		}
		n++
	}
	for id := range all {
		if !d.tree.Contains(id) {
			delete(all, id)
		}
	}
	return all, n
}
