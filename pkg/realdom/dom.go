package realdom

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/realdom/pkg/component"
	"github.com/vango-dev/realdom/pkg/dirty"
	"github.com/vango-dev/realdom/pkg/node"
	"github.com/vango-dev/realdom/pkg/state"
	"github.com/vango-dev/realdom/pkg/tree"
)

const defaultTracerName = "realdom"

// Dom is the engine.
type Dom struct {
	id       uuid.UUID
	tree     *tree.Tree
	store    *component.Store
	registry *state.Registry
	tracker  *dirty.Tracker

	// listeners maps an event name to the nodes listening for it.
	listeners map[string]map[tree.NodeID]struct{}

	root   tree.NodeID
	nextID tree.NodeID

	workers   int
	logger    *slog.Logger
	tracer    trace.Tracer
	recorders []Recorder

	cycle    uint64
	poisoned error
}

// Option configures a Dom.
type Option func(*Dom)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dom) {
		d.logger = logger
	}
}

// WithTracer sets the tracer used for cycle and state spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dom) {
		d.tracer = tracer
	}
}

// WithRecorder adds a Recorder notified after every cycle.
func WithRecorder(r Recorder) Option {
	return func(d *Dom) {
		d.recorders = append(d.recorders, r)
	}
}

// WithWorkers limits how many states run at once. Zero means no limit.
func WithWorkers(n int) Option {
	return func(d *Dom) {
		d.workers = n
	}
}

// New creates a Dom computing the given states. The Dom starts with a
// single root element tagged node.RootTag.
func New(passes []*state.Descriptor, opts ...Option) (*Dom, error) {
	reg, err := state.Resolve(passes...)
	if err != nil {
		return nil, err
	}
	d := &Dom{
		id:        uuid.New(),
		tree:      tree.New(),
		store:     component.NewStore(),
		registry:  reg,
		tracker:   dirty.NewTracker(reg),
		listeners: make(map[string]map[tree.NodeID]struct{}),
		nextID:    1,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default().With("component", "realdom")
	}
	d.logger = d.logger.With("dom", d.id.String())
	if d.tracer == nil {
		d.tracer = otel.Tracer(defaultTracerName)
	}

	d.root = d.CreateNode(node.Element(node.RootTag)).ID()

	d.logger.Info("engine created",
		"states", reg.Len(),
		"stages", len(reg.Stages()),
	)
	return d, nil
}

// ID identifies this Dom in logs, spans and cycle reports.
func (d *Dom) ID() uuid.UUID { return d.id }

// Registry returns the resolved states.
func (d *Dom) Registry() *state.Registry { return d.registry }

// RootID returns the id of the root node.
func (d *Dom) RootID() tree.NodeID { return d.root }

// Contains reports whether id exists.
func (d *Dom) Contains(id tree.NodeID) bool { return d.tree.Contains(id) }

// Len returns the number of nodes, detached ones included.
func (d *Dom) Len() int { return d.tree.Len() }

// Cycle returns the number of update cycles run so far.
func (d *Dom) Cycle() uint64 { return d.cycle }

// CreateNode creates a detached node with the given payload. The node is
// stale for every state.
func (d *Dom) CreateNode(t node.NodeType) NodeMut {
	id := d.nextID
	d.nextID++

	t = t.Clone()
	d.tree.CreateNode(id)
	component.Insert(d.store, id, t)
	d.tracker.MarkCreated(id)
	for event := range t.Listeners {
		d.listen(id, event)
	}
	return NodeMut{NodeRef{id: id, dom: d}}
}

// Get returns a read-only handle to id.
func (d *Dom) Get(id tree.NodeID) (NodeRef, bool) {
	if !d.tree.Contains(id) {
		return NodeRef{}, false
	}
	return NodeRef{id: id, dom: d}, true
}

// GetMut returns a mutable handle to id.
func (d *Dom) GetMut(id tree.NodeID) (NodeMut, bool) {
	r, ok := d.Get(id)
	return NodeMut{r}, ok
}

func (d *Dom) listen(id tree.NodeID, event string) {
	set, ok := d.listeners[event]
	if !ok {
		set = make(map[tree.NodeID]struct{})
		d.listeners[event] = set
	}
	set[id] = struct{}{}
}

func (d *Dom) unlisten(id tree.NodeID, event string) {
	set, ok := d.listeners[event]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(d.listeners, event)
	}
}

// IsNodeListening reports whether id listens for event.
func (d *Dom) IsNodeListening(id tree.NodeID, event string) bool {
	_, ok := d.listeners[event][id]
	return ok
}

// GetListeners returns the nodes listening for event, ordered by id.
func (d *Dom) GetListeners(event string) []NodeRef {
	ids := slices.Collect(maps.Keys(d.listeners[event]))
	slices.SortFunc(ids, cmp.Compare[tree.NodeID])
	out := make([]NodeRef, len(ids))
	for i, id := range ids {
		out[i] = NodeRef{id: id, dom: d}
	}
	return out
}

// Events returns the events at least one node listens for, sorted.
func (d *Dom) Events() []string {
	events := slices.Collect(maps.Keys(d.listeners))
	slices.Sort(events)
	return events
}

// TraverseDepthFirst calls fn on every node reachable from the root, in
// pre-order.
func (d *Dom) TraverseDepthFirst(fn func(NodeRef)) {
	d.TraverseDepthFirstAdvanced(func(r NodeRef) bool {
		fn(r)
		return true
	})
}

// TraverseDepthFirstAdvanced is TraverseDepthFirst, except that the
// children of a node are skipped when fn returns false for it.
func (d *Dom) TraverseDepthFirstAdvanced(fn func(NodeRef) bool) {
	stack := []tree.NodeID{d.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		r, ok := d.Get(id)
		if !ok || !fn(r) {
			continue
		}
		children := d.tree.Children(id)
		slices.Reverse(children)
		stack = append(stack, children...)
	}
}

// DeepCloneNode copies id and its subtree. The copy is detached and stale
// for every state. It reports false if id does not exist.
func (d *Dom) DeepCloneNode(id tree.NodeID) (tree.NodeID, bool) {
	r, ok := d.Get(id)
	if !ok {
		return tree.NoNode, false
	}
	clone := d.CreateNode(r.Type())
	for _, c := range d.tree.Children(id) {
		cc, _ := d.DeepCloneNode(c)
		clone.AddChild(cc)
	}
	return clone.ID(), true
}
