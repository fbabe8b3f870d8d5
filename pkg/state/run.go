package state

import (
	"github.com/cockroachdb/errors"

	"github.com/vango-dev/realdom/pkg/component"
	"github.com/vango-dev/realdom/pkg/node"
	"github.com/vango-dev/realdom/pkg/tree"
)

// Env is what a state run reads from.
type Env struct {
	Tree     *tree.Tree
	Store    *component.Store
	Registry *Registry
	Values   *Values
}

// Run holds the borrows one state needs while it computes a batch of nodes.
// A Run must be ended with End.
type Run struct {
	d        *Descriptor
	env      Env
	readers  map[TypeID]any
	payload  component.Reader[node.NodeType]
	compute  func(*Context) bool
	releases []func()
}

// Begin borrows the state's own table exclusively, and the tables of its
// dependencies and the node payloads shared.
func (d *Descriptor) Begin(env Env) (*Run, error) {
	r := &Run{d: d, env: env, readers: make(map[TypeID]any)}

	own, compute, release, err := d.ops.begin(env.Store)
	if err != nil {
		return nil, errors.Wrapf(err, "state %s", d.name)
	}
	r.releases = append(r.releases, release)
	r.readers[d.id] = own
	r.compute = compute

	for _, id := range d.dependsOn() {
		dep, ok := env.Registry.Lookup(id)
		if !ok {
			r.End()
			return nil, errors.Mark(errors.Newf("state %s: %s is not registered", d.name, id), ErrUnknownDependency)
		}
		reader, release, err := dep.ops.borrow(env.Store)
		if err != nil {
			r.End()
			return nil, errors.Wrapf(err, "state %s reading %s", d.name, dep.name)
		}
		r.releases = append(r.releases, release)
		r.readers[id] = reader
	}

	payload, err := component.Borrow[node.NodeType](env.Store)
	if err != nil {
		r.End()
		return nil, errors.Wrapf(err, "state %s reading node payloads", d.name)
	}
	r.releases = append(r.releases, payload.Release)
	r.payload = payload
	return r, nil
}

// Compute recomputes the state on id and reports whether it changed. A
// first computation always counts as a change.
func (r *Run) Compute(id tree.NodeID, height uint16) bool {
	return r.compute(&Context{run: r, id: id, height: height})
}

// End releases every borrow taken by Begin.
func (r *Run) End() {
	for i := len(r.releases) - 1; i >= 0; i-- {
		r.releases[i]()
	}
	r.releases = nil
}
