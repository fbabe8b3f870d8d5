package state

import (
	"slices"

	rderrors "github.com/vango-dev/realdom/internal/errors"
	"github.com/vango-dev/realdom/pkg/schedule"
)

// Registry is a resolved, fixed set of states.
type Registry struct {
	passes []*Descriptor
	byID   map[TypeID]*Descriptor
	plan   *schedule.Plan[TypeID]
}

// Resolve validates passes, builds the dependants graph and compiles the
// execution plan. The given descriptors are not modified; Resolve works on
// copies, so resolving the same descriptors twice yields the same graph.
func Resolve(passes ...*Descriptor) (*Registry, error) {
	r := &Registry{byID: make(map[TypeID]*Descriptor, len(passes))}
	for _, p := range passes {
		if p.err != nil {
			return nil, p.err
		}
		if prev, ok := r.byID[p.id]; ok {
			return nil, rderrors.New("E003").
				WithSubjects(prev.name).
				WithDetailf("%s is registered twice", prev.name).
				WithSuggestion("Register every state type once")
		}
		c := p.clone()
		c.index = len(r.passes)
		r.passes = append(r.passes, c)
		r.byID[c.id] = c
	}

	for _, a := range r.passes {
		if slices.Contains(a.nodeDeps, a.id) {
			return nil, rderrors.New("E001").
				WithSubjects(a.name).
				WithDetailf("%s depends on itself on the same node", a.name).
				Wrap(schedule.ErrCycle)
		}
		edges := []struct {
			deps []TypeID
			list func(*Descriptor) *[]Dependant
		}{
			// A reads B on the parent: when B changes, A is stale on the children.
			{a.parentDeps, func(b *Descriptor) *[]Dependant { return &b.dependants.Child }},
			// A reads B on the children: when B changes, A is stale on the parent.
			{a.childDeps, func(b *Descriptor) *[]Dependant { return &b.dependants.Parent }},
			{a.nodeDeps, func(b *Descriptor) *[]Dependant { return &b.dependants.Node }},
		}
		for _, e := range edges {
			for _, dep := range e.deps {
				b, ok := r.byID[dep]
				if !ok {
					return nil, rderrors.New("E002").
						WithSubjects(a.name, dep.String()).
						WithDetailf("%s depends on %s, which is not registered", a.name, dep).
						WithSuggestion("Pass every state a state depends on to the engine").
						Wrap(ErrUnknownDependency)
				}
				addDependant(e.list(b), Dependant{ID: a.id, Index: a.index, EnterShadow: a.enterShadow})
			}
		}
	}

	g := schedule.NewGraph[TypeID]()
	for _, p := range r.passes {
		g.Add(p.id, p.dependsOn()...)
	}
	plan, err := g.Build()
	if err != nil {
		return nil, rderrors.New("E001").
			WithDetail(err.Error()).
			WithSuggestion("Remove one of the dependencies that closes the cycle").
			Wrap(err)
	}
	r.plan = plan
	return r, nil
}

func addDependant(list *[]Dependant, d Dependant) {
	if slices.ContainsFunc(*list, func(x Dependant) bool { return x.ID == d.ID }) {
		return
	}
	*list = append(*list, d)
}

// Len returns the number of states.
func (r *Registry) Len() int { return len(r.passes) }

// Passes returns the states in registration order.
func (r *Registry) Passes() []*Descriptor { return slices.Clone(r.passes) }

// At returns the state with the given index.
func (r *Registry) At(index int) *Descriptor { return r.passes[index] }

// Lookup returns the state with the given type.
func (r *Registry) Lookup(id TypeID) (*Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Plan returns the compiled execution plan.
func (r *Registry) Plan() *schedule.Plan[TypeID] { return r.plan }

// Stages returns state names grouped by execution stage.
func (r *Registry) Stages() [][]string {
	stages := r.plan.Stages()
	out := make([][]string, len(stages))
	for i, stage := range stages {
		for _, id := range stage {
			out[i] = append(out[i], r.byID[id].name)
		}
	}
	return out
}
